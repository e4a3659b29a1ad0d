package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/yungbote/formationvault-backend/internal/domain/formation"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("generate: %w", formation.ErrUnsupportedEntityKind), http.StatusUnprocessableEntity, "invalid_input"},
		{formation.ErrTemplateMissing, http.StatusUnprocessableEntity, "invalid_input"},
		{&formation.RenderingServiceError{Status: 503, Body: "down"}, http.StatusBadGateway, "document_service_unavailable"},
		{fmt.Errorf("fetch: %w", formation.ErrRecordNotFound), http.StatusNotFound, "not_found"},
		{formation.ErrDocumentNotFound, http.StatusNotFound, "not_found"},
		{formation.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
		{formation.ErrInvalidPath, http.StatusBadRequest, "invalid_path"},
		{fmt.Errorf("create vault: %w", formation.ErrVaultConflict), http.StatusConflict, "conflict"},
	}
	for _, tc := range cases {
		ae := Classify(tc.err)
		if ae == nil {
			t.Fatalf("Classify(%v): want=%d got=nil", tc.err, tc.status)
		}
		if ae.Status != tc.status || ae.Code != tc.code {
			t.Fatalf("Classify(%v): want=%d/%s got=%d/%s", tc.err, tc.status, tc.code, ae.Status, ae.Code)
		}
	}
	if ae := Classify(errors.New("boom")); ae != nil {
		t.Fatalf("Classify(boom): want=nil got=%+v", ae)
	}
}
