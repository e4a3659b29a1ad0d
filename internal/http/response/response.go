package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formationvault-backend/internal/domain/formation"
	"github.com/yungbote/formationvault-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondDomainError maps formation errors onto status codes. Unmapped errors
// become a 500 with fallbackCode.
func RespondDomainError(c *gin.Context, fallbackCode string, err error) {
	ae := Classify(err)
	if ae == nil {
		RespondError(c, http.StatusInternalServerError, fallbackCode, err)
		return
	}
	RespondError(c, ae.Status, ae.Code, err)
}

func Classify(err error) *apierr.Error {
	if err == nil {
		return nil
	}
	if ae, ok := apierr.As(err); ok {
		return ae
	}
	switch {
	case formation.IsValidationError(err):
		return apierr.New(http.StatusUnprocessableEntity, "invalid_input", err)
	case formation.IsRenderingError(err):
		return apierr.New(http.StatusBadGateway, "document_service_unavailable", err)
	case errors.Is(err, formation.ErrRecordNotFound), errors.Is(err, formation.ErrDocumentNotFound):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, formation.ErrUnauthorized):
		return apierr.New(http.StatusForbidden, "unauthorized", err)
	case errors.Is(err, formation.ErrInvalidPath):
		return apierr.New(http.StatusBadRequest, "invalid_path", err)
	case errors.Is(err, formation.ErrVaultConflict):
		return apierr.New(http.StatusConflict, "conflict", err)
	}
	return nil
}
