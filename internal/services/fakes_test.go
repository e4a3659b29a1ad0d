package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/formationvault-backend/internal/clients/convert"
	"github.com/yungbote/formationvault-backend/internal/clients/render"
	"github.com/yungbote/formationvault-backend/internal/data/repos"
	"github.com/yungbote/formationvault-backend/internal/data/repos/testutil"
	"github.com/yungbote/formationvault-backend/internal/domain/formation"
	"github.com/yungbote/formationvault-backend/internal/modules/formation/templates"
	"github.com/yungbote/formationvault-backend/internal/platform/dbctx"
	"github.com/yungbote/formationvault-backend/internal/platform/gcp"
)

type stubRecordStore struct {
	mu      sync.Mutex
	records map[string]formation.Fields
	updates map[string]map[string]any
	failUpd error
}

func newStubRecordStore() *stubRecordStore {
	return &stubRecordStore{records: map[string]formation.Fields{}, updates: map[string]map[string]any{}}
}

func (s *stubRecordStore) Fetch(_ context.Context, id string) (*formation.SourceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.records[id]
	if !ok {
		return nil, formation.ErrRecordNotFound
	}
	cp := formation.Fields{}
	for k, v := range f {
		cp[k] = v
	}
	return formation.NewSourceRecord(id, cp), nil
}

func (s *stubRecordStore) Update(_ context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpd != nil {
		return s.failUpd
	}
	if s.updates[id] == nil {
		s.updates[id] = map[string]any{}
	}
	for k, v := range fields {
		s.updates[id][k] = v
		if rec, ok := s.records[id]; ok {
			rec[k] = v
		}
	}
	return nil
}

func (s *stubRecordStore) updated(id, field string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.updates[id][field]
	return v, ok
}

type stubRenderer struct {
	mu       sync.Mutex
	calls    []render.Request
	body     func(call int) []byte
	format   string
	uploaded string
	err      error
}

func (r *stubRenderer) Render(_ context.Context, req render.Request) (*render.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, req)
	if r.err != nil {
		return nil, r.err
	}
	if r.uploaded != "" {
		return &render.Result{UploadedKey: r.uploaded, Format: r.format}, nil
	}
	body := []byte("PK\x03\x04docx")
	if strings.HasSuffix(req.TemplatePath, ".pdf") {
		body = []byte("%PDF-1.4 form")
	}
	if r.body != nil {
		body = r.body(len(r.calls))
	}
	return &render.Result{Bytes: body, Format: r.format}, nil
}

func (r *stubRenderer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type stubConverter struct {
	out []byte
	err error
}

func (c *stubConverter) Supports(from, to string) bool {
	return from == render.FormatDOCX && to == render.FormatPDF
}

func (c *stubConverter) Convert(_ context.Context, in convert.Input) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.out, nil
}

var errConverterDown = errors.New("converter down")

type harness struct {
	records  *stubRecordStore
	renderer *stubRenderer
	bucket   *gcp.MemoryBucketService
	ledger   repos.LedgerRepo
	logs     repos.AccessLogRepo
	vaults   VaultService
	access   DocumentAccessService
	gen      GenerationService
}

func newHarness(t *testing.T, converter convert.Converter) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	catalog, err := templates.LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	h := &harness{
		records:  newStubRecordStore(),
		renderer: &stubRenderer{},
		bucket:   gcp.NewMemoryBucketService(),
		ledger:   repos.NewLedgerRepo(db, log),
	}
	vaultRepo := repos.NewCompanyVaultRepo(db, log)
	h.vaults = NewVaultService(log, vaultRepo, h.records)
	h.logs = repos.NewAccessLogRepo(db, log)
	auditor := NewDocumentAuditor(log, h.logs, nil, nil)
	h.access = NewDocumentAccessService(log, h.ledger, h.vaults, h.bucket, converter, auditor)
	reconciler := NewReconciler(log, h.ledger, h.records, "https://app.example.com", nil)
	h.gen = NewGenerationService(log, h.records, templates.NewSelector(catalog), h.renderer, converter,
		h.bucket, h.vaults, reconciler, nil, GenerationConfig{ConvertTo: render.FormatPDF})
	return h
}

func llcRecord(userID, companyID, company string) formation.Fields {
	return formation.Fields{
		formation.FieldCompanyName: company,
		formation.FieldEntityType:  "LLC",
		formation.FieldUserID:      userID,
		formation.FieldCompanyID:   companyID,
		"Owner Count":              1,
		"Managers Count":           0,
		"Owner 1 Name":             "Jane Doe",
		"Owner 1 Ownership %":      1.0,
	}
}

func dbctxFor(ctx context.Context) dbctx.Context { return dbctx.Context{Ctx: ctx} }

func bytesReader(s string) io.Reader { return strings.NewReader(s) }
