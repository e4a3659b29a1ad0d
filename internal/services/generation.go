package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/formationvault-backend/internal/clients/convert"
	"github.com/yungbote/formationvault-backend/internal/clients/crm"
	"github.com/yungbote/formationvault-backend/internal/clients/render"
	"github.com/yungbote/formationvault-backend/internal/domain/formation"
	"github.com/yungbote/formationvault-backend/internal/modules/formation/parties"
	"github.com/yungbote/formationvault-backend/internal/modules/formation/templates"
	"github.com/yungbote/formationvault-backend/internal/observability"
	"github.com/yungbote/formationvault-backend/internal/platform/ctxutil"
	"github.com/yungbote/formationvault-backend/internal/platform/dbctx"
	"github.com/yungbote/formationvault-backend/internal/platform/gcp"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

const storageWriteTimeout = 2 * time.Minute

type GenerationConfig struct {
	// TemplateBaseURL hosts the template library. Empty means the template
	// bucket's public URL.
	TemplateBaseURL string
	// PipelineTimeout bounds everything from the render call onwards.
	PipelineTimeout time.Duration
	// ConvertTo is the preferred stored format; empty disables conversion.
	ConvertTo         string
	BundleConcurrency int
	VaultBucket       string
}

func (c GenerationConfig) withDefaults() GenerationConfig {
	if c.PipelineTimeout <= 0 {
		c.PipelineTimeout = 5 * time.Minute
	}
	if c.BundleConcurrency <= 0 {
		c.BundleConcurrency = 3
	}
	return c
}

type GenerationRequest struct {
	RecordID     string `json:"record_id"`
	DocumentKind string `json:"document_kind"`
	// UserID overrides the record's owner for the ledger entry.
	UserID               string        `json:"user_id,omitempty"`
	UpdateExternalRecord bool          `json:"update_external_record"`
	Timeout              time.Duration `json:"timeout,omitempty"`
}

type GenerationResult struct {
	RecordID   string           `json:"record_id"`
	DocumentID string           `json:"document_id"`
	StorageKey string           `json:"storage_key"`
	Format     string           `json:"format"`
	SizeBytes  int64            `json:"size_bytes"`
	TemplateID string           `json:"template_id"`
	Strategy   string           `json:"strategy,omitempty"`
	Converted  bool             `json:"converted"`
	Reconcile  ReconcileOutcome `json:"reconcile"`
}

type BundleRequest struct {
	RecordID             string   `json:"record_id"`
	UserID               string   `json:"user_id,omitempty"`
	UpdateExternalRecord bool     `json:"update_external_record"`
	DocumentKinds        []string `json:"document_kinds,omitempty"`
}

type BundleItem struct {
	DocumentID string            `json:"document_id"`
	Result     *GenerationResult `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
	Err        error             `json:"-"`
}

type BundleResult struct {
	RecordID   string               `json:"record_id"`
	EntityKind formation.EntityKind `json:"entity_kind"`
	Items      []BundleItem         `json:"items"`
}

func (b *BundleResult) Failed() int {
	n := 0
	for _, it := range b.Items {
		if it.Err != nil {
			n++
		}
	}
	return n
}

type GenerationService interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
	GenerateBundle(ctx context.Context, req BundleRequest) (*BundleResult, error)
	// PlanBundle returns the document ids a bundle request would generate.
	PlanBundle(ctx context.Context, req BundleRequest) ([]string, error)
}

type generationService struct {
	log        *logger.Logger
	records    crm.RecordStore
	selector   *templates.Selector
	renderer   render.Client
	converter  convert.Converter
	bucket     gcp.BucketService
	vaults     VaultService
	reconciler Reconciler
	metrics    *observability.Metrics
	cfg        GenerationConfig
}

func NewGenerationService(
	baseLog *logger.Logger,
	records crm.RecordStore,
	selector *templates.Selector,
	renderer render.Client,
	converter convert.Converter,
	bucket gcp.BucketService,
	vaults VaultService,
	reconciler Reconciler,
	metrics *observability.Metrics,
	cfg GenerationConfig,
) GenerationService {
	return &generationService{
		log:        baseLog.With("service", "GenerationService"),
		records:    records,
		selector:   selector,
		renderer:   renderer,
		converter:  converter,
		bucket:     bucket,
		vaults:     vaults,
		reconciler: reconciler,
		metrics:    metrics,
		cfg:        cfg.withDefaults(),
	}
}

func (gs *generationService) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	doc, ok := formation.LookupDocumentKind(req.DocumentKind)
	if !ok {
		return nil, fmt.Errorf("%q: %w", req.DocumentKind, formation.ErrUnknownDocumentKind)
	}
	rec, err := gs.fetch(ctx, req.RecordID)
	if err != nil {
		gs.metrics.ObserveGeneration(doc.ID, "not_found", 0)
		return nil, err
	}
	return gs.generateForRecord(ctx, rec, doc, req)
}

func (gs *generationService) GenerateBundle(ctx context.Context, req BundleRequest) (*BundleResult, error) {
	rec, err := gs.fetch(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}
	if !rec.EntityKind.Valid() {
		return nil, fmt.Errorf("record %s entity type %q: %w", rec.ID, rec.EntityKind, formation.ErrUnsupportedEntityKind)
	}

	docs, err := bundleDocuments(rec.EntityKind, req.DocumentKinds)
	if err != nil {
		return nil, err
	}
	out := &BundleResult{RecordID: rec.ID, EntityKind: rec.EntityKind, Items: make([]BundleItem, len(docs))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(gs.cfg.BundleConcurrency)
	for i, doc := range docs {
		g.Go(func() error {
			res, err := gs.generateForRecord(gctx, rec, doc, GenerationRequest{
				RecordID:             rec.ID,
				DocumentKind:         doc.ID,
				UserID:               req.UserID,
				UpdateExternalRecord: req.UpdateExternalRecord,
			})
			item := BundleItem{DocumentID: doc.ID, Result: res, Err: err}
			if err != nil {
				item.Error = err.Error()
			}
			out.Items[i] = item
			// One failed document never cancels its siblings.
			return nil
		})
	}
	_ = g.Wait()

	gs.log.With(ctxutil.LogFields(ctx)...).Info("Bundle generated",
		"record_id", rec.ID,
		"entity_kind", rec.EntityKind,
		"documents", len(docs),
		"failed", out.Failed(),
	)
	return out, nil
}

func (gs *generationService) PlanBundle(ctx context.Context, req BundleRequest) ([]string, error) {
	rec, err := gs.fetch(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}
	if !rec.EntityKind.Valid() {
		return nil, fmt.Errorf("record %s entity type %q: %w", rec.ID, rec.EntityKind, formation.ErrUnsupportedEntityKind)
	}
	docs, err := bundleDocuments(rec.EntityKind, req.DocumentKinds)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func bundleDocuments(kind formation.EntityKind, requested []string) ([]formation.DocumentKind, error) {
	if len(requested) == 0 {
		return formation.DocumentKindsFor(kind), nil
	}
	out := make([]formation.DocumentKind, 0, len(requested))
	seen := map[string]bool{}
	for _, id := range requested {
		doc, ok := formation.LookupDocumentKind(id)
		if !ok {
			return nil, fmt.Errorf("%q: %w", id, formation.ErrUnknownDocumentKind)
		}
		if !doc.AppliesTo(kind) {
			return nil, fmt.Errorf("%s for %s: %w", doc.ID, kind, formation.ErrUnsupportedEntityKind)
		}
		if !seen[doc.ID] {
			seen[doc.ID] = true
			out = append(out, doc)
		}
	}
	return out, nil
}

func (gs *generationService) fetch(ctx context.Context, recordID string) (*formation.SourceRecord, error) {
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return nil, fmt.Errorf("empty record id: %w", formation.ErrRecordNotFound)
	}
	ctx, span := observability.StartSpan(ctx, "formation.fetch_record", attribute.String("record.id", recordID))
	rec, err := gs.records.Fetch(ctx, recordID)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("fetch record %s: %w", recordID, err)
	}
	return rec, nil
}

func (gs *generationService) generateForRecord(ctx context.Context, rec *formation.SourceRecord, doc formation.DocumentKind, req GenerationRequest) (res *GenerationResult, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "formation.generate",
		attribute.String("record.id", rec.ID),
		attribute.String("document.id", doc.ID),
		attribute.String("entity.kind", string(rec.EntityKind)),
	)
	defer func() {
		observability.EndSpan(span, err)
		gs.metrics.ObserveGeneration(doc.ID, generationOutcome(err), time.Since(start))
	}()

	// Validation and selection are pure; nothing is written before render.
	if !doc.AppliesTo(rec.EntityKind) {
		return nil, fmt.Errorf("%s for %q: %w", doc.ID, rec.EntityKind, formation.ErrUnsupportedEntityKind)
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = rec.UserID
	}
	norm := parties.Normalize(rec, rec.EntityKind)
	tpl, err := gs.selector.Select(rec.EntityKind, doc, norm.Counts)
	if err != nil {
		return nil, fmt.Errorf("select template for %s: %w", doc.ID, err)
	}
	vaultPath, err := gs.vaults.VaultPathFor(ctx, rec, userID)
	if err != nil {
		return nil, fmt.Errorf("vault path: %w", err)
	}

	// From here on the run is detached from the caller and bounded instead.
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = gs.cfg.PipelineTimeout
	}
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	plannedKey := StorageKey(vaultPath, doc, rec.CompanyName, tpl.Extension())
	rendered, format, err := gs.render(runCtx, rec, norm, tpl, plannedKey)
	if err != nil {
		return nil, err
	}
	key := StorageKey(vaultPath, doc, rec.CompanyName, format)
	if err := gs.store(runCtx, key, rendered); err != nil {
		return nil, err
	}

	finalKey, finalFormat, size, converted := key, format, int64(len(rendered)), false
	if convKey, convBytes, ok := gs.tryConvert(runCtx, key, format, rendered); ok {
		finalKey, finalFormat, size, converted = convKey, gs.cfg.ConvertTo, int64(len(convBytes)), true
	}

	if _, err := gs.vaults.CreateVault(runCtx, CreateVaultRequest{
		UserID:      userID,
		CompanyID:   rec.CompanyID,
		CompanyName: rec.CompanyName,
		VaultPath:   vaultPath,
		RecordID:    pushRecordID(rec, userID),
	}); err != nil {
		gs.log.Error("Failed to persist vault record", "error", err, "record_id", rec.ID, "vault_path", vaultPath)
	}

	outcome := gs.reconciler.Reconcile(runCtx, ReconcileInput{
		RecordID:             rec.ID,
		UserID:               userID,
		CompanyID:            rec.CompanyID,
		Document:             doc,
		StorageKey:           finalKey,
		Format:               finalFormat,
		SizeBytes:            size,
		TemplateID:           tpl.Path,
		UpdateExternalRecord: req.UpdateExternalRecord,
	})

	gs.log.With(ctxutil.LogFields(ctx)...).Info("Document generated",
		"record_id", rec.ID,
		"document_id", doc.ID,
		"template", tpl.Path,
		"strategy", tpl.Strategy,
		"storage_key", finalKey,
		"format", finalFormat,
		"converted", converted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &GenerationResult{
		RecordID:   rec.ID,
		DocumentID: doc.ID,
		StorageKey: finalKey,
		Format:     finalFormat,
		SizeBytes:  size,
		TemplateID: tpl.Path,
		Strategy:   tpl.Strategy,
		Converted:  converted,
		Reconcile:  outcome,
	}, nil
}

// pushRecordID names the record that should receive a new vault path: only one
// without a path, and only when the vault owner is the record's own user.
func pushRecordID(rec *formation.SourceRecord, userID string) string {
	if strings.TrimSpace(rec.VaultPath) != "" {
		return ""
	}
	if rec.UserID != "" && rec.UserID != userID {
		return ""
	}
	return rec.ID
}

func (gs *generationService) templateURL(path string) string {
	if gs.cfg.TemplateBaseURL != "" {
		return templates.ResolveURL(gs.cfg.TemplateBaseURL, path)
	}
	return gs.bucket.GetPublicURL(gcp.BucketCategoryTemplate, path)
}

func (gs *generationService) render(ctx context.Context, rec *formation.SourceRecord, norm parties.Result, tpl templates.Template, destination string) ([]byte, string, error) {
	ctx, span := observability.StartSpan(ctx, "formation.render", attribute.String("template.path", tpl.Path))
	start := time.Now()
	out, err := gs.renderer.Render(ctx, render.Request{
		Data:         norm.TemplateData(rec),
		Template:     gs.templateURL(tpl.Path),
		TemplatePath: tpl.Path,
		Destination:  destination,
		Bucket:       gs.cfg.VaultBucket,
	})
	gs.metrics.ObserveRender(renderStatus(err), time.Since(start))
	if err != nil {
		observability.EndSpan(span, err)
		return nil, "", fmt.Errorf("render %s: %w", tpl.Path, asRenderingError(err))
	}

	body := out.Bytes
	if len(body) == 0 && out.UploadedKey != "" {
		// The service only uploaded; pull its copy so our own write stays authoritative.
		body, err = gs.download(ctx, out.UploadedKey)
		if err != nil {
			err = &formation.RenderingServiceError{Err: fmt.Errorf("fetch uploaded artifact %s: %w", out.UploadedKey, err)}
			observability.EndSpan(span, err)
			return nil, "", err
		}
	}
	if len(body) == 0 {
		err = &formation.RenderingServiceError{Err: errors.New("render returned no document")}
		observability.EndSpan(span, err)
		return nil, "", err
	}
	format := out.Format
	if format == "" {
		format = render.SniffFormat(body)
	}
	if format == "" {
		format = tpl.Extension()
	}
	observability.EndSpan(span, nil)
	return body, format, nil
}

func (gs *generationService) download(ctx context.Context, key string) ([]byte, error) {
	rc, err := gs.bucket.DownloadFile(ctx, gcp.BucketCategoryVault, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (gs *generationService) store(ctx context.Context, key string, body []byte) error {
	ctx, span := observability.StartSpan(ctx, "formation.store", attribute.String("storage.key", key))
	sctx, cancel := context.WithTimeout(ctx, storageWriteTimeout)
	defer cancel()
	err := gs.bucket.UploadFile(dbctx.Context{Ctx: sctx}, gcp.BucketCategoryVault, key, bytes.NewReader(body))
	observability.EndSpan(span, err)
	if err != nil {
		return &formation.RenderingServiceError{Err: fmt.Errorf("store %s: %w", key, err)}
	}
	return nil
}

// tryConvert never fails the run: any problem keeps the original artifact.
func (gs *generationService) tryConvert(ctx context.Context, key, format string, body []byte) (string, []byte, bool) {
	target := gs.cfg.ConvertTo
	if target == "" || target == format || gs.converter == nil || !gs.converter.Supports(format, target) {
		return "", nil, false
	}
	ctx, span := observability.StartSpan(ctx, "formation.convert",
		attribute.String("convert.from", format),
		attribute.String("convert.to", target),
	)
	out, err := gs.converter.Convert(ctx, convert.Input{FileName: key, From: format, To: target, Bytes: body})
	if err != nil {
		observability.EndSpan(span, err)
		gs.metrics.IncConversion(format, target, "failed")
		gs.log.Warn("Conversion failed; keeping original", "error", err, "storage_key", key)
		return "", nil, false
	}
	convKey := swapExt(key, target)
	if err := gs.store(ctx, convKey, out); err != nil {
		observability.EndSpan(span, err)
		gs.metrics.IncConversion(format, target, "store_failed")
		gs.log.Warn("Storing converted artifact failed; keeping original", "error", err, "storage_key", convKey)
		return "", nil, false
	}
	observability.EndSpan(span, nil)
	gs.metrics.IncConversion(format, target, "ok")
	return convKey, out, true
}

func asRenderingError(err error) error {
	var re *formation.RenderingServiceError
	if errors.As(err, &re) {
		return err
	}
	return &formation.RenderingServiceError{Err: err}
}

func renderStatus(err error) string {
	var re *formation.RenderingServiceError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &re) && re.Status != 0:
		return fmt.Sprintf("%d", re.Status)
	default:
		return "transport"
	}
}

func generationOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case formation.IsValidationError(err):
		return "invalid_input"
	case formation.IsRenderingError(err):
		return "render_failed"
	case errors.Is(err, formation.ErrRecordNotFound):
		return "not_found"
	default:
		return "error"
	}
}
