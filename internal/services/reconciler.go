package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/formationvault-backend/internal/clients/crm"
	"github.com/yungbote/formationvault-backend/internal/data/repos"
	"github.com/yungbote/formationvault-backend/internal/domain/formation"
	"github.com/yungbote/formationvault-backend/internal/domain/vault"
	"github.com/yungbote/formationvault-backend/internal/observability"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

type ReconcileInput struct {
	RecordID             string
	UserID               string
	CompanyID            string
	Document             formation.DocumentKind
	StorageKey           string
	Format               string
	SizeBytes            int64
	TemplateID           string
	UpdateExternalRecord bool
}

type ReconcileOutcome struct {
	LedgerSynced   bool   `json:"ledger_synced"`
	ExternalSynced bool   `json:"external_synced"`
	ViewURL        string `json:"view_url,omitempty"`
}

// Reconciler projects a stored artifact into the ledger and then the CRM.
// Neither failure reaches the caller.
type Reconciler interface {
	Reconcile(ctx context.Context, in ReconcileInput) ReconcileOutcome
}

type reconciler struct {
	log           *logger.Logger
	ledger        repos.LedgerRepo
	records       crm.RecordStore
	publicBaseURL string
	metrics       *observability.Metrics
}

func NewReconciler(
	baseLog *logger.Logger,
	ledger repos.LedgerRepo,
	records crm.RecordStore,
	publicBaseURL string,
	metrics *observability.Metrics,
) Reconciler {
	return &reconciler{
		log:           baseLog.With("service", "Reconciler"),
		ledger:        ledger,
		records:       records,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		metrics:       metrics,
	}
}

func (r *reconciler) Reconcile(ctx context.Context, in ReconcileInput) ReconcileOutcome {
	ctx, span := observability.StartSpan(ctx, "formation.reconcile")
	defer span.End()

	var out ReconcileOutcome
	if err := r.syncLedger(ctx, in); err != nil {
		r.metrics.IncSyncFailure("ledger")
		r.log.Error("Ledger sync failed",
			"error", err,
			"record_id", in.RecordID,
			"company_id", in.CompanyID,
			"document_id", in.Document.ID,
			"storage_key", in.StorageKey,
		)
	} else {
		out.LedgerSynced = true
	}

	if !in.UpdateExternalRecord {
		return out
	}
	out.ViewURL = DocumentViewURL(r.publicBaseURL, in.Document.ID, in.CompanyID)
	if err := r.syncRecord(ctx, in, out.ViewURL); err != nil {
		r.metrics.IncSyncFailure("crm")
		r.log.Warn("CRM sync failed",
			"error", err,
			"record_id", in.RecordID,
			"document_id", in.Document.ID,
			"field", in.Document.CRMField,
		)
		return out
	}
	out.ExternalSynced = true
	return out
}

func (r *reconciler) syncLedger(ctx context.Context, in ReconcileInput) error {
	if r.ledger == nil {
		return fmt.Errorf("no ledger store: %w", formation.ErrMetadataSyncFailed)
	}
	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.CompanyID) == "" {
		return fmt.Errorf("ledger entry needs user and company: %w", formation.ErrMetadataSyncFailed)
	}
	entry := &vault.LedgerEntry{
		UserID:     in.UserID,
		CompanyID:  in.CompanyID,
		DocumentID: in.Document.ID,
		Name:       in.Document.Name,
		Kind:       string(in.Document.Kind),
		StorageKey: in.StorageKey,
		Format:     in.Format,
		SizeBytes:  in.SizeBytes,
		TemplateID: in.TemplateID,
	}
	if err := r.ledger.UpsertGenerated(ctx, nil, entry); err != nil {
		return fmt.Errorf("%w: %w", formation.ErrMetadataSyncFailed, err)
	}
	return nil
}

func (r *reconciler) syncRecord(ctx context.Context, in ReconcileInput, viewURL string) error {
	if r.records == nil {
		return fmt.Errorf("no record store: %w", formation.ErrMetadataSyncFailed)
	}
	if in.Document.CRMField == "" || in.RecordID == "" {
		return fmt.Errorf("no CRM field for %q: %w", in.Document.ID, formation.ErrMetadataSyncFailed)
	}
	if err := r.records.Update(ctx, in.RecordID, map[string]any{in.Document.CRMField: viewURL}); err != nil {
		return fmt.Errorf("%w: %w", formation.ErrMetadataSyncFailed, err)
	}
	return nil
}

// DocumentViewURL is the link written to the CRM. It goes through the access
// controller rather than exposing the storage key.
func DocumentViewURL(base, documentID, companyID string) string {
	u := strings.TrimRight(base, "/") + "/api/documents/" + url.PathEscape(documentID) + "/view"
	if companyID != "" {
		u += "?companyId=" + url.QueryEscape(companyID)
	}
	return u
}
