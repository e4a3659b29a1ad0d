package services

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	redisclient "github.com/yungbote/formationvault-backend/internal/clients/redis"
	"github.com/yungbote/formationvault-backend/internal/data/repos"
	"github.com/yungbote/formationvault-backend/internal/domain/vault"
	"github.com/yungbote/formationvault-backend/internal/observability"
	"github.com/yungbote/formationvault-backend/internal/platform/ctxutil"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

// DocumentAuditor records every document read. Recording never fails the read.
type DocumentAuditor interface {
	Record(ctx context.Context, row *vault.AccessLog, meta map[string]any)
	Recent(ctx context.Context, requesterID string, limit int) ([]*vault.AccessLog, error)
}

type documentAuditor struct {
	log     *logger.Logger
	repo    repos.AccessLogRepo
	stream  redisclient.AuditStream
	metrics *observability.Metrics
}

func NewDocumentAuditor(
	baseLog *logger.Logger,
	repo repos.AccessLogRepo,
	stream redisclient.AuditStream,
	metrics *observability.Metrics,
) DocumentAuditor {
	return &documentAuditor{
		log:     baseLog.With("service", "DocumentAuditor"),
		repo:    repo,
		stream:  stream,
		metrics: metrics,
	}
}

func (a *documentAuditor) Record(ctx context.Context, row *vault.AccessLog, meta map[string]any) {
	if row == nil {
		return
	}
	ctx = context.WithoutCancel(ctxutil.Default(ctx))
	if row.RequestID == "" {
		if td := ctxutil.GetTraceData(ctx); td != nil {
			row.RequestID = td.RequestID
		}
	}
	if len(meta) > 0 {
		if raw, err := json.Marshal(meta); err == nil {
			row.Metadata = datatypes.JSON(raw)
		}
	}
	a.metrics.IncDocumentRead(string(row.Outcome))

	a.log.Info("Document access",
		"requester_id", row.RequesterID,
		"privileged", row.Privileged,
		"company_id", row.CompanyID,
		"document_ref", row.DocumentRef,
		"resolved_key", row.ResolvedKey,
		"outcome", row.Outcome,
		"request_id", row.RequestID,
	)
	if a.repo != nil {
		if err := a.repo.Append(ctx, nil, row); err != nil {
			a.log.Error("Failed to persist document access log", "error", err, "outcome", row.Outcome)
		}
	}
	if a.stream != nil {
		if err := a.stream.Append(ctx, row); err != nil {
			a.log.Warn("Failed to publish document access event", "error", err)
		}
	}
}

func (a *documentAuditor) Recent(ctx context.Context, requesterID string, limit int) ([]*vault.AccessLog, error) {
	if a.repo == nil {
		return nil, nil
	}
	return a.repo.ListByRequester(ctx, nil, requesterID, limit)
}
