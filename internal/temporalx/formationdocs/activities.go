package formationdocs

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/yungbote/formationvault-backend/internal/domain/formation"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
	"github.com/yungbote/formationvault-backend/internal/services"
)

type Activities struct {
	Log        *logger.Logger
	Generation services.GenerationService
}

func (a *Activities) Plan(ctx context.Context, in Input) ([]string, error) {
	if a == nil || a.Generation == nil {
		return nil, fmt.Errorf("formationdocs: activity not configured")
	}
	ids, err := a.Generation.PlanBundle(ctx, services.BundleRequest{
		RecordID:      in.RecordID,
		UserID:        in.UserID,
		DocumentKinds: in.DocumentKinds,
	})
	if err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

func (a *Activities) Generate(ctx context.Context, in GenerateInput) (DocumentOutcome, error) {
	out := DocumentOutcome{DocumentID: in.DocumentKind}
	if a == nil || a.Generation == nil {
		return out, fmt.Errorf("formationdocs: activity not configured")
	}
	res, err := a.Generation.Generate(ctx, services.GenerationRequest{
		RecordID:             in.RecordID,
		DocumentKind:         in.DocumentKind,
		UserID:               in.UserID,
		UpdateExternalRecord: in.UpdateExternalRecord,
	})
	if err != nil {
		if a.Log != nil {
			a.Log.Warn("Document activity failed", "record_id", in.RecordID, "document", in.DocumentKind, "error", err)
		}
		return out, classify(err)
	}
	out.StorageKey = res.StorageKey
	out.Format = res.Format
	return out, nil
}

// classify marks data errors non-retryable; rendering outages and missing
// records are left to the retry policy.
func classify(err error) error {
	if formation.IsValidationError(err) {
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeInvalidInput, err)
	}
	if errors.Is(err, formation.ErrRecordNotFound) {
		// The CRM row can lag the payment event by a few seconds.
		return temporal.NewApplicationErrorWithCause(err.Error(), "record_not_found", err)
	}
	return err
}
