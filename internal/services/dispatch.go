package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

// BundleDispatcher hands a bundle request to whatever runs it out of band and
// returns a run id the caller can report back.
type BundleDispatcher interface {
	Dispatch(ctx context.Context, req BundleRequest) (string, error)
}

type inlineDispatcher struct {
	log *logger.Logger
	gen GenerationService
}

// NewInlineDispatcher runs bundles on a detached goroutine. Used when Temporal
// is not configured.
func NewInlineDispatcher(baseLog *logger.Logger, gen GenerationService) BundleDispatcher {
	return &inlineDispatcher{log: baseLog.With("service", "InlineDispatcher"), gen: gen}
}

func (d *inlineDispatcher) Dispatch(ctx context.Context, req BundleRequest) (string, error) {
	if _, err := d.gen.PlanBundle(ctx, req); err != nil {
		return "", err
	}
	runID := "inline-" + strings.TrimSpace(req.RecordID) + "-" + uuid.NewString()[:8]
	bg := context.WithoutCancel(ctx)
	go func() {
		res, err := d.gen.GenerateBundle(bg, req)
		if err != nil {
			d.log.Error("Bundle run failed", "run_id", runID, "record_id", req.RecordID, "error", err)
			return
		}
		d.log.Info("Bundle run finished", "run_id", runID, "record_id", req.RecordID, "failed", res.Failed())
	}()
	return runID, nil
}
