package formationdocs

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow generates every applicable document for a paid formation order.
// One document failing does not fail the run; the result lists per-document
// errors.
func Workflow(ctx workflow.Context, in Input) (Result, error) {
	out := Result{RecordID: strings.TrimSpace(in.RecordID)}
	if out.RecordID == "" {
		return out, temporal.NewNonRetryableApplicationError("formationdocs: missing record_id", errTypeInvalidInput, nil)
	}

	planCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    5,
		},
	})
	var docs []string
	if err := workflow.ExecuteActivity(planCtx, ActivityPlan, in).Get(ctx, &docs); err != nil {
		return out, err
	}

	genCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 6 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    2 * time.Minute,
			MaximumAttempts:    4,
		},
	})
	futures := make([]workflow.Future, len(docs))
	for i, id := range docs {
		futures[i] = workflow.ExecuteActivity(genCtx, ActivityGenerate, GenerateInput{
			RecordID:             out.RecordID,
			DocumentKind:         id,
			UserID:               in.UserID,
			UpdateExternalRecord: in.UpdateExternalRecord,
		})
	}

	out.Documents = make([]DocumentOutcome, len(docs))
	for i, f := range futures {
		var d DocumentOutcome
		if err := f.Get(ctx, &d); err != nil {
			d = DocumentOutcome{DocumentID: docs[i], Error: err.Error()}
		}
		out.Documents[i] = d
	}

	workflow.GetLogger(ctx).Info("Formation documents finished",
		"record_id", out.RecordID, "documents", len(docs), "failed", out.Failed())
	if len(docs) > 0 && out.Failed() == len(docs) {
		return out, fmt.Errorf("formationdocs: all %d documents failed", len(docs))
	}
	return out, nil
}
