package formationdocs

import (
	"context"
	"fmt"
	"strings"

	enumspb "go.temporal.io/api/enums/v1"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/formationvault-backend/internal/platform/logger"
	"github.com/yungbote/formationvault-backend/internal/services"
)

// Starter dispatches bundle requests as workflow executions. The workflow id
// is derived from the record so a redelivered payment event attaches to the
// running execution instead of generating twice.
type Starter struct {
	log       *logger.Logger
	tc        temporalsdkclient.Client
	taskQueue string
}

var _ services.BundleDispatcher = (*Starter)(nil)

func NewStarter(log *logger.Logger, tc temporalsdkclient.Client, taskQueue string) *Starter {
	return &Starter{log: log.With("component", "FormationDocumentsStarter"), tc: tc, taskQueue: taskQueue}
}

func WorkflowID(recordID string) string {
	return "formation-docs-" + strings.TrimSpace(recordID)
}

func (s *Starter) Dispatch(ctx context.Context, req services.BundleRequest) (string, error) {
	if s == nil || s.tc == nil {
		return "", fmt.Errorf("formationdocs: temporal client not configured")
	}
	if strings.TrimSpace(req.RecordID) == "" {
		return "", fmt.Errorf("formationdocs: missing record id")
	}
	run, err := s.tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:                       WorkflowID(req.RecordID),
		TaskQueue:                s.taskQueue,
		WorkflowIDReusePolicy:    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
		WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
	}, WorkflowName, Input{
		RecordID:             req.RecordID,
		UserID:               req.UserID,
		UpdateExternalRecord: req.UpdateExternalRecord,
		DocumentKinds:        req.DocumentKinds,
	})
	if err != nil {
		return "", fmt.Errorf("start formation documents workflow: %w", err)
	}
	s.log.Info("Formation documents workflow started", "record_id", req.RecordID, "workflow_id", run.GetID(), "run_id", run.GetRunID())
	return run.GetID(), nil
}
