package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/formationvault-backend/internal/platform/logger"
	"github.com/yungbote/formationvault-backend/internal/services"
	"github.com/yungbote/formationvault-backend/internal/temporalx"
	"github.com/yungbote/formationvault-backend/internal/temporalx/formationdocs"
)

type Runner struct {
	log *logger.Logger
	cfg temporalx.Config

	tc         temporalsdkclient.Client
	generation services.GenerationService
}

func NewRunner(log *logger.Logger, cfg temporalx.Config, tc temporalsdkclient.Client, generation services.GenerationService) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if generation == nil {
		return nil, fmt.Errorf("temporal worker missing generation service")
	}
	return &Runner{log: log.Named("temporal-worker"), cfg: cfg, tc: tc, generation: generation}, nil
}

// Start polls the task queue until ctx is done. Start-up failures are retried
// for TEMPORAL_DIAL_MAX_WAIT_SECONDS.
func (r *Runner) Start(ctx context.Context) error {
	r.log.Info("Starting Temporal worker", "address", r.cfg.Address, "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue)

	deadline := time.Now().Add(r.cfg.DialMaxWait)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "task_queue", r.cfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		notFound := errors.As(startErr, &nfe)
		if notFound && r.cfg.AutoRegisterNamespace {
			if err := temporalx.EnsureNamespace(ctx, r.log, r.cfg); err != nil {
				r.log.Warn("Temporal namespace ensure failed", "namespace", r.cfg.Namespace, "error", err)
			}
		}

		if r.cfg.DialMaxWait <= 0 || time.Now().After(deadline) {
			if notFound {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", r.cfg.Namespace, startErr)
			}
			return startErr
		}
		r.log.Warn("Temporal worker failed to start; retrying", "attempt", attempt, "error", startErr)
		sleep := r.cfg.Backoff * time.Duration(attempt)
		if sleep <= 0 || (r.cfg.BackoffMax > 0 && sleep > r.cfg.BackoffMax) {
			sleep = max(r.cfg.BackoffMax, 250*time.Millisecond)
		}
		time.Sleep(sleep)
	}
}

func (r *Runner) newWorker() worker.Worker {
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     r.cfg.WorkerConcurrency,
		MaxConcurrentWorkflowTaskExecutionSize: r.cfg.WorkerConcurrency,
	})
	acts := &formationdocs.Activities{Log: r.log, Generation: r.generation}
	w.RegisterWorkflowWithOptions(formationdocs.Workflow, workflow.RegisterOptions{Name: formationdocs.WorkflowName})
	w.RegisterActivityWithOptions(acts.Plan, activity.RegisterOptions{Name: formationdocs.ActivityPlan})
	w.RegisterActivityWithOptions(acts.Generate, activity.RegisterOptions{Name: formationdocs.ActivityGenerate})
	return w
}
