// Package scheduler runs the periodic order-reconciliation task on an asynq
// worker when Redis is configured. The queue gives the sweep retry semantics
// and visibility; without Redis the plain ticker loop in notify is used
// instead.
package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"cvbot_backend/internal/notify"
	"cvbot_backend/platform/config"
	"cvbot_backend/platform/logger"
)

const TaskOrdersReconcile = "orders:reconcile"

type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	log       *logger.Logger
}

func NewWorker(redisCfg config.RedisConfig, reconcileCfg config.ReconcilerConfig, reconciler *notify.Reconciler, log *logger.Logger) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(redisCfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 1,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskOrdersReconcile, func(ctx context.Context, _ *asynq.Task) error {
		reconciler.ReconcileAll(ctx)
		return nil
	})

	sched := asynq.NewScheduler(opt, nil)
	spec := fmt.Sprintf("@every %s", reconcileCfg.GetReconcileInterval())
	if _, err := sched.Register(spec, asynq.NewTask(TaskOrdersReconcile, nil)); err != nil {
		return nil, fmt.Errorf("register reconcile task: %w", err)
	}

	return &Worker{server: server, scheduler: sched, mux: mux, log: log}, nil
}

// Run starts the scheduler and worker and blocks until the context is
// cancelled.
func (w *Worker) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		w.log.Info("shutting down reconcile worker")
		w.scheduler.Shutdown()
		w.server.Shutdown()
	}()

	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	if err := w.server.Run(w.mux); err != nil {
		return fmt.Errorf("run worker: %w", err)
	}
	return nil
}
