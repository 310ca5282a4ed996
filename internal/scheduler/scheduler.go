package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nurs7132/agroFarm/internal/core"
)

// Scheduler runs the nightly status reconciliation.
type Scheduler struct {
	cron      *cron.Cron
	reconcile core.ReconcileService
	cronSpec  string
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a scheduler that runs reconciliation on the given cron spec
// (standard 5-field cron).
func New(reconcile core.ReconcileService, cronSpec string, timeout time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Scheduler{
		cron:      cron.New(),
		reconcile: reconcile,
		cronSpec:  cronSpec,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cronSpec, s.runReconcile); err != nil {
		return err
	}
	s.logger.Info("scheduler started", zap.String("cron", s.cronSpec))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop; running jobs finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.reconcile.Run(ctx); err != nil {
		s.logger.Error("scheduled reconciliation failed", zap.Error(err))
	}
}
