package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	Promoted         int       `json:"promoted"`
	Demoted          int       `json:"demoted"`
	CarcassesCreated int       `json:"carcasses_created"`
	RanAt            time.Time `json:"ran_at"`
	Duration         string    `json:"duration"`
}

// Changed reports whether the pass touched anything.
func (r ReconcileReport) Changed() bool {
	return r.Promoted > 0 || r.Demoted > 0 || r.CarcassesCreated > 0
}

// ReconcileService drives herd state toward consistency with recorded
// weights: animals on feed at or above the ready threshold are promoted,
// ready animals that dropped below it are demoted, and every slaughtered
// animal gets exactly one carcass row.
//
// Each rule is a single set-based statement whose predicate excludes rows
// already in the target state, so running the pass twice in a row is a no-op.
type ReconcileService interface {
	Run(ctx context.Context) (*ReconcileReport, error)
}

type reconcileService struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewReconcileService(pool *pgxpool.Pool, logger *zap.Logger) ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &reconcileService{pool: pool, logger: logger}
}

// Carcass yield and pricing for materialized carcasses: dressed weight is 60%
// of live weight, priced per kilogram.
const (
	carcassYieldSQL      = "0.6"
	carcassPricePerKgSQL = "1500"
)

func (s *reconcileService) Run(ctx context.Context) (*ReconcileReport, error) {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reconciliation: %w", err)
	}
	defer tx.Rollback(ctx)

	report := &ReconcileReport{RanAt: start}

	promoted, err := tx.Exec(ctx, `
		UPDATE animals
		SET status = $1
		WHERE status = $2 AND current_weight >= $3
	`, AnimalReadyForSlaughter, AnimalFeeding, ReadyWeightThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to promote animals: %w", err)
	}
	report.Promoted = int(promoted.RowsAffected())

	demoted, err := tx.Exec(ctx, `
		UPDATE animals
		SET status = $1
		WHERE status = $2 AND current_weight < $3
	`, AnimalFeeding, AnimalReadyForSlaughter, ReadyWeightThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to demote animals: %w", err)
	}
	report.Demoted = int(demoted.RowsAffected())

	// One carcass per slaughtered animal. The NOT EXISTS guard carries the
	// idempotence: an animal that already has a carcass row is skipped no
	// matter how often the pass runs.
	//
	// The dressed weight is rounded to 2 decimals before pricing, so the
	// stored row always satisfies price = carcass_weight * rate.
	created, err := tx.Exec(ctx, `
		INSERT INTO meat_carcasses
		(animal_id, breed, birth_date, slaughter_date, carcass_weight, price, status, created_by)
		SELECT a.id, a.breed, a.birth_date, NOW(),
		       ROUND(a.current_weight * `+carcassYieldSQL+`, 2),
		       ROUND(ROUND(a.current_weight * `+carcassYieldSQL+`, 2) * `+carcassPricePerKgSQL+`, 2),
		       $1, a.created_by
		FROM animals a
		WHERE a.status = $2
		  AND NOT EXISTS (SELECT 1 FROM meat_carcasses mc WHERE mc.animal_id = a.id)
	`, CarcassInStock, AnimalSlaughtered)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize carcasses: %w", err)
	}
	report.CarcassesCreated = int(created.RowsAffected())

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reconciliation: %w", err)
	}

	report.Duration = time.Since(start).String()
	if report.Changed() {
		s.logger.Info("reconciliation complete",
			zap.Int("promoted", report.Promoted),
			zap.Int("demoted", report.Demoted),
			zap.Int("carcasses_created", report.CarcassesCreated),
			zap.String("duration", report.Duration))
	} else {
		s.logger.Debug("reconciliation made no changes", zap.String("duration", report.Duration))
	}
	return report, nil
}
