package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nurs7132/agroFarm/internal/config"
	"github.com/nurs7132/agroFarm/internal/core"
	"github.com/nurs7132/agroFarm/internal/db"
	"github.com/nurs7132/agroFarm/pkg/logger"
)

// One-shot reconciliation run, for manual triggering and cron-outside-the-app
// deployments. The same pass the in-process scheduler runs nightly.
func main() {
	_ = godotenv.Load()

	log := logger.Must(logger.New())
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Reconcile.BatchTimeoutSec)*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	report, err := core.NewReconcileService(pool, log.Named("reconcile")).Run(ctx)
	if err != nil {
		log.Fatal("reconciliation failed", zap.Error(err))
	}

	log.Info("reconciliation finished",
		zap.Int("promoted", report.Promoted),
		zap.Int("demoted", report.Demoted),
		zap.Int("carcasses_created", report.CarcassesCreated))
}
