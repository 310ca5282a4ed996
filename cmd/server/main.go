package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nurs7132/agroFarm/internal/adapters/telegram"
	webAdapter "github.com/nurs7132/agroFarm/internal/adapters/web"
	"github.com/nurs7132/agroFarm/internal/app"
	"github.com/nurs7132/agroFarm/internal/config"
	"github.com/nurs7132/agroFarm/internal/core"
	"github.com/nurs7132/agroFarm/internal/db"
	"github.com/nurs7132/agroFarm/internal/scheduler"
	"github.com/nurs7132/agroFarm/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log := logger.Must(logger.New())
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("configuration", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	auditService := core.NewAuditService(pool, log.Named("audit"))
	userService := core.NewUserService(pool)
	inventoryService := core.NewInventoryService(pool)
	orderService := core.NewOrderService(pool, inventoryService, auditService, log.Named("orders"))
	herdService := core.NewHerdService(pool, auditService)
	reconcileService := core.NewReconcileService(pool, log.Named("reconcile"))

	svc := app.NewAppService(pool, userService, inventoryService, orderService, herdService, reconcileService, auditService)

	sched := scheduler.New(reconcileService, cfg.Reconcile.CronSpec,
		time.Duration(cfg.Reconcile.BatchTimeoutSec)*time.Second, log.Named("scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatal("scheduler", zap.Error(err))
	}
	defer sched.Stop()

	mux := http.NewServeMux()
	if cfg.Telegram.Enabled {
		botClient := telegram.NewClient(cfg.Telegram.BotToken)
		sessions := telegram.NewSessionStore()
		sessions.StartPurge(ctx)
		flow := telegram.NewFlow(svc)
		botHandler := telegram.NewHandler(flow, botClient, sessions, cfg.Telegram.WebhookSecret, log.Named("telegram"))
		mux.Handle("POST /telegram/webhook", botHandler)
		log.Info("telegram bot enabled")
	}
	mux.Handle("/", webAdapter.NewHandler(svc, cfg.AllowedOrigins, cfg.JWTSecret, log.Named("web")))

	log.Info("server starting", zap.String("port", cfg.ServerPort))
	if err := http.ListenAndServe(":"+cfg.ServerPort, mux); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}
