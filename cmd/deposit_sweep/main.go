package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tattoostudio/internal/app"
	"tattoostudio/internal/config"
	"tattoostudio/internal/domain/notification"
	"tattoostudio/internal/logger"
)

// Run from cron. Each lapsed deposit request is reported once, however often
// this runs.
func main() {
	keep := flag.Duration("keep-events", 30*24*time.Hour, "how long published notification events are kept")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	a, err := app.Build(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	now := time.Now().UTC()
	res, err := a.Server.Bookings.ProcessExpiredDeposits(ctx, now)
	if err != nil {
		zl.Fatal("deposit sweep failed", zap.Error(err))
	}
	zl.Info("deposit sweep completed",
		zap.Int("expired", res.Expired),
		zap.Int("notified", res.Notified),
		zap.Strings("failures", res.Failures))

	cleanup := notification.NewCleanupService(notification.NewRepository(a.DB), zl)
	if _, err := cleanup.PrunePublished(ctx, now, *keep); err != nil {
		zl.Fatal("notification cleanup failed", zap.Error(err))
	}
}
