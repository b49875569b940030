// Package app assembles the infrastructure shared by the command binaries.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tattoostudio/internal/config"
	"tattoostudio/internal/database"
	"tattoostudio/internal/domain/booking"
	"tattoostudio/internal/domain/notification"
	"tattoostudio/internal/httpapi"
	"tattoostudio/internal/pkg/jwt"
	"tattoostudio/internal/schema"
)

// App owns the connections opened for one process.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	DB        *gorm.DB
	Server    *httpapi.Server
	redis     *redis.Client
	publisher notification.Publisher
}

// Build connects to the database, migrates it and wires the services.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := schema.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a := &App{Config: cfg, Log: log, DB: db}

	snow, err := booking.NewSnowflakeReferenceGenerator(cfg.SnowflakeNode)
	if err != nil {
		return nil, err
	}
	var refs booking.ReferenceGenerator = snow
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			// codes still get issued from the snowflake fallback
			log.Warn("redis unavailable at startup", zap.Error(err))
		}
		refs = booking.NewRedisReferenceGenerator(a.redis, snow, log)
	}

	if len(cfg.KafkaBrokers) > 0 {
		kp, err := notification.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		a.publisher = kp
		log.Info("publishing notifications to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic))
	} else {
		a.publisher = notification.NewLogPublisher(log)
		log.Warn("KAFKA_BROKERS not set; notifications are only logged")
	}

	a.Server = httpapi.New(httpapi.Deps{
		DB:            db,
		Log:           log,
		Tokens:        jwt.New(cfg.JWTSecret, cfg.JWTTTL),
		InternalToken: cfg.InternalToken,
		CORSOrigins:   cfg.CORSAllowedOrigins,
		References:    refs,
		PaymentLinks:  booking.NewHostedPaymentLinks(cfg.PaymentLinkBaseURL),
		Publisher:     a.publisher,
		Deposits: booking.Options{
			DepositExpiryDays:    cfg.DepositExpiryDays,
			MaxDepositExpiryDays: cfg.DepositMaxExpiryDays,
		},
	})
	return a, nil
}

// Close releases the broker writer, the redis client and the database pool.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.Log.Warn("close publisher", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
