package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storerating/internal/config"
	"storerating/internal/database"
	"storerating/internal/server"
	"storerating/internal/services"
	"storerating/pkg/logger"
	"storerating/pkg/metrics"
	"storerating/pkg/obs"
	"storerating/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	logger.Init(cfg.AppEnv)
	metrics.Init()

	// --- Tracing ---
	shutdownTracer, err := obs.InitTracer(context.Background(), cfg.AppName, cfg.AppVersion, cfg.AppEnv, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to initialize tracer", "error", err)
	}

	// --- Database ---
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("failed to open database", "driver", cfg.DBDriver, "error", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", "error", err)
	}

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			logger.Fatal("failed to initialize RabbitMQ client", "error", err)
		}
		publisher = mqClient

		if cfg.RatingEventsConsume {
			if err := mqClient.ConsumeRatingEvents(services.LogRatingEvent); err != nil {
				logger.Error("failed to start rating event consumer", "error", err)
			}
		}
	} else {
		logger.Info("RABBITMQ_URL not set, rating events will not be published")
	}

	srv := server.New(cfg, db, publisher)

	// --- Bootstrap admin ---
	if cfg.Admin.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		created, err := srv.Auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Address)
		cancel()
		if err != nil {
			logger.Fatal("failed to seed admin", "email", cfg.Admin.Email, "error", err)
		}
		if created {
			logger.Info("seeded admin account", "email", cfg.Admin.Email)
		}
	}

	// --- Start HTTP Server ---
	logger.Info("starting server", "port", cfg.AppPort, "env", cfg.AppEnv)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.App.Listen(cfg.AppPort); err != nil {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	<-quit
	logger.Info("shutting down server")

	if err := srv.App.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("error during Fiber shutdown", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracer(ctx); err != nil {
		logger.Error("error flushing traces", "error", err)
	}
	if mqClient != nil {
		if err := mqClient.Close(); err != nil {
			logger.Error("error closing RabbitMQ client", "error", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("server gracefully stopped")
}
