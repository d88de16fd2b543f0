package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/highgoal215/cryptowallet_service/internal/api/routes"
	"github.com/highgoal215/cryptowallet_service/internal/infrastructure/config"
	"github.com/highgoal215/cryptowallet_service/internal/infrastructure/di"
	"github.com/highgoal215/cryptowallet_service/pkg/graceful"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
	"github.com/highgoal215/cryptowallet_service/pkg/metrics"
	"github.com/highgoal215/cryptowallet_service/pkg/tracing"
)

// @title Crypto Wallet Service API
// @version 1.0
// @description Mock multi-asset crypto wallet ledger

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer log.Sync()

	tracingShutdown, err := tracing.InitTracer(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		CollectorURL: cfg.Tracing.CollectorURL,
		Environment:  cfg.Environment,
		SampleRate:   cfg.Tracing.SampleRate,
		Insecure:     cfg.Tracing.Insecure,
	}, log.Zap())
	if err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	container, err := di.NewContainer(cfg, log)
	if err != nil {
		log.Fatal("Failed to create DI container", "error", err)
	}

	router := routes.SetupRoutes(container)

	if err := container.PriceRefreshWorker.Start(); err != nil {
		log.Fatal("Failed to start price refresh worker", "error", err)
	}

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	go func() {
		log.Info("Starting server",
			"addr", server.Addr,
			"environment", cfg.Environment,
			"snapshot_provider", cfg.Snapshot.Provider,
			"wallet_api_enabled", cfg.WalletAPI.Enabled,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	stopStats := make(chan struct{})
	if container.DB != nil {
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					stats := container.DB.Stats()
					metrics.DatabaseConnectionsGauge.WithLabelValues("open").Set(float64(stats.OpenConnections))
					metrics.DatabaseConnectionsGauge.WithLabelValues("idle").Set(float64(stats.Idle))
					metrics.DatabaseConnectionsGauge.WithLabelValues("in_use").Set(float64(stats.InUse))
				case <-stopStats:
					return
				}
			}
		}()
	}

	shutdown := graceful.NewShutdownManager(server, time.Duration(cfg.Server.ShutdownTimeout)*time.Second, log)
	shutdown.Register("price refresh worker", container.PriceRefreshWorker)
	shutdown.Register("login limiter", container.LoginLimiter)
	shutdown.Register("sessions", graceful.ShutdownFunc(func(ctx context.Context) error {
		container.SessionManager.Shutdown(ctx)
		return nil
	}))
	shutdown.Register("db stats", graceful.ShutdownFunc(func(context.Context) error {
		close(stopStats)
		return nil
	}))
	shutdown.Register("tracing", graceful.ShutdownFunc(tracingShutdown))
	shutdown.RegisterCloser("container", container)

	shutdown.WaitForShutdown()
}
