// Package price_refresh periodically reprices every live session's wallets.
package price_refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/highgoal215/cryptowallet_service/pkg/metrics"
)

// Refresher reprices the wallets of all live sessions
type Refresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

// Config for the price refresh worker
type Config struct {
	Schedule string        // cron spec, e.g. "@every 30s"
	Timeout  time.Duration // bound for one run
}

// DefaultConfig returns the default worker configuration
func DefaultConfig() Config {
	return Config{
		Schedule: "@every 30s",
		Timeout:  10 * time.Second,
	}
}

type Worker struct {
	refresher Refresher
	config    Config
	cron      *cron.Cron
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
}

func NewWorker(refresher Refresher, config Config, logger *zap.Logger) *Worker {
	defaults := DefaultConfig()
	if config.Schedule == "" {
		config.Schedule = defaults.Schedule
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	return &Worker{
		refresher: refresher,
		config:    config,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:    logger,
	}
}

func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if _, err := w.cron.AddFunc(w.config.Schedule, func() { w.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("invalid price refresh schedule %q: %w", w.config.Schedule, err)
	}

	w.cron.Start()
	w.running = true
	w.logger.Info("Price refresh worker started", zap.String("schedule", w.config.Schedule))
	return nil
}

// RunOnce performs a single refresh pass bounded by the configured timeout
func (w *Worker) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	start := time.Now()
	refreshed, err := w.refresher.RefreshAll(ctx)
	if err != nil {
		metrics.PriceRefreshTotal.WithLabelValues("error").Inc()
		w.logger.Error("Failed to refresh wallet prices",
			zap.Int("refreshed", refreshed),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return
	}

	metrics.PriceRefreshTotal.WithLabelValues("success").Inc()
	w.logger.Debug("Wallet prices refreshed",
		zap.Int("sessions", refreshed),
		zap.Duration("duration", time.Since(start)))
}

// Shutdown stops scheduling and waits for an in-flight run within ctx
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	done := w.cron.Stop()
	select {
	case <-done.Done():
		w.logger.Info("Price refresh worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
