package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/highgoal215/cryptowallet_service/internal/adapters/walletapi"
	"github.com/highgoal215/cryptowallet_service/internal/api/handlers"
	"github.com/highgoal215/cryptowallet_service/internal/api/middleware"
	"github.com/highgoal215/cryptowallet_service/internal/domain/services/ledger"
	"github.com/highgoal215/cryptowallet_service/internal/domain/services/pricing"
	"github.com/highgoal215/cryptowallet_service/internal/domain/services/session"
	"github.com/highgoal215/cryptowallet_service/internal/infrastructure/cache"
	"github.com/highgoal215/cryptowallet_service/internal/infrastructure/config"
	"github.com/highgoal215/cryptowallet_service/internal/infrastructure/database"
	"github.com/highgoal215/cryptowallet_service/internal/infrastructure/snapshot"
	"github.com/highgoal215/cryptowallet_service/internal/workers/price_refresh"
	"github.com/highgoal215/cryptowallet_service/pkg/idempotency"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
	"github.com/highgoal215/cryptowallet_service/pkg/tracing"
)

// Snapshot providers
const (
	SnapshotProviderMemory   = "memory"
	SnapshotProviderRedis    = "redis"
	SnapshotProviderPostgres = "postgres"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *logger.Logger
	ZapLog *zap.Logger

	// Infrastructure, set only when the snapshot provider needs them
	DB          *sqlx.DB
	RedisClient cache.RedisClient

	Snapshots   snapshot.Store
	Idempotency idempotency.Store
	PriceFeed pricing.PriceFeed
	WalletAPI *walletapi.Client

	SessionManager     *session.Manager
	PriceRefreshWorker *price_refresh.Worker
	LoginLimiter       *middleware.LoginLimiter
}

// NewContainer wires the application from configuration
func NewContainer(cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: log,
		ZapLog: log.Zap(),
	}

	if err := c.initSnapshots(); err != nil {
		return nil, err
	}

	// Replayed responses live next to the snapshots when Redis is configured
	if c.RedisClient != nil {
		c.Idempotency = idempotency.NewRedisStore(c.RedisClient)
	} else {
		c.Idempotency = idempotency.NewMemoryStore()
	}

	feed := pricing.NewMockFeed(uint64(cfg.Pricing.Seed))
	c.PriceFeed = pricing.NewCachedFeed(feed, time.Duration(cfg.Pricing.CacheTTL)*time.Second, c.ZapLog)

	deps := session.Dependencies{
		Prices:    c.PriceFeed,
		Snapshots: c.Snapshots,
		Notifier:  ledger.NewLogNotifier(log),
		Tracer:    tracing.GetTracer("cryptowallet-service/ledger"),
	}

	if cfg.WalletAPI.Enabled {
		c.WalletAPI = walletapi.NewClient(walletapi.Config{
			BaseURL:    cfg.WalletAPI.BaseURL,
			Timeout:    time.Duration(cfg.WalletAPI.Timeout) * time.Second,
			MaxRetries: cfg.WalletAPI.MaxRetries,
		}, log)
		deps.Backend = c.WalletAPI
		log.Info("Wallet backend enabled", "base_url", cfg.WalletAPI.BaseURL)
	}

	c.SessionManager = session.NewManager(session.Config{
		Ledger: ledger.Config{
			SimulatedLatency: cfg.Ledger.SimulatedLatency(),
			OperationTimeout: cfg.Ledger.OperationTimeout(),
			QueueSize:        cfg.Ledger.QueueSize,
		},
		SeedHistory:    cfg.Ledger.SeedHistory,
		RestoreOnLogin: cfg.Ledger.RestoreOnLogin,
		JWTSecret:      cfg.JWT.Secret,
		JWTIssuer:      cfg.JWT.Issuer,
		TokenTTL:       time.Duration(cfg.JWT.AccessTTL) * time.Second,
	}, deps, log)

	c.PriceRefreshWorker = price_refresh.NewWorker(c.SessionManager, price_refresh.Config{
		Schedule: cfg.Pricing.RefreshSchedule,
		Timeout:  time.Duration(cfg.Pricing.RefreshTimeout) * time.Second,
	}, c.ZapLog)

	c.LoginLimiter = middleware.NewLoginLimiter(cfg.Server.LoginRateLimit, 0)

	return c, nil
}

func (c *Container) initSnapshots() error {
	provider := strings.ToLower(strings.TrimSpace(c.Config.Snapshot.Provider))
	ttl := time.Duration(c.Config.Snapshot.TTL) * time.Second

	switch provider {
	case "", SnapshotProviderMemory:
		c.Snapshots = snapshot.NewMemoryStore()

	case SnapshotProviderRedis:
		client, err := cache.NewRedisClient(&c.Config.Redis, c.ZapLog)
		if err != nil {
			return fmt.Errorf("failed to initialize redis snapshot store: %w", err)
		}
		c.RedisClient = client
		c.Snapshots = snapshot.NewRedisStore(client, ttl)

	case SnapshotProviderPostgres:
		db, err := database.NewConnection(c.Config.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.RunMigrations(c.Config.Database.URL, c.Config.Database.MigrationsPath); err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.DB = db
		c.Snapshots = snapshot.NewPostgresStore(db)

	default:
		return fmt.Errorf("unknown snapshot provider %q", c.Config.Snapshot.Provider)
	}

	c.Logger.Info("Snapshot store initialized", "provider", provider)
	return nil
}

// HealthChecks returns the readiness probes for the wired components
func (c *Container) HealthChecks() map[string]handlers.CheckFunc {
	checks := map[string]handlers.CheckFunc{
		"prices": func(ctx context.Context) error {
			_, err := c.PriceFeed.Prices(ctx)
			return err
		},
	}
	if c.DB != nil {
		checks["database"] = func(ctx context.Context) error {
			return database.HealthCheck(ctx, c.DB)
		}
	}
	if c.RedisClient != nil {
		checks["redis"] = c.RedisClient.Ping
	}
	return checks
}

// Close releases the snapshot store and its backing connection
func (c *Container) Close() error {
	var errs []error
	if c.Snapshots != nil {
		if err := c.Snapshots.Close(); err != nil {
			errs = append(errs, fmt.Errorf("snapshot store: %w", err))
		}
	}
	return errors.Join(errs...)
}
