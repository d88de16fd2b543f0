package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	JWT         JWTConfig       `mapstructure:"jwt"`
	Ledger      LedgerConfig    `mapstructure:"ledger"`
	Pricing     PricingConfig   `mapstructure:"pricing"`
	WalletAPI   WalletAPIConfig `mapstructure:"wallet_api"`
	Snapshot    SnapshotConfig  `mapstructure:"snapshot"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	Host            string   `mapstructure:"host"`
	ReadTimeout     int      `mapstructure:"read_timeout"`
	WriteTimeout    int      `mapstructure:"write_timeout"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	RateLimitPerMin int      `mapstructure:"rate_limit_per_min"`
	LoginRateLimit  int      `mapstructure:"login_rate_limit_per_min"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string `mapstructure:"migrations_path"`
}

type RedisConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	MaxRetries int    `mapstructure:"max_retries"`
	PoolSize   int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret    string `mapstructure:"secret"`
	AccessTTL int    `mapstructure:"access_token_ttl"`
	Issuer    string `mapstructure:"issuer"`
}

// LedgerConfig tunes the per-session ledger simulation
type LedgerConfig struct {
	SimulatedLatencyMs int  `mapstructure:"simulated_latency_ms"`
	OperationTimeoutMs int  `mapstructure:"operation_timeout_ms"`
	QueueSize          int  `mapstructure:"queue_size"`
	SeedHistory        bool `mapstructure:"seed_history"`
	RestoreOnLogin     bool `mapstructure:"restore_on_login"`
}

// SimulatedLatency returns the artificial delay applied before each operation
func (l LedgerConfig) SimulatedLatency() time.Duration {
	return time.Duration(l.SimulatedLatencyMs) * time.Millisecond
}

// OperationTimeout returns the upper bound for one ledger operation
func (l LedgerConfig) OperationTimeout() time.Duration {
	return time.Duration(l.OperationTimeoutMs) * time.Millisecond
}

// PricingConfig controls the mock price oracle
type PricingConfig struct {
	RefreshSchedule string `mapstructure:"refresh_schedule"`
	RefreshTimeout  int    `mapstructure:"refresh_timeout"`
	CacheTTL        int    `mapstructure:"cache_ttl"`
	Seed            int64  `mapstructure:"seed"`
}

// WalletAPIConfig points at the optional wallet backend
type WalletAPIConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// SnapshotConfig selects where wallet snapshots are persisted
type SnapshotConfig struct {
	Provider string `mapstructure:"provider"` // "memory", "redis", "postgres"
	TTL      int    `mapstructure:"ttl"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	CollectorURL string  `mapstructure:"collector_url"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Insecure     bool    `mapstructure:"insecure"`
}

// Load reads configuration from config.yaml, .env and the process environment
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	overrideFromEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.Database.URL == "" {
		config.Database.URL = fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			config.Database.User,
			config.Database.Password,
			config.Database.Host,
			config.Database.Port,
			config.Database.Name,
			config.Database.SSLMode,
		)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	viper.SetDefault("server.rate_limit_per_min", 120)
	viper.SetDefault("server.login_rate_limit_per_min", 10)
	viper.SetDefault("server.shutdown_timeout", 30)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "flowlux_wallets")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 20)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 3600)
	viper.SetDefault("database.migrations_path", "file://migrations")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)

	viper.SetDefault("jwt.access_token_ttl", 86400) // 1 day
	viper.SetDefault("jwt.issuer", "flowlux_wallet_service")

	viper.SetDefault("ledger.simulated_latency_ms", 1000)
	viper.SetDefault("ledger.operation_timeout_ms", 10000)
	viper.SetDefault("ledger.queue_size", 64)
	viper.SetDefault("ledger.seed_history", true)
	viper.SetDefault("ledger.restore_on_login", true)

	viper.SetDefault("pricing.refresh_schedule", "@every 30s")
	viper.SetDefault("pricing.refresh_timeout", 10)
	viper.SetDefault("pricing.cache_ttl", 5)
	viper.SetDefault("pricing.seed", 0)

	viper.SetDefault("wallet_api.enabled", false)
	viper.SetDefault("wallet_api.base_url", "http://localhost:5000/api")
	viper.SetDefault("wallet_api.timeout", 15)
	viper.SetDefault("wallet_api.max_retries", 3)

	viper.SetDefault("snapshot.provider", "memory")
	viper.SetDefault("snapshot.ttl", 0)

	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.collector_url", "localhost:4317")
	viper.SetDefault("tracing.sample_rate", 1.0)
	viper.SetDefault("tracing.insecure", true)
}

func overrideFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			viper.Set("server.port", p)
		}
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		viper.Set("database.url", dbURL)
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		viper.Set("jwt.secret", jwtSecret)
	}

	if redisURL := os.Getenv("REDIS_HOST"); redisURL != "" {
		viper.Set("redis.host", redisURL)
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		viper.Set("redis.password", redisPassword)
	}

	if apiURL := os.Getenv("WALLET_API_BASE_URL"); apiURL != "" {
		viper.Set("wallet_api.base_url", apiURL)
		viper.Set("wallet_api.enabled", true)
	}

	if provider := os.Getenv("SNAPSHOT_PROVIDER"); provider != "" {
		viper.Set("snapshot.provider", strings.ToLower(provider))
	}

	if latency := os.Getenv("LEDGER_SIMULATED_LATENCY_MS"); latency != "" {
		if l, err := strconv.Atoi(latency); err == nil {
			viper.Set("ledger.simulated_latency_ms", l)
		}
	}

	if collector := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); collector != "" {
		viper.Set("tracing.collector_url", collector)
		viper.Set("tracing.enabled", true)
	}
}

func validate(config *Config) error {
	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if config.Environment == "production" && len(config.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters in production")
	}

	switch config.Snapshot.Provider {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("unsupported snapshot provider %q", config.Snapshot.Provider)
	}

	if config.WalletAPI.Enabled && config.WalletAPI.BaseURL == "" {
		return fmt.Errorf("wallet_api.base_url is required when the wallet API is enabled")
	}

	if config.Ledger.QueueSize <= 0 {
		return fmt.Errorf("ledger.queue_size must be positive")
	}
	if config.Ledger.OperationTimeoutMs <= 0 {
		return fmt.Errorf("ledger.operation_timeout_ms must be positive")
	}
	if config.Ledger.SimulatedLatencyMs < 0 {
		return fmt.Errorf("ledger.simulated_latency_ms must not be negative")
	}

	return nil
}
