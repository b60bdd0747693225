package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

type Config struct {
	DatabaseURL     string `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret       string `env:"JWT_SECRET,required,notEmpty"`
	Port            int    `env:"PORT" envDefault:"8080"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv          string `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`

	UOWMaxAttempts      int `env:"UOW_MAX_ATTEMPTS" envDefault:"3"`
	UOWInitialBackoffMS int `env:"UOW_INITIAL_BACKOFF_MS" envDefault:"20"`
	UOWMaxBackoffMS     int `env:"UOW_MAX_BACKOFF_MS" envDefault:"250"`

	RedisURL         string `env:"REDIS_URL"`
	LockExpiryMS     int    `env:"LOCK_EXPIRY_MS" envDefault:"8000"`
	LockTries        int    `env:"LOCK_TRIES" envDefault:"32"`
	LockRetryDelayMS int    `env:"LOCK_RETRY_DELAY_MS" envDefault:"50"`

	TracesExporter     string `env:"OTEL_TRACES_EXPORTER" envDefault:"none"`
	RecentEntriesLimit int    `env:"RECENT_ENTRIES_LIMIT" envDefault:"5"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.UOWMaxAttempts < 1 {
		return nil, fmt.Errorf("config.Load: UOW_MAX_ATTEMPTS must be at least 1")
	}
	return &cfg, nil
}

// Tooling is what ledgerctl reads from the environment. Nothing is required
// here; flags may supply the rest.
type Tooling struct {
	DatabaseURL     string `env:"DATABASE_URL"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	DefaultCurrency string `env:"DEFAULT_CURRENCY" envDefault:"INR"`
}

func LoadTooling() (*Tooling, error) {
	t, err := env.ParseAs[Tooling]()
	if err != nil {
		return nil, fmt.Errorf("config.LoadTooling: %w", err)
	}
	if !domain.Currency(t.DefaultCurrency).IsValid() {
		return nil, fmt.Errorf("config.LoadTooling: DEFAULT_CURRENCY %q is not an ISO 4217 code", t.DefaultCurrency)
	}
	return &t, nil
}

func (c *Config) UOWInitialBackoff() time.Duration {
	return time.Duration(c.UOWInitialBackoffMS) * time.Millisecond
}

func (c *Config) UOWMaxBackoff() time.Duration {
	return time.Duration(c.UOWMaxBackoffMS) * time.Millisecond
}

func (c *Config) LockExpiry() time.Duration {
	return time.Duration(c.LockExpiryMS) * time.Millisecond
}

func (c *Config) LockRetryDelay() time.Duration {
	return time.Duration(c.LockRetryDelayMS) * time.Millisecond
}
