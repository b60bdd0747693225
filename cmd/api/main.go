package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	goredislib "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/josh-kwaku/ledger-core/internal/config"
	"github.com/josh-kwaku/ledger-core/internal/handler"
	"github.com/josh-kwaku/ledger-core/internal/ledger"
	"github.com/josh-kwaku/ledger-core/internal/lock"
	"github.com/josh-kwaku/ledger-core/internal/logging"
	"github.com/josh-kwaku/ledger-core/internal/middleware"
	"github.com/josh-kwaku/ledger-core/internal/repository"
	"github.com/josh-kwaku/ledger-core/internal/telemetry"
)

const serviceName = "ledger-api"

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Options{
		Service: serviceName,
		Version: version,
		Level:   cfg.LogLevel,
		Env:     cfg.AppEnv,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, serviceName, cfg.TracesExporter)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}, 30*time.Second)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := repository.MigrateUp(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	locker, redisClient, err := newLocker(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	engine := ledger.NewEngine(
		repository.NewAccountRepository(db),
		repository.NewGoalRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewUnitOfWork(db, repository.RetryConfig{
			MaxAttempts:     cfg.UOWMaxAttempts,
			InitialInterval: cfg.UOWInitialBackoff(),
			MaxInterval:     cfg.UOWMaxBackoff(),
		}),
		ledger.WithLocker(locker),
	)

	health := handler.NewHealthHandler(version, db)
	if redisClient != nil {
		health.WithCheck("redis", handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(routes(cfg, engine, health), "http.server"),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", srv.Addr, "distributed_locks", redisClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// newLocker returns a Redis-backed locker when REDIS_URL is set. Without it
// account serialization rests on the database row locks alone.
func newLocker(ctx context.Context, cfg *config.Config) (lock.Locker, goredislib.UniversalClient, error) {
	if cfg.RedisURL == "" {
		return lock.Noop{}, nil, nil
	}
	l, client, err := lock.NewRedisFromURL(ctx, cfg.RedisURL, lock.Options{
		Expiry:     cfg.LockExpiry(),
		Tries:      cfg.LockTries,
		RetryDelay: cfg.LockRetryDelay(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return l, client, nil
}

func routes(cfg *config.Config, engine *ledger.Engine, health *handler.HealthHandler) http.Handler {
	tx := handler.NewTxHandler(engine, cfg.RecentEntriesLimit)
	accounts := handler.NewAccountHandler(engine)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/tx/deposit", tx.Deposit)
	api.HandleFunc("POST /api/v1/tx/withdraw", tx.Withdraw)
	api.HandleFunc("POST /api/v1/tx/transfer", tx.Transfer)
	api.HandleFunc("GET /api/v1/tx/my", tx.Recent)
	api.HandleFunc("GET /api/v1/tx/{reference}", tx.ByReference)
	api.HandleFunc("GET /api/v1/accounts", accounts.List)
	api.HandleFunc("GET /api/v1/accounts/{number}", accounts.Get)
	api.HandleFunc("GET /api/v1/accounts/{number}/goals", accounts.ListGoals)
	api.HandleFunc("GET /api/v1/accounts/{number}/entries", accounts.History)
	api.HandleFunc("POST /api/v1/accounts/goals", accounts.CreateGoal)
	api.HandleFunc("POST /api/v1/accounts/goals/contribute", accounts.Contribute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)
	mux.Handle("/api/", middleware.Auth(cfg.JWTSecret)(middleware.Logging(api)))

	return middleware.Recovery(middleware.RequestID(mux))
}

