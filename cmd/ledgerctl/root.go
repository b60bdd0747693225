package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/ledger-core/internal/config"
	"github.com/josh-kwaku/ledger-core/internal/ledger"
	"github.com/josh-kwaku/ledger-core/internal/logging"
	"github.com/josh-kwaku/ledger-core/internal/repository"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	databaseURL     string
	logLevel        string
	defaultCurrency string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	tooling, envErr := config.LoadTooling()
	if envErr == nil {
		opts.databaseURL = tooling.DatabaseURL
		opts.logLevel = tooling.LogLevel
		opts.defaultCurrency = tooling.DefaultCurrency
	}

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operator tooling for the ledger database",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return envErr
			}
			logging.Init(logging.Options{
				Service: "ledgerctl",
				Version: version,
				Level:   opts.logLevel,
				Env:     "development",
				Output:  cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", opts.databaseURL,
		"postgres connection string (defaults to $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "debug, info, warn or error")

	rootCmd.AddCommand(newMigrateCmd(opts))
	rootCmd.AddCommand(newReconcileCmd(opts))
	rootCmd.AddCommand(newAccountCmd(opts))

	return rootCmd
}

func (o *rootOptions) openDB(ctx context.Context) (*sql.DB, error) {
	if o.databaseURL == "" {
		return nil, errors.New("--database-url or DATABASE_URL is required")
	}
	return repository.NewPostgresDB(ctx, o.databaseURL, repository.PoolConfig{
		MaxOpenConns:     4,
		MaxIdleConns:     2,
		ConnMaxLifetimeS: 300,
		ConnMaxIdleTimeS: 60,
	}, 10*time.Second)
}

// newEngine builds an engine without retries or distributed locks; operator
// commands run one at a time.
func newEngine(db *sql.DB) *ledger.Engine {
	return ledger.NewEngine(
		repository.NewAccountRepository(db),
		repository.NewGoalRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewUnitOfWork(db, repository.RetryConfig{MaxAttempts: 1}),
	)
}
