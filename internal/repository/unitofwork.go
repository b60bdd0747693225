package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/josh-kwaku/ledger-core/internal/domain"
	"github.com/josh-kwaku/ledger-core/internal/logging"
)

type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// UnitOfWork runs a function inside one database transaction. Writes become
// visible only if the function returns nil and the commit succeeds.
type UnitOfWork struct {
	db    *sql.DB
	retry RetryConfig
}

func NewUnitOfWork(db *sql.DB, retry RetryConfig) *UnitOfWork {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &UnitOfWork{db: db, retry: retry}
}

// errCommitUnknown marks a failed commit whose effect the server may or may
// not have applied.
var errCommitUnknown = errors.New("commit outcome unknown")

// Do runs fn in a transaction, retrying transient storage faults with a full
// rollback between attempts. Domain rejections returned by fn pass through
// unchanged. Every other failure, including exhausted retries, is reported as
// domain.ErrOperationFailed.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	log := logging.FromContext(ctx)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = u.retry.InitialInterval
	b.MaxInterval = u.retry.MaxInterval
	b.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		err := u.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if domain.IsRejection(err) || errors.Is(err, errCommitUnknown) || !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("retrying unit of work", "attempt", attempt, "retry_in", wait, "error", err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(u.retry.MaxAttempts-1)), ctx)
	err := backoff.RetryNotify(op, policy, notify)
	if err == nil {
		return nil
	}
	if domain.IsRejection(err) {
		return err
	}
	if isTransient(err) {
		return fmt.Errorf("Do: gave up after %d attempts: %w: %w", attempt, domain.ErrOperationFailed, err)
	}
	return fmt.Errorf("Do: %w: %w", domain.ErrOperationFailed, err)
}

func (u *UnitOfWork) attempt(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		// Release row locks now rather than when the deferred call runs.
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		if isRetryableCommit(err) {
			return fmt.Errorf("commit: %w", err)
		}
		return fmt.Errorf("commit: %w: %w", errCommitUnknown, err)
	}
	return nil
}

// isTransient reports faults after which the whole unit can safely run again.
func isTransient(err error) bool {
	if errors.Is(err, domain.ErrVersionConflict) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	switch code := pqCode(err); {
	case code == codeSerializationFailure, code == codeDeadlockDetected, code == codeLockNotAvailable:
		return true
	case strings.HasPrefix(code, "08"):
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// isRetryableCommit accepts only server-side rejections, where the server has
// told us the transaction was rolled back.
func isRetryableCommit(err error) bool {
	code := pqCode(err)
	return strings.HasPrefix(code, "40") || code == codeLockNotAvailable
}
