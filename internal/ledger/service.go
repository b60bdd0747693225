// Package ledger is the transaction engine. Every balance change goes
// through one of its operations, each of which runs as a single unit of work:
// the account rows are locked, the change is validated against the locked
// state, and the balance update and its ledger entries commit together.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/josh-kwaku/ledger-core/internal/domain"
	"github.com/josh-kwaku/ledger-core/internal/idgen"
	"github.com/josh-kwaku/ledger-core/internal/lock"
	"github.com/josh-kwaku/ledger-core/internal/repository"
)

const tracerName = "github.com/josh-kwaku/ledger-core/internal/ledger"

type accountRepo interface {
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	GetByNumberForUpdate(ctx context.Context, tx *sql.Tx, number string) (*domain.Account, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Account, error)
	ListNumbers(ctx context.Context) ([]string, error)
	Create(ctx context.Context, account *domain.Account) error
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error
}

type goalRepo interface {
	Create(ctx context.Context, tx *sql.Tx, goal *domain.SavingsGoal) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, accountID, goalID uuid.UUID) (*domain.SavingsGoal, error)
	UpdateSaved(ctx context.Context, tx *sql.Tx, goalID uuid.UUID, saved int64, now time.Time) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.SavingsGoal, error)
}

type ledgerRepo interface {
	Append(ctx context.Context, tx *sql.Tx, entries ...*domain.LedgerEntry) error
	FindByIdempotencyKey(ctx context.Context, tx *sql.Tx, accountID uuid.UUID, key string) (*domain.LedgerEntry, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
	GetByReference(ctx context.Context, referenceID string) ([]domain.AccountEntry, error)
	RecentForOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.AccountEntry, error)
	Totals(ctx context.Context, accountID uuid.UUID) (*repository.Totals, error)
}

type unitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type Engine struct {
	accounts accountRepo
	goals    goalRepo
	ledger   ledgerRepo
	uow      unitOfWork
	guard    idempotencyGuard
	locker   lock.Locker
	ids      idgen.Generator
	tracer   trace.Tracer
	now      func() time.Time
}

type Option func(*Engine)

func WithLocker(l lock.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

func WithIDGenerator(g idgen.Generator) Option {
	return func(e *Engine) { e.ids = g }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracer = tp.Tracer(tracerName) }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(
	accounts accountRepo,
	goals goalRepo,
	ledger ledgerRepo,
	uow unitOfWork,
	opts ...Option,
) *Engine {
	e := &Engine{
		accounts: accounts,
		goals:    goals,
		ledger:   ledger,
		uow:      uow,
		guard:    idempotencyGuard{ledger: ledger},
		locker:   lock.Noop{},
		ids:      idgen.UUID{},
		tracer:   otel.Tracer(tracerName),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// execute runs fn in one unit of work while holding the cross-instance locks
// for the given account numbers.
func (e *Engine) execute(ctx context.Context, numbers []string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return e.locker.WithLocks(ctx, numbers, func(ctx context.Context) error {
		return e.uow.Do(ctx, fn)
	})
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		switch {
		case domain.OutcomeUnknown(err):
			span.SetAttributes(outcomeKey.String("unknown"))
			span.SetStatus(codes.Error, err.Error())
		case domain.IsRejection(err):
			span.SetAttributes(outcomeKey.String("rejected"))
			span.SetStatus(codes.Error, rejectionReason(err))
		default:
			span.SetStatus(codes.Error, err.Error())
		}
	} else {
		span.SetAttributes(outcomeKey.String("committed"))
	}
	span.End()
}

func rejectionReason(err error) string {
	for _, c := range []struct {
		target error
		reason string
	}{
		{domain.ErrValidation, "validation"},
		{domain.ErrForbidden, "forbidden"},
		{domain.ErrNotFound, "not_found"},
		{domain.ErrAccountNotActive, "account_not_active"},
		{domain.ErrInsufficientFunds, "insufficient_funds"},
		{domain.ErrDuplicateOperation, "duplicate"},
		{domain.ErrAccountBusy, "account_busy"},
	} {
		if errors.Is(err, c.target) {
			return c.reason
		}
	}
	return "rejected"
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
