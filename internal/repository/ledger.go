package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

const ledgerColumns = `id, seq, account_id, kind, amount, balance_after, description,
	reference_id, idempotency_key, goal_id, created_at`

const accountEntryColumns = `l.id, l.seq, l.account_id, l.kind, l.amount, l.balance_after, l.description,
	l.reference_id, l.idempotency_key, l.goal_id, l.created_at, a.account_number, a.owner_id, a.currency`

const idempotencyKeyConstraint = "ux_ledger_entries_account_idempotency_key"

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts all entries in one statement and fills in the Seq and
// CreatedAt the database assigned. An idempotency key already recorded for
// the same account surfaces as ErrDuplicateOperation.
func (r *LedgerRepository) Append(ctx context.Context, tx *sql.Tx, entries ...*domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	const cols = 9
	var sb strings.Builder
	sb.WriteString(`INSERT INTO ledger_entries (
		id, account_id, kind, amount, balance_after, description, reference_id, idempotency_key, goal_id
	) VALUES `)
	args := make([]any, 0, len(entries)*cols)
	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * cols
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)
		args = append(args, e.ID, e.AccountID, e.Kind, e.Amount, e.BalanceAfter, e.Description,
			e.ReferenceID, e.IdempotencyKey, e.GoalID)
	}
	sb.WriteString(` RETURNING id, seq, created_at`)

	rows, err := tx.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		if isConstraintViolation(err, idempotencyKeyConstraint) {
			return fmt.Errorf("Append: %w", domain.ErrDuplicateOperation)
		}
		return fmt.Errorf("Append: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*domain.LedgerEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	for rows.Next() {
		var id uuid.UUID
		var e domain.LedgerEntry
		if err := rows.Scan(&id, &e.Seq, &e.CreatedAt); err != nil {
			return fmt.Errorf("Append: scan: %w", err)
		}
		if target, ok := byID[id]; ok {
			target.Seq, target.CreatedAt = e.Seq, e.CreatedAt
		}
	}
	if err := rows.Err(); err != nil {
		if isConstraintViolation(err, idempotencyKeyConstraint) {
			return fmt.Errorf("Append: %w", domain.ErrDuplicateOperation)
		}
		return fmt.Errorf("Append: rows: %w", err)
	}
	return nil
}

// FindByIdempotencyKey runs inside tx so it observes the same snapshot as the
// balance mutation it guards. Returns nil, nil when no entry exists.
func (r *LedgerRepository) FindByIdempotencyKey(ctx context.Context, tx *sql.Tx, accountID uuid.UUID, key string) (*domain.LedgerEntry, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE account_id = $1 AND idempotency_key = $2`,
		accountID, key,
	)
	e, err := scanLedgerEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByIdempotencyKey: %w", err)
	}
	return e, nil
}

// GetByAccountID pages through an account's history, newest first, and
// reports the total entry count.
func (r *LedgerRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE account_id = $1 ORDER BY seq DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: %w", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: %w", err)
	}
	return entries, total, nil
}

// GetByReference returns every entry sharing referenceID across all
// accounts, in commit order. Callers filter by owner.
func (r *LedgerRepository) GetByReference(ctx context.Context, referenceID string) ([]domain.AccountEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountEntryColumns+`
		FROM ledger_entries l
		JOIN accounts a ON a.id = l.account_id
		WHERE l.reference_id = $1
		ORDER BY l.seq`,
		referenceID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByReference: %w", err)
	}
	entries, err := collectAccountEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("GetByReference: %w", err)
	}
	return entries, nil
}

func (r *LedgerRepository) RecentForOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.AccountEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountEntryColumns+`
		FROM ledger_entries l
		JOIN accounts a ON a.id = l.account_id
		WHERE a.owner_id = $1
		ORDER BY l.seq DESC LIMIT $2`,
		ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("RecentForOwner: %w", err)
	}
	entries, err := collectAccountEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("RecentForOwner: %w", err)
	}
	return entries, nil
}

// Totals summarises an account's history for reconciliation. The balance is
// read in the same statement so all fields come from one snapshot.
type Totals struct {
	Balance          int64
	Credits          int64
	Debits           int64
	Entries          int64
	LastBalanceAfter int64
}

func (r *LedgerRepository) Totals(ctx context.Context, accountID uuid.UUID) (*Totals, error) {
	var t Totals
	err := r.db.QueryRowContext(ctx,
		`SELECT
			a.balance,
			COALESCE(SUM(l.amount) FILTER (WHERE l.kind = 'CREDIT'), 0),
			COALESCE(SUM(l.amount) FILTER (WHERE l.kind = 'DEBIT'), 0),
			COUNT(l.id),
			COALESCE((SELECT balance_after FROM ledger_entries
				WHERE account_id = a.id ORDER BY seq DESC LIMIT 1), 0)
		FROM accounts a
		LEFT JOIN ledger_entries l ON l.account_id = a.id
		WHERE a.id = $1
		GROUP BY a.id, a.balance`,
		accountID,
	).Scan(&t.Balance, &t.Credits, &t.Debits, &t.Entries, &t.LastBalanceAfter)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("Totals: %w", domain.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Totals: %w", err)
	}
	return &t, nil
}

func collectEntries(rows *sql.Rows) ([]domain.LedgerEntry, error) {
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}

func collectAccountEntries(rows *sql.Rows) ([]domain.AccountEntry, error) {
	defer rows.Close()

	out := []domain.AccountEntry{}
	for rows.Next() {
		var ae domain.AccountEntry
		e := &ae.LedgerEntry
		err := rows.Scan(
			&e.ID, &e.Seq, &e.AccountID, &e.Kind, &e.Amount, &e.BalanceAfter, &e.Description,
			&e.ReferenceID, &e.IdempotencyKey, &e.GoalID, &e.CreatedAt,
			&ae.AccountNumber, &ae.OwnerID, &ae.Currency,
		)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, ae)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(
		&e.ID, &e.Seq, &e.AccountID, &e.Kind, &e.Amount, &e.BalanceAfter, &e.Description,
		&e.ReferenceID, &e.IdempotencyKey, &e.GoalID, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
