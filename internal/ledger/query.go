package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/ledger-core/internal/domain"
	"github.com/josh-kwaku/ledger-core/internal/logging"
)

const (
	defaultRecentLimit = 5
	defaultHistoryPage = 20
)

// GetAccount returns the account with its savings goals attached.
func (e *Engine) GetAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	acct, err := e.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	goals, err := e.goals.ListByAccount(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	acct.SavingsGoals = goals
	return acct, nil
}

func (e *Engine) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]domain.Account, error) {
	accounts, err := e.accounts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

// RecentEntries returns the newest entries across every account the owner
// holds, newest first.
func (e *Engine) RecentEntries(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.AccountEntry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	entries, err := e.ledger.RecentForOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentEntries: %w", err)
	}
	return entries, nil
}

// HistoryPage is one page of an account's entries, newest first.
type HistoryPage struct {
	AccountNumber string
	Currency      domain.Currency
	Entries       []domain.LedgerEntry
	Total         int
	Limit         int
	Offset        int
}

func (e *Engine) AccountHistory(ctx context.Context, accountNumber string, limit, offset int) (*HistoryPage, error) {
	if limit <= 0 {
		limit = defaultHistoryPage
	}
	if offset < 0 {
		offset = 0
	}
	acct, err := e.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("AccountHistory: %w", err)
	}
	entries, total, err := e.ledger.GetByAccountID(ctx, acct.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("AccountHistory: %w", err)
	}
	return &HistoryPage{
		AccountNumber: acct.AccountNumber,
		Currency:      acct.Currency,
		Entries:       entries,
		Total:         total,
		Limit:         limit,
		Offset:        offset,
	}, nil
}

// EntriesByReference finds what a reference committed, across accounts. It
// is how a caller told OperationFailed learns whether the operation landed
// before retrying it. An empty result means nothing was applied.
func (e *Engine) EntriesByReference(ctx context.Context, referenceID string) ([]domain.AccountEntry, error) {
	if referenceID == "" || len(referenceID) > maxReferenceLen {
		return nil, fmt.Errorf("EntriesByReference: %w", domain.ErrInvalidRequest)
	}
	entries, err := e.ledger.GetByReference(ctx, referenceID)
	if err != nil {
		return nil, fmt.Errorf("EntriesByReference: %w", err)
	}
	return entries, nil
}

type Mismatch struct {
	AccountNumber    string
	Balance          int64
	Credits          int64
	Debits           int64
	Entries          int64
	LastBalanceAfter int64
}

type ReconcileReport struct {
	Checked    int
	Mismatches []Mismatch
}

func (r *ReconcileReport) OK() bool { return len(r.Mismatches) == 0 }

// Reconcile checks every account's stored balance against its ledger: the
// balance must equal credits minus debits and the last entry's balance_after.
func (e *Engine) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	log := logging.FromContext(ctx)

	numbers, err := e.accounts.ListNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("Reconcile: %w", err)
	}

	report := &ReconcileReport{}
	for _, n := range numbers {
		acct, err := e.accounts.GetByNumber(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("Reconcile: %w", err)
		}
		totals, err := e.ledger.Totals(ctx, acct.ID)
		if err != nil {
			return nil, fmt.Errorf("Reconcile: %s: %w", n, err)
		}
		report.Checked++

		if totals.Credits-totals.Debits == totals.Balance && totals.LastBalanceAfter == totals.Balance {
			continue
		}
		m := Mismatch{
			AccountNumber:    n,
			Balance:          totals.Balance,
			Credits:          totals.Credits,
			Debits:           totals.Debits,
			Entries:          totals.Entries,
			LastBalanceAfter: totals.LastBalanceAfter,
		}
		log.Error("ledger mismatch", "account_number", n, "balance", m.Balance,
			"credits", m.Credits, "debits", m.Debits, "entries", m.Entries, "last_balance_after", m.LastBalanceAfter)
		report.Mismatches = append(report.Mismatches, m)
	}

	log.Info("reconciliation completed", "checked", report.Checked, "mismatches", len(report.Mismatches))
	return report, nil
}
