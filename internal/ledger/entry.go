package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

// EntryResult is the committed entry and the balance it left behind.
type EntryResult struct {
	AccountNumber string
	Currency      domain.Currency
	Entry         domain.LedgerEntry
	Balance       int64
}

type singleEntry struct {
	accountNumber string
	kind          domain.EntryKind
	amount        int64
	description   string
	referenceID   string
}

// applySingleEntry moves one account's balance and records the matching
// entry. Checks run against the locked row in a fixed order: existence,
// status, duplicate idempotency key, funds.
func (e *Engine) applySingleEntry(ctx context.Context, tx *sql.Tx, p singleEntry) (*EntryResult, error) {
	acct, err := e.accounts.GetByNumberForUpdate(ctx, tx, p.accountNumber)
	if err != nil {
		return nil, fmt.Errorf("applySingleEntry: %w", err)
	}
	if err := acct.EnsureActive(); err != nil {
		return nil, fmt.Errorf("applySingleEntry: %w", err)
	}
	if err := e.guard.checkAndReserve(ctx, tx, acct.ID, p.referenceID); err != nil {
		return nil, fmt.Errorf("applySingleEntry: %w", err)
	}

	var newBalance int64
	if p.kind == domain.EntryKindCredit {
		newBalance, err = credit(acct.Balance, p.amount)
	} else {
		newBalance, err = debit(acct.Balance, p.amount)
	}
	if err != nil {
		return nil, fmt.Errorf("applySingleEntry: %w", err)
	}

	if err := e.accounts.UpdateBalance(ctx, tx, acct.ID, newBalance, acct.Version+1); err != nil {
		return nil, fmt.Errorf("applySingleEntry: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:             e.ids.NewID(),
		AccountID:      acct.ID,
		Kind:           p.kind,
		Amount:         p.amount,
		BalanceAfter:   newBalance,
		Description:    p.description,
		ReferenceID:    refPtr(p.referenceID),
		IdempotencyKey: refPtr(p.referenceID),
	}
	if err := e.ledger.Append(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("applySingleEntry: %w", err)
	}

	return &EntryResult{
		AccountNumber: acct.AccountNumber,
		Currency:      acct.Currency,
		Entry:         *entry,
		Balance:       newBalance,
	}, nil
}

func descriptionOr(description, fallback string) string {
	if description == "" {
		return fallback
	}
	return description
}
