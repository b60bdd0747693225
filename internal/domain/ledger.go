package domain

import (
	"time"

	"github.com/google/uuid"
)

type EntryKind string

const (
	EntryKindCredit EntryKind = "CREDIT"
	EntryKindDebit  EntryKind = "DEBIT"
)

// LedgerEntry is one immutable line of an account's history. ReferenceID
// groups the entries of one operation (both legs of a transfer share it).
// IdempotencyKey is set only on the entry the caller's own operation wrote
// to its own account, so another party's transfer can never claim it.
type LedgerEntry struct {
	ID             uuid.UUID
	Seq            int64
	AccountID      uuid.UUID
	Kind           EntryKind
	Amount         int64
	BalanceAfter   int64
	Description    string
	ReferenceID    *string
	IdempotencyKey *string
	GoalID         *uuid.UUID
	CreatedAt      time.Time
}

// AccountEntry is a ledger entry joined with the account it belongs to.
type AccountEntry struct {
	LedgerEntry
	AccountNumber string
	OwnerID       uuid.UUID
	Currency      Currency
}
