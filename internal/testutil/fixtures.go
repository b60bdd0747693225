package testutil

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

var accountSeq atomic.Int64

// NextAccountNumber returns a unique 12 character account number.
func NextAccountNumber() string {
	return fmt.Sprintf("SAV%09d", accountSeq.Add(1))
}

func SeedAccount(t *testing.T, db *sql.DB, ownerID uuid.UUID, currency domain.Currency, balance int64) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:            uuid.New(),
		AccountNumber: NextAccountNumber(),
		OwnerID:       ownerID,
		Type:          domain.AccountTypeSavings,
		Balance:       balance,
		Currency:      currency,
		Status:        domain.AccountStatusActive,
		CreatedAt:     time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO accounts (id, account_number, owner_id, account_type, balance, currency, status, version, created_at)
		 VALUES ($1, $2, $3, $4, 0, $5, $6, 0, $7)`,
		a.ID, a.AccountNumber, a.OwnerID, a.Type, a.Currency, a.Status, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed account %s: %v", a.AccountNumber, err)
	}

	// An opening balance is recorded as a credit so the ledger reconciles.
	if balance > 0 {
		_, err = db.Exec(
			`INSERT INTO ledger_entries (id, account_id, kind, amount, balance_after, description)
			 VALUES ($1, $2, 'CREDIT', $3, $3, 'Opening balance')`,
			uuid.New(), a.ID, balance,
		)
		if err != nil {
			t.Fatalf("seed opening entry %s: %v", a.AccountNumber, err)
		}
		_, err = db.Exec(`UPDATE accounts SET balance = $1, version = 1 WHERE id = $2`, balance, a.ID)
		if err != nil {
			t.Fatalf("seed opening balance %s: %v", a.AccountNumber, err)
		}
		a.Version = 1
	}
	return a
}

func SetAccountStatus(t *testing.T, db *sql.DB, accountID uuid.UUID, status domain.AccountStatus) {
	t.Helper()

	if _, err := db.Exec(`UPDATE accounts SET status = $1 WHERE id = $2`, status, accountID); err != nil {
		t.Fatalf("set account status %s: %v", accountID, err)
	}
}

func SeedGoal(t *testing.T, db *sql.DB, accountID uuid.UUID, title string, target int64) *domain.SavingsGoal {
	t.Helper()

	now := time.Now().UTC()
	g := &domain.SavingsGoal{
		ID:           uuid.New(),
		AccountID:    accountID,
		Title:        title,
		TargetAmount: target,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := db.Exec(
		`INSERT INTO savings_goals (id, account_id, title, target_amount, saved_amount, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 0, $5, $5)`,
		g.ID, g.AccountID, g.Title, g.TargetAmount, now,
	)
	if err != nil {
		t.Fatalf("seed goal %s: %v", title, err)
	}
	return g
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}

func GetGoalSaved(t *testing.T, db *sql.DB, goalID uuid.UUID) int64 {
	t.Helper()

	var saved int64
	err := db.QueryRow(`SELECT saved_amount FROM savings_goals WHERE id = $1`, goalID).Scan(&saved)
	if err != nil {
		t.Fatalf("get goal saved %s: %v", goalID, err)
	}
	return saved
}

func CountEntries(t *testing.T, db *sql.DB, accountID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for account %s: %v", accountID, err)
	}
	return count
}

func CountEntriesByReference(t *testing.T, db *sql.DB, referenceID string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE reference_id = $1`, referenceID).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for reference %s: %v", referenceID, err)
	}
	return count
}
