package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledger-core/internal/domain"
	"github.com/josh-kwaku/ledger-core/internal/repository"
	"github.com/josh-kwaku/ledger-core/internal/testutil"
)

func newUOW(db *sql.DB, attempts int) *repository.UnitOfWork {
	return repository.NewUnitOfWork(db, repository.RetryConfig{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	})
}

func strPtr(s string) *string { return &s }

func TestAccountRepository_UpdateBalanceVersionCheck(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAccountRepository(db)
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, uuid.New(), domain.CurrencyINR, 1000)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	err = repo.UpdateBalance(ctx, tx, acct.ID, 500, acct.Version+2)
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	require.NoError(t, repo.UpdateBalance(ctx, tx, acct.ID, 500, acct.Version+1))
	require.NoError(t, tx.Commit())

	got, err := repo.GetByNumber(ctx, acct.AccountNumber)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.Balance)
	assert.Equal(t, acct.Version+1, got.Version)
}

func TestAccountRepository_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAccountRepository(db)

	_, err := repo.GetByNumber(context.Background(), "NOPE00000000")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRepository_CreateDuplicateNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAccountRepository(db)
	ctx := context.Background()

	a := &domain.Account{
		ID:            uuid.New(),
		AccountNumber: testutil.NextAccountNumber(),
		OwnerID:       uuid.New(),
		Type:          domain.AccountTypeCurrent,
		Currency:      domain.CurrencyINR,
		Status:        domain.AccountStatusActive,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, a))

	dup := *a
	dup.ID = uuid.New()
	assert.ErrorIs(t, repo.Create(ctx, &dup), domain.ErrAccountExists)
}

func TestLedgerRepository_AppendAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ledger := repository.NewLedgerRepository(db)
	ctx := context.Background()

	from := testutil.SeedAccount(t, db, uuid.New(), domain.CurrencyINR, 1000)
	to := testutil.SeedAccount(t, db, uuid.New(), domain.CurrencyINR, 0)

	ref := "tr_" + uuid.NewString()
	key := "client-key-1"
	debit := &domain.LedgerEntry{ID: uuid.New(), AccountID: from.ID, Kind: domain.EntryKindDebit, Amount: 400, BalanceAfter: 600, ReferenceID: &ref, IdempotencyKey: &key}
	credit := &domain.LedgerEntry{ID: uuid.New(), AccountID: to.ID, Kind: domain.EntryKindCredit, Amount: 400, BalanceAfter: 400, ReferenceID: &ref}

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, ledger.Append(ctx, tx, debit, credit))
	assert.NotZero(t, debit.Seq)
	assert.Greater(t, credit.Seq, debit.Seq)
	assert.False(t, debit.CreatedAt.IsZero())

	found, err := ledger.FindByIdempotencyKey(ctx, tx, from.ID, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, debit.ID, found.ID)
	assert.Equal(t, ref, *found.ReferenceID)

	missing, err := ledger.FindByIdempotencyKey(ctx, tx, from.ID, ref)
	require.NoError(t, err)
	assert.Nil(t, missing, "the transfer reference is not a key")

	onCredit, err := ledger.FindByIdempotencyKey(ctx, tx, to.ID, key)
	require.NoError(t, err)
	assert.Nil(t, onCredit, "the credit leg carries no key")
	require.NoError(t, tx.Commit())

	byRef, err := ledger.GetByReference(ctx, ref)
	require.NoError(t, err)
	require.Len(t, byRef, 2)
	assert.Equal(t, from.AccountNumber, byRef[0].AccountNumber)
	assert.Equal(t, from.OwnerID, byRef[0].OwnerID)
	assert.Equal(t, to.AccountNumber, byRef[1].AccountNumber)
	assert.Equal(t, domain.CurrencyINR, byRef[1].Currency)
}

func TestLedgerRepository_DuplicateIdempotencyKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ledger := repository.NewLedgerRepository(db)
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, uuid.New(), domain.CurrencyINR, 0)

	insert := func(ref, key *string) error {
		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback()
		e := &domain.LedgerEntry{ID: uuid.New(), AccountID: acct.ID, Kind: domain.EntryKindCredit, Amount: 10, BalanceAfter: 10, ReferenceID: ref, IdempotencyKey: key}
		if err := ledger.Append(ctx, tx, e); err != nil {
			return err
		}
		return tx.Commit()
	}

	require.NoError(t, insert(strPtr("dep-1"), strPtr("dep-1")))
	assert.ErrorIs(t, insert(strPtr("dep-1"), strPtr("dep-1")), domain.ErrDuplicateOperation)

	// Credit legs share a reference without claiming a key.
	require.NoError(t, insert(strPtr("tr-1"), nil))
	require.NoError(t, insert(strPtr("tr-1"), nil))
	require.NoError(t, insert(strPtr("tr-1"), strPtr("tr-1")), "a key the account only saw on incoming legs is free")

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	id := uuid.New()
	require.NoError(t, ledger.Append(ctx, tx, &domain.LedgerEntry{ID: id, AccountID: acct.ID, Kind: domain.EntryKindCredit, Amount: 1, BalanceAfter: 1}))
	err = ledger.Append(ctx, tx, &domain.LedgerEntry{ID: id, AccountID: acct.ID, Kind: domain.EntryKindCredit, Amount: 1, BalanceAfter: 2})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateOperation, "only the key index means duplicate")
}

func TestLedgerRepository_AppendOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	acct := testutil.SeedAccount(t, db, uuid.New(), domain.CurrencyINR, 100)

	_, err := db.Exec(`UPDATE ledger_entries SET amount = 1 WHERE account_id = $1`, acct.ID)
	assert.Error(t, err)
	_, err = db.Exec(`DELETE FROM ledger_entries WHERE account_id = $1`, acct.ID)
	assert.Error(t, err)
}

func TestLedgerRepository_TotalsAndRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ledger := repository.NewLedgerRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	acct := testutil.SeedAccount(t, db, owner, domain.CurrencyINR, 1000)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, ledger.Append(ctx, tx,
		&domain.LedgerEntry{ID: uuid.New(), AccountID: acct.ID, Kind: domain.EntryKindDebit, Amount: 300, BalanceAfter: 700},
	))
	require.NoError(t, tx.Commit())

	totals, err := ledger.Totals(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), totals.Balance, "entry appended without a balance update")
	assert.Equal(t, int64(1000), totals.Credits)
	assert.Equal(t, int64(300), totals.Debits)
	assert.Equal(t, int64(2), totals.Entries)
	assert.Equal(t, int64(700), totals.LastBalanceAfter)

	recent, err := ledger.RecentForOwner(ctx, owner, 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, domain.EntryKindDebit, recent[0].Kind)
	assert.Equal(t, acct.AccountNumber, recent[0].AccountNumber)

	page, total, err := ledger.GetByAccountID(ctx, acct.ID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, page, 1)
}

func TestGoalRepository_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	goals := repository.NewGoalRepository(db)
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, uuid.New(), domain.CurrencyINR, 0)
	other := testutil.SeedAccount(t, db, uuid.New(), domain.CurrencyINR, 0)
	g := testutil.SeedGoal(t, db, acct.ID, "Bike", 5000)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = goals.GetForUpdate(ctx, tx, other.ID, g.ID)
	require.ErrorIs(t, err, domain.ErrGoalNotFound)

	// The failed lookup did not abort the transaction.
	locked, err := goals.GetForUpdate(ctx, tx, acct.ID, g.ID)
	require.NoError(t, err)
	require.NoError(t, goals.UpdateSaved(ctx, tx, locked.ID, 6000, time.Now().UTC()))
	require.NoError(t, tx.Commit())

	list, err := goals.ListByAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(6000), list[0].SavedAmount, "saved may exceed target")
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	accounts := repository.NewAccountRepository(db)
	uow := newUOW(db, 3)
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, uuid.New(), domain.CurrencyINR, 1000)

	err := uow.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := accounts.UpdateBalance(ctx, tx, acct.ID, 0, acct.Version+1); err != nil {
			return err
		}
		return domain.ErrInsufficientFunds
	})

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.False(t, domain.OutcomeUnknown(err))
	assert.Equal(t, int64(1000), testutil.GetAccountBalance(t, db, acct.ID))
}

func TestUnitOfWork_RetriesTransient(t *testing.T) {
	db := testutil.SetupTestDB(t)
	uow := newUOW(db, 3)

	var calls atomic.Int32
	err := uow.Do(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		if calls.Add(1) < 3 {
			return &pq.Error{Code: "40001"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestUnitOfWork_ExhaustedRetries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	uow := newUOW(db, 2)

	var calls atomic.Int32
	err := uow.Do(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		calls.Add(1)
		return domain.ErrVersionConflict
	})

	require.ErrorIs(t, err, domain.ErrOperationFailed)
	assert.Equal(t, int32(2), calls.Load())
}

func TestUnitOfWork_UnknownErrorNotRetried(t *testing.T) {
	db := testutil.SetupTestDB(t)
	uow := newUOW(db, 3)

	var calls atomic.Int32
	err := uow.Do(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		calls.Add(1)
		return errors.New("disk on fire")
	})

	require.ErrorIs(t, err, domain.ErrOperationFailed)
	assert.Equal(t, int32(1), calls.Load())
}
