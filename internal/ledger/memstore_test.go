package ledger

import (
	"context"
	"database/sql"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/ledger-core/internal/domain"
	"github.com/josh-kwaku/ledger-core/internal/repository"
)

// memStore is an in-memory stand-in for the account and ledger repositories;
// memGoals views the same state as the goal repository. It has no rollback,
// so tests using it only exercise paths that either commit or fail before the
// first write.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	goals    map[uuid.UUID]*domain.SavingsGoal
	entries  []domain.LedgerEntry
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]*domain.Account{},
		goals:    map[uuid.UUID]*domain.SavingsGoal{},
	}
}

func (m *memStore) addAccount(number string, owner uuid.UUID, currency domain.Currency, balance int64, status domain.AccountStatus) *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &domain.Account{
		ID:            uuid.New(),
		AccountNumber: number,
		OwnerID:       owner,
		Type:          domain.AccountTypeSavings,
		Balance:       balance,
		Currency:      currency,
		Status:        status,
	}
	m.accounts[number] = a
	if balance > 0 {
		m.entries = append(m.entries, domain.LedgerEntry{
			ID: uuid.New(), Seq: int64(len(m.entries) + 1), AccountID: a.ID,
			Kind: domain.EntryKindCredit, Amount: balance, BalanceAfter: balance,
		})
	}
	return a
}

func (m *memStore) GetByNumber(_ context.Context, number string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[number]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) GetByNumberForUpdate(ctx context.Context, _ *sql.Tx, number string) (*domain.Account, error) {
	return m.GetByNumber(ctx, number)
}

func (m *memStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Account
	for _, a := range m.accounts {
		if a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	slices.SortFunc(out, func(a, b domain.Account) int {
		return strings.Compare(a.AccountNumber, b.AccountNumber)
	})
	return out, nil
}

func (m *memStore) ListNumbers(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for n := range m.accounts {
		out = append(out, n)
	}
	slices.Sort(out)
	return out, nil
}

func (m *memStore) UpdateBalance(_ context.Context, _ *sql.Tx, id uuid.UUID, newBalance, newVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ID == id {
			if a.Version != newVersion-1 {
				return domain.ErrVersionConflict
			}
			a.Balance, a.Version = newBalance, newVersion
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

func (m *memStore) Create(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.AccountNumber]; ok {
		return domain.ErrAccountExists
	}
	cp := *a
	m.accounts[a.AccountNumber] = &cp
	return nil
}

type memGoals struct {
	*memStore
}

func (m memGoals) Create(_ context.Context, _ *sql.Tx, g *domain.SavingsGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.goals[g.ID] = &cp
	return nil
}

func (m memGoals) GetForUpdate(_ context.Context, _ *sql.Tx, accountID, goalID uuid.UUID) (*domain.SavingsGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[goalID]
	if !ok || g.AccountID != accountID {
		return nil, domain.ErrGoalNotFound
	}
	cp := *g
	return &cp, nil
}

func (m memGoals) UpdateSaved(_ context.Context, _ *sql.Tx, goalID uuid.UUID, saved int64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[goalID]
	if !ok {
		return domain.ErrGoalNotFound
	}
	g.SavedAmount, g.UpdatedAt = saved, now
	return nil
}

func (m memGoals) ListByAccount(_ context.Context, accountID uuid.UUID) ([]domain.SavingsGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.SavingsGoal{}
	for _, g := range m.goals {
		if g.AccountID == accountID {
			out = append(out, *g)
		}
	}
	slices.SortFunc(out, func(a, b domain.SavingsGoal) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (m *memStore) Append(_ context.Context, _ *sql.Tx, entries ...*domain.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		e.Seq = int64(len(m.entries) + 1)
		e.CreatedAt = time.Now().UTC()
		m.entries = append(m.entries, *e)
	}
	return nil
}

func (m *memStore) FindByIdempotencyKey(_ context.Context, _ *sql.Tx, accountID uuid.UUID, key string) (*domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.AccountID == accountID && e.IdempotencyKey != nil && *e.IdempotencyKey == key {
			cp := e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetByAccountID(_ context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.LedgerEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].AccountID == accountID {
			all = append(all, m.entries[i])
		}
	}
	out := []domain.LedgerEntry{}
	if offset < len(all) {
		out = all[offset:min(offset+limit, len(all))]
	}
	return out, len(all), nil
}

func (m *memStore) GetByReference(_ context.Context, ref string) ([]domain.AccountEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.AccountEntry{}
	for _, e := range m.entries {
		if e.ReferenceID == nil || *e.ReferenceID != ref {
			continue
		}
		for _, a := range m.accounts {
			if a.ID == e.AccountID {
				out = append(out, domain.AccountEntry{LedgerEntry: e, AccountNumber: a.AccountNumber, OwnerID: a.OwnerID, Currency: a.Currency})
			}
		}
	}
	return out, nil
}

func (m *memStore) RecentForOwner(_ context.Context, ownerID uuid.UUID, limit int) ([]domain.AccountEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.AccountEntry{}
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.entries[i]
		for _, a := range m.accounts {
			if a.ID == e.AccountID && a.OwnerID == ownerID {
				out = append(out, domain.AccountEntry{LedgerEntry: e, AccountNumber: a.AccountNumber, OwnerID: a.OwnerID, Currency: a.Currency})
			}
		}
	}
	return out, nil
}

func (m *memStore) Totals(_ context.Context, accountID uuid.UUID) (*repository.Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &repository.Totals{}
	for _, a := range m.accounts {
		if a.ID == accountID {
			t.Balance = a.Balance
		}
	}
	for _, e := range m.entries {
		if e.AccountID != accountID {
			continue
		}
		if e.Kind == domain.EntryKindCredit {
			t.Credits += e.Amount
		} else {
			t.Debits += e.Amount
		}
		t.Entries++
		t.LastBalanceAfter = e.BalanceAfter
	}
	return t, nil
}

func (m *memStore) entriesFor(accountID uuid.UUID) []domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.LedgerEntry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out
}

// directUOW runs fn once with no transaction.
type directUOW struct {
	calls int
}

func (u *directUOW) Do(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	u.calls++
	return fn(ctx, nil)
}
