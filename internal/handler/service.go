package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/ledger-core/internal/auth"
	"github.com/josh-kwaku/ledger-core/internal/domain"
	"github.com/josh-kwaku/ledger-core/internal/ledger"
	"github.com/josh-kwaku/ledger-core/internal/logging"
)

type ledgerEngine interface {
	Deposit(ctx context.Context, req ledger.DepositRequest) (*ledger.EntryResult, error)
	Withdraw(ctx context.Context, req ledger.WithdrawRequest) (*ledger.EntryResult, error)
	Transfer(ctx context.Context, req ledger.TransferRequest) (*ledger.TransferResult, error)
	CreateGoal(ctx context.Context, req ledger.CreateGoalRequest) (*domain.SavingsGoal, error)
	ContributeToGoal(ctx context.Context, req ledger.ContributionRequest) (*ledger.ContributionResult, error)
	ListGoals(ctx context.Context, accountNumber string) ([]domain.SavingsGoal, error)
	GetAccount(ctx context.Context, accountNumber string) (*domain.Account, error)
	ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]domain.Account, error)
	RecentEntries(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.AccountEntry, error)
	AccountHistory(ctx context.Context, accountNumber string, limit, offset int) (*ledger.HistoryPage, error)
	EntriesByReference(ctx context.Context, referenceID string) ([]domain.AccountEntry, error)
}

// authorizeAccount loads the account and checks the caller may perform action
// on it. On failure the response has been written and nil is returned.
// Customers get the same 403 for a missing account as for someone else's, so
// account numbers cannot be enumerated.
func authorizeAccount(w http.ResponseWriter, r *http.Request, engine ledgerEngine, number string, action auth.Action) *domain.Account {
	log := logging.FromContext(r.Context())

	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return nil
	}

	acct, err := engine.GetAccount(r.Context(), number)
	if err != nil {
		log.Warn("account lookup failed", "account_number", number, "error", err)
		if errors.Is(err, domain.ErrNotFound) && p.Role != auth.RoleAdmin {
			RespondAppError(w, ErrForbidden, nil)
			return nil
		}
		RespondDomainError(w, err)
		return nil
	}

	if err := auth.Authorize(p, action, acct.OwnerID); err != nil {
		log.Warn("operation not permitted", "account_number", number, "action", action, "role", p.Role)
		RespondDomainError(w, err)
		return nil
	}
	return acct
}

// idempotencyKey prefers the body's reference_id and falls back to the
// Idempotency-Key header.
func idempotencyKey(r *http.Request, bodyRef string) string {
	if bodyRef != "" {
		return bodyRef
	}
	return r.Header.Get("Idempotency-Key")
}
