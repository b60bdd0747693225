package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

type CreateGoalRequest struct {
	AccountNumber string
	Title         string
	TargetAmount  int64
}

type ContributionRequest struct {
	AccountNumber string
	GoalID        uuid.UUID
	Amount        int64
}

type ContributionResult struct {
	AccountNumber string
	Currency      domain.Currency
	Goal          domain.SavingsGoal
	Entry         domain.LedgerEntry
	Balance       int64
}

// CreateGoal opens a savings goal on an active account. Goals start empty and
// only grow through ContributeToGoal.
func (e *Engine) CreateGoal(ctx context.Context, req CreateGoalRequest) (goal *domain.SavingsGoal, err error) {
	ctx, span := e.tracer.Start(ctx, "ledger.CreateGoal", trace.WithAttributes(
		accountKey.String(req.AccountNumber),
		amountKey.Int64(req.TargetAmount),
	))
	defer func() { endSpan(span, err) }()

	ctx, log := withOperation(ctx, "create_goal", "account_number", req.AccountNumber)

	if err := req.validate(); err != nil {
		return nil, wrap("CreateGoal", err)
	}

	err = e.uow.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		acct, err := e.accounts.GetByNumberForUpdate(ctx, tx, req.AccountNumber)
		if err != nil {
			return err
		}
		if err := acct.EnsureActive(); err != nil {
			return err
		}
		now := e.now()
		g := &domain.SavingsGoal{
			ID:           e.ids.NewID(),
			AccountID:    acct.ID,
			Title:        strings.TrimSpace(req.Title),
			TargetAmount: req.TargetAmount,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := e.goals.Create(ctx, tx, g); err != nil {
			return err
		}
		goal = g
		return nil
	})
	if err != nil {
		return nil, wrap("CreateGoal", err)
	}

	log.Info("savings goal created", "goal_id", goal.ID, "target_amount", goal.TargetAmount)
	return goal, nil
}

// ContributeToGoal moves money from the account balance into a goal. The
// account is debited and the goal credited in the same unit of work.
func (e *Engine) ContributeToGoal(ctx context.Context, req ContributionRequest) (res *ContributionResult, err error) {
	ctx, span := e.tracer.Start(ctx, "ledger.ContributeToGoal", trace.WithAttributes(
		accountKey.String(req.AccountNumber),
		goalKey.String(req.GoalID.String()),
		amountKey.Int64(req.Amount),
	))
	defer func() { endSpan(span, err) }()

	ctx, log := withOperation(ctx, "contribute_to_goal",
		"account_number", req.AccountNumber,
		"goal_id", req.GoalID,
	)

	if err := req.validate(); err != nil {
		return nil, wrap("ContributeToGoal", err)
	}

	err = e.execute(ctx, []string{req.AccountNumber}, func(ctx context.Context, tx *sql.Tx) error {
		r, err := e.executeContribution(ctx, tx, req)
		res = r
		return err
	})
	if err != nil {
		return nil, wrap("ContributeToGoal", err)
	}

	log.Info("goal contribution completed",
		"amount", req.Amount,
		"saved_amount", res.Goal.SavedAmount,
		"balance", res.Balance,
	)
	return res, nil
}

func (e *Engine) executeContribution(ctx context.Context, tx *sql.Tx, req ContributionRequest) (*ContributionResult, error) {
	acct, err := e.accounts.GetByNumberForUpdate(ctx, tx, req.AccountNumber)
	if err != nil {
		return nil, fmt.Errorf("executeContribution: %w", err)
	}
	if err := acct.EnsureActive(); err != nil {
		return nil, fmt.Errorf("executeContribution: %w", err)
	}

	goal, err := e.goals.GetForUpdate(ctx, tx, acct.ID, req.GoalID)
	if err != nil {
		return nil, fmt.Errorf("executeContribution: %w", err)
	}

	newBalance, err := debit(acct.Balance, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("executeContribution: %w", err)
	}
	newSaved, err := credit(goal.SavedAmount, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("executeContribution: %w", err)
	}

	if err := e.accounts.UpdateBalance(ctx, tx, acct.ID, newBalance, acct.Version+1); err != nil {
		return nil, fmt.Errorf("executeContribution: %w", err)
	}
	now := e.now()
	if err := e.goals.UpdateSaved(ctx, tx, goal.ID, newSaved, now); err != nil {
		return nil, fmt.Errorf("executeContribution: %w", err)
	}

	goalID := goal.ID
	entry := &domain.LedgerEntry{
		ID:           e.ids.NewID(),
		AccountID:    acct.ID,
		Kind:         domain.EntryKindDebit,
		Amount:       req.Amount,
		BalanceAfter: newBalance,
		Description:  "Savings Contribution - " + goal.Title,
		GoalID:       &goalID,
	}
	if err := e.ledger.Append(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("executeContribution: %w", err)
	}

	goal.SavedAmount = newSaved
	goal.UpdatedAt = now
	return &ContributionResult{
		AccountNumber: acct.AccountNumber,
		Currency:      acct.Currency,
		Goal:          *goal,
		Entry:         *entry,
		Balance:       newBalance,
	}, nil
}

func (e *Engine) ListGoals(ctx context.Context, accountNumber string) ([]domain.SavingsGoal, error) {
	acct, err := e.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: %w", err)
	}
	goals, err := e.goals.ListByAccount(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: %w", err)
	}
	return goals, nil
}
