package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

const goalColumns = `id, account_id, title, target_amount, saved_amount, created_at, updated_at`

type GoalRepository struct {
	db *sql.DB
}

func NewGoalRepository(db *sql.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) Create(ctx context.Context, tx *sql.Tx, goal *domain.SavingsGoal) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO savings_goals (id, account_id, title, target_amount, saved_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		goal.ID, goal.AccountID, goal.Title, goal.TargetAmount, goal.SavedAmount,
		goal.CreatedAt, goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetForUpdate returns the goal only if it belongs to accountID.
func (r *GoalRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, accountID, goalID uuid.UUID) (*domain.SavingsGoal, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = $1 AND account_id = $2 FOR UPDATE`,
		goalID, accountID,
	)
	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrGoalNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return g, nil
}

func (r *GoalRepository) UpdateSaved(ctx context.Context, tx *sql.Tx, goalID uuid.UUID, saved int64, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE savings_goals SET saved_amount = $1, updated_at = $2 WHERE id = $3`,
		saved, now, goalID,
	)
	if err != nil {
		return fmt.Errorf("UpdateSaved: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateSaved: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateSaved: %w", domain.ErrGoalNotFound)
	}
	return nil
}

func (r *GoalRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE account_id = $1 ORDER BY created_at, id`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}
	defer rows.Close()

	goals := []domain.SavingsGoal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByAccount: scan: %w", err)
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByAccount: rows: %w", err)
	}
	return goals, nil
}

func scanGoal(s scanner) (*domain.SavingsGoal, error) {
	var g domain.SavingsGoal
	err := s.Scan(&g.ID, &g.AccountID, &g.Title, &g.TargetAmount, &g.SavedAmount, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
