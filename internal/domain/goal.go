package domain

import (
	"time"

	"github.com/google/uuid"
)

// SavingsGoal ring-fences part of an account's own balance history. SavedAmount
// only grows through contributions and is allowed to exceed TargetAmount.
type SavingsGoal struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	Title        string
	TargetAmount int64
	SavedAmount  int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
