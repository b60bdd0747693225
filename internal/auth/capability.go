package auth

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

type Action string

const (
	ActionDeposit     Action = "deposit"
	ActionWithdraw    Action = "withdraw"
	ActionTransfer    Action = "transfer"
	ActionCreateGoal  Action = "create_goal"
	ActionContribute  Action = "contribute"
	ActionViewAccount Action = "view_account"
)

// adminOnly lists actions customers may not perform even on their own
// accounts.
var adminOnly = map[Action]bool{
	ActionDeposit: true,
}

// Authorize decides whether p may perform action on an account owned by
// ownerID. Admins may act on any account.
func Authorize(p Principal, action Action, ownerID uuid.UUID) error {
	if p.Role == RoleAdmin {
		return nil
	}
	if adminOnly[action] {
		return fmt.Errorf("Authorize: %s requires admin: %w", action, domain.ErrForbidden)
	}
	if p.Role == RoleCustomer && p.UserID == ownerID {
		return nil
	}
	return fmt.Errorf("Authorize: %s on account of another user: %w", action, domain.ErrForbidden)
}
