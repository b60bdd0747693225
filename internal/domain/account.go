package domain

import (
	"time"

	"github.com/google/uuid"
)

type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

func (c Currency) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

type AccountType string

const (
	AccountTypeSavings AccountType = "SAV"
	AccountTypeCurrent AccountType = "CUR"
)

func (t AccountType) IsValid() bool {
	return t == AccountTypeSavings || t == AccountTypeCurrent
}

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusFrozen AccountStatus = "frozen"
	AccountStatusClosed AccountStatus = "closed"
)

type Account struct {
	ID            uuid.UUID
	AccountNumber string
	OwnerID       uuid.UUID
	Type          AccountType
	Balance       int64
	Currency      Currency
	Status        AccountStatus
	Version       int64
	SavingsGoals  []SavingsGoal
	CreatedAt     time.Time
}

// EnsureActive reports the state error for any status other than active.
func (a *Account) EnsureActive() error {
	switch a.Status {
	case AccountStatusActive:
		return nil
	case AccountStatusFrozen:
		return ErrAccountFrozen
	case AccountStatusClosed:
		return ErrAccountClosed
	default:
		return ErrAccountNotActive
	}
}
