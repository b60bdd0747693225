package domain

import (
	"errors"
	"fmt"
)

// Categories. Callers branch on these with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrAccountNotActive   = errors.New("account not active")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrDuplicateOperation = errors.New("duplicate operation")
	ErrOperationFailed    = errors.New("operation failed, outcome unknown")
	ErrAccountBusy        = errors.New("account busy")
)

var (
	ErrInvalidAmount    = fmt.Errorf("amount must be greater than zero: %w", ErrValidation)
	ErrInvalidRequest   = fmt.Errorf("invalid request: %w", ErrValidation)
	ErrSelfTransfer     = fmt.Errorf("cannot transfer to same account: %w", ErrValidation)
	ErrCurrencyMismatch = fmt.Errorf("currency mismatch: %w", ErrValidation)

	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	ErrGoalNotFound    = fmt.Errorf("savings goal %w", ErrNotFound)

	ErrAccountFrozen = fmt.Errorf("account frozen: %w", ErrAccountNotActive)
	ErrAccountClosed = fmt.Errorf("account closed: %w", ErrAccountNotActive)
)

// Storage-level conditions. The unit of work retries ErrVersionConflict.
var (
	ErrVersionConflict = errors.New("optimistic lock conflict")
	ErrAccountExists   = errors.New("account number already exists")
)

// OutcomeUnknown reports whether err leaves the caller unable to tell if the
// operation was applied. Every other failure guarantees nothing was written.
func OutcomeUnknown(err error) bool {
	return errors.Is(err, ErrOperationFailed)
}

// IsRejection reports whether err is a recognised business outcome. A
// rejected operation applied nothing and retrying it unchanged cannot help.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrForbidden, ErrNotFound, ErrAccountNotActive,
		ErrInsufficientFunds, ErrDuplicateOperation, ErrAccountBusy,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
