package ledger

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

const (
	maxReferenceLen   = 128
	maxDescriptionLen = 500
	maxGoalTitleLen   = 200
)

func validateAccountNumber(field, number string) error {
	if strings.TrimSpace(number) == "" {
		return fmt.Errorf("%s is required: %w", field, domain.ErrInvalidRequest)
	}
	return nil
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	return nil
}

func validateText(referenceID, description string) error {
	if len(referenceID) > maxReferenceLen {
		return fmt.Errorf("reference_id longer than %d: %w", maxReferenceLen, domain.ErrInvalidRequest)
	}
	if len(description) > maxDescriptionLen {
		return fmt.Errorf("description longer than %d: %w", maxDescriptionLen, domain.ErrInvalidRequest)
	}
	return nil
}

func (r DepositRequest) validate() error {
	if err := validateAccountNumber("account_number", r.AccountNumber); err != nil {
		return err
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	return validateText(r.ReferenceID, r.Description)
}

func (r WithdrawRequest) validate() error {
	if err := validateAccountNumber("account_number", r.AccountNumber); err != nil {
		return err
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	return validateText(r.ReferenceID, r.Description)
}

func (r TransferRequest) validate() error {
	if err := validateAccountNumber("from_account_number", r.FromAccountNumber); err != nil {
		return err
	}
	if err := validateAccountNumber("to_account_number", r.ToAccountNumber); err != nil {
		return err
	}
	if r.FromAccountNumber == r.ToAccountNumber {
		return domain.ErrSelfTransfer
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	return validateText(r.ReferenceID, r.Description)
}

func (r ContributionRequest) validate() error {
	if err := validateAccountNumber("account_number", r.AccountNumber); err != nil {
		return err
	}
	if r.GoalID == uuid.Nil {
		return fmt.Errorf("goal_id is required: %w", domain.ErrInvalidRequest)
	}
	return validateAmount(r.Amount)
}

func (r CreateGoalRequest) validate() error {
	if err := validateAccountNumber("account_number", r.AccountNumber); err != nil {
		return err
	}
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrInvalidRequest)
	}
	if len(title) > maxGoalTitleLen {
		return fmt.Errorf("title longer than %d: %w", maxGoalTitleLen, domain.ErrInvalidRequest)
	}
	if r.TargetAmount <= 0 {
		return fmt.Errorf("target amount: %w", domain.ErrInvalidAmount)
	}
	return nil
}

// credit returns balance+amount, rejecting sums that would overflow.
func credit(balance, amount int64) (int64, error) {
	if amount > math.MaxInt64-balance {
		return 0, fmt.Errorf("balance overflow: %w", domain.ErrInvalidAmount)
	}
	return balance + amount, nil
}

func debit(balance, amount int64) (int64, error) {
	if balance < amount {
		return 0, domain.ErrInsufficientFunds
	}
	return balance - amount, nil
}
