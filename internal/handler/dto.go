package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/ledger-core/internal/domain"
	"github.com/josh-kwaku/ledger-core/internal/ledger"
	"github.com/josh-kwaku/ledger-core/internal/money"
)

type entryDTO struct {
	ID                uuid.UUID       `json:"id"`
	Seq               int64           `json:"seq"`
	AccountNumber     string          `json:"account_number"`
	Kind              string          `json:"kind"`
	Amount            decimal.Decimal `json:"amount"`
	AmountMinor       int64           `json:"amount_minor"`
	BalanceAfter      decimal.Decimal `json:"balance_after"`
	BalanceAfterMinor int64           `json:"balance_after_minor"`
	Currency          string          `json:"currency"`
	Description       string          `json:"description"`
	ReferenceID       *string         `json:"reference_id,omitempty"`
	IdempotencyKey    *string         `json:"idempotency_key,omitempty"`
	GoalID            *uuid.UUID      `json:"goal_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func toEntryDTO(e domain.LedgerEntry, accountNumber string, c domain.Currency) entryDTO {
	return entryDTO{
		ID:                e.ID,
		Seq:               e.Seq,
		AccountNumber:     accountNumber,
		Kind:              string(e.Kind),
		Amount:            money.ToMajor(e.Amount, c),
		AmountMinor:       e.Amount,
		BalanceAfter:      money.ToMajor(e.BalanceAfter, c),
		BalanceAfterMinor: e.BalanceAfter,
		Currency:          string(c),
		Description:       e.Description,
		ReferenceID:       e.ReferenceID,
		IdempotencyKey:    e.IdempotencyKey,
		GoalID:            e.GoalID,
		CreatedAt:         e.CreatedAt,
	}
}

type balanceDTO struct {
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	BalanceMinor  int64           `json:"balance_minor"`
	Currency      string          `json:"currency"`
}

func toBalanceDTO(number string, balance int64, c domain.Currency) balanceDTO {
	return balanceDTO{
		AccountNumber: number,
		Balance:       money.ToMajor(balance, c),
		BalanceMinor:  balance,
		Currency:      string(c),
	}
}

type entryResultDTO struct {
	Entry   entryDTO   `json:"entry"`
	Account balanceDTO `json:"account"`
}

func toEntryResultDTO(r *ledger.EntryResult) entryResultDTO {
	return entryResultDTO{
		Entry:   toEntryDTO(r.Entry, r.AccountNumber, r.Currency),
		Account: toBalanceDTO(r.AccountNumber, r.Balance, r.Currency),
	}
}

type transferDTO struct {
	TransferRef string          `json:"transfer_ref"`
	Amount      decimal.Decimal `json:"amount"`
	AmountMinor int64           `json:"amount_minor"`
	Currency    string          `json:"currency"`
	From        balanceDTO      `json:"from"`
	To          balanceDTO      `json:"to"`
	Entries     []entryDTO      `json:"entries"`
}

func toTransferDTO(r *ledger.TransferResult) transferDTO {
	return transferDTO{
		TransferRef: r.TransferRef,
		Amount:      money.ToMajor(r.Debit.Amount, r.Currency),
		AmountMinor: r.Debit.Amount,
		Currency:    string(r.Currency),
		From:        toBalanceDTO(r.From.AccountNumber, r.From.Balance, r.Currency),
		To:          toBalanceDTO(r.To.AccountNumber, r.To.Balance, r.Currency),
		Entries: []entryDTO{
			toEntryDTO(r.Debit, r.From.AccountNumber, r.Currency),
			toEntryDTO(r.Credit, r.To.AccountNumber, r.Currency),
		},
	}
}

type goalDTO struct {
	ID                uuid.UUID       `json:"id"`
	Title             string          `json:"title"`
	TargetAmount      decimal.Decimal `json:"target_amount"`
	TargetAmountMinor int64           `json:"target_amount_minor"`
	SavedAmount       decimal.Decimal `json:"saved_amount"`
	SavedAmountMinor  int64           `json:"saved_amount_minor"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func toGoalDTO(g domain.SavingsGoal, c domain.Currency) goalDTO {
	return goalDTO{
		ID:                g.ID,
		Title:             g.Title,
		TargetAmount:      money.ToMajor(g.TargetAmount, c),
		TargetAmountMinor: g.TargetAmount,
		SavedAmount:       money.ToMajor(g.SavedAmount, c),
		SavedAmountMinor:  g.SavedAmount,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
}

func toGoalDTOs(goals []domain.SavingsGoal, c domain.Currency) []goalDTO {
	out := make([]goalDTO, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalDTO(g, c))
	}
	return out
}

type accountDTO struct {
	ID            uuid.UUID       `json:"id"`
	AccountNumber string          `json:"account_number"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Type          string          `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
	BalanceMinor  int64           `json:"balance_minor"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	SavingsGoals  []goalDTO       `json:"savings_goals,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	dto := accountDTO{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		OwnerID:       a.OwnerID,
		Type:          string(a.Type),
		Balance:       money.ToMajor(a.Balance, a.Currency),
		BalanceMinor:  a.Balance,
		Currency:      string(a.Currency),
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
	}
	if a.SavingsGoals != nil {
		dto.SavingsGoals = toGoalDTOs(a.SavingsGoals, a.Currency)
	}
	return dto
}

type historyDTO struct {
	AccountNumber string     `json:"account_number"`
	Entries       []entryDTO `json:"entries"`
	Total         int        `json:"total"`
	Limit         int        `json:"limit"`
	Offset        int        `json:"offset"`
}

func toHistoryDTO(p *ledger.HistoryPage) historyDTO {
	entries := make([]entryDTO, 0, len(p.Entries))
	for _, e := range p.Entries {
		entries = append(entries, toEntryDTO(e, p.AccountNumber, p.Currency))
	}
	return historyDTO{
		AccountNumber: p.AccountNumber,
		Entries:       entries,
		Total:         p.Total,
		Limit:         p.Limit,
		Offset:        p.Offset,
	}
}
