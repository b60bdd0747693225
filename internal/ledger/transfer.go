package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/trace"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

type TransferRequest struct {
	FromAccountNumber string
	ToAccountNumber   string
	Amount            int64
	Description       string
	// ReferenceID doubles as the transfer reference. When empty one is
	// generated and the transfer is not protected against resubmission.
	ReferenceID string
}

type AccountBalance struct {
	AccountNumber string
	Balance       int64
}

type TransferResult struct {
	TransferRef string
	Currency    domain.Currency
	From        AccountBalance
	To          AccountBalance
	Debit       domain.LedgerEntry
	Credit      domain.LedgerEntry
}

func (e *Engine) Transfer(ctx context.Context, req TransferRequest) (res *TransferResult, err error) {
	ctx, span := e.tracer.Start(ctx, "ledger.Transfer", trace.WithAttributes(
		accountKey.String(req.FromAccountNumber),
		counterpartyKey.String(req.ToAccountNumber),
		amountKey.Int64(req.Amount),
		referenceKey.String(req.ReferenceID),
	))
	defer func() { endSpan(span, err) }()

	ctx, log := withOperation(ctx, "transfer",
		"from_account", req.FromAccountNumber,
		"to_account", req.ToAccountNumber,
	)

	if err := req.validate(); err != nil {
		return nil, wrap("Transfer", err)
	}

	// Generated once so every retry of the unit writes the same reference.
	transferRef := req.ReferenceID
	if transferRef == "" {
		transferRef = e.ids.NewReference()
	}

	numbers := []string{req.FromAccountNumber, req.ToAccountNumber}
	slices.Sort(numbers)

	err = e.execute(ctx, numbers, func(ctx context.Context, tx *sql.Tx) error {
		r, err := e.executeTransfer(ctx, tx, req, numbers, transferRef)
		res = r
		return err
	})
	if err != nil {
		return nil, wrap("Transfer", err)
	}

	log.Info("transfer completed",
		"transfer_ref", res.TransferRef,
		"amount", req.Amount,
		"currency", res.Currency,
		"from_balance", res.From.Balance,
		"to_balance", res.To.Balance,
	)
	return res, nil
}

func (e *Engine) executeTransfer(ctx context.Context, tx *sql.Tx, req TransferRequest, sortedNumbers []string, transferRef string) (*TransferResult, error) {
	locked := make(map[string]*domain.Account, len(sortedNumbers))
	for _, n := range sortedNumbers {
		acct, err := e.accounts.GetByNumberForUpdate(ctx, tx, n)
		if err != nil {
			return nil, fmt.Errorf("executeTransfer: %s: %w", n, err)
		}
		locked[n] = acct
	}
	from, to := locked[req.FromAccountNumber], locked[req.ToAccountNumber]

	if err := from.EnsureActive(); err != nil {
		return nil, fmt.Errorf("executeTransfer: source: %w", err)
	}
	if err := to.EnsureActive(); err != nil {
		return nil, fmt.Errorf("executeTransfer: destination: %w", err)
	}
	if from.Currency != to.Currency {
		return nil, fmt.Errorf("executeTransfer: %s to %s: %w", from.Currency, to.Currency, domain.ErrCurrencyMismatch)
	}
	if err := e.guard.checkAndReserve(ctx, tx, from.ID, req.ReferenceID); err != nil {
		return nil, fmt.Errorf("executeTransfer: %w", err)
	}

	fromBalance, err := debit(from.Balance, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("executeTransfer: %w", err)
	}
	toBalance, err := credit(to.Balance, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("executeTransfer: %w", err)
	}

	if err := e.accounts.UpdateBalance(ctx, tx, from.ID, fromBalance, from.Version+1); err != nil {
		return nil, fmt.Errorf("executeTransfer: update source: %w", err)
	}
	if err := e.accounts.UpdateBalance(ctx, tx, to.ID, toBalance, to.Version+1); err != nil {
		return nil, fmt.Errorf("executeTransfer: update destination: %w", err)
	}

	ref := transferRef
	// The caller's key belongs to the source account only.
	debitEntry := &domain.LedgerEntry{
		ID:             e.ids.NewID(),
		AccountID:      from.ID,
		Kind:           domain.EntryKindDebit,
		Amount:         req.Amount,
		BalanceAfter:   fromBalance,
		Description:    descriptionOr(req.Description, "Transfer to "+to.AccountNumber),
		ReferenceID:    &ref,
		IdempotencyKey: refPtr(req.ReferenceID),
	}
	creditEntry := &domain.LedgerEntry{
		ID:           e.ids.NewID(),
		AccountID:    to.ID,
		Kind:         domain.EntryKindCredit,
		Amount:       req.Amount,
		BalanceAfter: toBalance,
		Description:  descriptionOr(req.Description, "Transfer from "+from.AccountNumber),
		ReferenceID:  &ref,
	}
	if err := e.ledger.Append(ctx, tx, debitEntry, creditEntry); err != nil {
		return nil, fmt.Errorf("executeTransfer: %w", err)
	}

	return &TransferResult{
		TransferRef: transferRef,
		Currency:    from.Currency,
		From:        AccountBalance{AccountNumber: from.AccountNumber, Balance: fromBalance},
		To:          AccountBalance{AccountNumber: to.AccountNumber, Balance: toBalance},
		Debit:       *debitEntry,
		Credit:      *creditEntry,
	}, nil
}
