package ledger

import (
	"context"
	"database/sql"

	"go.opentelemetry.io/otel/trace"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

type WithdrawRequest struct {
	AccountNumber string
	Amount        int64
	Description   string
	ReferenceID   string
}

func (e *Engine) Withdraw(ctx context.Context, req WithdrawRequest) (res *EntryResult, err error) {
	ctx, span := e.tracer.Start(ctx, "ledger.Withdraw", trace.WithAttributes(
		accountKey.String(req.AccountNumber),
		amountKey.Int64(req.Amount),
		referenceKey.String(req.ReferenceID),
	))
	defer func() { endSpan(span, err) }()

	ctx, log := withOperation(ctx, "withdraw", "account_number", req.AccountNumber)

	if err := req.validate(); err != nil {
		return nil, wrap("Withdraw", err)
	}

	err = e.execute(ctx, []string{req.AccountNumber}, func(ctx context.Context, tx *sql.Tx) error {
		r, err := e.applySingleEntry(ctx, tx, singleEntry{
			accountNumber: req.AccountNumber,
			kind:          domain.EntryKindDebit,
			amount:        req.Amount,
			description:   descriptionOr(req.Description, "Withdraw"),
			referenceID:   req.ReferenceID,
		})
		res = r
		return err
	})
	if err != nil {
		return nil, wrap("Withdraw", err)
	}

	log.Info("withdrawal completed",
		"entry_id", res.Entry.ID,
		"amount", req.Amount,
		"reference_id", req.ReferenceID,
		"balance", res.Balance,
	)
	return res, nil
}
