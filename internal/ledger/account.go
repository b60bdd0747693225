package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

const openAccountAttempts = 3

type OpenAccountRequest struct {
	OwnerID  uuid.UUID
	Type     domain.AccountType
	Currency domain.Currency
}

func (r OpenAccountRequest) validate() error {
	if r.OwnerID == uuid.Nil {
		return fmt.Errorf("owner_id is required: %w", domain.ErrInvalidRequest)
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("account type %q: %w", r.Type, domain.ErrInvalidRequest)
	}
	if !r.Currency.IsValid() {
		return fmt.Errorf("currency %q: %w", r.Currency, domain.ErrInvalidRequest)
	}
	return nil
}

// OpenAccount creates an active, empty account. The number is the type code
// followed by nine digits drawn from a fresh id; a clash draws again.
func (e *Engine) OpenAccount(ctx context.Context, req OpenAccountRequest) (acct *domain.Account, err error) {
	ctx, span := e.tracer.Start(ctx, "ledger.OpenAccount")
	defer func() { endSpan(span, err) }()

	ctx, log := withOperation(ctx, "open_account", "owner_id", req.OwnerID)

	if err := req.validate(); err != nil {
		return nil, wrap("OpenAccount", err)
	}

	for attempt := 1; ; attempt++ {
		id := e.ids.NewID()
		a := &domain.Account{
			ID:            id,
			AccountNumber: accountNumber(req.Type, id),
			OwnerID:       req.OwnerID,
			Type:          req.Type,
			Currency:      req.Currency,
			Status:        domain.AccountStatusActive,
			Version:       1,
			CreatedAt:     e.now(),
		}
		err := e.accounts.Create(ctx, a)
		if err == nil {
			span.SetAttributes(accountKey.String(a.AccountNumber))
			log.Info("account opened", "account_number", a.AccountNumber, "currency", a.Currency)
			return a, nil
		}
		if !errors.Is(err, domain.ErrAccountExists) || attempt == openAccountAttempts {
			return nil, wrap("OpenAccount", err)
		}
		log.Warn("account number taken, drawing another", "account_number", a.AccountNumber)
	}
}

func accountNumber(t domain.AccountType, id uuid.UUID) string {
	return fmt.Sprintf("%s%09d", t, binary.BigEndian.Uint64(id[8:])%1_000_000_000)
}
