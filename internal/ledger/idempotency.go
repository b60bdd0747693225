package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

// idempotencyGuard must run after the account row is locked. A concurrent
// submission with the same key then blocks on the row lock and, once the
// first commits, finds its entry here. The unique index on
// (account_id, idempotency_key) backs this up at insert time.
//
// Keys live in their own column, written only on the entry the caller's
// operation owns. An incoming transfer credit carries the sender's
// reference_id but no key, so it cannot make the receiver's first use of
// the same string look like a replay.
type idempotencyGuard struct {
	ledger ledgerRepo
}

func (g idempotencyGuard) checkAndReserve(ctx context.Context, tx *sql.Tx, accountID uuid.UUID, key string) error {
	if key == "" {
		return nil
	}
	prior, err := g.ledger.FindByIdempotencyKey(ctx, tx, accountID, key)
	if err != nil {
		return fmt.Errorf("checkAndReserve: %w", err)
	}
	if prior != nil {
		return fmt.Errorf("checkAndReserve: key %q already applied as entry %d: %w",
			key, prior.Seq, domain.ErrDuplicateOperation)
	}
	return nil
}

func refPtr(referenceID string) *string {
	if referenceID == "" {
		return nil
	}
	return &referenceID
}
