package ledger

import (
	"context"
	"log/slog"

	"github.com/josh-kwaku/ledger-core/internal/logging"
)

// withOperation tags the context logger with the engine operation so every
// line written while it runs, including repository and lock logs, shares it.
func withOperation(ctx context.Context, op string, attrs ...any) (context.Context, *slog.Logger) {
	l := logging.FromContext(ctx).With(append([]any{"operation", op}, attrs...)...)
	return logging.WithLogger(ctx, l), l
}
