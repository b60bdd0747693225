// Package lock serializes work on accounts across service instances.
package lock

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"

	"github.com/josh-kwaku/ledger-core/internal/domain"
	"github.com/josh-kwaku/ledger-core/internal/logging"
)

// Locker runs fn while holding a lock on every key.
type Locker interface {
	WithLocks(ctx context.Context, keys []string, fn func(ctx context.Context) error) error
}

// Noop relies on database row locks alone.
type Noop struct{}

func (Noop) WithLocks(ctx context.Context, _ []string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Options struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

type Redis struct {
	rs   *redsync.Redsync
	opts Options
}

func NewRedis(client goredislib.UniversalClient, opts Options) *Redis {
	return &Redis{
		rs:   redsync.New(goredis.NewPool(client)),
		opts: opts,
	}
}

// NewRedisFromURL parses a redis:// URL and checks the server is reachable.
func NewRedisFromURL(ctx context.Context, url string, opts Options) (*Redis, goredislib.UniversalClient, error) {
	ropts, err := goredislib.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("NewRedisFromURL: %w", err)
	}
	client := goredislib.NewClient(ropts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("NewRedisFromURL: ping: %w", err)
	}
	return NewRedis(client, opts), client, nil
}

// WithLocks acquires the keys in sorted order so two callers locking the same
// pair cannot deadlock. Failing to acquire any key is domain.ErrAccountBusy
// and fn is not run.
func (r *Redis) WithLocks(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	log := logging.FromContext(ctx)

	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*redsync.Mutex, 0, len(sorted))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			if ok, err := held[i].UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
				log.Warn("failed to release lock", "key", held[i].Name(), "error", err)
			}
		}
	}()

	for _, key := range sorted {
		m := r.rs.NewMutex("lock:account:"+key,
			redsync.WithExpiry(r.opts.Expiry),
			redsync.WithTries(r.opts.Tries),
			redsync.WithRetryDelay(r.opts.RetryDelay),
		)
		if err := m.LockContext(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("WithLocks: %s: %w", key, errors.Join(domain.ErrAccountBusy, ctxErr))
			}
			return fmt.Errorf("WithLocks: %s: %w: %v", key, domain.ErrAccountBusy, err)
		}
		held = append(held, m)
	}

	return fn(ctx)
}
