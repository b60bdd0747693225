package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

func newTestRedis(t *testing.T, opts Options) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredislib.NewClient(&goredislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, opts), mr
}

func TestNoop_RunsFn(t *testing.T) {
	called := false
	err := Noop{}.WithLocks(context.Background(), []string{"A"}, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRedis_SerializesSameKey(t *testing.T) {
	l, _ := newTestRedis(t, Options{Expiry: 5 * time.Second, Tries: 200, RetryDelay: 5 * time.Millisecond})

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLocks(context.Background(), []string{"ACC1", "ACC2"}, func(context.Context) error {
				n := inside.Add(1)
				if n > maxInside.Load() {
					maxInside.Store(n)
				}
				time.Sleep(10 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
}

func TestRedis_ReleasesAfterRun(t *testing.T) {
	l, mr := newTestRedis(t, Options{Expiry: 5 * time.Second, Tries: 1, RetryDelay: time.Millisecond})

	err := l.WithLocks(context.Background(), []string{"B", "A", "B"}, func(context.Context) error {
		assert.True(t, mr.Exists("lock:account:A"))
		assert.True(t, mr.Exists("lock:account:B"))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("lock:account:A"))
	assert.False(t, mr.Exists("lock:account:B"))
}

func TestRedis_BusyWhenHeld(t *testing.T) {
	l, mr := newTestRedis(t, Options{Expiry: 5 * time.Second, Tries: 2, RetryDelay: time.Millisecond})
	require.NoError(t, mr.Set("lock:account:HELD", "someone-else"))

	called := false
	err := l.WithLocks(context.Background(), []string{"FREE", "HELD"}, func(context.Context) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, domain.ErrAccountBusy)
	assert.False(t, called)
	assert.False(t, mr.Exists("lock:account:FREE"), "partially acquired locks are released")
}
