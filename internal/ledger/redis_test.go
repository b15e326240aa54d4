package ledger

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

func newRedisTestStore(t *testing.T, balances map[string]int64) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, "test")
	for tenant, balance := range balances {
		require.NoError(t, mr.Set(store.balanceKey(tenant), strconv.FormatInt(balance, 10)))
	}
	return store, mr
}

func TestRedisConcurrentDebitsNeverOverdraw(t *testing.T) {
	const opening = 25
	store, _ := newRedisTestStore(t, map[string]int64{"acme": opening})
	l := New(store, Options{})
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		exhausted atomic.Int64
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.TryDebit(ctx, "acme", 1, domain.ReasonGeneration)
			switch {
			case err == nil:
				succeeded.Add(1)
			case domain.KindOf(err) == domain.KindCreditExhausted:
				exhausted.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, opening, succeeded.Load())
	assert.EqualValues(t, 200-opening, exhausted.Load())

	balance, err := l.Balance(ctx, "acme")
	require.NoError(t, err)
	assert.EqualValues(t, 0, balance)

	entries, err := l.History(ctx, "acme", 0)
	require.NoError(t, err)
	require.Len(t, entries, opening)
	seen := make(map[int64]bool, opening)
	for _, e := range entries {
		assert.EqualValues(t, -1, e.Delta)
		assert.GreaterOrEqual(t, e.BalanceAfter, int64(0))
		assert.False(t, seen[e.BalanceAfter], "balance %d observed twice", e.BalanceAfter)
		seen[e.BalanceAfter] = true
	}
}

func TestRedisRejectedDebitWritesNoEntry(t *testing.T) {
	store, mr := newRedisTestStore(t, map[string]int64{"acme": 1})
	ctx := context.Background()

	entry, err := store.Apply(ctx, "acme", -1, domain.ReasonImageGeneration)
	require.NoError(t, err)
	assert.EqualValues(t, 0, entry.BalanceAfter)

	_, err = store.Apply(ctx, "acme", -1, domain.ReasonImageGeneration)
	assert.ErrorIs(t, err, domain.ErrCreditExhausted)

	items, err := mr.List(store.entriesKey("acme"))
	require.NoError(t, err)
	assert.Len(t, items, 1)

	balance, err := store.Balance(ctx, "acme")
	require.NoError(t, err)
	assert.EqualValues(t, 0, balance)

	// a tenant with no key starts at zero and cannot be debited
	_, err = store.Apply(ctx, "fresh", -1, domain.ReasonGeneration)
	assert.ErrorIs(t, err, domain.ErrCreditExhausted)
	assert.False(t, mr.Exists(store.entriesKey("fresh")))
}

func TestRedisEntriesKeepLargeBalancesExact(t *testing.T) {
	const opening = int64(100_000_000_000_000)
	store, mr := newRedisTestStore(t, map[string]int64{"whale": opening})
	ctx := context.Background()

	debit, err := store.Apply(ctx, "whale", -1, domain.ReasonGeneration)
	require.NoError(t, err)
	assert.Equal(t, opening-1, debit.BalanceAfter)

	credit, err := store.Apply(ctx, "whale", opening, domain.ReasonPurchase)
	require.NoError(t, err)
	assert.Equal(t, 2*opening-1, credit.BalanceAfter)

	items, err := mr.List(store.entriesKey("whale"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, strings.Contains(items[0], `"balance_after":199999999999999}`), items[0])

	entries, err := store.Entries(ctx, "whale", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, credit.ID, entries[0].ID)
	assert.Equal(t, opening, entries[0].Delta)
	assert.Equal(t, 2*opening-1, entries[0].BalanceAfter)
	assert.Equal(t, domain.ReasonPurchase, entries[0].Reason)
	assert.Equal(t, debit.ID, entries[1].ID)
	assert.Equal(t, opening-1, entries[1].BalanceAfter)
	assert.True(t, entries[1].CreatedAt.Equal(debit.CreatedAt))

	limited, err := store.Entries(ctx, "whale", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, credit.ID, limited[0].ID)
}
