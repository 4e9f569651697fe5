package balances

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	asOf := time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)

	_, ok := cache.GetTrialBalance(ctx, 1, asOf)
	require.False(t, ok)

	tb := TrialBalance{
		CompanyID:   1,
		AsOf:        asOf,
		Rows:        []TrialBalanceRow{{AccountID: 2, Code: "1100", Name: "Kas", Balance: 500_000}},
		TotalDebit:  500_000,
		TotalCredit: 500_000,
	}
	cache.PutTrialBalance(ctx, tb)

	got, ok := cache.GetTrialBalance(ctx, 1, asOf)
	require.True(t, ok)
	require.Equal(t, tb.TotalDebit, got.TotalDebit)
	require.Len(t, got.Rows, 1)
	require.Equal(t, "1100", got.Rows[0].Code)

	// Other companies and dates miss.
	_, ok = cache.GetTrialBalance(ctx, 2, asOf)
	require.False(t, ok)
	_, ok = cache.GetTrialBalance(ctx, 1, asOf.AddDate(0, 0, 1))
	require.False(t, ok)
}

func TestCacheExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	asOf := time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)

	cache.PutTrialBalance(ctx, TrialBalance{CompanyID: 1, AsOf: asOf})
	mr.FastForward(2 * time.Minute)

	_, ok := cache.GetTrialBalance(ctx, 1, asOf)
	require.False(t, ok)
}

func TestNilCacheIsNoop(t *testing.T) {
	cache := NewCache(nil, time.Minute)
	ctx := context.Background()

	cache.PutTrialBalance(ctx, TrialBalance{CompanyID: 1})
	_, ok := cache.GetTrialBalance(ctx, 1, time.Now())
	require.False(t, ok)
}
