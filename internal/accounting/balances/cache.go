package balances

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps recently built trial balances in redis. Balance reads are
// derived data, so a short TTL is safe; a miss just rebuilds.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

func trialBalanceKey(companyID int64, asOf time.Time) string {
	return fmt.Sprintf("tb:%d:%s", companyID, asOf.Format("2006-01-02"))
}

// GetTrialBalance returns a cached trial balance when present.
func (c *Cache) GetTrialBalance(ctx context.Context, companyID int64, asOf time.Time) (TrialBalance, bool) {
	if c == nil || c.client == nil {
		return TrialBalance{}, false
	}
	payload, err := c.client.Get(ctx, trialBalanceKey(companyID, asOf)).Bytes()
	if err != nil {
		return TrialBalance{}, false
	}
	var tb TrialBalance
	if err := json.Unmarshal(payload, &tb); err != nil {
		return TrialBalance{}, false
	}
	return tb, true
}

// PutTrialBalance stores a built trial balance. Failures are ignored; the
// cache is best effort.
func (c *Cache) PutTrialBalance(ctx context.Context, tb TrialBalance) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(tb)
	if err != nil {
		return
	}
	c.client.Set(ctx, trialBalanceKey(tb.CompanyID, tb.AsOf), payload, c.ttl)
}
