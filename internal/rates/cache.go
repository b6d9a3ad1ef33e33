package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a short-TTL Redis cache over matcher query results. Rate sheets
// change on upload cadence, not per request, so a few minutes of staleness
// is acceptable. All failures are treated as cache misses.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a rate-query cache. A nil client disables caching.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Key builds the cache key for a match query.
func (c *Cache) Key(tenantID, destination string, nights int, checkIn time.Time, mealPlan string) string {
	return fmt.Sprintf("rates:%s:%s:%d:%s:%s",
		tenantID,
		strings.ToLower(strings.TrimSpace(destination)),
		nights,
		checkIn.Format("2006-01-02"),
		strings.ToLower(mealPlan),
	)
}

// Get returns the cached rates for the key, or (nil, false) on miss.
func (c *Cache) Get(ctx context.Context, key string) ([]HotelRate, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var rates []HotelRate
	if err := json.Unmarshal(data, &rates); err != nil {
		return nil, false
	}
	return rates, true
}

// Set stores rates under the key, best-effort.
func (c *Cache) Set(ctx context.Context, key string, rates []HotelRate) {
	if c == nil || c.rdb == nil {
		return
	}

	data, err := json.Marshal(rates)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, key, data, c.ttl).Err()
}
