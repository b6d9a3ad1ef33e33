package rates

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCache(rdb, time.Minute)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	checkIn := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)
	key := cache.Key("safari-co", "Kruger", 3, checkIn, "DBB")

	stored := []HotelRate{{
		RateID:       "r-1",
		HotelName:    "Lion Lodge",
		PriceSharing: 4500,
		Nights:       3,
		Active:       true,
	}}
	cache.Set(ctx, key, stored)

	got, ok := cache.Get(ctx, key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].RateID != "r-1" || got[0].PriceSharing != 4500 {
		t.Fatalf("unexpected cached rates: %+v", got)
	}
}

func TestCacheMiss(t *testing.T) {
	cache := newTestCache(t)

	if _, ok := cache.Get(context.Background(), "rates:none"); ok {
		t.Fatal("expected cache miss")
	}
}

func TestCacheKeyNormalizesDestination(t *testing.T) {
	cache := newTestCache(t)
	checkIn := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)

	a := cache.Key("safari-co", "  Kruger ", 3, checkIn, "DBB")
	b := cache.Key("safari-co", "kruger", 3, checkIn, "dbb")
	if a != b {
		t.Fatalf("expected normalized keys to match: %q vs %q", a, b)
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	var cache *Cache
	if _, ok := cache.Get(context.Background(), "anything"); ok {
		t.Fatal("nil cache must always miss")
	}
	// Set on a nil cache must not panic.
	cache.Set(context.Background(), "anything", nil)
}
