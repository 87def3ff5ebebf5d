package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newTestCache returns a ReplayCache backed by an in-process miniredis whose
// clock is pinned to now.
func newTestCache(t *testing.T, ttl time.Duration, now time.Time) (*ReplayCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	mr.SetTime(now)

	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewReplayCache(client, ttl)
	cache.now = func() time.Time { return now }

	return cache, mr
}
