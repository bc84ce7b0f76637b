package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisGuard(t *testing.T, ttl time.Duration) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()

	// Start in-memory Redis
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisGuard(rdb, ttl), mr
}

func TestSendKey(t *testing.T) {
	t.Parallel()

	if got := SendKey("inv-1"); got != "reminder:inflight:inv-1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestRedisGuard_AcquireIsExclusive(t *testing.T) {
	t.Parallel()

	g, mr := newRedisGuard(t, 10*time.Second)
	ctx := context.Background()
	key := SendKey("42")

	token, ok, err := g.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if !ok || token == "" {
		t.Fatalf("expected first Acquire to succeed with a token, got ok=%v token=%q", ok, token)
	}

	if got, _ := mr.Get(key); got != token {
		t.Fatalf("expected key %q to hold token %q, got %q", key, token, got)
	}
	if ttl := mr.TTL(key); ttl <= 0 {
		t.Fatalf("expected TTL to be set, got %v", ttl)
	}

	_, ok, err = g.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("second Acquire() error: %v", err)
	}
	if ok {
		t.Fatalf("expected second Acquire to be refused while held")
	}

	// other invoices are independent
	if _, ok, _ := g.Acquire(ctx, SendKey("43")); !ok {
		t.Fatalf("expected a different invoice to be acquirable")
	}
}

func TestRedisGuard_ReleaseAllowsReacquire(t *testing.T) {
	t.Parallel()

	g, mr := newRedisGuard(t, time.Minute)
	ctx := context.Background()
	key := SendKey("1")

	token, ok, err := g.Acquire(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Acquire() = %v, %v", ok, err)
	}
	if err := g.Release(ctx, key, token); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("expected key %q to be deleted", key)
	}
	if _, ok, err := g.Acquire(ctx, key); err != nil || !ok {
		t.Fatalf("expected reacquire to succeed, got %v, %v", ok, err)
	}
}

func TestRedisGuard_StaleReleaseKeepsNewHolder(t *testing.T) {
	t.Parallel()

	g, mr := newRedisGuard(t, 5*time.Second)
	ctx := context.Background()
	key := SendKey("1")

	first, ok, _ := g.Acquire(ctx, key)
	if !ok {
		t.Fatalf("expected Acquire to succeed")
	}

	mr.FastForward(6 * time.Second)

	second, ok, _ := g.Acquire(ctx, key)
	if !ok {
		t.Fatalf("expected Acquire to succeed after TTL")
	}

	if err := g.Release(ctx, key, first); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if got, _ := mr.Get(key); got != second {
		t.Fatalf("expected second holder to keep the key, got %q", got)
	}
	if _, ok, _ := g.Acquire(ctx, key); ok {
		t.Fatalf("expected Acquire to be refused while second holder is active")
	}

	if err := g.Release(ctx, key, second); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("expected key %q to be deleted by its owner", key)
	}
}

func TestRedisGuard_ContextCanceled(t *testing.T) {
	t.Parallel()

	g, _ := newRedisGuard(t, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := g.Acquire(ctx, "x"); err == nil {
		t.Fatalf("expected error due to canceled context, got nil")
	}
}

func TestMemoryGuard(t *testing.T) {
	t.Parallel()

	clock := time.Date(2026, 2, 2, 18, 0, 0, 0, time.UTC)
	g := NewMemoryGuard(time.Minute)
	g.now = func() time.Time { return clock }

	ctx := context.Background()
	key := SendKey("7")

	first, ok, _ := g.Acquire(ctx, key)
	if !ok {
		t.Fatalf("expected first Acquire to succeed")
	}
	if _, ok, _ := g.Acquire(ctx, key); ok {
		t.Fatalf("expected second Acquire to be refused")
	}

	clock = clock.Add(2 * time.Minute)
	second, ok, _ := g.Acquire(ctx, key)
	if !ok {
		t.Fatalf("expected Acquire to succeed after expiry")
	}

	// the expired holder must not clear the new mark
	if err := g.Release(ctx, key, first); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if _, ok, _ := g.Acquire(ctx, key); ok {
		t.Fatalf("expected stale Release to leave the new holder in place")
	}

	if err := g.Release(ctx, key, second); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if _, ok, _ := g.Acquire(ctx, key); !ok {
		t.Fatalf("expected Acquire to succeed after Release")
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, _, err := g.Acquire(canceled, "other"); err == nil {
		t.Fatalf("expected error due to canceled context, got nil")
	}
}
