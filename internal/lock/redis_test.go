package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, "checkin:lock", fastOptions())
	ctx := context.Background()

	lease, err := l.Acquire(ctx, "check-in-loc1-17-alice")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !mr.Exists("checkin:lock:check-in-loc1-17-alice") {
		t.Fatalf("expected lock key in redis")
	}
	if ttl := mr.TTL("checkin:lock:check-in-loc1-17-alice"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected lease ttl within a minute, got %v", ttl)
	}

	if _, err := l.Acquire(ctx, "check-in-loc1-17-alice"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("checkin:lock:check-in-loc1-17-alice") {
		t.Fatalf("expected key deleted after release")
	}
}

func TestRedisLocker_RefreshExtendsLease(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, "", fastOptions())
	ctx := context.Background()

	lease, err := l.Acquire(ctx, "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(40 * time.Second)
	if err := lease.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	mr.FastForward(40 * time.Second)
	if !mr.Exists("lock:k") {
		t.Fatalf("refreshed lease should still be held")
	}
	if err := lease.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestRedisLocker_ExpiredLeaseIsLost(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, "", fastOptions())
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	fresh, err := l.Acquire(ctx, "k")
	if err != nil {
		t.Fatalf("expired key should be reclaimable: %v", err)
	}
	if err := stale.Refresh(ctx); !errors.Is(err, ErrLeaseLost) {
		t.Fatalf("expected ErrLeaseLost, got %v", err)
	}
	if err := stale.Release(ctx); !errors.Is(err, ErrLeaseLost) {
		t.Fatalf("stale release must not delete the new grant, got %v", err)
	}
	if !mr.Exists("lock:k") {
		t.Fatalf("new grant should survive stale release")
	}
	if err := fresh.Release(ctx); err != nil {
		t.Fatalf("release fresh: %v", err)
	}
}

func TestRedisLocker_ConnectionError(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, "", fastOptions())
	mr.Close()

	_, err := l.Acquire(context.Background(), "k")
	if err == nil {
		t.Fatalf("expected error when redis is down")
	}
	if !errors.Is(err, ErrBackend) || !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected a lock store error classed as unavailable, got %v", err)
	}
}
