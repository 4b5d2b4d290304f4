package locks

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/AdnanAhmad1994/pdf-editor-saas/pkg/logging"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLocks(t *testing.T, ttl time.Duration) (*redisLocks, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := logging.New(&logging.Config{}, io.Discard, "locks-test")
	return NewRedis(client, ttl, 5*time.Millisecond, logger).(*redisLocks), mr
}

func TestRedis_AcquireRelease(t *testing.T) {
	l, mr := newRedisLocks(t, time.Minute)

	unlock, err := l.Lock(context.Background(), "doc")
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}

	if !mr.Exists(keyPrefix + "doc") {
		t.Fatal("lock key not set")
	}
	if ttl := mr.TTL(keyPrefix + "doc"); ttl != time.Minute {
		t.Errorf("lock ttl = %v, want %v", ttl, time.Minute)
	}

	unlock()

	if mr.Exists(keyPrefix + "doc") {
		t.Error("lock key survived release")
	}
}

func TestRedis_Contention(t *testing.T) {
	l, _ := newRedisLocks(t, time.Minute)

	unlock, err := l.Lock(context.Background(), "doc")
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "doc"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("contended Lock() error = %v, want context.DeadlineExceeded", err)
	}

	other, err := l.Lock(context.Background(), "other")
	if err != nil {
		t.Fatalf("Lock() on distinct key failed: %v", err)
	}
	other()

	acquired := make(chan func())
	go func() {
		next, err := l.Lock(context.Background(), "doc")
		if err != nil {
			t.Errorf("waiting Lock() failed: %v", err)
			close(acquired)
			return
		}
		acquired <- next
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired while the lock was held")
	case <-time.After(30 * time.Millisecond):
	}

	unlock()

	select {
	case next := <-acquired:
		if next != nil {
			next()
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the released lock")
	}
}

func TestRedis_ExpiredHolderCannotReleaseSuccessor(t *testing.T) {
	l, mr := newRedisLocks(t, time.Minute)
	key := keyPrefix + "doc"

	stale, err := l.Lock(context.Background(), "doc")
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}

	mr.FastForward(time.Minute + time.Second)
	if mr.Exists(key) {
		t.Fatal("lock key did not expire")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	successor, err := l.Lock(ctx, "doc")
	if err != nil {
		t.Fatalf("Lock() after expiry failed: %v", err)
	}
	token, err := mr.Get(key)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	stale()

	if got, err := mr.Get(key); err != nil || got != token {
		t.Errorf("successor lock = %q, %v after stale release; want %q", got, err, token)
	}

	successor()
	if mr.Exists(key) {
		t.Error("lock key survived successor release")
	}
}

func TestRedis_RenewsWhileHeld(t *testing.T) {
	ttl := 300 * time.Millisecond
	l, mr := newRedisLocks(t, ttl)
	key := keyPrefix + "doc"

	unlock, err := l.Lock(context.Background(), "doc")
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}

	mr.FastForward(250 * time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for mr.TTL(key) <= 50*time.Millisecond {
		if time.Now().After(deadline) {
			t.Fatalf("lock ttl = %v, never renewed", mr.TTL(key))
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !mr.Exists(key) {
		t.Fatal("renewed lock key missing")
	}

	unlock()

	if mr.Exists(key) {
		t.Error("lock key survived release")
	}
	time.Sleep(2 * ttl / 3)
	if mr.Exists(key) {
		t.Error("renewal recreated the lock after release")
	}
}
