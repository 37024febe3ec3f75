package redislock_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/xraph/postings/lock/redislock"
)

// newClient connects to REDIS_ADDR or skips the test.
func newClient(t *testing.T) redis.UniversalClient {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLockExcludes(t *testing.T) {
	client := newClient(t)
	prefix := "test:" + uuid.NewString() + ":"
	l := redislock.New(client, redislock.WithPrefix(prefix), redislock.WithMaxWait(100*time.Millisecond))
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "account:1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := l.Lock(ctx, "account:1"); !errors.Is(err, redislock.ErrNotAcquired) {
		t.Fatalf("got %v, want ErrNotAcquired", err)
	}

	other, err := l.Lock(ctx, "account:2")
	if err != nil {
		t.Fatalf("independent key should lock: %v", err)
	}
	other()

	unlock()
	unlock()

	again, err := l.Lock(ctx, "account:1")
	if err != nil {
		t.Fatalf("relock after release: %v", err)
	}
	again()
}

func TestLockHonoursContext(t *testing.T) {
	client := newClient(t)
	l := redislock.New(client, redislock.WithPrefix("test:"+uuid.NewString()+":"))

	unlock, err := l.Lock(context.Background(), "ledger:1")
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "ledger:1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want deadline exceeded", err)
	}
}

func TestExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	client := newClient(t)
	prefix := "test:" + uuid.NewString() + ":"
	l := redislock.New(client, redislock.WithPrefix(prefix), redislock.WithTTL(50*time.Millisecond))
	ctx := context.Background()

	stale, err := l.Lock(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	fresh, err := l.Lock(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	defer fresh()

	stale()
	exists, err := client.Exists(ctx, prefix+"k").Result()
	if err != nil {
		t.Fatal(err)
	}
	if exists != 1 {
		t.Error("stale unlock removed the new holder's key")
	}
}
