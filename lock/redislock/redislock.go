// Package redislock provides a Redis-backed postings.Locker so that
// statement and posting serialization holds across processes.
//
// A lock is a key set with SET NX PX and a random token. Release deletes
// the key only while it still carries the caller's token.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	postings "github.com/xraph/postings"
)

// Defaults applied by New.
const (
	DefaultTTL           = 30 * time.Second
	DefaultRetryInterval = 25 * time.Millisecond
	DefaultPrefix        = "postings:lock:"
)

// ErrNotAcquired is returned when the wait budget runs out before the
// lock becomes free.
var ErrNotAcquired = errors.New("redislock: lock not acquired")

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

var _ postings.Locker = (*Locker)(nil)

// Locker implements postings.Locker on a Redis client.
type Locker struct {
	client        redis.UniversalClient
	ttl           time.Duration
	retryInterval time.Duration
	maxWait       time.Duration
	prefix        string
	logger        *slog.Logger
}

// Option configures a Locker.
type Option func(*Locker)

// WithTTL sets how long a lock survives a crashed holder.
func WithTTL(ttl time.Duration) Option {
	return func(l *Locker) { l.ttl = ttl }
}

// WithRetryInterval sets the delay between acquisition attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(l *Locker) { l.retryInterval = d }
}

// WithMaxWait bounds how long Lock waits. Zero waits until ctx is done.
func WithMaxWait(d time.Duration) Option {
	return func(l *Locker) { l.maxWait = d }
}

// WithPrefix sets the Redis key prefix.
func WithPrefix(prefix string) Option {
	return func(l *Locker) { l.prefix = prefix }
}

// WithLogger sets the logger used for release failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locker) { l.logger = logger }
}

// New creates a Locker on client.
func New(client redis.UniversalClient, opts ...Option) *Locker {
	l := &Locker{
		client:        client,
		ttl:           DefaultTTL,
		retryInterval: DefaultRetryInterval,
		prefix:        DefaultPrefix,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock blocks until key is acquired, ctx is done or the wait budget is
// spent. The returned unlock func is safe to call more than once.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	var deadline <-chan time.Time
	if l.maxWait > 0 {
		timer := time.NewTimer(l.maxWait)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("redislock: acquire %s: %w", key, err)
		}
		if ok {
			return l.unlocker(redisKey, token), nil
		}

		retry := time.NewTimer(l.retryInterval)
		select {
		case <-ctx.Done():
			retry.Stop()
			return nil, ctx.Err()
		case <-deadline:
			retry.Stop()
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		case <-retry.C:
		}
	}
}

func (l *Locker) unlocker(redisKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(redisKey, token) })
	}
}

func (l *Locker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := l.client.Eval(ctx, releaseScript, []string{redisKey}, token).Int()
	switch {
	case err != nil:
		l.logger.Warn("redislock: release failed", "key", redisKey, "error", err)
	case n == 0:
		l.logger.Warn("redislock: lock expired before release", "key", redisKey)
	}
}
