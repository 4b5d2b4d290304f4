package locks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pdf-editor:lock:"

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lease only if the lock still carries our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// redisLocks implements System with SET NX PX. A live holder extends its
// lease every ttl/3 until release; a holder that dies stops renewing and
// leaves the key to expire after ttl.
type redisLocks struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

// NewRedis creates a lock system shared by every process using client.
func NewRedis(client redis.UniversalClient, ttl, retry time.Duration, logger *slog.Logger) System {
	return &redisLocks{
		client: client,
		ttl:    ttl,
		retry:  retry,
		logger: logger.With("system", "locks", "backend", "redis"),
	}
}

func (r *redisLocks) Lock(ctx context.Context, key string) (func(), error) {
	name := keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, name, token, r.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	renewCtx, stopRenew := context.WithCancel(context.WithoutCancel(ctx))
	renewed := make(chan struct{})
	go func() {
		defer close(renewed)
		r.renew(renewCtx, name, key, token)
	}()

	return func() {
		stopRenew()
		<-renewed

		// release must succeed even if the request context is already done
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		n, err := releaseScript.Run(ctx, r.client, []string{name}, token).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			r.logger.Error("lock release failed", "key", key, "error", err)
			return
		}
		if n == 0 {
			r.logger.Warn("lock expired before release", "key", key, "error", ErrNotHeld)
		}
	}, nil
}

// renew keeps the lease alive until ctx is done or the lock is lost.
func (r *redisLocks) renew(ctx context.Context, name, key, token string) {
	ticker := time.NewTicker(max(r.ttl/3, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := renewScript.Run(ctx, r.client, []string{name}, token, r.ttl.Milliseconds()).Int()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Error("lock renewal failed", "key", key, "error", err)
			continue
		}
		if n == 0 {
			r.logger.Warn("lock lost before release", "key", key, "error", ErrNotHeld)
			return
		}
	}
}
