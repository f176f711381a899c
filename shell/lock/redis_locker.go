package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "reservationqueue:lock:"

const (
	defaultTTL          = 10 * time.Second
	defaultRetryDelay   = 25 * time.Millisecond
	defaultMaxWaitDelay = 5 * time.Second
)

var (
	// ErrNilRedisClient is returned when NewRedisResourceLocker gets no client.
	ErrNilRedisClient = errors.New("redis client must not be nil")

	// ErrLockNotAcquired is returned when the lock stays taken for longer than the wait limit.
	ErrLockNotAcquired = errors.New("resource lock not acquired")

	// ErrLockLost is returned by unlock when the key no longer holds our token.
	ErrLockLost = errors.New("resource lock expired or was taken over")

	// ErrInvalidLockOption is returned for non-positive durations.
	ErrInvalidLockOption = errors.New("invalid lock option")
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisResourceLocker serializes work on one resource across processes.
type RedisResourceLocker struct {
	client     redis.UniversalClient
	ttl        time.Duration
	retryDelay time.Duration
	maxWait    time.Duration
}

// Option configures a RedisResourceLocker.
type Option func(*RedisResourceLocker) error

// WithTTL sets how long a lock lives if its holder never unlocks.
func WithTTL(ttl time.Duration) Option {
	return func(l *RedisResourceLocker) error {
		if ttl <= 0 {
			return ErrInvalidLockOption
		}

		l.ttl = ttl

		return nil
	}
}

// WithRetryDelay sets the pause between two acquisition attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(l *RedisResourceLocker) error {
		if delay <= 0 {
			return ErrInvalidLockOption
		}

		l.retryDelay = delay

		return nil
	}
}

// WithMaxWait sets how long Lock waits for a taken lock.
func WithMaxWait(maxWait time.Duration) Option {
	return func(l *RedisResourceLocker) error {
		if maxWait <= 0 {
			return ErrInvalidLockOption
		}

		l.maxWait = maxWait

		return nil
	}
}

// NewRedisResourceLocker creates a locker on top of a go-redis client.
func NewRedisResourceLocker(client redis.UniversalClient, opts ...Option) (*RedisResourceLocker, error) {
	if client == nil {
		return nil, ErrNilRedisClient
	}

	locker := &RedisResourceLocker{
		client:     client,
		ttl:        defaultTTL,
		retryDelay: defaultRetryDelay,
		maxWait:    defaultMaxWaitDelay,
	}

	for _, opt := range opts {
		if err := opt(locker); err != nil {
			return nil, err
		}
	}

	return locker, nil
}

// Key returns the redis key guarding resourceKey.
func Key(resourceKey string) string {
	return keyPrefix + resourceKey
}

// Lock blocks until the lock is acquired, ctx is done or the wait limit is reached.
func (l *RedisResourceLocker) Lock(ctx context.Context, resourceKey string) (func(context.Context) error, error) {
	key := Key(resourceKey)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	for {
		acquired, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		if acquired {
			return l.unlockFunc(key, token), nil
		}

		timer := time.NewTimer(l.retryDelay)
		select {
		case <-timer.C:
		case <-waitCtx.Done():
			timer.Stop()

			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			return nil, ErrLockNotAcquired
		}
	}
}

func (l *RedisResourceLocker) unlockFunc(key, token string) func(context.Context) error {
	return func(ctx context.Context) error {
		deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
		if err != nil {
			return err
		}

		if deleted == 0 {
			return ErrLockLost
		}

		return nil
	}
}
