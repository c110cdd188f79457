package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKey     = "homestock:expiry-check:lock"
	defaultLockTTL = 10 * time.Minute
)

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// store defines the operations used by RedisLock.
type store interface {
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key string, value string) (bool, error)
}

// RedisLock is a run lease backed by Redis SETNX + TTL. The TTL bounds how long a crashed
// run can block others.
type RedisLock struct {
	client store
	key    string
	ttl    time.Duration
}

// NewRedisLock constructs a Redis-backed lease.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	return newRedisLock(redisStore{client: client}, key, ttl)
}

func newRedisLock(client store, key string, ttl time.Duration) (*RedisLock, error) {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

// Acquire tries to own the lease and returns the owner token on success.
func (l *RedisLock) Acquire(ctx context.Context) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return "", false, fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the lease only if token still owns it.
func (l *RedisLock) Release(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := l.client.CompareAndDelete(ctx, l.key, token); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// redisStore adapts *redis.Client to store.
type redisStore struct {
	client *redis.Client
}

func (s redisStore) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s redisStore) CompareAndDelete(ctx context.Context, key string, value string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, s.client, []string{key}, value).Int()
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}

// NewClient parses a redis:// URL and verifies connectivity.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
