package rdx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache is a byte-valued cache with per-key expiry.
type Cache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// New returns a Redis-backed cache, or a no-op cache when addr is empty.
func New(addr, password string, logger *logrus.Logger) Cache {
	if addr == "" {
		logger.Info("REDIS_ADDR not set, discovery cache disabled")
		return Noop{}
	}
	return &RedisCache{Conn: redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})}
}

type RedisCache struct {
	Conn *redis.Client
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.Conn.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.Conn.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Conn.Ping(ctx).Err()
}

// Check pings a Redis-backed cache and logs when it cannot be reached.
// Startup goes on either way; lookups fall through to the provider.
func Check(ctx context.Context, c Cache, logger *logrus.Logger) error {
	rc, ok := c.(*RedisCache)
	if !ok {
		return nil
	}
	if err := rc.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Redis unreachable, discovery cache degraded")
		return err
	}
	logger.WithField("addr", rc.Conn.Options().Addr).Info("Connected to Redis")
	return nil
}

func (c *RedisCache) Close() error {
	return c.Conn.Close()
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Close() error                                             { return nil }
