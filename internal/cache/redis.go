// Package cache wraps the optional Redis connection. Every helper is nil-safe:
// with no REDIS_ADDRESS the service still works, just without the cache and
// the cross-instance lock.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrLockNotObtained = errors.New("another request for this account is in progress")

type Redis struct {
	rdb    *redis.Client
	locker *redislock.Client
}

// Connect pings addr once. An unreachable Redis is logged and ignored.
func Connect(ctx context.Context, addr string, log logrus.FieldLogger) *Redis {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 20,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warnf("redis unavailable at %s, continuing without cache", addr)
		_ = rdb.Close()
		return nil
	}
	log.Infof("connected to redis addr=%s", addr)
	return New(rdb)
}

func New(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb, locker: redislock.New(rdb)}
}

func (r *Redis) Close() error {
	if r == nil {
		return nil
	}
	return r.rdb.Close()
}

// GetObject reports false on a miss or when Redis is not configured.
func (r *Redis) GetObject(ctx context.Context, key string, dest any) (bool, error) {
	if r == nil {
		return false, nil
	}
	val, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) SetObject(ctx context.Context, key string, obj any, exp time.Duration) error {
	if r == nil {
		return nil
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, b, exp).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if r == nil {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

// WithAccountLock runs fn while holding the per-account lock. Without Redis
// fn runs directly.
func (r *Redis) WithAccountLock(ctx context.Context, userID uint, fn func() error) error {
	if r == nil {
		return fn()
	}
	lock, err := r.locker.Obtain(ctx, fmt.Sprintf("lock:booking:%d", userID), 15*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return ErrLockNotObtained
	}
	if err != nil {
		return fmt.Errorf("obtain account lock: %w", err)
	}
	defer func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}()
	return fn()
}
