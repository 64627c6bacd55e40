package limiter

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a limiter on Redis counters: a fixed-window failure counter and
// a block key whose TTL is the remaining lockout.
type Redis struct {
	rdb    redis.UniversalClient
	policy Policy
	prefix string
}

// DefaultPrefix namespaces limiter keys as "<prefix>:login:{fail,block}:...".
const DefaultPrefix = "vidhub"

// NewRedis constructs a Redis-backed limiter. Keys are namespaced by prefix.
func NewRedis(rdb redis.UniversalClient, p Policy, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Redis{rdb: rdb, policy: p, prefix: prefix}
}

func (l *Redis) failKey(login string, ipHash []byte) string {
	return fmt.Sprintf("%s:login:fail:%s:%s", l.prefix, login, hex.EncodeToString(ipHash))
}

func (l *Redis) blockKey(login string, ipHash []byte) string {
	return fmt.Sprintf("%s:login:block:%s:%s", l.prefix, login, hex.EncodeToString(ipHash))
}

// Allow reports whether a block key is live for (login, ip).
func (l *Redis) Allow(ctx context.Context, login string, ipHash []byte) (bool, time.Duration, error) {
	ttl, err := l.rdb.PTTL(ctx, l.blockKey(login, ipHash)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("limiter allow: %w", err)
	}
	if ttl > 0 {
		return false, ttl, nil
	}
	return true, 0, nil
}

// Success clears the failure counter and any block.
func (l *Redis) Success(ctx context.Context, login string, ipHash []byte) error {
	if err := l.rdb.Del(ctx, l.failKey(login, ipHash), l.blockKey(login, ipHash)).Err(); err != nil {
		return fmt.Errorf("limiter success: %w", err)
	}
	return nil
}

// Failure increments the counter and places a block once MaxFails is reached.
func (l *Redis) Failure(ctx context.Context, login string, ipHash []byte) (bool, time.Duration, error) {
	key := l.failKey(login, ipHash)
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("limiter failure: %w", err)
	}
	// fixed window: TTL starts at the first failure
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.policy.Window).Err(); err != nil {
			return false, 0, fmt.Errorf("limiter failure: %w", err)
		}
	}
	if count < int64(l.policy.MaxFails) {
		return false, 0, nil
	}

	_, err = l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, l.blockKey(login, ipHash), 1, l.policy.BlockFor)
		p.Del(ctx, key)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("limiter block: %w", err)
	}
	return true, l.policy.BlockFor, nil
}
