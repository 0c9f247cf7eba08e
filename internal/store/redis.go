package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

const codeKeyPrefix = "classtrack:session-code:"

// CacheSessionCode maps a normalized session code to its session id until
// the session expires. Best effort: a write failure is reported but callers
// treat the cache as advisory.
func (r *Redis) CacheSessionCode(ctx context.Context, code, sessionID string, ttl time.Duration) error {
	if r == nil || r.Client == nil || ttl <= 0 {
		return nil
	}
	return r.Client.Set(ctx, codeKeyPrefix+code, sessionID, ttl).Err()
}

// LookupSessionCode resolves a cached session id for a code. Empty string
// means cache miss (or unavailable cache).
func (r *Redis) LookupSessionCode(ctx context.Context, code string) string {
	if r == nil || r.Client == nil {
		return ""
	}
	id, err := r.Client.Get(ctx, codeKeyPrefix+code).Result()
	if err != nil {
		return ""
	}
	return id
}
