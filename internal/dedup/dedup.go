package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard records handled trigger events in Redis so a redelivered event
// does not fan out twice.
type RedisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGuard(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

func claimKey(roomID, messageID string) string {
	return fmt.Sprintf("fanout:%s:%s", roomID, messageID)
}

// Claim returns true for the first caller of a (room, message) pair within the TTL.
func (g *RedisGuard) Claim(ctx context.Context, roomID, messageID string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, claimKey(roomID, messageID), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", claimKey(roomID, messageID), err)
	}
	return ok, nil
}

// Release drops a claim so the event can be handled again.
func (g *RedisGuard) Release(ctx context.Context, roomID, messageID string) error {
	if err := g.rdb.Del(ctx, claimKey(roomID, messageID)).Err(); err != nil {
		return fmt.Errorf("release %s: %w", claimKey(roomID, messageID), err)
	}
	return nil
}
