// Package checkpoint persists per-conversation trip state snapshots so a
// follow-up request can continue a prior planning session.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/voyago-poc/server/internal/core/error"
	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// RedisCheckpointer stores one JSON snapshot per conversation id with a
// sliding TTL.
type RedisCheckpointer struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisCheckpointer(rdb redis.Cmdable, ttl time.Duration) *RedisCheckpointer {
	return &RedisCheckpointer{rdb: rdb, ttl: ttl}
}

func (c *RedisCheckpointer) key(conversationID string) string {
	return fmt.Sprintf("trip:checkpoint:%s", conversationID)
}

// Load returns the saved state for the conversation, or (nil, nil) when no
// checkpoint exists.
func (c *RedisCheckpointer) Load(ctx context.Context, conversationID string) (*trip.TripState, error) {
	raw, err := c.rdb.Get(ctx, c.key(conversationID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to load checkpoint")
		return nil, errx.WrapRedis(err)
	}

	var s trip.TripState
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to unmarshal checkpoint")
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &s, nil
}

// Save overwrites the conversation's snapshot and refreshes the TTL.
func (c *RedisCheckpointer) Save(ctx context.Context, conversationID string, s *trip.TripState) error {
	b, err := json.Marshal(s)
	if err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to marshal checkpoint")
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	if err := c.rdb.Set(ctx, c.key(conversationID), b, c.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to save checkpoint")
		return errx.WrapRedis(err)
	}
	return nil
}
