// Package memory is the long-term user preference store. It is constructed
// explicitly and injected into whatever needs it; nothing here is a
// process-wide singleton.
package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	errx "github.com/voyago-poc/server/internal/core/error"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// RedisPreferenceStore keeps one append-only list of preference strings per
// user.
type RedisPreferenceStore struct {
	rdb redis.Cmdable
}

func NewRedisPreferenceStore(rdb redis.Cmdable) *RedisPreferenceStore {
	return &RedisPreferenceStore{rdb: rdb}
}

func (s *RedisPreferenceStore) key(userID string) string {
	return fmt.Sprintf("user:%s:preferences", userID)
}

// Add appends a preference, e.g. "Airline: Delta Only".
func (s *RedisPreferenceStore) Add(ctx context.Context, userID, preference string) error {
	if userID == "" || preference == "" {
		return errors.New("memory: user id and preference are required")
	}
	if err := s.rdb.RPush(ctx, s.key(userID), preference).Err(); err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to store preference")
		return errx.WrapRedis(err)
	}
	logx.Info().Str("user_id", userID).Str("preference", preference).Msg("preference stored")
	return nil
}

// List returns all preferences recorded for the user, oldest first.
func (s *RedisPreferenceStore) List(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.rdb.LRange(ctx, s.key(userID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to load preferences")
		return nil, errx.WrapRedis(err)
	}
	return rows, nil
}
