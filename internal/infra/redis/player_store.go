package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"vocab-quiz-service/internal/domain"
)

// PlayerStore keeps player progress in Redis.
// Progress is stored as: HSET player:{playerID} level {level} score {score}
type PlayerStore struct {
	client *redis.Client
}

func NewPlayerStore(client *redis.Client) *PlayerStore {
	return &PlayerStore{client: client}
}

func (s *PlayerStore) GetPlayer(ctx context.Context, playerID string) (domain.PlayerProgress, error) {
	fields, err := s.client.HGetAll(ctx, s.key(playerID)).Result()
	if err != nil {
		return domain.PlayerProgress{}, fmt.Errorf("read player %s: %w", playerID, err)
	}
	if len(fields) == 0 {
		return domain.PlayerProgress{}, domain.ErrPlayerNotFound
	}

	progress := domain.DefaultPlayerProgress()
	if level, err := strconv.Atoi(fields["level"]); err == nil && level > 0 {
		progress.Level = level
	}
	if score, err := strconv.Atoi(fields["score"]); err == nil {
		progress.Score = score
	}
	return progress, nil
}

func (s *PlayerStore) SavePlayer(ctx context.Context, playerID string, progress domain.PlayerProgress) error {
	err := s.client.HSet(ctx, s.key(playerID), "level", progress.Level, "score", progress.Score).Err()
	if err != nil {
		return fmt.Errorf("save player %s: %w", playerID, err)
	}
	return nil
}

func (s *PlayerStore) key(playerID string) string {
	return "player:" + playerID
}
