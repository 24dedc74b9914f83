package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vocab-quiz-service/internal/domain"
)

// PlayerStore persists player progress in the players table.
type PlayerStore struct {
	pool *pgxpool.Pool
}

func NewPlayerStore(pool *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{pool: pool}
}

func (s *PlayerStore) GetPlayer(ctx context.Context, playerID string) (domain.PlayerProgress, error) {
	var progress domain.PlayerProgress
	err := s.pool.QueryRow(ctx, `SELECT level, score FROM players WHERE id=$1`, playerID).
		Scan(&progress.Level, &progress.Score)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PlayerProgress{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.PlayerProgress{}, fmt.Errorf("load player: %w", err)
	}
	return progress, nil
}

func (s *PlayerStore) SavePlayer(ctx context.Context, playerID string, progress domain.PlayerProgress) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO players (id, level, score, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET level = EXCLUDED.level, score = EXCLUDED.score, updated_at = now()`,
		playerID, progress.Level, progress.Score)
	if err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}
