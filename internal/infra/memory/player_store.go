package memory

import (
	"context"
	"sync"

	"vocab-quiz-service/internal/domain"
)

// PlayerStore keeps player progress in memory.
type PlayerStore struct {
	mu      sync.RWMutex
	players map[string]domain.PlayerProgress
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{players: make(map[string]domain.PlayerProgress)}
}

func (s *PlayerStore) GetPlayer(_ context.Context, playerID string) (domain.PlayerProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	progress, ok := s.players[playerID]
	if !ok {
		return domain.PlayerProgress{}, domain.ErrPlayerNotFound
	}
	return progress, nil
}

func (s *PlayerStore) SavePlayer(_ context.Context, playerID string, progress domain.PlayerProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[playerID] = progress
	return nil
}
