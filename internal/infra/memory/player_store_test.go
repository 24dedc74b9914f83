package memory

import (
	"context"
	"errors"
	"testing"

	"vocab-quiz-service/internal/domain"
)

func TestPlayerStoreRoundTrip(t *testing.T) {
	store := NewPlayerStore()
	ctx := context.Background()

	if _, err := store.GetPlayer(ctx, "p1"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
	if err := store.SavePlayer(ctx, "p1", domain.PlayerProgress{Level: 4, Score: 120}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.GetPlayer(ctx, "p1")
	if err != nil || got.Level != 4 || got.Score != 120 {
		t.Fatalf("got %+v, %v", got, err)
	}
}
