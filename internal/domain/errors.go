package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a game session does not exist.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrNoQuestions indicates the question supply returned an empty batch.
	ErrNoQuestions = errors.New("no questions available")
	// ErrPlayerNotFound is returned by player stores for unknown players.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrInvalidMode indicates an unknown session mode.
	ErrInvalidMode = errors.New("invalid session mode")
)
