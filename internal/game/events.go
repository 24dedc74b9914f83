package game

import (
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/joker"
)

// Event is anything that can move a session forward.
type Event interface {
	event()
}

// Loaded delivers a question batch. Player, when set, replaces level and score.
type Loaded struct {
	Generation int
	Questions  []domain.Question
	Player     *domain.PlayerProgress
}

// Input replaces the in-progress answer.
type Input struct {
	Answer string
}

// Submit asks for the current answer to be judged.
type Submit struct{}

// Advance moves past a judged question.
type Advance struct{}

// TimerTick is one second of countdown.
type TimerTick struct{}

// ActivateJoker spends one charge of Kind.
type ActivateJoker struct {
	Kind joker.Kind
}

// Reset starts the session over. Score and level survive only when asked to.
type Reset struct {
	KeepScore bool
	KeepLevel bool
}

func (Loaded) event()        {}
func (Input) event()         {}
func (Submit) event()        {}
func (Advance) event()       {}
func (TimerTick) event()     {}
func (ActivateJoker) event() {}
func (Reset) event()         {}

// Command is a side effect the caller must carry out after a transition.
type Command interface {
	command()
}

// SavePlayer persists the player's progress at the end of a competition session.
type SavePlayer struct {
	Level int
	Score int
}

func (SavePlayer) command() {}
