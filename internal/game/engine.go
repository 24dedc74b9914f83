// Package game is the quiz session state machine. Engine.Apply folds events
// into immutable State values; nothing in here blocks, sleeps or does I/O.
package game

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/joker"
	"vocab-quiz-service/internal/leveling"
)

const (
	// DefaultFailMessage is the feedback for a wrong submission.
	DefaultFailMessage = "Incorrect"
	// TimeUpMessage is the feedback when the countdown runs out.
	TimeUpMessage = "Time's up!"
)

// Engine applies events to session states under a fixed set of rules.
type Engine struct {
	rules Rules
	rnd   joker.Rand
}

// NewEngine builds an engine. A nil rnd falls back to a time-seeded source.
func NewEngine(rules Rules, rnd joker.Rand) *Engine {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{rules: rules.withDefaults(), rnd: rnd}
}

// Rules returns the effective rules.
func (e *Engine) Rules() Rules {
	return e.rules
}

// New returns a session waiting for its first batch.
func (e *Engine) New(mode domain.Mode) State {
	return State{
		Mode:           mode,
		Status:         StatusLoading,
		QuestionStatus: QuestionPlaying,
		Generation:     1,
		Level:          leveling.MinLevel,
		OldLevel:       leveling.MinLevel,
		Jokers:         joker.Catalog(e.rules.StartingJokers),
		Effects:        joker.Effects{},
	}
}

// Apply folds ev into s. Events that do not fit the current phase return s
// unchanged, which makes duplicate submits and late timer ticks harmless.
func (e *Engine) Apply(s State, ev Event) (State, []Command) {
	s.Effects = s.Effects.ClearTransient()

	switch ev := ev.(type) {
	case Loaded:
		return e.load(s, ev), nil
	case Input:
		if s.Judgeable() {
			s.Answer = ev.Answer
		}
		return s, nil
	case Submit:
		return e.judge(s, DefaultFailMessage), nil
	case TimerTick:
		return e.tick(s), nil
	case Advance:
		return e.advance(s)
	case ActivateJoker:
		return e.activateJoker(s, ev.Kind), nil
	case Reset:
		return e.reset(s, ev), nil
	default:
		return s, nil
	}
}

func (e *Engine) load(s State, ev Loaded) State {
	if s.Status != StatusLoading || ev.Generation != s.Generation {
		return s
	}
	if ev.Player != nil {
		s.Level = leveling.Clamp(ev.Player.Level)
		s.Score = ev.Player.Score
	}
	s.OldLevel = s.Level

	if len(ev.Questions) == 0 {
		s.Status = StatusFinished
		s.EndReason = EndNoQuestions
		s.TimerRunning = false
		return s
	}

	s.Questions = append([]domain.Question(nil), ev.Questions...)
	s.Status = StatusPlaying
	return e.enterQuestion(s, 0)
}

func (e *Engine) enterQuestion(s State, index int) State {
	s.Index = index
	s.Answer = ""
	s.QuestionStatus = QuestionPlaying
	s.Feedback = nil
	s.Effects = joker.Effects{}
	s.TimeRemaining = e.rules.QuestionSeconds
	s.TimerRunning = true
	return s
}

// judge settles the current question. failMessage is used as feedback when
// the answer is wrong.
func (e *Engine) judge(s State, failMessage string) State {
	if !s.Judgeable() {
		return s
	}
	q, ok := s.Current()
	if !ok {
		return s
	}

	correct := normalize(s.Answer) == normalize(q.Target)
	outcome := OutcomeFailed
	if correct {
		outcome = OutcomeSuccess
	}
	s.Report = append(append([]ReportEntry(nil), s.Report...), ReportEntry{Question: q, Outcome: outcome})
	s.Progress = min(100, s.Progress+e.rules.ProgressStep)
	s.TimerRunning = false

	if !correct {
		s.QuestionStatus = QuestionFailed
		s.Streak = 0
		if failMessage == "" {
			failMessage = DefaultFailMessage
		}
		s.Feedback = &Feedback{Message: failMessage, Answer: q.Target}
		return s
	}

	s.QuestionStatus = QuestionSuccess
	if s.Mode == domain.ModeCompetition {
		s.Score += e.award(s.Streak)
		s.Streak += e.rules.StreakStep
	}
	s.Jokers = s.Jokers.Grant(joker.Reward(q.ThemeLevel, s.Level, e.rnd)...)
	return s
}

func (e *Engine) award(streak float64) int {
	return int(math.Round(float64(e.rules.BasePoints) * (streak + e.rules.StreakOffset)))
}

// forceSuccess fills in the target and judges, for jokers that confirm a
// correct answer.
func (e *Engine) forceSuccess(s State) State {
	if q, ok := s.Current(); ok && s.Judgeable() {
		s.Answer = q.Target
	}
	return e.judge(s, DefaultFailMessage)
}

// Timeout judges in every mode.
func (e *Engine) tick(s State) State {
	if !s.Judgeable() || !s.TimerRunning {
		return s
	}
	s.TimeRemaining--
	if s.TimeRemaining > 0 {
		return s
	}
	s.TimeRemaining = 0
	return e.judge(s, TimeUpMessage)
}

func (e *Engine) advance(s State) (State, []Command) {
	if s.Status != StatusPlaying || s.QuestionStatus == QuestionPlaying {
		return s, nil
	}
	if next := s.Index + 1; next < len(s.Questions) {
		return e.enterQuestion(s, next), nil
	}

	s.Status = StatusFinished
	s.EndReason = EndCompleted
	s.TimerRunning = false
	s.Feedback = nil
	s.Effects = joker.Effects{}
	if s.Mode != domain.ModeCompetition {
		return s, nil
	}

	s.OldLevel = s.Level
	s.Level = leveling.Adapt(s.Answers(), s.Level)
	return s, []Command{SavePlayer{Level: s.Level, Score: s.Score}}
}

func (e *Engine) reset(s State, ev Reset) State {
	next := e.New(s.Mode)
	next.Generation = s.Generation + 1
	if ev.KeepScore {
		next.Score = s.Score
	}
	if ev.KeepLevel {
		next.Level = s.Level
		next.OldLevel = s.Level
	}
	return next
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
