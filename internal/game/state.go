package game

import (
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/joker"
	"vocab-quiz-service/internal/leveling"
)

// Status is the top-level session phase.
type Status string

const (
	StatusLoading  Status = "loading"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// QuestionStatus is the phase of the current question.
type QuestionStatus string

const (
	QuestionPlaying QuestionStatus = "playing"
	QuestionSuccess QuestionStatus = "success"
	QuestionFailed  QuestionStatus = "failed"
)

// Outcome of a judged question.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// EndReason explains a finished session.
type EndReason string

const (
	EndNone        EndReason = ""
	EndCompleted   EndReason = "completed"
	EndNoQuestions EndReason = "no-questions"
)

// ReportEntry is one judged question, in judging order.
type ReportEntry struct {
	Question domain.Question
	Outcome  Outcome
}

// Feedback is shown after a failed question until the player advances.
type Feedback struct {
	Message string `json:"message"`
	Answer  string `json:"answer"`
}

// State is a session value. Engine.Apply never modifies the State it is given;
// slices and maps inside are replaced, not written to.
type State struct {
	Mode           domain.Mode
	Status         Status
	QuestionStatus QuestionStatus
	EndReason      EndReason

	// Generation is bumped on every reset; loads carrying an older
	// generation are dropped.
	Generation int

	Questions []domain.Question
	Index     int
	Answer    string

	TimeRemaining int
	TimerRunning  bool

	Score    int
	Streak   float64
	Progress int
	Level    int
	OldLevel int

	Report   []ReportEntry
	Feedback *Feedback

	Jokers  joker.Inventory
	Effects joker.Effects
}

// Current returns the question under the cursor.
func (s State) Current() (domain.Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return domain.Question{}, false
	}
	return s.Questions[s.Index], true
}

// Judgeable reports whether the current question still accepts a verdict.
func (s State) Judgeable() bool {
	return s.Status == StatusPlaying && s.QuestionStatus == QuestionPlaying
}

// Answers converts the report for the leveling algorithm.
func (s State) Answers() []leveling.Answer {
	out := make([]leveling.Answer, 0, len(s.Report))
	for _, entry := range s.Report {
		out = append(out, leveling.Answer{
			ThemeLevel: entry.Question.ThemeLevel,
			Correct:    entry.Outcome == OutcomeSuccess,
		})
	}
	return out
}
