package domain

import (
	"fmt"
	"strings"
)

// Mode selects whether a session carries scoring and leveling side effects.
type Mode string

const (
	ModeCompetition Mode = "competition"
	ModeTraining    Mode = "training"
)

// ParseMode maps user input to a Mode.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeCompetition, "":
		return ModeCompetition, nil
	case ModeTraining:
		return ModeTraining, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
}

// Question is a single translation exercise. The player sees Prompt and
// reconstructs Target letter by letter.
type Question struct {
	ID         string `json:"id" yaml:"id" bson:"_id"`
	Prompt     string `json:"prompt" yaml:"prompt" bson:"prompt"`
	Target     string `json:"target" yaml:"target" bson:"target"`
	Source     string `json:"source" yaml:"source" bson:"source"`
	Theme      string `json:"theme" yaml:"theme" bson:"theme"`
	ThemeLevel int    `json:"themeLevel" yaml:"theme_level" bson:"theme_level"`
	LevelLabel string `json:"levelLabel" yaml:"level_label" bson:"level_label"`
}

// QuestionFilter narrows the pool a loader returns. Zero fields match anything.
type QuestionFilter struct {
	MinLevel   int    `json:"minLevel,omitempty"`
	MaxLevel   int    `json:"maxLevel,omitempty"`
	Source     string `json:"source,omitempty"`
	LevelLabel string `json:"levelLabel,omitempty"`
	Theme      string `json:"theme,omitempty"`
}

// Matches reports whether q satisfies every non-zero field of f.
func (f QuestionFilter) Matches(q Question) bool {
	if f.MinLevel > 0 && q.ThemeLevel < f.MinLevel {
		return false
	}
	if f.MaxLevel > 0 && q.ThemeLevel > f.MaxLevel {
		return false
	}
	if f.Source != "" && !strings.EqualFold(f.Source, q.Source) {
		return false
	}
	if f.LevelLabel != "" && !strings.EqualFold(f.LevelLabel, q.LevelLabel) {
		return false
	}
	if f.Theme != "" && !strings.EqualFold(f.Theme, q.Theme) {
		return false
	}
	return true
}

// Key is a stable cache key for the filter.
func (f QuestionFilter) Key() string {
	return fmt.Sprintf("%d:%d:%s:%s:%s",
		f.MinLevel, f.MaxLevel,
		strings.ToLower(f.Source), strings.ToLower(f.LevelLabel), strings.ToLower(f.Theme))
}

// QuestionQuery is what a session asks the question supply for. Competition
// sessions pass Level; training sessions pass explicit filters.
type QuestionQuery struct {
	Mode       Mode
	Level      int
	Source     string
	LevelLabel string
	Theme      string
}

// Filter converts the query into a loader filter. Competition pools span one
// level either side of the player so that adaptation weights come into play.
func (q QuestionQuery) Filter() QuestionFilter {
	if q.Mode == ModeCompetition {
		return QuestionFilter{MinLevel: q.Level - 1, MaxLevel: q.Level + 1}
	}
	return QuestionFilter{
		Source:     q.Source,
		LevelLabel: q.LevelLabel,
		Theme:      q.Theme,
	}
}

// PlayerProgress is the persisted part of a player between sessions.
type PlayerProgress struct {
	Level int `json:"level"`
	Score int `json:"score"`
}

// DefaultPlayerProgress is used when a player has no stored progress or the
// store cannot be read.
func DefaultPlayerProgress() PlayerProgress {
	return PlayerProgress{Level: 1, Score: 0}
}
