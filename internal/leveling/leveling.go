// Package leveling computes a player's next skill level from one session's answers.
package leveling

const (
	MinLevel = 1
	MaxLevel = 50

	// Thresholds on the weighted performance score.
	PromoteThreshold = 0.8
	HoldThreshold    = 0.6
)

// Weights applied to a correct answer depending on the question's theme level
// relative to the player's level.
const (
	weightBelow = 0.8
	weightEqual = 1.0
	weightAbove = 1.2
)

// Answer is one judged question as seen by the leveling algorithm.
type Answer struct {
	ThemeLevel int
	Correct    bool
}

// Clamp bounds level to [MinLevel, MaxLevel].
func Clamp(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// Weight returns how much a correct answer at themeLevel counts for a player at level.
func Weight(themeLevel, level int) float64 {
	switch {
	case themeLevel < level:
		return weightBelow
	case themeLevel > level:
		return weightAbove
	default:
		return weightEqual
	}
}

// Performance is the weighted share of correct answers. Harder questions can
// push it above 1.
func Performance(answers []Answer, level int) float64 {
	if len(answers) == 0 {
		return 0
	}
	var sum float64
	for _, a := range answers {
		if a.Correct {
			sum += Weight(a.ThemeLevel, level)
		}
	}
	return sum / float64(len(answers))
}

// Adapt returns the level after a session: one up at PromoteThreshold, unchanged
// at HoldThreshold, one down below that. An empty session leaves the level alone.
func Adapt(answers []Answer, current int) int {
	current = Clamp(current)
	if len(answers) == 0 {
		return current
	}

	score := Performance(answers, current)
	switch {
	case score >= PromoteThreshold:
		return Clamp(current + 1)
	case score >= HoldThreshold:
		return current
	default:
		return Clamp(current - 1)
	}
}
