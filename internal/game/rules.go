package game

// Rules are the tunable constants of a session.
type Rules struct {
	// QuestionSeconds is the countdown each question starts with.
	QuestionSeconds int
	// ExtraSeconds is what the extra-time joker adds.
	ExtraSeconds int
	// BasePoints is scaled by (Streak + StreakOffset) on every correct answer.
	BasePoints int
	// StreakStep is added to Streak after each correct answer.
	StreakStep float64
	// StreakOffset keeps the first correct answer of a streak worth
	// BasePoints: with the defaults a streak scores 10, 11, 12 and so on.
	StreakOffset float64
	// ProgressStep is added to Progress per judged question, capped at 100.
	ProgressStep int
	// StartingJokers is the charge count of every joker at session start.
	StartingJokers int
}

// DefaultRules returns the rules used when configuration leaves them unset.
func DefaultRules() Rules {
	return Rules{
		QuestionSeconds: 30,
		ExtraSeconds:    15,
		BasePoints:      10,
		StreakStep:      0.1,
		StreakOffset:    1,
		ProgressStep:    10,
		StartingJokers:  1,
	}
}

// withDefaults fills zero fields from DefaultRules.
func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.QuestionSeconds <= 0 {
		r.QuestionSeconds = d.QuestionSeconds
	}
	if r.ExtraSeconds <= 0 {
		r.ExtraSeconds = d.ExtraSeconds
	}
	if r.BasePoints <= 0 {
		r.BasePoints = d.BasePoints
	}
	if r.StreakStep <= 0 {
		r.StreakStep = d.StreakStep
	}
	if r.StreakOffset <= 0 {
		r.StreakOffset = d.StreakOffset
	}
	if r.ProgressStep <= 0 {
		r.ProgressStep = d.ProgressStep
	}
	if r.StartingJokers < 0 {
		r.StartingJokers = 0
	}
	return r
}
