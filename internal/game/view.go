package game

import (
	"unicode"

	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/joker"
)

// View is the client-facing projection of a State. The target text stays
// hidden until the question has been judged.
type View struct {
	Mode           domain.Mode     `json:"mode"`
	Status         Status          `json:"status"`
	QuestionStatus QuestionStatus  `json:"questionStatus"`
	EndReason      EndReason       `json:"endReason,omitempty"`
	Index          int             `json:"index"`
	Total          int             `json:"total"`
	Question       *QuestionView   `json:"question,omitempty"`
	Answer         string          `json:"answer"`
	TimeRemaining  int             `json:"timeRemaining"`
	TimerRunning   bool            `json:"timerRunning"`
	Score          int             `json:"score"`
	Streak         float64         `json:"streak"`
	Progress       int             `json:"progress"`
	Level          int             `json:"level"`
	OldLevel       int             `json:"oldLevel"`
	Feedback       *Feedback       `json:"feedback,omitempty"`
	Jokers         joker.Inventory `json:"jokers"`
	Effects        joker.Effects   `json:"effects"`
	Report         []ReportView    `json:"report"`
}

// QuestionView describes the current question. Mask has one rune per target
// rune: '_' for a letter slot, the literal rune otherwise.
type QuestionView struct {
	ID         string `json:"id"`
	Prompt     string `json:"prompt"`
	Mask       string `json:"mask"`
	Theme      string `json:"theme"`
	ThemeLevel int    `json:"themeLevel"`
	LevelLabel string `json:"levelLabel"`
	Target     string `json:"target,omitempty"`
}

// ReportView is a judged question.
type ReportView struct {
	QuestionID string  `json:"questionId"`
	Prompt     string  `json:"prompt"`
	Target     string  `json:"target"`
	Outcome    Outcome `json:"outcome"`
}

// Snapshot projects s for clients.
func Snapshot(s State) View {
	v := View{
		Mode:           s.Mode,
		Status:         s.Status,
		QuestionStatus: s.QuestionStatus,
		EndReason:      s.EndReason,
		Index:          s.Index,
		Total:          len(s.Questions),
		Answer:         s.Answer,
		TimeRemaining:  s.TimeRemaining,
		TimerRunning:   s.TimerRunning,
		Score:          s.Score,
		Streak:         s.Streak,
		Progress:       s.Progress,
		Level:          s.Level,
		OldLevel:       s.OldLevel,
		Feedback:       s.Feedback,
		Jokers:         s.Jokers,
		Effects:        s.Effects,
		Report:         make([]ReportView, 0, len(s.Report)),
	}
	if q, ok := s.Current(); ok {
		qv := &QuestionView{
			ID:         q.ID,
			Prompt:     q.Prompt,
			Mask:       mask(q.Target),
			Theme:      q.Theme,
			ThemeLevel: q.ThemeLevel,
			LevelLabel: q.LevelLabel,
		}
		if s.QuestionStatus != QuestionPlaying {
			qv.Target = q.Target
		}
		v.Question = qv
	}
	for _, entry := range s.Report {
		v.Report = append(v.Report, ReportView{
			QuestionID: entry.Question.ID,
			Prompt:     entry.Question.Prompt,
			Target:     entry.Question.Target,
			Outcome:    entry.Outcome,
		})
	}
	return v
}

func mask(target string) string {
	out := []rune(target)
	for i, r := range out {
		if unicode.IsLetter(r) {
			out[i] = '_'
		}
	}
	return string(out)
}
