package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"vocab-quiz-service/internal/domain"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID         string `bun:"id,pk"`
	Prompt     string `bun:"prompt,notnull"`
	Target     string `bun:"target,notnull"`
	Source     string `bun:"source,notnull"`
	Theme      string `bun:"theme,notnull"`
	ThemeLevel int    `bun:"theme_level,notnull"`
	LevelLabel string `bun:"level_label,notnull"`
}

// Seeder upserts question banks into the questions table.
type Seeder struct {
	db *bun.DB
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db}
}

// Seed inserts questions, overwriting rows with the same id. It returns the
// number of rows written.
func (s *Seeder) Seed(ctx context.Context, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	rows := questionRows(questions)
	res, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("prompt = EXCLUDED.prompt").
		Set("target = EXCLUDED.target").
		Set("source = EXCLUDED.source").
		Set("theme = EXCLUDED.theme").
		Set("theme_level = EXCLUDED.theme_level").
		Set("level_label = EXCLUDED.level_label").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed questions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return len(rows), nil
	}
	return int(n), nil
}

func questionRows(questions []domain.Question) []questionRow {
	rows := make([]questionRow, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, questionRow{
			ID:         q.ID,
			Prompt:     q.Prompt,
			Target:     q.Target,
			Source:     q.Source,
			Theme:      q.Theme,
			ThemeLevel: q.ThemeLevel,
			LevelLabel: q.LevelLabel,
		})
	}
	return rows
}
