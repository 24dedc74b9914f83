package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"

	"vocab-quiz-service/internal/domain"
)

// QuestionLoader loads question pools from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	query, args := questionQuery(filter)
	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Prompt, &q.Target, &q.Source, &q.Theme, &q.ThemeLevel, &q.LevelLabel); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

// questionQuery renders filter as a parameterized SELECT. Zero-valued
// filter fields add no condition.
func questionQuery(filter domain.QuestionFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.MinLevel > 0 {
		add("theme_level >= $%d", filter.MinLevel)
	}
	if filter.MaxLevel > 0 {
		add("theme_level <= $%d", filter.MaxLevel)
	}
	if filter.Source != "" {
		add("lower(source) = lower($%d)", filter.Source)
	}
	if filter.LevelLabel != "" {
		add("lower(level_label) = lower($%d)", filter.LevelLabel)
	}
	if filter.Theme != "" {
		add("lower(theme) = lower($%d)", filter.Theme)
	}

	query := `SELECT id, prompt, target, source, theme, theme_level, level_label FROM questions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return query + " ORDER BY id", args
}
