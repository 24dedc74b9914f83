// Package mongo loads question pools from a MongoDB collection.
package mongo

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vocab-quiz-service/internal/domain"
)

// QuestionLoader reads questions documents shaped like domain.Question.
type QuestionLoader struct {
	col *mongo.Collection
}

func NewQuestionLoader(db *mongo.Database) *QuestionLoader {
	return &QuestionLoader{col: db.Collection("questions")}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	cur, err := l.col.Find(ctx, questionFilter(filter), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer cur.Close(ctx)

	var questions []domain.Question
	for cur.Next(ctx) {
		var q domain.Question
		if err := cur.Decode(&q); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

func questionFilter(filter domain.QuestionFilter) bson.M {
	query := bson.M{}
	level := bson.M{}
	if filter.MinLevel > 0 {
		level["$gte"] = filter.MinLevel
	}
	if filter.MaxLevel > 0 {
		level["$lte"] = filter.MaxLevel
	}
	if len(level) > 0 {
		query["theme_level"] = level
	}
	if filter.Source != "" {
		query["source"] = equalFold(filter.Source)
	}
	if filter.LevelLabel != "" {
		query["level_label"] = equalFold(filter.LevelLabel)
	}
	if filter.Theme != "" {
		query["theme"] = equalFold(filter.Theme)
	}
	return query
}

// equalFold matches a whole string case-insensitively.
func equalFold(value string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}
}
