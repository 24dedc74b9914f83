package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vocab-quiz-service/internal/domain"
)

// Seeder upserts question banks into the questions collection.
type Seeder struct {
	col *mongo.Collection
}

func NewSeeder(db *mongo.Database) *Seeder {
	return &Seeder{col: db.Collection("questions")}
}

// Seed replaces documents by _id, inserting the missing ones. It returns the
// number of documents written.
func (s *Seeder) Seed(ctx context.Context, questions []domain.Question) (int, error) {
	models := seedModels(questions)
	if len(models) == 0 {
		return 0, nil
	}
	res, err := s.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("seed questions: %w", err)
	}
	return int(res.UpsertedCount + res.MatchedCount), nil
}

func seedModels(questions []domain.Question) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(questions))
	for _, q := range questions {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": q.ID}).
			SetReplacement(q).
			SetUpsert(true))
	}
	return models
}
