package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"vocab-quiz-service/internal/config"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/infra/memory"
	mongoloader "vocab-quiz-service/internal/infra/mongo"
	pgstore "vocab-quiz-service/internal/infra/postgres"
)

// NewSeedCmd loads a YAML question bank into the configured databases.
func NewSeedCmd(configPath *string) *cobra.Command {
	var bankPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a question bank into Postgres and/or MongoDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if bankPath != "" {
				cfg.Questions.BankPath = bankPath
			}
			return runSeed(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVar(&bankPath, "bank", "", "question bank file (overrides questions.bank_path)")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	if cfg.Questions.BankPath == "" {
		return fmt.Errorf("question bank path not configured")
	}
	if cfg.Postgres.URL == "" && cfg.Mongo.URI == "" {
		return fmt.Errorf("no database configured to seed")
	}
	questions, err := memory.LoadBankFile(cfg.Questions.BankPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := seedPostgres(ctx, cfg, questions, log); err != nil {
			return err
		}
	}
	if cfg.Mongo.URI != "" {
		if err := seedMongo(ctx, cfg, questions, log); err != nil {
			return err
		}
	}
	return nil
}

func seedPostgres(ctx context.Context, cfg config.Config, questions []domain.Question, log *zap.Logger) error {
	if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
		return err
	}
	db, err := openBunDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := pgstore.NewSeeder(db).Seed(ctx, questions)
	if err != nil {
		return err
	}
	log.Info("seeded postgres", zap.Int("questions", n))
	return nil
}

func seedMongo(ctx context.Context, cfg config.Config, questions []domain.Question, log *zap.Logger) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	n, err := mongoloader.NewSeeder(client.Database(cfg.Mongo.Database)).Seed(ctx, questions)
	if err != nil {
		return err
	}
	log.Info("seeded mongodb", zap.String("database", cfg.Mongo.Database), zap.Int("questions", n))
	return nil
}
