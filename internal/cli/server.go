package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/config"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/game"
	"vocab-quiz-service/internal/infra/memory"
	mongoloader "vocab-quiz-service/internal/infra/mongo"
	pgstore "vocab-quiz-service/internal/infra/postgres"
	redisstore "vocab-quiz-service/internal/infra/redis"
	transport "vocab-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backends holds the optional external clients named in the config.
type backends struct {
	redis *redis.Client
	pg    *pgxpool.Pool
	mongo *mongo.Client
}

func connectBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close(ctx)
			return nil, err
		}
		b.pg = pool
	}
	if cfg.Mongo.URI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			b.close(ctx)
			return nil, err
		}
		b.mongo = client
	}
	return b, nil
}

func (b *backends) close(ctx context.Context) {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pg != nil {
		b.pg.Close()
	}
	if b.mongo != nil {
		_ = b.mongo.Disconnect(ctx)
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := connectBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close(context.Background())

	service, err := buildService(cfg, b, log)
	if err != nil {
		return err
	}
	wsHandler := transport.NewWSHandler(service, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting quiz service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildService picks a collaborator for every port: Postgres, then MongoDB,
// then the YAML bank for questions, Redis as the cache and session marker
// when configured, and memory otherwise.
func buildService(cfg config.Config, b *backends, log *zap.Logger) (*app.GameService, error) {
	loader, err := questionLoader(cfg, b, log)
	if err != nil {
		return nil, err
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questions app.QuestionSource
	if b.redis != nil {
		questions = redisstore.NewQuestionRepository(b.redis, loader, questionTTL, cfg.Questions.BatchSize)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL, cfg.Questions.BatchSize)
	}

	var store app.SessionRepository
	if b.redis != nil {
		store = redisstore.NewSessionStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else {
		store = memory.NewSessionStore()
	}

	var players app.PlayerStore
	switch {
	case b.pg != nil:
		players = pgstore.NewPlayerStore(b.pg)
	case b.redis != nil:
		players = redisstore.NewPlayerStore(b.redis)
	default:
		players = memory.NewPlayerStore()
	}

	engine := game.NewEngine(cfg.Game.Rules(), nil)
	return app.NewGameService(store, questions, players, engine,
		app.WithLogger(log),
		app.WithTick(config.TTLDuration(cfg.Game.Tick, time.Second)),
	), nil
}

func questionLoader(cfg config.Config, b *backends, log *zap.Logger) (memory.QuestionLoader, error) {
	switch {
	case b.pg != nil:
		log.Info("questions from postgres")
		return pgstore.NewQuestionLoader(b.pg), nil
	case b.mongo != nil:
		log.Info("questions from mongodb", zap.String("database", cfg.Mongo.Database))
		return mongoloader.NewQuestionLoader(b.mongo.Database(cfg.Mongo.Database)), nil
	case cfg.Questions.BankPath != "":
		bank, err := memory.LoadBankFile(cfg.Questions.BankPath)
		if err != nil {
			return nil, err
		}
		log.Info("questions from bank file", zap.String("path", cfg.Questions.BankPath), zap.Int("count", len(bank)))
		return memory.NewStaticQuestionLoader(bank), nil
	default:
		log.Warn("no question store configured, using built-in sample questions")
		return memory.NewStaticQuestionLoader(sampleQuestions()), nil
	}
}

// sampleQuestions provides a minimal question set; configure a bank file or a database in production.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "sample-1", Prompt: "hello", Target: "hallo", Source: "sample", Theme: "greetings", ThemeLevel: 1, LevelLabel: "A1"},
		{ID: "sample-2", Prompt: "the house", Target: "het huis", Source: "sample", Theme: "home", ThemeLevel: 1, LevelLabel: "A1"},
		{ID: "sample-3", Prompt: "I am here", Target: "ik ben hier", Source: "sample", Theme: "travel", ThemeLevel: 2, LevelLabel: "A1"},
		{ID: "sample-4", Prompt: "the bread", Target: "het brood", Source: "sample", Theme: "food", ThemeLevel: 2, LevelLabel: "A1"},
		{ID: "sample-5", Prompt: "where is the station?", Target: "waar is het station?", Source: "sample", Theme: "travel", ThemeLevel: 3, LevelLabel: "A2"},
	}
}
