package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/game"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuestionSource supplies question batches. An empty batch is an error.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, query domain.QuestionQuery) ([]domain.Question, error)
}

// PlayerStore reads and writes player progress for competition sessions.
type PlayerStore interface {
	GetPlayer(ctx context.Context, playerID string) (domain.PlayerProgress, error)
	SavePlayer(ctx context.Context, playerID string, progress domain.PlayerProgress) error
}

// StartRequest describes a new session. Source, LevelLabel and Theme only
// apply to training sessions.
type StartRequest struct {
	PlayerID   string
	Mode       domain.Mode
	Source     string
	LevelLabel string
	Theme      string
}

// GameService contains the quiz session use cases.
type GameService struct {
	sessions  SessionRepository
	questions QuestionSource
	players   PlayerStore
	engine    *game.Engine
	logger    *zap.Logger
	tick      time.Duration
	newID     func() string
}

// Option customizes a GameService.
type Option func(*GameService)

// WithTick sets the countdown interval. One second in production.
func WithTick(d time.Duration) Option {
	return func(s *GameService) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *GameService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator replaces uuid-based session IDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *GameService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewGameService(store SessionRepository, questions QuestionSource, players PlayerStore, engine *game.Engine, opts ...Option) *GameService {
	s := &GameService{
		sessions:  store,
		questions: questions,
		players:   players,
		engine:    engine,
		logger:    zap.NewNop(),
		tick:      time.Second,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates a session, loads its first batch and returns it. A session
// whose batch cannot be loaded is returned already finished.
func (s *GameService) Start(ctx context.Context, req StartRequest) (*Session, game.View, error) {
	if req.Mode != domain.ModeCompetition && req.Mode != domain.ModeTraining {
		return nil, game.View{}, fmt.Errorf("%w: %q", domain.ErrInvalidMode, req.Mode)
	}

	query := domain.QuestionQuery{Mode: req.Mode}
	if req.Mode == domain.ModeTraining {
		query.Source = req.Source
		query.LevelLabel = req.LevelLabel
		query.Theme = req.Theme
	}

	session := NewSession(s.newID(), req.PlayerID, query, s.engine)
	session.tick = s.tick
	session.run = s.runCommands
	s.sessions.Save(session)

	s.logger.Info("session started",
		zap.String("session_id", session.ID()),
		zap.String("player_id", req.PlayerID),
		zap.String("mode", string(req.Mode)),
	)
	return session, s.load(ctx, session), nil
}

// Dispatch applies one player event. Reset events also trigger a fresh load.
func (s *GameService) Dispatch(ctx context.Context, sessionID string, ev game.Event) (game.View, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return game.View{}, domain.ErrSessionNotFound
	}

	view := session.apply(ctx, ev)
	if _, ok := ev.(game.Reset); ok {
		view = s.load(ctx, session)
	}
	return view, nil
}

// Snapshot returns the current view of a session.
func (s *GameService) Snapshot(_ context.Context, sessionID string) (game.View, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return game.View{}, domain.ErrSessionNotFound
	}
	return session.View(), nil
}

// Subscribe returns a channel that receives a snapshot after every transition,
// countdown ticks included. The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context, sessionID string) (<-chan game.View, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Close stops the session countdown and forgets the session.
func (s *GameService) Close(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.close()
	s.sessions.Delete(sessionID)
}

// load fetches a batch outside the session lock and hands it to the state
// machine with the generation it was requested for, so a load that finishes
// after a reset is dropped. The player is read on the first load and after a
// reset that does not keep both level and score. Training sessions only take
// the level, which scales joker rewards, and never write it back.
func (s *GameService) load(ctx context.Context, session *Session) game.View {
	ticket := session.loadTicket()
	log := s.logger.With(zap.String("session_id", session.ID()), zap.String("player_id", session.PlayerID()))

	var player *domain.PlayerProgress
	level := ticket.level
	query := session.query
	if ticket.readPlayer {
		progress := s.readPlayer(ctx, session.PlayerID(), log)
		if ticket.keepLevel {
			progress.Level = ticket.level
		}
		if ticket.keepScore || query.Mode != domain.ModeCompetition {
			progress.Score = ticket.score
		}
		player = &progress
		level = progress.Level
	}
	if query.Mode == domain.ModeCompetition {
		query.Level = level
	}

	questions, err := s.questions.FetchQuestions(ctx, query)
	if err != nil {
		log.Warn("question supply failed", zap.Error(err))
		questions = nil
	}

	return session.apply(ctx, game.Loaded{
		Generation: ticket.generation,
		Questions:  questions,
		Player:     player,
	})
}

// readPlayer falls back to default progress when the store fails.
func (s *GameService) readPlayer(ctx context.Context, playerID string, log *zap.Logger) domain.PlayerProgress {
	if s.players == nil || playerID == "" {
		return domain.DefaultPlayerProgress()
	}
	progress, err := s.players.GetPlayer(ctx, playerID)
	if err != nil {
		if !errors.Is(err, domain.ErrPlayerNotFound) {
			log.Warn("player read failed, using defaults", zap.Error(err))
		}
		return domain.DefaultPlayerProgress()
	}
	return progress
}

func (s *GameService) runCommands(ctx context.Context, session *Session, cmds []game.Command) {
	for _, cmd := range cmds {
		switch cmd := cmd.(type) {
		case game.SavePlayer:
			s.savePlayer(ctx, session, domain.PlayerProgress{Level: cmd.Level, Score: cmd.Score})
		}
	}
}

// savePlayer is fire-and-forget: failures are logged and never retried.
func (s *GameService) savePlayer(ctx context.Context, session *Session, progress domain.PlayerProgress) {
	log := s.logger.With(zap.String("session_id", session.ID()), zap.String("player_id", session.PlayerID()))
	if s.players == nil || session.PlayerID() == "" {
		return
	}
	if err := s.players.SavePlayer(context.WithoutCancel(ctx), session.PlayerID(), progress); err != nil {
		log.Error("player save failed", zap.Error(err))
		return
	}
	log.Info("player saved", zap.Int("level", progress.Level), zap.Int("score", progress.Score))
}
