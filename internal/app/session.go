package app

import (
	"context"
	"sync"
	"time"

	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/game"
)

// commandRunner carries out the side effects a transition asks for.
type commandRunner func(ctx context.Context, session *Session, cmds []game.Command)

// Session owns one game state, its countdown and its subscribers. Every event
// goes through the mutex, so the state machine sees them one at a time.
type Session struct {
	id        string
	playerID  string
	query     domain.QuestionQuery
	engine    *game.Engine
	tick      time.Duration
	createdAt time.Time
	run       commandRunner

	mu          sync.Mutex
	state       game.State
	read        playerRead
	closed      bool
	countdown   *countdown
	subscribers map[chan game.View]struct{}
}

// countdown is the single tick source of a session. key pins it to one
// question of one generation.
type countdown struct {
	key  countdownKey
	stop chan struct{}
}

// playerRead tells the next load whether to read the player store and which
// fields of the current state win over the stored ones.
type playerRead struct {
	pending   bool
	keepLevel bool
	keepScore bool
}

// loadTicket is what a load needs from the session before leaving the lock.
type loadTicket struct {
	generation int
	level      int
	score      int
	readPlayer bool
	keepLevel  bool
	keepScore  bool
}

type countdownKey struct {
	generation int
	index      int
}

// NewSession is exported for infrastructure layers and tests that need a session
// outside of GameService.
func NewSession(id, playerID string, query domain.QuestionQuery, engine *game.Engine) *Session {
	return newSessionWithClock(id, playerID, query, engine, time.Now)
}

func newSessionWithClock(id, playerID string, query domain.QuestionQuery, engine *game.Engine, now func() time.Time) *Session {
	return &Session{
		id:          id,
		playerID:    playerID,
		query:       query,
		engine:      engine,
		tick:        time.Second,
		createdAt:   now(),
		state:       engine.New(query.Mode),
		read:        playerRead{pending: true},
		subscribers: make(map[chan game.View]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// PlayerID returns the player the session belongs to.
func (s *Session) PlayerID() string {
	return s.playerID
}

// Mode returns the session mode.
func (s *Session) Mode() domain.Mode {
	return s.query.Mode
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// State returns the current state value.
func (s *Session) State() game.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns the current client snapshot.
func (s *Session) View() game.View {
	return game.Snapshot(s.State())
}

// Closed reports whether the session has been shut down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// apply runs ev through the engine, then the resulting commands outside the lock.
func (s *Session) apply(ctx context.Context, ev game.Event) game.View {
	s.mu.Lock()
	view, cmds := s.applyLocked(ev)
	s.mu.Unlock()

	if len(cmds) > 0 && s.run != nil {
		s.run(ctx, s, cmds)
	}
	return view
}

func (s *Session) applyLocked(ev game.Event) (game.View, []game.Command) {
	if s.closed {
		return game.Snapshot(s.state), nil
	}
	var cmds []game.Command
	s.state, cmds = s.engine.Apply(s.state, ev)
	if r, ok := ev.(game.Reset); ok {
		// a reset that drops level or score starts over from the stored player
		s.read = playerRead{pending: !(r.KeepLevel && r.KeepScore), keepLevel: r.KeepLevel, keepScore: r.KeepScore}
	}
	s.syncCountdownLocked()
	return s.broadcastLocked(), cmds
}

// loadTicket captures the current generation, level and score, and consumes
// the pending player read.
func (s *Session) loadTicket() loadTicket {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := loadTicket{
		generation: s.state.Generation,
		level:      s.state.Level,
		score:      s.state.Score,
		readPlayer: s.read.pending,
		keepLevel:  s.read.keepLevel,
		keepScore:  s.read.keepScore,
	}
	s.read = playerRead{}
	return t
}

// syncCountdownLocked keeps at most one countdown alive, restarting it whenever
// the question or generation changes and stopping it when the timer stops.
func (s *Session) syncCountdownLocked() {
	want := !s.closed && s.state.TimerRunning && s.state.Judgeable()
	key := countdownKey{generation: s.state.Generation, index: s.state.Index}

	if s.countdown != nil {
		if want && s.countdown.key == key {
			return
		}
		close(s.countdown.stop)
		s.countdown = nil
	}
	if !want {
		return
	}

	cd := &countdown{key: key, stop: make(chan struct{})}
	s.countdown = cd
	go s.runCountdown(cd)
}

func (s *Session) runCountdown(cd *countdown) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-cd.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.countdown != cd {
				s.mu.Unlock()
				return
			}
			_, cmds := s.applyLocked(game.TimerTick{})
			s.mu.Unlock()
			if len(cmds) > 0 && s.run != nil {
				s.run(context.Background(), s, cmds)
			}
		}
	}
}

// countdownActive reports whether a tick source is running.
func (s *Session) countdownActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown != nil
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.syncCountdownLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) subscribe() (<-chan game.View, func()) {
	ch := make(chan game.View, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- game.Snapshot(s.state)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() game.View {
	view := game.Snapshot(s.state)
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// slow subscriber: replace its oldest pending snapshot
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}
