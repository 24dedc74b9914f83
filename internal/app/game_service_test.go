package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/game"
	"vocab-quiz-service/internal/infra/memory"
	"vocab-quiz-service/internal/joker"
)

func TestStartCompetitionUsesStoredLevel(t *testing.T) {
	ctx := context.Background()
	players := memory.NewPlayerStore()
	_ = players.SavePlayer(ctx, "p1", domain.PlayerProgress{Level: 5, Score: 40})
	service := newTestService(players, game.DefaultRules())

	session, view, err := service.Start(ctx, app.StartRequest{PlayerID: "p1", Mode: domain.ModeCompetition})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer service.Close(ctx, session.ID())

	if view.Status != game.StatusPlaying || view.Level != 5 || view.Score != 40 {
		t.Fatalf("unexpected start view: status=%q level=%d score=%d", view.Status, view.Level, view.Score)
	}
	for _, q := range session.State().Questions {
		if q.ThemeLevel < 4 || q.ThemeLevel > 6 {
			t.Fatalf("question %s level %d outside 4..6", q.ID, q.ThemeLevel)
		}
	}
	if view.Question == nil || view.Question.Target != "" {
		t.Fatalf("start view should show the question without its target")
	}
}

func TestCompetitionSessionSavesPlayerOnce(t *testing.T) {
	ctx := context.Background()
	players := &countingPlayers{PlayerStore: memory.NewPlayerStore()}
	_ = players.PlayerStore.SavePlayer(ctx, "p1", domain.PlayerProgress{Level: 5})
	service := app.NewGameService(
		memory.NewSessionStore(),
		memory.NewQuestionRepository(memory.NewStaticQuestionLoader(levelQuestions(5, 3)), time.Minute, 3),
		players,
		game.NewEngine(game.DefaultRules(), nil),
	)

	session, _, err := service.Start(ctx, app.StartRequest{PlayerID: "p1", Mode: domain.ModeCompetition})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer service.Close(ctx, session.ID())

	for i, correct := range []bool{true, false, true} {
		q, _ := session.State().Current()
		text := q.Target
		if !correct {
			text = "wrong"
		}
		mustDispatch(t, service, session.ID(), game.Input{Answer: text})
		mustDispatch(t, service, session.ID(), game.Submit{})
		view := mustDispatch(t, service, session.ID(), game.Advance{})
		if i < 2 && view.Status != game.StatusPlaying {
			t.Fatalf("finished after %d questions", i+1)
		}
	}

	view, _ := service.Snapshot(ctx, session.ID())
	if view.Status != game.StatusFinished || view.EndReason != game.EndCompleted {
		t.Fatalf("status=%q reason=%q", view.Status, view.EndReason)
	}
	if view.Level != 5 {
		t.Fatalf("level = %d, want 5 for 2/3 correct", view.Level)
	}
	if players.saves != 1 {
		t.Fatalf("expected one player save, got %d", players.saves)
	}
	stored, _ := players.GetPlayer(ctx, "p1")
	if stored.Level != 5 || stored.Score != view.Score || stored.Score != 20 {
		t.Fatalf("stored progress = %+v, view score %d", stored, view.Score)
	}

	mustDispatch(t, service, session.ID(), game.Advance{})
	if players.saves != 1 {
		t.Fatalf("advance on finished session saved again")
	}
}

func TestTrainingSessionNeverSavesPlayer(t *testing.T) {
	ctx := context.Background()
	players := &countingPlayers{PlayerStore: memory.NewPlayerStore()}
	service := newTestService(players, game.DefaultRules())

	session, view, err := service.Start(ctx, app.StartRequest{PlayerID: "p1", Mode: domain.ModeTraining, Theme: "food"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer service.Close(ctx, session.ID())
	if view.Total == 0 {
		t.Fatalf("expected training questions")
	}
	for _, q := range session.State().Questions {
		if q.Theme != "food" {
			t.Fatalf("question %s has theme %q", q.ID, q.Theme)
		}
	}

	for i := 0; i < view.Total; i++ {
		mustDispatch(t, service, session.ID(), game.Submit{})
		mustDispatch(t, service, session.ID(), game.Advance{})
	}
	if players.saves != 0 || players.reads != 1 {
		t.Fatalf("training should read the player once and never save: reads=%d saves=%d", players.reads, players.saves)
	}
}

func TestTrainingRewardsUseStoredLevel(t *testing.T) {
	ctx := context.Background()
	players := memory.NewPlayerStore()
	_ = players.SavePlayer(ctx, "p1", domain.PlayerProgress{Level: 9, Score: 300})
	service := app.NewGameService(
		memory.NewSessionStore(),
		memory.NewQuestionRepository(memory.NewStaticQuestionLoader(levelQuestions(2, 3)), time.Minute, 3),
		players,
		game.NewEngine(game.DefaultRules(), nil),
	)

	session, view, err := service.Start(ctx, app.StartRequest{PlayerID: "p1", Mode: domain.ModeTraining})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer service.Close(ctx, session.ID())
	if view.Level != 9 || view.Score != 0 {
		t.Fatalf("training view level=%d score=%d, want 9 and 0", view.Level, view.Score)
	}

	q, _ := session.State().Current()
	mustDispatch(t, service, session.ID(), game.Input{Answer: q.Target})
	judged := mustDispatch(t, service, session.ID(), game.Submit{})
	charges := 0
	for _, j := range judged.Jokers {
		charges += j.Count
	}
	// five starting charges plus one reward for a question below the player's level
	if charges != 6 {
		t.Fatalf("charges = %d, want 6", charges)
	}

	stored, _ := players.GetPlayer(ctx, "p1")
	if stored.Level != 9 || stored.Score != 300 {
		t.Fatalf("training changed stored progress: %+v", stored)
	}
}

func TestStartWithEmptySupplyFinishes(t *testing.T) {
	ctx := context.Background()
	service := newTestService(memory.NewPlayerStore(), game.DefaultRules())

	session, view, err := service.Start(ctx, app.StartRequest{PlayerID: "p1", Mode: domain.ModeTraining, Source: "missing"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer service.Close(ctx, session.ID())
	if view.Status != game.StatusFinished || view.EndReason != game.EndNoQuestions || len(view.Report) != 0 {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestPlayerReadFailureUsesDefaults(t *testing.T) {
	ctx := context.Background()
	service := newTestService(failingPlayers{}, game.DefaultRules())

	session, view, err := service.Start(ctx, app.StartRequest{PlayerID: "p1", Mode: domain.ModeCompetition})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer service.Close(ctx, session.ID())
	if view.Level != 1 || view.Score != 0 || view.Status != game.StatusPlaying {
		t.Fatalf("expected defaults, got level=%d score=%d status=%q", view.Level, view.Score, view.Status)
	}

	// the failing save is logged, not surfaced
	q, _ := session.State().Current()
	mustDispatch(t, service, session.ID(), game.Input{Answer: q.Target})
	for i := 0; i < len(session.State().Questions); i++ {
		mustDispatch(t, service, session.ID(), game.Submit{})
		mustDispatch(t, service, session.ID(), game.Advance{})
	}
	if session.State().Status != game.StatusFinished {
		t.Fatalf("session did not finish")
	}
}

func TestStartRejectsUnknownMode(t *testing.T) {
	service := newTestService(memory.NewPlayerStore(), game.DefaultRules())
	_, _, err := service.Start(context.Background(), app.StartRequest{PlayerID: "p1", Mode: "arcade"})
	if !errors.Is(err, domain.ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestDispatchRequiresSession(t *testing.T) {
	service := newTestService(memory.NewPlayerStore(), game.DefaultRules())
	if _, err := service.Dispatch(context.Background(), "missing", game.Submit{}); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
	if _, _, err := service.Subscribe(context.Background(), "missing"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service := newTestService(memory.NewPlayerStore(), game.DefaultRules())
	session, _, err := service.Start(ctx, app.StartRequest{PlayerID: "p1", Mode: domain.ModeTraining})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer service.Close(ctx, session.ID())

	ch, cancel, err := service.Subscribe(ctx, session.ID())
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	<-ch // initial snapshot

	mustDispatch(t, service, session.ID(), game.ActivateJoker{Kind: joker.ExtraTime})
	update := waitFor(t, ch, func(v game.View) bool { return v.TimeRemaining > 30 })
	for _, j := range update.Jokers {
		if j.Kind == joker.ExtraTime && j.Count != 0 {
			t.Fatalf("extra-time count = %d, want 0", j.Count)
		}
	}
}

func TestCountdownExpiryJudges(t *testing.T) {
	ctx := context.Background()
	service := app.NewGameService(
		memory.NewSessionStore(),
		memory.NewQuestionRepository(memory.NewStaticQuestionLoader(levelQuestions(1, 2)), time.Minute, 0),
		memory.NewPlayerStore(),
		game.NewEngine(game.Rules{QuestionSeconds: 2}, nil),
		app.WithTick(10*time.Millisecond),
	)
	session, _, err := service.Start(ctx, app.StartRequest{PlayerID: "p1", Mode: domain.ModeTraining})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer service.Close(ctx, session.ID())

	ch, cancel, err := service.Subscribe(ctx, session.ID())
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	view := waitFor(t, ch, func(v game.View) bool { return v.QuestionStatus == game.QuestionFailed })
	if view.Feedback == nil || view.Feedback.Message != game.TimeUpMessage {
		t.Fatalf("feedback = %+v, want time-up", view.Feedback)
	}
	if view.TimerRunning || len(view.Report) != 1 {
		t.Fatalf("timer running=%v report=%d", view.TimerRunning, len(view.Report))
	}

	// no further judging while the question waits for advance
	time.Sleep(50 * time.Millisecond)
	if got := len(session.State().Report); got != 1 {
		t.Fatalf("report grew to %d while idle", got)
	}
}

func TestResetReloadsSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(memory.NewPlayerStore(), game.DefaultRules())
	session, _, err := service.Start(ctx, app.StartRequest{PlayerID: "p1", Mode: domain.ModeCompetition})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer service.Close(ctx, session.ID())

	q, _ := session.State().Current()
	mustDispatch(t, service, session.ID(), game.Input{Answer: q.Target})
	judged := mustDispatch(t, service, session.ID(), game.Submit{})
	if judged.Score == 0 {
		t.Fatalf("expected a score before reset")
	}

	view := mustDispatch(t, service, session.ID(), game.Reset{KeepScore: true})
	if view.Status != game.StatusPlaying || view.Index != 0 || len(view.Report) != 0 {
		t.Fatalf("reset did not restart: status=%q index=%d report=%d", view.Status, view.Index, len(view.Report))
	}
	if view.Score != judged.Score || view.Progress != 0 {
		t.Fatalf("score=%d progress=%d after reset", view.Score, view.Progress)
	}
	if session.State().Generation != 2 {
		t.Fatalf("generation = %d, want 2", session.State().Generation)
	}
}

func TestResetRereadsStoredProgress(t *testing.T) {
	ctx := context.Background()
	players := memory.NewPlayerStore()
	_ = players.SavePlayer(ctx, "p1", domain.PlayerProgress{Level: 20, Score: 900})
	service := app.NewGameService(
		memory.NewSessionStore(),
		memory.NewQuestionRepository(memory.NewStaticQuestionLoader(levelQuestions(20, 3)), time.Minute, 3),
		players,
		game.NewEngine(game.DefaultRules(), nil),
	)

	session, view, err := service.Start(ctx, app.StartRequest{PlayerID: "p1", Mode: domain.ModeCompetition})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer service.Close(ctx, session.ID())
	if view.Level != 20 || view.Score != 900 {
		t.Fatalf("start level=%d score=%d", view.Level, view.Score)
	}

	view = mustDispatch(t, service, session.ID(), game.Reset{})
	if view.Status != game.StatusPlaying || view.Level != 20 || view.Score != 900 {
		t.Fatalf("after reset status=%q level=%d score=%d, want stored progress", view.Status, view.Level, view.Score)
	}
	for _, q := range session.State().Questions {
		if q.ThemeLevel != 20 {
			t.Fatalf("question %s level %d, want 20", q.ID, q.ThemeLevel)
		}
	}

	for i := 0; i < view.Total; i++ {
		q, _ := session.State().Current()
		mustDispatch(t, service, session.ID(), game.Input{Answer: q.Target})
		mustDispatch(t, service, session.ID(), game.Submit{})
		mustDispatch(t, service, session.ID(), game.Advance{})
	}

	stored, _ := players.GetPlayer(ctx, "p1")
	if stored.Level != 21 || stored.Score != 933 {
		t.Fatalf("stored progress = %+v, want level 21 score 933", stored)
	}
}

func TestResetKeepsLevelButRereadsScore(t *testing.T) {
	ctx := context.Background()
	players := memory.NewPlayerStore()
	_ = players.SavePlayer(ctx, "p1", domain.PlayerProgress{Level: 5, Score: 40})
	service := newTestService(players, game.DefaultRules())

	session, _, err := service.Start(ctx, app.StartRequest{PlayerID: "p1", Mode: domain.ModeCompetition})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer service.Close(ctx, session.ID())

	q, _ := session.State().Current()
	mustDispatch(t, service, session.ID(), game.Input{Answer: q.Target})
	mustDispatch(t, service, session.ID(), game.Submit{})
	_ = players.SavePlayer(ctx, "p1", domain.PlayerProgress{Level: 7, Score: 70})

	view := mustDispatch(t, service, session.ID(), game.Reset{KeepLevel: true})
	if view.Level != 5 || view.Score != 70 {
		t.Fatalf("level=%d score=%d, want kept level 5 and stored score 70", view.Level, view.Score)
	}
}

func TestCloseForgetsSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(memory.NewPlayerStore(), game.DefaultRules())
	session, _, _ := service.Start(ctx, app.StartRequest{PlayerID: "p1", Mode: domain.ModeTraining})

	service.Close(ctx, session.ID())
	if !session.Closed() {
		t.Fatalf("expected session closed")
	}
	if _, err := service.Snapshot(ctx, session.ID()); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session removed, got %v", err)
	}
}

func newTestService(players app.PlayerStore, rules game.Rules) *app.GameService {
	var questions []domain.Question
	for level := 1; level <= 8; level++ {
		questions = append(questions, levelQuestions(level, 3)...)
	}
	repo := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(questions), 5*time.Minute, 5)
	return app.NewGameService(memory.NewSessionStore(), repo, players, game.NewEngine(rules, nil))
}

func levelQuestions(level, n int) []domain.Question {
	themes := []string{"food", "home", "travel"}
	out := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Question{
			ID:         fmt.Sprintf("l%d-q%d", level, i),
			Prompt:     fmt.Sprintf("prompt %d-%d", level, i),
			Target:     fmt.Sprintf("antwoord %c", 'a'+i),
			Source:     "basics",
			Theme:      themes[i%len(themes)],
			ThemeLevel: level,
		})
	}
	return out
}

func mustDispatch(t *testing.T, service *app.GameService, sessionID string, ev game.Event) game.View {
	t.Helper()
	view, err := service.Dispatch(context.Background(), sessionID, ev)
	if err != nil {
		t.Fatalf("dispatch %T: %v", ev, err)
	}
	return view
}

func waitFor(t *testing.T, ch <-chan game.View, ok func(game.View) bool) game.View {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case v, open := <-ch:
			if !open {
				t.Fatalf("subscription closed")
			}
			if ok(v) {
				return v
			}
		case <-timeout:
			t.Fatalf("timed out waiting for snapshot")
		}
	}
}

type countingPlayers struct {
	*memory.PlayerStore
	mu    sync.Mutex
	reads int
	saves int
}

func (p *countingPlayers) GetPlayer(ctx context.Context, playerID string) (domain.PlayerProgress, error) {
	p.mu.Lock()
	p.reads++
	p.mu.Unlock()
	return p.PlayerStore.GetPlayer(ctx, playerID)
}

func (p *countingPlayers) SavePlayer(ctx context.Context, playerID string, progress domain.PlayerProgress) error {
	p.mu.Lock()
	p.saves++
	p.mu.Unlock()
	return p.PlayerStore.SavePlayer(ctx, playerID, progress)
}

type failingPlayers struct{}

func (failingPlayers) GetPlayer(context.Context, string) (domain.PlayerProgress, error) {
	return domain.PlayerProgress{}, errors.New("connection refused")
}

func (failingPlayers) SavePlayer(context.Context, string, domain.PlayerProgress) error {
	return errors.New("connection refused")
}
