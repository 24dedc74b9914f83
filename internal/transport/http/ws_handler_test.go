package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/game"
	"vocab-quiz-service/internal/infra/memory"
	"vocab-quiz-service/internal/joker"
)

func TestWebSocketAnswerFlow(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	conn := dial(t, server, "/ws?playerId=p1&mode=training&theme=home")
	defer conn.Close()

	// Expect the initial snapshot first.
	view := readState(t, conn, func(v game.View) bool { return true })
	if view.Status != game.StatusPlaying || view.Question == nil {
		t.Fatalf("expected a playing session, got %+v", view)
	}
	if view.Question.Mask != "____" || view.Question.Target != "" {
		t.Fatalf("question leaked or mis-masked: %+v", view.Question)
	}

	send(t, conn, "input", map[string]any{"answer": "huis"})
	send(t, conn, "submit", nil)

	view = readState(t, conn, func(v game.View) bool { return v.QuestionStatus != game.QuestionPlaying })
	if view.QuestionStatus != game.QuestionSuccess {
		t.Fatalf("expected success, got %q", view.QuestionStatus)
	}
	if view.Question.Target != "huis" || len(view.Report) != 1 {
		t.Fatalf("judged view = %+v", view)
	}

	send(t, conn, "next", nil)
	view = readState(t, conn, func(v game.View) bool { return v.Status == game.StatusFinished })
	if view.EndReason != game.EndCompleted {
		t.Fatalf("end reason = %q", view.EndReason)
	}
}

func TestWebSocketJokerAndReset(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	conn := dial(t, server, "/ws?playerId=p1&mode=training&theme=home")
	defer conn.Close()
	readState(t, conn, func(v game.View) bool { return true })

	send(t, conn, "joker", map[string]any{"kind": string(joker.ExtraTime)})
	view := readState(t, conn, func(v game.View) bool { return v.TimeRemaining > 30 })
	if view.QuestionStatus != game.QuestionPlaying {
		t.Fatalf("extra time should not judge")
	}

	send(t, conn, "reset", map[string]any{"keepScore": true})
	view = readState(t, conn, func(v game.View) bool {
		return v.Status == game.StatusPlaying && v.TimeRemaining == 30
	})
	for _, j := range view.Jokers {
		if j.Count != 1 {
			t.Fatalf("reset should restore jokers, %s has %d", j.Kind, j.Count)
		}
	}
}

func TestWebSocketRejectsBadMessages(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	conn := dial(t, server, "/ws?playerId=p1&mode=training")
	defer conn.Close()
	readState(t, conn, func(v game.View) bool { return true })

	send(t, conn, "dance", nil)
	if msg := readError(t, conn); msg != errUnsupportedType.Error() {
		t.Fatalf("unexpected error %q", msg)
	}

	send(t, conn, "joker", map[string]any{"kind": "teleport"})
	if msg := readError(t, conn); msg == "" {
		t.Fatalf("expected unknown joker error")
	}
}

func TestServeWSValidatesQuery(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	for _, path := range []string{"/ws", "/ws?playerId=p1&mode=arcade"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", path, resp.StatusCode)
		}
	}
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		want    game.Event
		wantErr bool
	}{
		{name: "input", msg: `{"type":"input","payload":{"answer":"ik ben"}}`, want: game.Input{Answer: "ik ben"}},
		{name: "submit", msg: `{"type":"submit"}`, want: game.Submit{}},
		{name: "next", msg: `{"type":"next"}`, want: game.Advance{}},
		{name: "joker", msg: `{"type":"joker","payload":{"kind":"reveal-letter"}}`, want: game.ActivateJoker{Kind: joker.RevealLetter}},
		{name: "reset defaults", msg: `{"type":"reset"}`, want: game.Reset{}},
		{name: "reset keep", msg: `{"type":"reset","payload":{"keepScore":true,"keepLevel":true}}`, want: game.Reset{KeepScore: true, KeepLevel: true}},
		{name: "bad input", msg: `{"type":"input","payload":"x"}`, wantErr: true},
		{name: "unknown", msg: `{"type":"dance"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg inboundMessage
			if err := json.Unmarshal([]byte(tt.msg), &msg); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got, err := decodeEvent(msg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %#v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func newTestServer() *httptest.Server {
	loader := memory.NewStaticQuestionLoader(sampleQuestions())
	service := app.NewGameService(
		memory.NewSessionStore(),
		memory.NewQuestionRepository(loader, time.Minute, 10),
		memory.NewPlayerStore(),
		game.NewEngine(game.DefaultRules(), nil),
		app.WithTick(time.Hour),
	)
	wsHandler := NewWSHandler(service, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	return httptest.NewServer(mux)
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readNext(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	var msg envelope
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg
}

// readState skips messages until a state snapshot satisfies ok.
func readState(t *testing.T, conn *websocket.Conn, ok func(game.View) bool) game.View {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readNext(t, conn)
		if msg.Type != "state" {
			continue
		}
		var view game.View
		if err := json.Unmarshal(msg.Payload, &view); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		if ok(view) {
			return view
		}
	}
	t.Fatalf("no matching state snapshot")
	return game.View{}
}

func readError(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readNext(t, conn)
		if msg.Type != "error" {
			continue
		}
		var payload errorPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		return payload.Message
	}
	t.Fatalf("no error message")
	return ""
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Prompt: "house", Target: "huis", Source: "basics", Theme: "home", ThemeLevel: 1, LevelLabel: "A1"},
		{ID: "q2", Prompt: "bread", Target: "brood", Source: "basics", Theme: "food", ThemeLevel: 2, LevelLabel: "A1"},
	}
}
