package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/game"
	"vocab-quiz-service/internal/joker"
)

type WSHandler struct {
	service  *app.GameService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type inputPayload struct {
	Answer string `json:"answer"`
}

type jokerPayload struct {
	Kind string `json:"kind"`
}

type resetPayload struct {
	KeepScore bool `json:"keepScore"`
	KeepLevel bool `json:"keepLevel"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

var errUnsupportedType = errors.New("unsupported message type")

// ServeWS upgrades HTTP requests to websockets and drives one game session per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	playerID := query.Get("playerId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}
	mode, err := domain.ParseMode(query.Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session, _, err := h.service.Start(r.Context(), app.StartRequest{
		PlayerID:   playerID,
		Mode:       mode,
		Source:     query.Get("source"),
		LevelLabel: query.Get("level"),
		Theme:      query.Get("theme"),
	})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Close(r.Context(), session.ID())

	// the subscription starts with the current snapshot
	updates, cancel, err := h.service.Subscribe(r.Context(), session.ID())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	log := h.logger.With(zap.String("session_id", session.ID()), zap.String("player_id", playerID))

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// one writer goroutine; gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		ev, err := decodeEvent(inbound)
		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			continue
		}
		// the resulting snapshot reaches the client through the subscription
		if _, err := h.service.Dispatch(r.Context(), session.ID(), ev); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// decodeEvent maps a client message to a state machine event.
func decodeEvent(msg inboundMessage) (game.Event, error) {
	switch msg.Type {
	case "input":
		var payload inputPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, errors.New("invalid input payload")
		}
		return game.Input{Answer: payload.Answer}, nil
	case "submit":
		return game.Submit{}, nil
	case "next":
		return game.Advance{}, nil
	case "joker":
		var payload jokerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, errors.New("invalid joker payload")
		}
		kind, err := joker.ParseKind(payload.Kind)
		if err != nil {
			return nil, err
		}
		return game.ActivateJoker{Kind: kind}, nil
	case "reset":
		var payload resetPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				return nil, errors.New("invalid reset payload")
			}
		}
		return game.Reset{KeepScore: payload.KeepScore, KeepLevel: payload.KeepLevel}, nil
	default:
		return nil, errUnsupportedType
	}
}
