package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"speech-training-service/internal/models"
	"speech-training-service/internal/observability/logging"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsCommand is one client frame. Data carries base64 audio for "audio".
type wsCommand struct {
	Type string `json:"type"`
	Data []byte `json:"data,omitempty"`
}

// wsReply is one server frame.
type wsReply struct {
	Type     string           `json:"type"`
	Messages []models.Message `json:"messages,omitempty"`
	Error    string           `json:"error,omitempty"`
	Code     string           `json:"code,omitempty"`
}

// liveSession serves the session over a websocket: each command gets one
// reply carrying the messages the operation produced.
func (h *handler) liveSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	// Fail fast on unknown sessions before upgrading.
	if _, err := h.trainer.State(r.Context(), sessionID); err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	l := logging.WithSession(sessionID)
	l.Info().Msg("Live channel opened")
	// base64 inflates the audio by a third.
	conn.SetReadLimit(h.maxAudioBytes*4/3 + 4096)

	ctx := context.WithoutCancel(r.Context())
	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.Debug().Err(err).Msg("Live channel read ended")
			}
			break
		}

		reply := h.dispatch(ctx, sessionID, cmd)
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			l.Warn().Err(err).Msg("Live channel write failed")
			break
		}
	}
	l.Info().Msg("Live channel closed")
}

func (h *handler) dispatch(ctx context.Context, sessionID string, cmd wsCommand) wsReply {
	var (
		msgs []models.Message
		err  error
	)
	switch cmd.Type {
	case "ping":
		return wsReply{Type: "pong"}
	case "audio":
		out, e := h.trainer.SubmitAudio(ctx, sessionID, cmd.Data)
		if e == nil {
			msgs = out.Messages
		}
		err = e
	case "resume":
		out, e := h.trainer.Resume(ctx, sessionID)
		if e == nil {
			msgs = out.Messages
		}
		err = e
	case "state":
		m, e := h.trainer.State(ctx, sessionID)
		msgs, err = []models.Message{m}, e
	case "cancel":
		m, e := h.trainer.Cancel(ctx, sessionID)
		msgs, err = []models.Message{m}, e
	default:
		return wsReply{Type: "error", Error: "unknown command type " + cmd.Type, Code: "VALIDATION_ERROR"}
	}

	if err != nil {
		_, code := errorStatus(err)
		text := err.Error()
		if code == "INTERNAL_ERROR" {
			log.Error().Err(err).Str("sessionId", sessionID).Str("command", cmd.Type).Msg("Live command failed")
			text = "internal error"
		}
		return wsReply{Type: "error", Error: text, Code: code}
	}
	return wsReply{Type: "messages", Messages: msgs}
}
