package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"edubot/internal/app"
	"edubot/internal/domain"
)

// WSHandler bridges websocket connections to the dispatcher. The protocol
// is strictly request/response: each inbound event produces at most one
// render instruction, so a single read loop owns the connection and no
// concurrent writes can occur.
type WSHandler struct {
	dispatcher *app.Dispatcher
	log        *zap.Logger
	upgrader   websocket.Upgrader
}

func NewWSHandler(dispatcher *app.Dispatcher, log *zap.Logger) *WSHandler {
	return &WSHandler{
		dispatcher: dispatcher,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundEvent struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Data string `json:"data"`
	Text string `json:"text"`
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and pumps inbound events through the
// dispatcher for the identified user.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userParam := r.URL.Query().Get("userId")
	name := r.URL.Query().Get("name")
	userID, err := strconv.ParseInt(userParam, 10, 64)
	if userParam == "" || err != nil || userID <= 0 {
		http.Error(w, "missing or invalid userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.log.Debug("ws connected", zap.Int64("user", userID))

	for {
		var inbound inboundEvent
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("ws read error", zap.Int64("user", userID), zap.Error(err))
			}
			return
		}

		ev, ok := toDomainEvent(inbound)
		if !ok {
			if err := conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported event kind"}}); err != nil {
				return
			}
			continue
		}

		render, err := h.dispatcher.Dispatch(r.Context(), userID, name, ev)
		if err != nil {
			h.log.Error("dispatch failed", zap.Int64("user", userID), zap.Error(err))
			if err := conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: "internal error"}}); err != nil {
				return
			}
			continue
		}
		if render.IsZero() {
			// Event matched no transition; nothing to show.
			continue
		}
		if err := conn.WriteJSON(outboundMessage{Type: "render", Payload: render}); err != nil {
			h.log.Warn("ws write error", zap.Int64("user", userID), zap.Error(err))
			return
		}
	}
}

func toDomainEvent(in inboundEvent) (domain.Event, bool) {
	var kind domain.EventKind
	switch in.Kind {
	case "callback":
		kind = domain.EventCallback
	case "message":
		kind = domain.EventMessage
	case "command":
		kind = domain.EventCommand
	default:
		return domain.Event{}, false
	}
	return domain.Event{
		ID:   in.ID,
		Kind: kind,
		Data: in.Data,
		Text: in.Text,
	}, true
}
