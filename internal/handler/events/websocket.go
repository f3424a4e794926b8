package events

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	sessionService "github.com/talan-labs/avatar/backend/internal/service/session"
	"github.com/talan-labs/avatar/backend/pkg/utils"
)

// WebSocketHandler pushes live session events (new messages, busy flips) to
// the auxiliary panels, and accepts submits over the same connection.
type WebSocketHandler struct {
	sessions *sessionService.Service
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the events handler.
func NewWebSocketHandler(sessions *sessionService.Service) *WebSocketHandler {
	return &WebSocketHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket route.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string `json:"type"` // submit
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string               `json:"type"`
	SessionID string               `json:"sessionId,omitempty"`
	Data      sessionService.Event `json:"data"`
	Timestamp int64                `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	events, cancel, err := h.sessions.Subscribe(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[events] connection opened for session=%s", sessionID)

	// Reader: accepts submit frames and drives the session machine. Rejected
	// submits (busy, empty) are dropped here; the client observes the absence
	// of events.
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}

			var inbound inboundMessage
			if err := json.Unmarshal(data, &inbound); err != nil {
				log.Printf("[events] malformed inbound frame: %v", err)
				continue
			}

			if inbound.Type == "submit" {
				if _, err := h.sessions.Submit(r.Context(), sessionID, inbound.Text); err != nil {
					log.Printf("[events] submit rejected for session=%s: %v", sessionID, err)
				}
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("[events] connection closed for session=%s", sessionID)
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			outgoing := outgoingMessage{
				Type:      event.Type,
				SessionID: sessionID,
				Data:      event,
				Timestamp: time.Now().UnixMilli(),
			}
			if err := conn.WriteJSON(outgoing); err != nil {
				log.Printf("[events] write failed for session=%s: %v", sessionID, err)
				return
			}
		}
	}
}
