package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/talan-labs/avatar/backend/internal/model/chat"
	sessionService "github.com/talan-labs/avatar/backend/internal/service/session"
	"github.com/talan-labs/avatar/backend/pkg/utils"
)

// Handler streams one submit/resolve/complete cycle over Server-Sent Events
// so the frontend can show its typing indicator while the resolver is out.
type Handler struct {
	sessions *sessionService.Service
}

// New creates the stream handler.
func New(sessions *sessionService.Service) *Handler {
	return &Handler{sessions: sessions}
}

// StreamResponse is one SSE frame.
type StreamResponse struct {
	Event     string        `json:"event"`
	SessionID string        `json:"sessionId,omitempty"`
	Message   *chat.Message `json:"message,omitempty"`
	Finished  bool          `json:"finished,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// HandleStreamRequest submits the user message and emits start, message
// (user then assistant) and end events around the resolution.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	if _, err := h.sessions.GetSession(ctx, sessionID); err != nil {
		h.sendError(w, flusher, fmt.Sprintf("session lookup failed: %v", err))
		return err
	}

	h.send(w, flusher, StreamResponse{Event: "start", SessionID: sessionID})

	messages, err := h.sessions.Submit(ctx, sessionID, userMessage)
	if err != nil {
		if errors.Is(err, sessionService.ErrSessionBusy) {
			h.sendError(w, flusher, "a previous message is still being resolved")
		} else {
			h.sendError(w, flusher, fmt.Sprintf("submit failed: %v", err))
		}
		return err
	}

	for i := range messages {
		h.send(w, flusher, StreamResponse{
			Event:     "message",
			SessionID: sessionID,
			Message:   &messages[i],
		})
	}

	h.send(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})

	log.Printf("[stream] completed response for session=%s", sessionID)
	return nil
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

func (h *Handler) sendError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.send(w, flusher, StreamResponse{Event: "error", Error: errorMsg})
}
