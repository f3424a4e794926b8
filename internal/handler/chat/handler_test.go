package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	chatModel "github.com/talan-labs/avatar/backend/internal/model/chat"
	"github.com/talan-labs/avatar/backend/internal/resolver"
	sessionService "github.com/talan-labs/avatar/backend/internal/service/session"
)

type fixedResolver struct{ reply resolver.Reply }

func (f fixedResolver) Resolve(_ context.Context, _ string) resolver.Reply { return f.reply }

func setupRouter(reply resolver.Reply) (*chi.Mux, *sessionService.Service) {
	sessions := sessionService.NewService(fixedResolver{reply: reply})
	handler := New(sessions)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, sessions
}

func createSession(t *testing.T, r *chi.Mux) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/session", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var body struct {
		Session  chatModel.Session   `json:"session"`
		Messages []chatModel.Message `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode session response: %v", err)
	}
	if len(body.Messages) != 1 {
		t.Fatalf("expected seeded welcome message, got %d", len(body.Messages))
	}
	return body.Session.ID
}

func TestSubmitMessageReturnsPair(t *testing.T) {
	r, _ := setupRouter(resolver.Reply{Text: "Confirmed.", Kind: chatModel.KindConfirmation})
	sessionID := createSession(t, r)

	payload, _ := json.Marshal(map[string]string{"sessionId": sessionID, "text": "I want tomorrow off"})
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Messages []chatModel.Message `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("expected user+assistant pair, got %d", len(body.Messages))
	}
	if body.Messages[1].Kind != chatModel.KindConfirmation {
		t.Fatalf("expected confirmation kind, got %q", body.Messages[1].Kind)
	}
}

func TestSubmitMessageEmptyTextRejected(t *testing.T) {
	r, sessions := setupRouter(resolver.Reply{Text: "reply"})
	sessionID := createSession(t, r)

	payload, _ := json.Marshal(map[string]string{"sessionId": sessionID, "text": "   "})
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(payload))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	transcript, _ := sessions.Transcript(context.Background(), sessionID)
	if len(transcript) != 1 {
		t.Fatalf("rejected submit must not touch the log, got %d messages", len(transcript))
	}
}

func TestSubmitMessageUnknownSession(t *testing.T) {
	r, _ := setupRouter(resolver.Reply{Text: "reply"})

	payload, _ := json.Marshal(map[string]string{"sessionId": "missing", "text": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(payload))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestGetSessionReportsBusyFlag(t *testing.T) {
	r, _ := setupRouter(resolver.Reply{Text: "reply"})
	sessionID := createSession(t, r)

	req := httptest.NewRequest(http.MethodGet, "/session/"+sessionID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Busy bool `json:"busy"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Busy {
		t.Fatal("expected idle session")
	}
}

func TestTranscriptNotFound(t *testing.T) {
	r, _ := setupRouter(resolver.Reply{Text: "reply"})

	req := httptest.NewRequest(http.MethodGet, "/session/missing/transcript", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
