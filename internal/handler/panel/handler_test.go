package panel

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
	"github.com/talan-labs/avatar/backend/internal/service/bridge"
	leaveService "github.com/talan-labs/avatar/backend/internal/service/leave"
	sessionService "github.com/talan-labs/avatar/backend/internal/service/session"
)

func setupRouter() (*chi.Mux, *sessionService.Service) {
	sessions := sessionService.NewService(resolver.NewTriggerResolver(resolver.DefaultRules()))
	leaveSvc := leaveService.NewService(nil)
	handler := New(leaveSvc, bridge.New(sessions))

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, sessions
}

func TestBalanceEndpoint(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/panel/balance/42", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Remaining    float64 `json:"remaining"`
		RTTRemaining float64 `json:"rttRemaining"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Remaining != 12 {
		t.Fatalf("expected 12 days remaining, got %f", body.Remaining)
	}
}

func TestTeamEndpoint(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/panel/team", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestDateSelectedFeedsConversation(t *testing.T) {
	r, sessions := setupRouter()
	sess, _ := sessions.CreateSession(context.Background())

	payload, _ := json.Marshal(map[string]string{"sessionId": sess.ID, "date": "2025-09-22"})
	req := httptest.NewRequest(http.MethodPost, "/panel/date", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	transcript, _ := sessions.Transcript(context.Background(), sess.ID)
	if len(transcript) != 3 {
		t.Fatalf("expected welcome + synthetic pair, got %d", len(transcript))
	}
	if transcript[1].Sender != chatModel.SenderUser {
		t.Fatalf("expected synthetic user message, got %q", transcript[1].Sender)
	}
}

func TestDateSelectedInvalidDate(t *testing.T) {
	r, sessions := setupRouter()
	sess, _ := sessions.CreateSession(context.Background())

	payload, _ := json.Marshal(map[string]string{"sessionId": sess.ID, "date": "22/09/2025"})
	req := httptest.NewRequest(http.MethodPost, "/panel/date", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSuggestEndpointAppendsSuggestion(t *testing.T) {
	r, sessions := setupRouter()
	sess, _ := sessions.CreateSession(context.Background())

	payload, _ := json.Marshal(map[string]string{"sessionId": sess.ID})
	req := httptest.NewRequest(http.MethodPost, "/panel/suggest", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	transcript, _ := sessions.Transcript(context.Background(), sess.ID)
	last := transcript[len(transcript)-1]
	if last.Kind != chatModel.KindSuggestion {
		t.Fatalf("expected suggestion kind, got %q", last.Kind)
	}
}

func TestFillAbsenceEndpoint(t *testing.T) {
	r, _ := setupRouter()

	payload, _ := json.Marshal(map[string]any{"userId": 7, "date": "2025-10-06", "reason": "VAC"})
	req := httptest.NewRequest(http.MethodPost, "/panel/absences", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
}
