package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/talan-labs/avatar/backend/internal/model/chat"
)

// RemoteResolver delegates intent resolution to the HR backend's chat
// endpoint. Every transport or protocol failure is converted into the fixed
// apology reply; a domain error reported by the server itself passes through
// verbatim with its error kind.
type RemoteResolver struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewRemoteResolver builds a resolver against the given backend base URL.
// The timeout bounds the whole round trip; a timeout counts as a transport
// failure.
func NewRemoteResolver(baseURL, apiKey string, timeout time.Duration) *RemoteResolver {
	return &RemoteResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
}

type chatResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// Resolve sends the utterance to the backend and maps its reply onto a
// payload. It never returns an error to the caller.
func (r *RemoteResolver) Resolve(ctx context.Context, utterance string) Reply {
	reply, err := r.call(ctx, utterance)
	if err != nil {
		log.Printf("[resolver] remote call failed: %v", err)
		return Fallback()
	}
	return reply
}

func (r *RemoteResolver) call(ctx context.Context, utterance string) (Reply, error) {
	payload, err := json.Marshal(chatRequest{
		Text:      utterance,
		Sender:    string(chat.SenderUser),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return Reply{}, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Reply{}, fmt.Errorf("chat endpoint returned status %d", resp.StatusCode)
	}

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Reply{}, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if strings.TrimSpace(body.Text) == "" {
		return Reply{}, fmt.Errorf("chat response carried no text")
	}

	return Reply{Text: body.Text, Kind: chat.ParseKind(body.Type)}, nil
}
