package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talan-labs/avatar/backend/internal/model/chat"
	"github.com/talan-labs/avatar/backend/internal/resolver"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session is busy resolving a previous message")
	ErrEmptyUtterance  = errors.New("utterance is empty")
)

const welcomeText = "Hello! I'm your HR assistant. I can help you request time off, check your leave balance, and review team availability. How can I help you today?"

// Event is pushed to subscribers whenever a session's log or busy flag
// changes, so auxiliary panels can update live.
type Event struct {
	Type    string        `json:"type"` // message, busy
	Message *chat.Message `json:"message,omitempty"`
	Busy    bool          `json:"busy"`
}

// state is the per-session record. The message log is append-only and ordered
// by creation; busy is true exactly while one resolution is outstanding.
type state struct {
	session  chat.Session
	messages []chat.Message
	busy     bool
	subs     map[int]chan Event
	nextSub  int
}

// Service owns every session's message log and busy flag and sequences the
// submit -> resolve -> complete cycle. At most one resolution is outstanding
// per session, so the log always alternates user/assistant in call order.
type Service struct {
	mu       sync.RWMutex
	resolver resolver.Resolver
	sessions map[string]*state
}

// NewService bootstraps the in-memory session service around one resolver
// strategy.
func NewService(r resolver.Resolver) *Service {
	return &Service{
		resolver: r,
		sessions: make(map[string]*state),
	}
}

// CreateSession provisions a session seeded with the assistant welcome
// message, idle.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	welcome := chat.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Sender:    chat.SenderAssistant,
		Text:      welcomeText,
		CreatedAt: session.CreatedAt,
	}

	s.mu.Lock()
	s.sessions[session.ID] = &state{
		session:  session,
		messages: []chat.Message{welcome},
		subs:     make(map[int]chan Event),
	}
	s.mu.Unlock()

	return session, nil
}

// Submit appends the user utterance, resolves it, and appends the assistant
// reply, returning both messages in order. Empty or whitespace-only text is
// rejected with ErrEmptyUtterance and a submission while a prior resolution
// is outstanding with ErrSessionBusy; in both cases the log and busy flag
// are untouched.
func (s *Service) Submit(ctx context.Context, sessionID, text string) ([]chat.Message, error) {
	userMsg, err := s.begin(sessionID, text)
	if err != nil {
		return nil, err
	}

	reply := s.resolver.Resolve(ctx, strings.TrimSpace(text))

	assistantMsg := s.complete(sessionID, reply)
	return []chat.Message{userMsg, assistantMsg}, nil
}

// SubmitDirect follows the same state discipline as Submit but skips the
// resolver, completing with a locally-authored payload. Used by the panel
// bridge for canned suggestions.
func (s *Service) SubmitDirect(_ context.Context, sessionID, text string, reply resolver.Reply) ([]chat.Message, error) {
	userMsg, err := s.begin(sessionID, text)
	if err != nil {
		return nil, err
	}

	assistantMsg := s.complete(sessionID, reply)
	return []chat.Message{userMsg, assistantMsg}, nil
}

// begin validates the submission, appends the user message and enters the
// busy state, all under one critical section.
func (s *Service) begin(sessionID, text string) (chat.Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return chat.Message{}, ErrEmptyUtterance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return chat.Message{}, ErrSessionNotFound
	}
	if st.busy {
		return chat.Message{}, ErrSessionBusy
	}

	msg := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    chat.SenderUser,
		Text:      trimmed,
		CreatedAt: time.Now().UTC(),
	}
	st.messages = append(st.messages, msg)
	st.busy = true

	st.notify(Event{Type: "message", Message: &msg, Busy: true})
	st.notify(Event{Type: "busy", Busy: true})

	return msg, nil
}

// complete appends the assistant reply and returns to idle. It is
// unconditional: the resolver contract guarantees a usable payload even on
// failure, so this transition always fires for the utterance begun above.
func (s *Service) complete(sessionID string, reply resolver.Reply) chat.Message {
	msg := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    chat.SenderAssistant,
		Text:      reply.Text,
		Kind:      reply.Kind,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return msg
	}

	st.messages = append(st.messages, msg)
	st.busy = false

	st.notify(Event{Type: "message", Message: &msg, Busy: false})
	st.notify(Event{Type: "busy", Busy: false})

	return msg
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return st.session, nil
}

// Transcript returns a copy of the session's ordered message log.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(st.messages))
	copy(copied, st.messages)
	return copied, nil
}

// Busy reports whether a resolution is outstanding for the session.
func (s *Service) Busy(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return false, ErrSessionNotFound
	}
	return st.busy, nil
}

// Subscribe registers a live event feed for the session. The returned cancel
// function must be called to release the subscription.
func (s *Service) Subscribe(sessionID string) (<-chan Event, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	id := st.nextSub
	st.nextSub++
	ch := make(chan Event, 16)
	st.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := st.subs[id]; ok {
			delete(st.subs, id)
			close(sub)
		}
	}

	return ch, cancel, nil
}

// notify fans an event out to subscribers without blocking; a slow consumer
// misses events rather than stalling the conversation.
func (st *state) notify(event Event) {
	for _, ch := range st.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
