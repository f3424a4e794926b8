package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/talan-labs/avatar/backend/internal/model/chat"
	"github.com/talan-labs/avatar/backend/internal/resolver"
	"github.com/talan-labs/avatar/backend/internal/service/session"
)

// stubResolver returns a fixed reply and counts invocations.
type stubResolver struct {
	reply resolver.Reply
	calls int
}

func (s *stubResolver) Resolve(_ context.Context, _ string) resolver.Reply {
	s.calls++
	return s.reply
}

// gatedResolver blocks until released, to hold a session in the busy state.
type gatedResolver struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedResolver) Resolve(_ context.Context, _ string) resolver.Reply {
	close(g.entered)
	<-g.release
	return resolver.Reply{Text: "done"}
}

func TestCreateSessionSeedsWelcomeMessage(t *testing.T) {
	svc := session.NewService(&stubResolver{})
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	transcript, err := svc.Transcript(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(transcript) != 1 {
		t.Fatalf("expected exactly one seeded message, got %d", len(transcript))
	}
	if transcript[0].Sender != chat.SenderAssistant {
		t.Fatalf("expected assistant welcome, got sender %q", transcript[0].Sender)
	}
	if transcript[0].Kind != "" {
		t.Fatalf("expected plain welcome message, got kind %q", transcript[0].Kind)
	}

	busy, err := svc.Busy(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Busy err: %v", err)
	}
	if busy {
		t.Fatal("expected a fresh session to be idle")
	}
}

func TestSubmitAppendsUserThenAssistantInOrder(t *testing.T) {
	stub := &stubResolver{reply: resolver.Reply{Text: "Noted!", Kind: chat.KindConfirmation}}
	svc := session.NewService(stub)
	ctx := context.Background()

	sess, _ := svc.CreateSession(ctx)

	messages, err := svc.Submit(ctx, sess.ID, "I want tomorrow off")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected user+assistant pair, got %d messages", len(messages))
	}
	if stub.calls != 1 {
		t.Fatalf("expected resolver invoked exactly once, got %d", stub.calls)
	}

	transcript, _ := svc.Transcript(ctx, sess.ID)
	if len(transcript) != 3 {
		t.Fatalf("expected 3 messages in log, got %d", len(transcript))
	}

	user := transcript[1]
	assistant := transcript[2]
	if user.Sender != chat.SenderUser || user.Text != "I want tomorrow off" {
		t.Fatalf("unexpected user entry: %+v", user)
	}
	if user.Kind != "" {
		t.Fatalf("user messages must not carry a kind, got %q", user.Kind)
	}
	if assistant.Sender != chat.SenderAssistant || assistant.Text != "Noted!" {
		t.Fatalf("unexpected assistant entry: %+v", assistant)
	}
	if assistant.Kind != chat.KindConfirmation {
		t.Fatalf("expected confirmation kind, got %q", assistant.Kind)
	}

	busy, _ := svc.Busy(ctx, sess.ID)
	if busy {
		t.Fatal("expected session idle after completion")
	}
}

func TestSubmitEmptyOrWhitespaceIsRejectedWithoutSideEffects(t *testing.T) {
	stub := &stubResolver{reply: resolver.Reply{Text: "reply"}}
	svc := session.NewService(stub)
	ctx := context.Background()

	sess, _ := svc.CreateSession(ctx)

	for _, text := range []string{"", "   ", "\n\t "} {
		if _, err := svc.Submit(ctx, sess.ID, text); err != session.ErrEmptyUtterance {
			t.Fatalf("expected ErrEmptyUtterance for %q, got %v", text, err)
		}
	}

	if stub.calls != 0 {
		t.Fatalf("resolver must not run for rejected input, got %d calls", stub.calls)
	}
	transcript, _ := svc.Transcript(ctx, sess.ID)
	if len(transcript) != 1 {
		t.Fatalf("log must be unchanged, got %d messages", len(transcript))
	}
	busy, _ := svc.Busy(ctx, sess.ID)
	if busy {
		t.Fatal("busy flag must be unchanged")
	}
}

func TestSubmitWhileBusyIsRejected(t *testing.T) {
	gate := &gatedResolver{entered: make(chan struct{}), release: make(chan struct{})}
	svc := session.NewService(gate)
	ctx := context.Background()

	sess, _ := svc.CreateSession(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := svc.Submit(ctx, sess.ID, "first message"); err != nil {
			t.Errorf("first Submit err: %v", err)
		}
	}()

	<-gate.entered

	busy, _ := svc.Busy(ctx, sess.ID)
	if !busy {
		t.Fatal("expected session busy while resolution is outstanding")
	}

	before, _ := svc.Transcript(ctx, sess.ID)
	if _, err := svc.Submit(ctx, sess.ID, "second message"); err != session.ErrSessionBusy {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	after, _ := svc.Transcript(ctx, sess.ID)
	if len(after) != len(before) {
		t.Fatalf("busy rejection must not touch the log: %d -> %d", len(before), len(after))
	}

	close(gate.release)
	<-done

	transcript, _ := svc.Transcript(ctx, sess.ID)
	if len(transcript) != 3 {
		t.Fatalf("expected welcome + one pair, got %d", len(transcript))
	}
	if transcript[1].Text != "first message" {
		t.Fatalf("expected the accepted submission in the log, got %q", transcript[1].Text)
	}
}

func TestSubmitEndToEndStateTransitions(t *testing.T) {
	gate := &gatedResolver{entered: make(chan struct{}), release: make(chan struct{})}
	svc := session.NewService(gate)
	ctx := context.Background()

	sess, _ := svc.CreateSession(ctx)

	go svc.Submit(ctx, sess.ID, "I want tomorrow off")
	<-gate.entered

	// Busy with the user message already appended.
	busy, _ := svc.Busy(ctx, sess.ID)
	if !busy {
		t.Fatal("expected busy=true during resolution")
	}
	transcript, _ := svc.Transcript(ctx, sess.ID)
	if len(transcript) != 2 {
		t.Fatalf("expected log length 2 during resolution, got %d", len(transcript))
	}

	close(gate.release)

	deadline := time.After(2 * time.Second)
	for {
		busy, _ = svc.Busy(ctx, sess.ID)
		transcript, _ = svc.Transcript(ctx, sess.ID)
		if !busy && len(transcript) == 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("resolution never completed: busy=%v len=%d", busy, len(transcript))
		case <-time.After(5 * time.Millisecond):
		}
	}

	if transcript[2].Sender != chat.SenderAssistant {
		t.Fatalf("expected 3rd message from assistant, got %q", transcript[2].Sender)
	}
}

func TestSubmitDirectSkipsResolver(t *testing.T) {
	stub := &stubResolver{reply: resolver.Reply{Text: "should not appear"}}
	svc := session.NewService(stub)
	ctx := context.Background()

	sess, _ := svc.CreateSession(ctx)

	canned := resolver.Reply{Text: "Here is a suggestion.", Kind: chat.KindSuggestion}
	messages, err := svc.SubmitDirect(ctx, sess.ID, "suggest days", canned)
	if err != nil {
		t.Fatalf("SubmitDirect err: %v", err)
	}

	if stub.calls != 0 {
		t.Fatalf("resolver must not run on the direct path, got %d calls", stub.calls)
	}
	if messages[1].Text != canned.Text || messages[1].Kind != chat.KindSuggestion {
		t.Fatalf("unexpected canned reply: %+v", messages[1])
	}
}

func TestSubmitUnknownSession(t *testing.T) {
	svc := session.NewService(&stubResolver{})

	if _, err := svc.Submit(context.Background(), "missing", "hello"); err != session.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSubscribeReceivesMessageAndBusyEvents(t *testing.T) {
	stub := &stubResolver{reply: resolver.Reply{Text: "reply"}}
	svc := session.NewService(stub)
	ctx := context.Background()

	sess, _ := svc.CreateSession(ctx)

	events, cancel, err := svc.Subscribe(sess.ID)
	if err != nil {
		t.Fatalf("Subscribe err: %v", err)
	}
	defer cancel()

	if _, err := svc.Submit(ctx, sess.ID, "hello there"); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	var messageEvents, busyEvents int
	timeout := time.After(time.Second)
	for messageEvents < 2 || busyEvents < 2 {
		select {
		case event := <-events:
			switch event.Type {
			case "message":
				messageEvents++
			case "busy":
				busyEvents++
			}
		case <-timeout:
			t.Fatalf("missing events: message=%d busy=%d", messageEvents, busyEvents)
		}
	}
}
