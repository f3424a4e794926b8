package chat

import "time"

// Sender identifies which side of the conversation authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Kind is the semantic tag on an assistant message that drives its visual
// treatment in the frontend. The zero value means a plain reply.
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindSuggestion   Kind = "suggestion"
	KindError        Kind = "error"
	KindSuccess      Kind = "success"
)

// ParseKind maps a wire-level type tag to a Kind. "response", empty and
// unknown tags all collapse to a plain reply.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindConfirmation, KindSuggestion, KindError, KindSuccess:
		return Kind(s)
	default:
		return ""
	}
}

// Message is one immutable turn in a conversation. User messages never carry a Kind.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Kind      Kind      `json:"kind,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
