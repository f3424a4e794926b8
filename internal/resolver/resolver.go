package resolver

import (
	"context"

	"github.com/talan-labs/avatar/backend/internal/model/chat"
)

// Reply is the payload an assistant message is built from. Kind is empty
// for plain replies.
type Reply struct {
	Text string
	Kind chat.Kind
}

// Resolver maps one user utterance to exactly one assistant reply. It is
// total: implementations absorb every failure and return a usable payload,
// never an error. The caller guarantees the utterance is trimmed and
// non-empty.
type Resolver interface {
	Resolve(ctx context.Context, utterance string) Reply
}

// Fallback is the fixed apology used whenever the HR backend cannot be
// reached or answers with something unusable. It is the only local recovery
// in the conversation path; there is no automatic retry.
func Fallback() Reply {
	return Reply{
		Text: "I apologize, but I couldn't reach the HR system just now. Please try again in a moment, or contact HR support if the problem persists.",
		Kind: chat.KindError,
	}
}
