package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/talan-labs/avatar/backend/internal/model/chat"
	"github.com/talan-labs/avatar/backend/internal/resolver"
	"github.com/talan-labs/avatar/backend/internal/service/session"
)

// Bridge translates structured panel events (a picked calendar date, a
// quick-action template, the suggestion button) into the same submit
// vocabulary the chat input uses, so the session machine has a single
// ingestion path. It holds no state of its own.
type Bridge struct {
	sessions *session.Service
}

// New wires the bridge to the session service.
func New(sessions *session.Service) *Bridge {
	return &Bridge{sessions: sessions}
}

// DateSelected turns a calendar pick into a leave-request utterance and
// submits it through the regular resolver path.
func (b *Bridge) DateSelected(ctx context.Context, sessionID string, date time.Time) ([]chat.Message, error) {
	utterance := fmt.Sprintf("I'd like to take %s off. Could you check availability and log the request?",
		date.Format("Monday, 2 January 2006"))
	return b.sessions.Submit(ctx, sessionID, utterance)
}

// QuickAction submits a quick-action template verbatim, as if typed.
func (b *Bridge) QuickAction(ctx context.Context, sessionID, template string) ([]chat.Message, error) {
	return b.sessions.Submit(ctx, sessionID, template)
}

// SuggestBestDays handles the "AI suggestions" button: a synthetic submit
// completed directly with a locally-authored suggestion, no resolver round
// trip. It still respects the busy-state discipline.
func (b *Bridge) SuggestBestDays(ctx context.Context, sessionID string) ([]chat.Message, error) {
	return b.sessions.SubmitDirect(ctx, sessionID,
		"Can you suggest the best days for me to take off soon?",
		resolver.Reply{
			Text: "Based on your team's calendar, the **week of 22 September** looks quiet, and bridging the **public holiday on 11 November** would give you a four-day weekend for a single day of leave. Want me to log either one?",
			Kind: chat.KindSuggestion,
		})
}
