package resolver

import (
	"context"
	"strings"

	"github.com/talan-labs/avatar/backend/internal/model/chat"
)

// TriggerRule maps a keyword set to a canned reply. A rule matches when any
// keyword is a substring of the lowercased utterance.
type TriggerRule struct {
	Keywords []string
	Template string
	Kind     chat.Kind
}

// TriggerResolver is the deterministic fallback strategy used when no HR
// backend or model is configured. Rules are evaluated in declaration order
// and the first match wins; overlapping keyword sets are resolved purely by
// that order, not by specificity.
type TriggerResolver struct {
	rules []TriggerRule
}

// NewTriggerResolver returns a resolver over a fixed, ordered rule set.
func NewTriggerResolver(rules []TriggerRule) *TriggerResolver {
	return &TriggerResolver{rules: append([]TriggerRule(nil), rules...)}
}

// Resolve lowercases the utterance and returns the first matching rule's
// template, or a generic clarifying reply when nothing matches.
func (r *TriggerResolver) Resolve(_ context.Context, utterance string) Reply {
	normalized := strings.ToLower(utterance)

	for _, rule := range r.rules {
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(normalized, keyword) {
				return Reply{Text: rule.Template, Kind: rule.Kind}
			}
		}
	}

	return Reply{Text: clarifyingReply}
}

const clarifyingReply = "I'm not sure I understood that. I can help you request time off, check your leave balance, or review team availability — could you rephrase?"

// DefaultRules is the stock rule set for the leave assistant. Order matters:
// sick leave outranks vacation so an utterance mentioning both resolves to
// the sick-leave flow.
func DefaultRules() []TriggerRule {
	return []TriggerRule{
		{
			Keywords: []string{"sick", "emergency", "urgent", "unwell", "doctor"},
			Template: "I'm sorry to hear you're not feeling well. I've logged an **emergency sick leave** request for today and notified your manager. Rest up — we'll take care of the paperwork.",
			Kind:     chat.KindConfirmation,
		},
		{
			Keywords: []string{"vacation", "holiday", "annual leave", "day off", "time off", "days off"},
			Template: "Got it — I've recorded your **leave request** and sent it to your manager for approval. You'll be notified as soon as it's signed off.",
			Kind:     chat.KindConfirmation,
		},
		{
			Keywords: []string{"balance", "remaining", "how many days", "days left"},
			Template: "You currently have **12 days** of annual leave remaining out of 25, plus **3 RTT days**.",
			Kind:     chat.KindSuccess,
		},
		{
			Keywords: []string{"cancel", "withdraw"},
			Template: "Done — your pending leave request has been **cancelled**.",
			Kind:     chat.KindSuccess,
		},
		{
			Keywords: []string{"suggest", "best days", "recommend"},
			Template: "Looking at the team calendar, the **week of 22 September** and the **first week of October** are wide open on your team. Want me to pencil one in?",
			Kind:     chat.KindSuggestion,
		},
		{
			Keywords: []string{"hello", "hi ", "hey", "bonjour", "good morning"},
			Template: "Hello! Tell me about the time off you'd like to take and I'll handle the rest.",
		},
	}
}
