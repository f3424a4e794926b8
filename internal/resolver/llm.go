package resolver

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const hrAssistantPrompt = `You are Talan's HR Assistant, an AI-powered agent that helps employees manage leave and absence requests in natural language.

Guidelines:
1. Be professional, empathetic, and concise
2. Verify inputs before confirming any action
3. Clearly explain any errors and suggest solutions
4. Escalate complex or sensitive issues to HR when appropriate

When users ask about leave or absences, you can acknowledge requests, summarise balances, and suggest suitable days off.`

// LLMResolver answers utterances with a chat model through an eino chain.
// It shares the remote strategy's failure semantics: any chain error becomes
// the fixed apology reply.
type LLMResolver struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewLLMResolver compiles the prompt/model chain once at startup.
func NewLLMResolver(ctx context.Context, chatModel model.ChatModel) (*LLMResolver, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &LLMResolver{chain: runnable}, nil
}

// Resolve runs the utterance through the chain. Model replies are plain;
// the model cannot emit semantic kinds, matching the original bridge where
// only failures were typed.
func (r *LLMResolver) Resolve(ctx context.Context, utterance string) Reply {
	response, err := r.chain.Invoke(ctx, map[string]any{
		"system": hrAssistantPrompt,
		"query":  utterance,
	})
	if err != nil {
		log.Printf("[resolver] llm chain failed: %v", err)
		return Fallback()
	}
	if strings.TrimSpace(response.Content) == "" {
		log.Printf("[resolver] llm chain returned empty content")
		return Fallback()
	}

	return Reply{Text: response.Content}
}
