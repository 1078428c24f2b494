package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure ContextAssembler implements the interface.
var _ driving.ChatService = (*ContextAssembler)(nil)

// AssemblerOptions configures a ContextAssembler.
type AssemblerOptions struct {
	// TopK is the number of passages injected per turn.
	TopK int

	// Timeout bounds each generation call.
	Timeout time.Duration

	// Retry is applied to the generation call.
	Retry RetryPolicy

	// Chat is passed through to the model.
	Chat driven.ChatOptions
}

// ContextAssembler answers a message using passages retrieved for it.
type ContextAssembler struct {
	retriever driving.RetrievalService
	llm       driven.LLMService
	topK      int
	timeout   time.Duration
	retry     RetryPolicy
	chatOpts  driven.ChatOptions
}

// NewContextAssembler binds an assembler to a retriever and a model.
func NewContextAssembler(retriever driving.RetrievalService, llm driven.LLMService, opts AssemblerOptions) *ContextAssembler {
	topK := opts.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &ContextAssembler{
		retriever: retriever,
		llm:       llm,
		topK:      topK,
		timeout:   opts.Timeout,
		retry:     opts.Retry,
		chatOpts:  opts.Chat,
	}
}

// Respond retrieves context for message, asks the model, and returns the
// reply with a new history extended by the user turn and the reply.
// On any failure the input history is returned as is.
func (a *ContextAssembler) Respond(
	ctx context.Context,
	history []domain.ConversationTurn,
	message string,
) (string, []domain.ConversationTurn, error) {
	if a.llm == nil {
		return "", history, fmt.Errorf("%w: no language model configured", domain.ErrProviderNotConfigured)
	}

	passages, err := a.retriever.Retrieve(ctx, message, a.topK)
	if err != nil {
		return "", history, fmt.Errorf("retrieve context: %w", err)
	}

	messages := buildMessages(history, strings.Join(passages, "\n"), message)

	var reply string
	err = a.retry.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := withTimeout(ctx, a.timeout)
		defer cancel()

		out, err := a.llm.Chat(callCtx, messages, a.chatOpts)
		if err != nil {
			return providerError(callCtx, domain.ErrGenerationUnavailable, err)
		}
		reply = out
		return nil
	})
	if err != nil {
		return "", history, fmt.Errorf("generate reply: %w", err)
	}

	logger.Debug("generated reply with %s using %d passages", a.llm.ModelName(), len(passages))

	updated := make([]domain.ConversationTurn, len(history), len(history)+2)
	copy(updated, history)
	updated = append(updated,
		domain.ConversationTurn{Role: domain.RoleUser, Content: message},
		domain.ConversationTurn{Role: domain.RoleAssistant, Content: reply},
	)
	return reply, updated, nil
}

// buildMessages lays out history, then the retrieved context as a system
// turn, then the user's message.
func buildMessages(history []domain.ConversationTurn, context, message string) []driven.ChatMessage {
	messages := make([]driven.ChatMessage, 0, len(history)+2)
	for _, turn := range history {
		messages = append(messages, driven.ChatMessage{Role: turn.Role.String(), Content: turn.Content})
	}
	return append(messages,
		driven.ChatMessage{Role: domain.RoleSystem.String(), Content: context},
		driven.ChatMessage{Role: domain.RoleUser.String(), Content: message},
	)
}
