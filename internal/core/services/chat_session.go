package services

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// ChatSession keeps the running history of one interactive conversation.
type ChatSession struct {
	mu      sync.Mutex
	chat    driving.ChatService
	history []domain.ConversationTurn
}

// NewChatSession starts an empty conversation.
func NewChatSession(chat driving.ChatService) *ChatSession {
	return &ChatSession{chat: chat}
}

// Send answers message. History only advances when the reply succeeds.
func (s *ChatSession) Send(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply, updated, err := s.chat.Respond(ctx, s.history, message)
	if err != nil {
		return "", err
	}
	s.history = updated
	return reply, nil
}

// History returns a copy of the conversation so far.
func (s *ChatSession) History() []domain.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// Transcript renders the conversation as "You:"/"Assistant:" lines.
func (s *ChatSession) Transcript() string {
	return domain.FormatTranscript(s.History())
}

// Reset clears the conversation.
func (s *ChatSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}
