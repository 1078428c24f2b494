package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ChatService answers a message using retrieved context.
type ChatService interface {
	// Respond returns the reply and history extended by the user turn and
	// the reply. On error the returned history equals the input history.
	Respond(ctx context.Context, history []domain.ConversationTurn, message string) (string, []domain.ConversationTurn, error)
}
