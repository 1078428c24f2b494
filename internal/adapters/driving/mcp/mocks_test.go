package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	passages []string
	err      error
	query    string
	topK     int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string, topK int) ([]string, error) {
	m.query = query
	m.topK = topK
	return m.passages, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	report *domain.IngestReport
	err    error
	docs   []domain.Document
}

func (m *mockIngestService) Ingest(_ context.Context, docs []domain.Document) (*domain.IngestReport, error) {
	m.docs = append(m.docs, docs...)
	if m.report == nil {
		return &domain.IngestReport{}, m.err
	}
	return m.report, m.err
}

func (m *mockIngestService) IngestRaw(_ context.Context, _ []domain.RawDocument) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	reply   string
	err     error
	history []domain.ConversationTurn
}

func (m *mockChatService) Respond(
	_ context.Context,
	history []domain.ConversationTurn,
	message string,
) (string, []domain.ConversationTurn, error) {
	m.history = history
	if m.err != nil {
		return "", history, m.err
	}
	updated := append(append([]domain.ConversationTurn(nil), history...),
		domain.ConversationTurn{Role: domain.RoleUser, Content: message},
		domain.ConversationTurn{Role: domain.RoleAssistant, Content: m.reply},
	)
	return m.reply, updated, nil
}
