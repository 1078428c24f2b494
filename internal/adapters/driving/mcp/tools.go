package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the question or text to find relevant passages for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []string `json:"passages"`
	Count    int      `json:"count"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Source string `json:"source" jsonschema:"where the text came from, such as a file path or URL"`
	Text   string `json:"text" jsonschema:"the document text to index"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

// TurnInput is one turn of a conversation history.
type TurnInput struct {
	Role    string `json:"role" jsonschema:"user, assistant or system"`
	Content string `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Message string      `json:"message" jsonschema:"the question to answer"`
	History []TurnInput `json:"history,omitempty" jsonschema:"earlier turns of the conversation, oldest first"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Reply   string      `json:"reply"`
	History []TurnInput `json:"history"`
}

// registerTools registers the tool handlers for the configured ports.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the indexed passages most relevant to a query",
	}, s.handleRetrieve)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Chunk, embed and index a document's text",
		}, s.handleIngest)
	}

	if s.ports.Chat != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using passages retrieved from the index",
		}, s.handleAsk)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	passages, err := s.ports.Retrieval.Retrieve(ctx, input.Query, topK)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}
	if passages == nil {
		passages = []string{}
	}

	return nil, RetrieveOutput{Passages: passages, Count: len(passages)}, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if input.Source == "" {
		return nil, IngestOutput{}, fmt.Errorf("%w: source is required", domain.ErrInvalidArgument)
	}

	report, err := s.ports.Ingest.Ingest(ctx, []domain.Document{{
		Source: input.Source,
		Text:   input.Text,
		Format: domain.FormatPlainText,
	}})
	if err != nil {
		return nil, IngestOutput{}, err
	}
	if len(report.Ingested) == 0 {
		return nil, IngestOutput{}, fmt.Errorf("%s was not ingested", input.Source)
	}

	doc := report.Ingested[0]
	return nil, IngestOutput{DocumentID: doc.DocumentID, Chunks: doc.Chunks}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	history := make([]domain.ConversationTurn, len(input.History))
	for i, turn := range input.History {
		role := domain.Role(turn.Role)
		if !role.IsValid() {
			return nil, AskOutput{}, fmt.Errorf("%w: history[%d] has unknown role %q",
				domain.ErrInvalidArgument, i, turn.Role)
		}
		history[i] = domain.ConversationTurn{Role: role, Content: turn.Content}
	}

	reply, updated, err := s.ports.Chat.Respond(ctx, history, input.Message)
	if err != nil {
		return nil, AskOutput{}, err
	}

	out := AskOutput{Reply: reply, History: make([]TurnInput, len(updated))}
	for i, turn := range updated {
		out.History[i] = TurnInput{Role: turn.Role.String(), Content: turn.Content}
	}
	return nil, out, nil
}
