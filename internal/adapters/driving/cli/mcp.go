package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the pipeline to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve retrieve, ingest and ask as MCP tools",
	Long: `Serve the pipeline over the Model Context Protocol.

Tools:
  retrieve  passages closest to a query, best first
  ingest    split, embed and index a document's text
  ask       answer a question grounded in retrieved passages

Without --port the server speaks JSON-RPC on stdin/stdout, which is what
desktop assistants expect when they launch it as a subprocess:

  {"mcpServers": {"rag": {"command": "sercha-rag", "args": ["mcp", "serve"]}}}

With --port it serves the streamable HTTP transport on that port instead:

  sercha-rag mcp serve --port 8080

The index lives for as long as the server does unless vector.backend is
sqlite or pgvector.`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

var mcpPort int

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

// runMCPServer serves until the command context ends. Replaced in tests.
var runMCPServer = func(cmd *cobra.Command, server *mcp.Server, port int) error {
	if port <= 0 {
		return server.Run(cmd.Context())
	}
	addr := net.JoinHostPort("", strconv.Itoa(port))
	cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if err := initPipeline(cmd.Context()); err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval: retrievalService,
		Ingest:    ingestService,
		Chat:      chatService,
	})
	if err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return runMCPServer(cmd, server, mcpPort)
}
