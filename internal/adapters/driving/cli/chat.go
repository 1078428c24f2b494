package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/services"
)

var chatFiles []string

var (
	promptColor    = color.New(color.FgGreen, color.Bold)
	assistantColor = color.New(color.FgCyan, color.Bold)
	errorColor     = color.New(color.FgRed)
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a model grounded in your documents",
	Long: `Starts a conversation on standard input. Each message retrieves the
passages closest to it and sends them, with the conversation so far, to
the configured language model.

Commands:
  /history  print the conversation
  /reset    start a new conversation
  /exit     quit (Ctrl+D also works)`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringSliceVarP(&chatFiles, "file", "f", nil, "files or directories to ingest first")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := initPipeline(ctx); err != nil {
		return err
	}
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	if err := ingestFiles(cmd, chatFiles); err != nil {
		return err
	}

	session := services.NewChatSession(chatService)
	in := cmd.InOrStdin()
	interactive := isTerminal(in)
	if interactive {
		cmd.Println("Type a question, or /exit to quit.")
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if interactive {
			cmd.Print(promptColor.Sprint("You: "))
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			session.Reset()
			cmd.Println("Conversation cleared.")
			continue
		case "/history":
			if transcript := session.Transcript(); transcript != "" {
				cmd.Println(transcript)
			}
			continue
		}

		reply, err := session.Send(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			cmd.PrintErrln(errorColor.Sprintf("Error: %v", err))
			continue
		}
		cmd.Printf("%s %s\n", assistantColor.Sprint("Assistant:"), reply)
	}

	return scanner.Err()
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
