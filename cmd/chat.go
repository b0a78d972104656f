/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/longkey1/shopchat/internal/shopchat/config"
	"github.com/longkey1/shopchat/internal/shopchat/widget"
	"github.com/spf13/cobra"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive shopping conversation",
	Long: `Start an interactive conversation with the store's chat endpoint.

Each question is sent on its own; answers and product cards are printed as
they arrive. The transcript lives only as long as the session and is never
written to disk.

Type '/help' for commands, '/exit' or 'Ctrl+D' to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		ctrl, err := newController(cfg)
		if err != nil {
			return err
		}

		return runInteractiveMode(cmd.Context(), cfg, ctrl)
	},
}

// runInteractiveMode starts an interactive chat session
func runInteractiveMode(ctx context.Context, cfg *config.Config, ctrl *widget.Controller) error {
	fmt.Fprintf(os.Stderr, "\n=== %s ===\n", cfg.Title)
	fmt.Fprintf(os.Stderr, "Endpoint: %s\n", cfg.EndpointURL)
	fmt.Fprintf(os.Stderr, "Type '/help' for commands, '/exit' or 'Ctrl+D' to quit\n")
	fmt.Fprintf(os.Stderr, "===================================\n\n")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("initializing input: %w", err)
	}
	defer rl.Close()

	term := newTerminal(cfg)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if strings.TrimSpace(line) == "" {
				break
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(os.Stderr, "\nGoodbye!")
			break
		}
		if err != nil {
			return fmt.Errorf("input error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if handleSpecialCommand(os.Stderr, input, cfg, ctrl) {
				continue
			}
			break
		}

		if err := submitAndRender(ctx, ctrl, term, input); err != nil {
			logger.Debug().Err(err).Msg("question failed")
		}
		fmt.Println()
	}

	return nil
}

// handleSpecialCommand processes special commands in interactive mode
// Returns true to continue the loop, false to exit
func handleSpecialCommand(w io.Writer, command string, cfg *config.Config, ctrl *widget.Controller) bool {
	command = strings.ToLower(strings.TrimSpace(command))

	switch command {
	case "/help", "/h":
		fmt.Fprintln(w, "\nAvailable commands:")
		fmt.Fprintln(w, "  /help, /h      - Show this help message")
		fmt.Fprintln(w, "  /history, /hi  - List the questions asked so far")
		fmt.Fprintln(w, "  /info, /i      - Show session information")
		fmt.Fprintln(w, "  /clear, /c     - Clear screen (Unix/Linux only)")
		fmt.Fprintln(w, "  /exit, /quit   - Exit interactive mode")
		fmt.Fprintln(w, "  Ctrl+D         - Exit interactive mode")
		fmt.Fprintln(w, "")
		return true

	case "/history", "/hi":
		exchanges := ctrl.Exchanges()
		if len(exchanges) == 0 {
			fmt.Fprintln(w, "\nNo questions answered yet.")
			fmt.Fprintln(w, "")
			return true
		}
		fmt.Fprintln(w, "")
		for i, ex := range exchanges {
			fmt.Fprintf(w, "  %d. %s (%d products)\n", i+1, ex.Question, len(ex.Response.Products))
		}
		fmt.Fprintln(w, "")
		return true

	case "/info", "/i":
		fmt.Fprintln(w, "\nSession Information:")
		fmt.Fprintf(w, "  Endpoint: %s\n", cfg.EndpointURL)
		fmt.Fprintf(w, "  Site: %s\n", cfg.SiteURL)
		fmt.Fprintf(w, "  Messages: %d\n", ctrl.Len())
		fmt.Fprintf(w, "  Answered: %d\n", len(ctrl.Exchanges()))
		if cfg.RequestTimeout > 0 {
			fmt.Fprintf(w, "  Request timeout: %s\n", cfg.RequestTimeout)
		}
		fmt.Fprintln(w, "")
		return true

	case "/clear", "/c":
		// Clear screen (Unix/Linux)
		fmt.Print("\033[H\033[2J")
		return true

	case "/exit", "/quit", "/q":
		fmt.Fprintln(w, "Goodbye!")
		return false

	default:
		fmt.Fprintf(w, "Unknown command: %s (type '/help' for available commands)\n", command)
		return true
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
