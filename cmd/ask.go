/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/longkey1/shopchat/internal/shopchat/config"
	"github.com/longkey1/shopchat/internal/shopchat/widget"
	"github.com/spf13/cobra"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the store a single question",
	Long: `Send one question to the chat endpoint and print the answer with any
matching product cards.

For a running conversation, use 'shopchat chat' instead.

If no question is provided as an argument, it reads from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// Get question from arguments or stdin
		var question string
		if len(args) > 0 {
			question = strings.Join(args, " ")
		} else {
			input, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading from stdin: %w", err)
			}
			question = string(input)
		}

		ctrl, err := newController(cfg)
		if err != nil {
			return err
		}

		term := newTerminal(cfg)
		err = submitAndRender(cmd.Context(), ctrl, term, question)
		if errors.Is(err, widget.ErrEmptyQuestion) {
			return fmt.Errorf("no question given")
		}
		if err != nil {
			return fmt.Errorf("chat request failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
