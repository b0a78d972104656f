package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/longkey1/shopchat/internal/shopchat/chatapi"
	"github.com/longkey1/shopchat/internal/shopchat/config"
	"github.com/longkey1/shopchat/internal/shopchat/render"
	"github.com/longkey1/shopchat/internal/shopchat/widget"
	"github.com/mattn/go-isatty"
)

// newClient creates the endpoint client from the configuration
func newClient(cfg *config.Config) (*chatapi.Client, error) {
	return chatapi.New(cfg.EndpointURL,
		chatapi.WithTimeout(cfg.RequestTimeout),
		chatapi.WithLogger(logger.With().Str("component", "chatapi").Logger()),
	)
}

// newController wires a fresh transcript to the configured endpoint
func newController(cfg *config.Config) (*widget.Controller, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return widget.New(client,
		widget.WithLogger(logger.With().Str("component", "widget").Logger()),
		widget.WithErrorText(cfg.ErrorText),
	), nil
}

// newTerminal renders to stdout, with markdown replies when stdout is a terminal
func newTerminal(cfg *config.Config) *render.Terminal {
	var opts []render.TerminalOption
	if isTerminal(os.Stdout) {
		opts = append(opts, render.WithMarkdown(80))
	}
	return render.NewTerminal(os.Stdout, cfg.SiteURL, opts...)
}

// submitAndRender sends the question and prints every bot or error entry
// the controller added for it.
func submitAndRender(ctx context.Context, ctrl *widget.Controller, term *render.Terminal, question string) error {
	before := ctrl.Len()

	done := make(chan bool)
	spinnerDone := make(chan struct{})
	go func() {
		showSpinner(os.Stderr, done)
		close(spinnerDone)
	}()

	err := ctrl.Submit(ctx, question)

	done <- true
	close(done)
	<-spinnerDone

	msgs := ctrl.Messages()
	if before > len(msgs) {
		before = len(msgs)
	}
	for _, m := range msgs[before:] {
		if m.Role == widget.RoleUser {
			continue
		}
		if rerr := term.Message(m); rerr != nil {
			return rerr
		}
	}
	return err
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// showSpinner displays a spinner animation while waiting for response
func showSpinner(w io.Writer, done chan bool) {
	if !isTerminal(w) {
		<-done
		return
	}
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	i := 0
	for {
		select {
		case <-done:
			// Clear the spinner line
			fmt.Fprint(w, "\r\033[K")
			return
		default:
			fmt.Fprintf(w, "\r%s Searching products...", spinners[i])
			i = (i + 1) % len(spinners)
			time.Sleep(80 * time.Millisecond)
		}
	}
}
