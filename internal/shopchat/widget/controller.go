// Package widget is the chat view-model: it owns the transcript, gates
// outbound questions so only one is in flight, and turns replies and
// failures into transcript entries. Rendering lives elsewhere.
package widget

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/longkey1/shopchat/internal/shopchat/chatapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultErrorText is shown for every failed request.
const DefaultErrorText = "Sorry, I encountered an error while processing your request. Please try again."

var (
	// ErrEmptyQuestion is returned when the question is blank.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrInFlight is returned when a question is submitted while another is pending.
	ErrInFlight = errors.New("a request is already in flight")
)

// Asker sends one question and returns the endpoint's reply.
type Asker interface {
	Ask(ctx context.Context, question string) (*chatapi.Reply, error)
}

// Controller is safe for concurrent use.
type Controller struct {
	asker     Asker
	logger    zerolog.Logger
	now       func() time.Time
	errorText string

	mu        sync.Mutex
	loading   bool
	messages  []Message
	exchanges []Exchange
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithClock overrides time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithErrorText replaces the text of failure messages.
func WithErrorText(text string) Option {
	return func(c *Controller) {
		if strings.TrimSpace(text) != "" {
			c.errorText = text
		}
	}
}

// New creates an idle controller with an empty transcript.
func New(asker Asker, opts ...Option) *Controller {
	c := &Controller{
		asker:     asker,
		logger:    zerolog.Nop(),
		now:       time.Now,
		errorText: DefaultErrorText,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit sends a question and blocks until the reply or failure has been
// recorded in the transcript. Blank questions and questions submitted while
// another is pending are dropped without touching the transcript.
//
// A failed request still leaves the transcript consistent; the returned
// error is only informational.
func (c *Controller) Submit(ctx context.Context, question string) error {
	q, loadingID, err := c.begin(question)
	if err != nil {
		return err
	}
	return c.finish(ctx, q, loadingID)
}

// Dispatch applies the same checks and transcript updates as Submit, but
// performs the request in the background. The returned channel receives the
// request's outcome once and is then closed.
func (c *Controller) Dispatch(ctx context.Context, question string) (<-chan error, error) {
	q, loadingID, err := c.begin(question)
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- c.finish(ctx, q, loadingID)
	}()
	return done, nil
}

func (c *Controller) begin(question string) (string, string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", "", ErrEmptyQuestion
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading {
		c.logger.Debug().Msg("dropping question, request in flight")
		return "", "", ErrInFlight
	}
	c.loading = true

	c.messages = append(c.messages, c.newMessage(RoleUser, q))
	placeholder := c.newMessage(RoleBot, "")
	placeholder.Loading = true
	c.messages = append(c.messages, placeholder)

	return q, placeholder.ID, nil
}

func (c *Controller) finish(ctx context.Context, question, loadingID string) error {
	start := c.now()
	reply, err := c.asker.Ask(ctx, question)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.loading = false }()

	c.removeMessage(loadingID)

	if err == nil && reply == nil {
		err = errors.New("empty reply")
	}
	if err != nil {
		c.logger.Error().Err(err).Str("question", question).Msg("chat request failed")
		c.messages = append(c.messages, c.newMessage(RoleError, c.errorText))
		return errors.Wrap(err, "asking question")
	}

	msg := c.newMessage(RoleBot, reply.Message)
	if len(reply.Products) > 0 {
		msg.Products = reply.Products
	}
	c.messages = append(c.messages, msg)
	c.exchanges = append(c.exchanges, Exchange{Question: question, Response: *reply})

	c.logger.Debug().
		Int("products", len(reply.Products)).
		Dur("elapsed", c.now().Sub(start)).
		Msg("reply recorded")
	return nil
}

func (c *Controller) newMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Text:      text,
		CreatedAt: c.now(),
	}
}

func (c *Controller) removeMessage(id string) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Messages returns a copy of the transcript, oldest first.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of transcript entries.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Exchanges returns a copy of the completed question/answer pairs.
func (c *Controller) Exchanges() []Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Exchange, len(c.exchanges))
	copy(out, c.exchanges)
	return out
}

// Empty reports whether nothing has been asked yet.
func (c *Controller) Empty() bool {
	return c.Len() == 0
}
