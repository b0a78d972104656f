// Package chatapi talks to the store's conversational product-search
// endpoint. One question goes out, one reply with optional products comes back.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/longkey1/shopchat/internal/shopchat/catalog"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// DefaultEndpoint is the chat route of a locally running store.
	DefaultEndpoint = "http://localhost:8000/api/chat/"

	// maxErrorBody caps how much of a failed response is kept for logging.
	maxErrorBody = 4096
)

// Request is the JSON body posted to the endpoint.
type Request struct {
	Question string `json:"question"`
}

// Reply is the endpoint's response.
type Reply struct {
	Message    string            `json:"message"`
	Products   []catalog.Product `json:"products,omitempty"`
	TotalFound int               `json:"total_found,omitempty"`
	Query      string            `json:"query,omitempty"`
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat endpoint returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("chat endpoint returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Client posts questions to a fixed endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each Ask call. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the client's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for the given endpoint URL.
func New(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("chat endpoint is not configured")
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, errors.Errorf("chat endpoint must be an http(s) URL: %s", endpoint)
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the URL questions are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Ask posts a question and decodes the reply. Non-2xx statuses yield a
// *StatusError; nothing is retried.
func (c *Client) Ask(ctx context.Context, question string) (*Reply, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	jsonData, err := json.Marshal(Request{Question: question})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("endpoint", c.endpoint).Msg("chat request failed")
		return nil, errors.Wrap(err, "sending request")
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("chat endpoint responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, errors.Wrap(err, "decoding response")
	}
	return &reply, nil
}
