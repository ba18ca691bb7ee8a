// Package scorer talks to the external service that reads a social report
// and suggests sub-scores. Suggestions are advisory only.
package scorer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"oncofeliz/internal/evaluation/models"
	"oncofeliz/pkg/platform/circuit"
	"oncofeliz/pkg/platform/sentinel"
)

// Suggestion is the raw scorer answer. Scores may be out of range; callers
// clamp them.
type Suggestion struct {
	Scores       models.Scores
	Observations string
}

type suggestionBody struct {
	models.Scores
	Observations string `json:"observaciones"`
}

// Client calls the scorer over HTTP and trips a breaker after repeated
// failures so an outage does not slow every upload down.
type Client struct {
	http    *resty.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*Client)

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds a client for baseURL. An empty baseURL yields nil, meaning no
// scorer is configured.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(1).
			SetRetryWaitTime(500*time.Millisecond).
			SetHeader("Accept", "application/json"),
		breaker: circuit.New("scorer", circuit.WithFailureThreshold(3), circuit.WithCooldown(time.Minute)),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Suggest uploads the report and returns the scorer's suggestion. It returns
// sentinel.ErrUnavailable without calling out while the breaker is open or
// when no scorer is configured.
func (c *Client) Suggest(ctx context.Context, filename string, pdf []byte) (*Suggestion, error) {
	if c == nil {
		return nil, fmt.Errorf("scorer not configured: %w", sentinel.ErrUnavailable)
	}
	if !c.breaker.Allow() {
		return nil, fmt.Errorf("scorer circuit open: %w", sentinel.ErrUnavailable)
	}

	var body suggestionBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("informe", filename, bytes.NewReader(pdf)).
		SetResult(&body).
		Post("/analizar")
	if err == nil && resp.StatusCode() != http.StatusOK {
		err = fmt.Errorf("scorer returned status %d", resp.StatusCode())
	}
	if err != nil {
		_, change := c.breaker.RecordFailure()
		if change.Opened {
			c.logger.WarnContext(ctx, "scorer circuit opened", "breaker", c.breaker.Name())
		}
		return nil, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}

	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "scorer circuit closed", "breaker", c.breaker.Name())
	}
	return &Suggestion{Scores: body.Scores, Observations: body.Observations}, nil
}
