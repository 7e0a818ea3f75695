// Package httpclient provides the JSON-over-HTTP client shared by every
// external collaborator. Each Client owns a gobreaker circuit breaker so a
// collaborator that keeps failing is rejected fast instead of tying up
// executors until their timeout.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/logging"
	"outreach/internal/services"
)

const maxResponseBytes = 1 << 20

// HTTPDoer describes the HTTP client used by collaborator services.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a collaborator response with status >= 300.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Breaker config.Breaker
	Doer    HTTPDoer
	Logger  *zap.Logger
}

// Client issues JSON requests against one collaborator base URL.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	doer    HTTPDoer
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// New builds a Client. A nil Doer uses an http.Client with opts.Timeout.
func New(opts Options) *Client {
	logger := logging.NewComponentLogger(opts.Logger, opts.Name)
	doer := opts.Doer
	if doer == nil {
		doer = &http.Client{Timeout: opts.Timeout}
	}
	failures := uint32(max(opts.Breaker.ConsecutiveFailures, 1))
	halfOpen := uint32(max(opts.Breaker.HalfOpenRequests, 1))
	settings := gobreaker.Settings{
		Name:        "collaborator-" + opts.Name,
		MaxRequests: halfOpen,
		Timeout:     opts.Breaker.Open(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Client errors mean the request was wrong, not that the
		// collaborator is down.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var statusErr *StatusError
			return errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				logging.Event("breaker_state_change"),
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &Client{
		name:    opts.Name,
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		apiKey:  strings.TrimSpace(opts.APIKey),
		doer:    doer,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// NewFromConfig builds a Client from one collaborator config section.
func NewFromConfig(name string, collab config.Collaborator, breaker config.Breaker, logger *zap.Logger) *Client {
	return New(Options{
		Name:    name,
		BaseURL: collab.BaseURL,
		APIKey:  collab.APIKey,
		Timeout: collab.Timeout(),
		Breaker: breaker,
		Logger:  logger,
	})
}

// Name returns the collaborator name used in errors and logs.
func (c *Client) Name() string { return c.name }

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool { return c != nil && c.baseURL != "" }

// State returns the current breaker state.
func (c *Client) State() gobreaker.State { return c.breaker.State() }

// Get issues a GET with query parameters and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Do performs one request through the circuit breaker. Every failure is
// tagged services.ErrExternal, except a missing base URL which is
// services.ErrConfiguration.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	operation := strings.ToLower(method) + " " + path
	if !c.Configured() {
		return services.Wrap(services.ErrConfiguration, c.name, operation, "base url not configured", nil)
	}
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, query, body, out)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState):
		return services.Wrap(services.ErrExternal, c.name, operation, "currently unavailable (circuit breaker open)", err)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return services.Wrap(services.ErrExternal, c.name, operation, "recovering (too many requests)", err)
	default:
		return services.Wrap(services.ErrExternal, c.name, operation, "request failed", err)
	}
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{
			Service:    c.name,
			StatusCode: resp.StatusCode,
			Body:       services.Truncate(strings.TrimSpace(string(payload))),
		}
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
