// Package voice places outbound calls through the voice collaborator.
package voice

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/services"
	"outreach/internal/services/httpclient"
)

// Call is the place-call request.
type Call struct {
	Phone       string `json:"phone"`
	ContactName string `json:"contact_name,omitempty"`
	Company     string `json:"company,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

type callResponse struct {
	ID     string `json:"id"`
	CallID string `json:"call_id"`
}

// Client is the HTTP-backed voice collaborator.
type Client struct {
	http *httpclient.Client
}

// New wraps an httpclient.Client.
func New(client *httpclient.Client) *Client {
	return &Client{http: client}
}

// NewFromConfig builds a voice client from cfg.Voice.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) *Client {
	return New(httpclient.NewFromConfig("voice", cfg.Voice, cfg.Breaker, logger))
}

// PlaceCall starts a call and returns the collaborator's call id.
func (c *Client) PlaceCall(ctx context.Context, call Call) (string, error) {
	call.Phone = strings.TrimSpace(call.Phone)
	if call.Phone == "" {
		return "", services.Wrap(services.ErrValidation, "voice", "place call", "phone is required", nil)
	}
	var resp callResponse
	if err := c.http.Post(ctx, "/calls", call, &resp); err != nil {
		return "", err
	}
	id := resp.CallID
	if id == "" {
		id = resp.ID
	}
	if id == "" {
		return "", services.Wrap(services.ErrExternal, "voice", "place call", "response missing call id", nil)
	}
	return id, nil
}
