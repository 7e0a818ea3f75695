// Package crm talks to the messaging/CRM collaborator: create-or-update a
// contact and send it a message.
package crm

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/services"
	"outreach/internal/services/httpclient"
)

// Contact is the create-or-update payload.
type Contact struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

// Message is a single outbound email.
type Message struct {
	ContactID string `json:"contact_id"`
	To        string `json:"to"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body"`
	// Reference lets the collaborator dedupe retries of the same send.
	Reference string `json:"reference,omitempty"`
}

type idResponse struct {
	ID string `json:"id"`
}

// Client is the HTTP-backed CRM collaborator.
type Client struct {
	http *httpclient.Client
}

// New wraps an httpclient.Client.
func New(client *httpclient.Client) *Client {
	return &Client{http: client}
}

// NewFromConfig builds a CRM client from cfg.CRM.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) *Client {
	return New(httpclient.NewFromConfig("crm", cfg.CRM, cfg.Breaker, logger))
}

// UpsertContact creates or updates a contact and returns its id.
func (c *Client) UpsertContact(ctx context.Context, contact Contact) (string, error) {
	contact.Email = strings.TrimSpace(contact.Email)
	if contact.Email == "" {
		return "", services.Wrap(services.ErrValidation, "crm", "upsert contact", "email is required", nil)
	}
	var resp idResponse
	if err := c.http.Post(ctx, "/contacts", contact, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", services.Wrap(services.ErrExternal, "crm", "upsert contact", "response missing id", nil)
	}
	return resp.ID, nil
}

// SendMessage sends msg and returns the collaborator's message id.
func (c *Client) SendMessage(ctx context.Context, msg Message) (string, error) {
	if strings.TrimSpace(msg.To) == "" || strings.TrimSpace(msg.Body) == "" {
		return "", services.Wrap(services.ErrValidation, "crm", "send message", "recipient and body are required", nil)
	}
	var resp idResponse
	if err := c.http.Post(ctx, "/messages", msg, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", services.Wrap(services.ErrExternal, "crm", "send message", "response missing id", nil)
	}
	return resp.ID, nil
}

// Deliver upserts the contact and sends one message to it, returning the
// message id.
func (c *Client) Deliver(ctx context.Context, contact Contact, msg Message) (string, error) {
	contactID, err := c.UpsertContact(ctx, contact)
	if err != nil {
		return "", err
	}
	msg.ContactID = contactID
	if msg.To == "" {
		msg.To = contact.Email
	}
	return c.SendMessage(ctx, msg)
}
