// Package bizsearch queries the business-data search collaborator used for
// prospecting.
package bizsearch

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/services"
	"outreach/internal/services/httpclient"
)

// Business is one search result.
type Business struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Website     string `json:"website,omitempty"`
	Address     string `json:"address,omitempty"`
}

type searchResponse struct {
	Results []Business `json:"results"`
}

// Client is the HTTP-backed search collaborator.
type Client struct {
	http *httpclient.Client
}

// New wraps an httpclient.Client.
func New(client *httpclient.Client) *Client {
	return &Client{http: client}
}

// NewFromConfig builds a search client from cfg.BizSearch.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) *Client {
	return New(httpclient.NewFromConfig("bizsearch", cfg.BizSearch, cfg.Breaker, logger))
}

// Search returns up to limit businesses matching query near location.
func (c *Client) Search(ctx context.Context, query, location string, limit int) ([]Business, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "bizsearch", "search", "query is required", nil)
	}
	params := url.Values{"query": {query}}
	if location = strings.TrimSpace(location); location != "" {
		params.Set("location", location)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp searchResponse
	if err := c.http.Get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}
	if limit > 0 && len(resp.Results) > limit {
		resp.Results = resp.Results[:limit]
	}
	return resp.Results, nil
}
