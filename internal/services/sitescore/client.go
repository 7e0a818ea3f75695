// Package sitescore fetches site-quality reports used by enrichment.
package sitescore

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/services"
	"outreach/internal/services/httpclient"
)

// Report is the collaborator's view of one site. Signals maps a check name
// to whether the site passed it.
type Report struct {
	URL     string          `json:"url"`
	Score   int             `json:"score"`
	Signals map[string]bool `json:"signals"`
}

// Failing returns the names of failed signals in sorted order.
func (r Report) Failing() []string {
	var failing []string
	for name, passed := range r.Signals {
		if !passed {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)
	return failing
}

// Client is the HTTP-backed scoring collaborator.
type Client struct {
	http *httpclient.Client
}

// New wraps an httpclient.Client.
func New(client *httpclient.Client) *Client {
	return &Client{http: client}
}

// NewFromConfig builds a scoring client from cfg.SiteScore.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) *Client {
	return New(httpclient.NewFromConfig("sitescore", cfg.SiteScore, cfg.Breaker, logger))
}

// Score requests a report for siteURL.
func (c *Client) Score(ctx context.Context, siteURL string) (Report, error) {
	siteURL = strings.TrimSpace(siteURL)
	if siteURL == "" {
		return Report{}, services.Wrap(services.ErrValidation, "sitescore", "score", "url is required", nil)
	}
	if !strings.Contains(siteURL, "://") {
		siteURL = "https://" + siteURL
	}
	var report Report
	if err := c.http.Get(ctx, "/score", url.Values{"url": {siteURL}}, &report); err != nil {
		return Report{}, err
	}
	if report.URL == "" {
		report.URL = siteURL
	}
	if report.Score < 0 {
		report.Score = 0
	}
	if report.Score > 100 {
		report.Score = 100
	}
	return report, nil
}
