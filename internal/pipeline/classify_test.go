package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"outreach/internal/pipeline"
	"outreach/internal/queue"
)

func TestClassifyTiers(t *testing.T) {
	tests := []struct {
		name    string
		failing []string
		tier    queue.Tier
		points  int
		score   int
	}{
		{"nothing wrong", nil, queue.TierGreen, 0, 0},
		{"one minor", []string{"https"}, queue.TierYellow, 1, 20},
		{"low score", []string{pipeline.SignalLowSiteScore}, queue.TierYellow, 2, 40},
		{"no website", []string{pipeline.SignalNoWebsite}, queue.TierRed, 3, 60},
		{"low score plus minor", []string{pipeline.SignalLowSiteScore, "mobile_friendly"}, queue.TierRed, 3, 60},
		{"unknown signal", []string{"favicon"}, queue.TierYellow, 1, 20},
		{
			"score caps at 100",
			[]string{pipeline.SignalNoWebsite, pipeline.SignalLowSiteScore, "https", "mobile_friendly", "fast_load"},
			queue.TierRed, 8, 100,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := pipeline.Classify(tc.failing)
			assert.Equal(t, tc.tier, got.Tier)
			assert.Equal(t, tc.points, got.Points)
			assert.Equal(t, tc.score, got.Score)
		})
	}
}

func TestClassifyIsOrderIndependent(t *testing.T) {
	a := pipeline.Classify([]string{"https", pipeline.SignalLowSiteScore, "https", ""})
	b := pipeline.Classify([]string{pipeline.SignalLowSiteScore, "https"})
	assert.Equal(t, a, b)
	assert.Equal(t, []string{"https", pipeline.SignalLowSiteScore}, a.Issues)
}

func TestCompanyName(t *testing.T) {
	assert.Equal(t, "Acme Plumbing", pipeline.CompanyName("  ACME   plumbing \n"))
	assert.Equal(t, "Joe's Diner", pipeline.CompanyName("joe's diner"))
	assert.Equal(t, "", pipeline.CompanyName("   "))
}
