package pipeline

import (
	"sort"

	"outreach/internal/queue"
)

// Derived signal names added on top of the site report's own checks.
const (
	SignalNoWebsite    = "no_website"
	SignalLowSiteScore = "low_site_score"
)

const defaultSignalPoints = 1

// signalPoints weights failing signals. Unlisted signals count
// defaultSignalPoints.
var signalPoints = map[string]int{
	SignalNoWebsite:    3,
	SignalLowSiteScore: 2,
	"https":            1,
	"mobile_friendly":  1,
	"fast_load":        1,
	"contact_form":     1,
	"online_booking":   1,
}

// Tier thresholds on total points.
const (
	redThreshold    = 3
	yellowThreshold = 1
)

// Classification is the deterministic result of weighing failing signals.
type Classification struct {
	Tier   queue.Tier
	Points int
	// Score is the 0-100 fit score; more problems make a better prospect.
	Score  int
	Issues []string
}

// SignalPoints returns the weight of one failing signal.
func SignalPoints(signal string) int {
	if p, ok := signalPoints[signal]; ok {
		return p
	}
	return defaultSignalPoints
}

// Classify weighs the failing signals. Duplicates count once and order does
// not matter.
func Classify(failing []string) Classification {
	seen := make(map[string]struct{}, len(failing))
	issues := make([]string, 0, len(failing))
	for _, s := range failing {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		issues = append(issues, s)
	}
	sort.Strings(issues)

	points := 0
	for _, s := range issues {
		points += SignalPoints(s)
	}

	tier := queue.TierGreen
	switch {
	case points >= redThreshold:
		tier = queue.TierRed
	case points >= yellowThreshold:
		tier = queue.TierYellow
	}
	return Classification{
		Tier:   tier,
		Points: points,
		Score:  min(100, points*20),
		Issues: issues,
	}
}
