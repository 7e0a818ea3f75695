package queue

import (
	"encoding/json"
	"strings"
)

// Tier is the urgency classification written by enrichment.
type Tier string

const (
	TierRed    Tier = "RED"
	TierYellow Tier = "YELLOW"
	TierGreen  Tier = "GREEN"
)

// ParseTier normalizes a tier label.
func ParseTier(value string) (Tier, bool) {
	switch Tier(strings.ToUpper(strings.TrimSpace(value))) {
	case TierRed:
		return TierRed, true
	case TierYellow:
		return TierYellow, true
	case TierGreen:
		return TierGreen, true
	default:
		return "", false
	}
}

// Metadata is the JSON bag attached to a work item. Keys not modeled here
// are preserved in Extra across decode and encode.
type Metadata struct {
	Tier              Tier            `json:"tier,omitempty"`
	Score             int             `json:"score,omitempty"`
	Issues            []string        `json:"issues,omitempty"`
	Signals           map[string]bool `json:"signals,omitempty"`
	SiteScore         *int            `json:"site_score,omitempty"`
	EngagementScore   int             `json:"engagement_score,omitempty"`
	EmailMessageID    string          `json:"email_message_id,omitempty"`
	OutreachMessageID string          `json:"outreach_message_id,omitempty"`
	CallID            string          `json:"call_id,omitempty"`
	Source            string          `json:"source,omitempty"`
	Query             string          `json:"query,omitempty"`
	EnrichAttempts    int             `json:"enrich_attempts,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type metadataAlias Metadata

// ParseMetadata decodes stored JSON. Malformed or empty input yields an empty bag.
func ParseMetadata(data string) Metadata {
	var meta Metadata
	if strings.TrimSpace(data) == "" {
		return meta
	}
	_ = json.Unmarshal([]byte(data), &meta)
	return meta
}

// UnmarshalJSON decodes known keys and keeps the rest in Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var alias metadataAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range knownMetadataKeys {
		delete(raw, key)
	}
	*m = Metadata(alias)
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

// MarshalJSON encodes known keys merged with Extra.
func (m Metadata) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(metadataAlias(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return known, nil
	}
	merged := make(map[string]json.RawMessage, len(m.Extra)+8)
	for k, v := range m.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Encode renders the bag for storage.
func (m Metadata) Encode() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var knownMetadataKeys = []string{
	"tier", "score", "issues", "signals", "site_score", "engagement_score",
	"email_message_id", "outreach_message_id", "call_id", "source", "query",
	"enrich_attempts",
}

// EngagementEvent is an inbound signal from the messaging collaborator.
type EngagementEvent string

const (
	EngagementOpen  EngagementEvent = "open"
	EngagementClick EngagementEvent = "click"
	EngagementReply EngagementEvent = "reply"
)

// Points returns the engagement score increment for the event.
func (e EngagementEvent) Points() (int, bool) {
	switch EngagementEvent(strings.ToLower(strings.TrimSpace(string(e)))) {
	case EngagementOpen:
		return 1, true
	case EngagementClick:
		return 3, true
	case EngagementReply:
		return 10, true
	default:
		return 0, false
	}
}
