package skills

import (
	"strings"

	"outreach/internal/textutil"
)

// Skill names accepted as task types.
const (
	SkillLookupBusiness = "lookup_business"
	SkillScoreSite      = "score_site"
	SkillSendMessage    = "send_message"
	SkillPlaceCall      = "place_call"
	SkillEnrichItem     = "enrich_item"
)

// Payload is implemented by every typed skill payload. Validate runs before
// any side effect.
type Payload interface {
	Validate() error
}

// LookupBusiness searches the business-data collaborator.
type LookupBusiness struct {
	Query    string `json:"query"`
	Location string `json:"location"`
	Limit    int    `json:"limit,omitempty"`
}

func (p LookupBusiness) Validate() error {
	if strings.TrimSpace(p.Query) == "" {
		return &MissingFieldError{Skill: SkillLookupBusiness, Field: "query"}
	}
	if strings.TrimSpace(p.Location) == "" {
		return &MissingFieldError{Skill: SkillLookupBusiness, Field: "location"}
	}
	if p.Limit < 0 {
		return &InvalidPayloadError{Skill: SkillLookupBusiness, Reason: "limit must be non-negative"}
	}
	return nil
}

// ScoreSite fetches a site-quality report.
type ScoreSite struct {
	URL string `json:"url"`
}

func (p ScoreSite) Validate() error {
	if strings.TrimSpace(p.URL) == "" {
		return &MissingFieldError{Skill: SkillScoreSite, Field: "url"}
	}
	if textutil.NormalizeDomain(p.URL) == "" {
		return &InvalidPayloadError{Skill: SkillScoreSite, Reason: "url has no host"}
	}
	return nil
}

// SendMessage upserts a CRM contact and sends it one message.
type SendMessage struct {
	Email       string `json:"email"`
	ContactName string `json:"contact_name,omitempty"`
	Company     string `json:"company,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Body        string `json:"body"`
}

func (p SendMessage) Validate() error {
	if strings.TrimSpace(p.Email) == "" {
		return &MissingFieldError{Skill: SkillSendMessage, Field: "email"}
	}
	if strings.TrimSpace(p.Body) == "" {
		return &MissingFieldError{Skill: SkillSendMessage, Field: "body"}
	}
	if textutil.NormalizeEmail(p.Email) == "" {
		return &InvalidPayloadError{Skill: SkillSendMessage, Reason: "email is malformed"}
	}
	return nil
}

// PlaceCall starts one outbound call.
type PlaceCall struct {
	Phone       string `json:"phone"`
	ContactName string `json:"contact_name,omitempty"`
}

func (p PlaceCall) Validate() error {
	if strings.TrimSpace(p.Phone) == "" {
		return &MissingFieldError{Skill: SkillPlaceCall, Field: "phone"}
	}
	if len(textutil.NormalizePhone(p.Phone)) < 7 {
		return &InvalidPayloadError{Skill: SkillPlaceCall, Reason: "phone has too few digits"}
	}
	return nil
}

// EnrichItem runs enrichment for a single work item.
type EnrichItem struct {
	ItemID int64 `json:"item_id"`
}

func (p EnrichItem) Validate() error {
	if p.ItemID == 0 {
		return &MissingFieldError{Skill: SkillEnrichItem, Field: "item_id"}
	}
	if p.ItemID < 0 {
		return &InvalidPayloadError{Skill: SkillEnrichItem, Reason: "item_id must be positive"}
	}
	return nil
}
