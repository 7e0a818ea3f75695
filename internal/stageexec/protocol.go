package stageexec

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action selects the single externally visible effect an executor performs.
type Action string

const (
	ActionEmail Action = "email"
	ActionCall  Action = "call"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a == ActionEmail || a == ActionCall
}

// Request is the stdin document. It carries the item identity and only the
// contact fields the action needs.
type Request struct {
	Action        Action `json:"action"`
	ItemID        int64  `json:"item_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	ContactName   string `json:"contact_name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	Website       string `json:"website,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Body          string `json:"body,omitempty"`
}

// Validate checks the fields the action requires.
func (r Request) Validate() error {
	if !r.Action.Valid() {
		return fmt.Errorf("unknown action %q", r.Action)
	}
	if r.ItemID <= 0 {
		return fmt.Errorf("item_id must be positive")
	}
	switch r.Action {
	case ActionEmail:
		if strings.TrimSpace(r.Email) == "" {
			return fmt.Errorf("email action requires email")
		}
	case ActionCall:
		if strings.TrimSpace(r.Phone) == "" {
			return fmt.Errorf("call action requires phone")
		}
	}
	return nil
}

// Result is the stdout document.
type Result struct {
	ItemID    int64  `json:"item_id"`
	Action    Action `json:"action"`
	OK        bool   `json:"ok"`
	MessageID string `json:"message_id,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DecodeResult parses the last JSON document written to stdout.
func DecodeResult(stdout []byte) (*Result, error) {
	text := strings.TrimSpace(string(stdout))
	if text == "" {
		return nil, fmt.Errorf("executor wrote no result")
	}
	if idx := strings.LastIndex(text, "\n"); idx >= 0 {
		text = strings.TrimSpace(text[idx+1:])
	}
	var res Result
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		return nil, fmt.Errorf("decode executor result: %w", err)
	}
	return &res, nil
}
