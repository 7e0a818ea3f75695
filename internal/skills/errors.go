package skills

import (
	"fmt"

	"outreach/internal/services"
)

// UnknownSkillError reports a task type with no registered handler.
type UnknownSkillError struct {
	Name string
}

func (e *UnknownSkillError) Error() string {
	return fmt.Sprintf("unknown skill %q", e.Name)
}

func (e *UnknownSkillError) Unwrap() error { return services.ErrValidation }

// MissingFieldError reports a required payload field that was absent or blank.
type MissingFieldError struct {
	Skill string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("skill %s: missing required field %q", e.Skill, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return services.ErrValidation }

// InvalidPayloadError reports a payload that could not be decoded or held a
// malformed value.
type InvalidPayloadError struct {
	Skill  string
	Reason string
	Err    error
}

func (e *InvalidPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("skill %s: invalid payload: %s: %v", e.Skill, e.Reason, e.Err)
	}
	return fmt.Sprintf("skill %s: invalid payload: %s", e.Skill, e.Reason)
}

func (e *InvalidPayloadError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrValidation}
	}
	return []error{services.ErrValidation, e.Err}
}
