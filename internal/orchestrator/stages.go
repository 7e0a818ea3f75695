package orchestrator

import (
	"time"

	"outreach/internal/queue"
	"outreach/internal/stageexec"
)

// Stage names.
const (
	StageNewEmail = "NEW_EMAIL"
	StageWarming  = "WARMING"
	StageCalling  = "CALLING"
)

// ContactField names the contact channel a stage needs.
type ContactField string

const (
	FieldNone  ContactField = ""
	FieldEmail ContactField = "email"
	FieldPhone ContactField = "phone"
)

// Stage is one row of the compiled stage table.
type Stage struct {
	Name       string
	Source     queue.Status
	Processing queue.Status
	Success    queue.Status
	Failure    queue.Status
	// Ineligible is written when the item lacks the Requires field.
	Ineligible queue.Status
	Requires   ContactField
	Action     stageexec.Action
	// MaxConcurrency caps in-flight executors; zero runs synchronously.
	MaxConcurrency int
	// Eligible gates selection; nil means always eligible.
	Eligible func(item *queue.Item, now time.Time) bool
}

// Dispatches reports whether the stage launches an executor.
func (s Stage) Dispatches() bool { return s.Action != "" }

// Missing reports whether item lacks the contact field the stage needs.
func (s Stage) Missing(item *queue.Item) bool {
	switch s.Requires {
	case FieldEmail:
		return !item.HasEmail()
	case FieldPhone:
		return !item.HasPhone()
	default:
		return false
	}
}

// WarmedUp returns the warm-up gate: now - email_sent_at >= warmup.
func WarmedUp(warmup time.Duration) func(*queue.Item, time.Time) bool {
	return func(item *queue.Item, now time.Time) bool {
		if item == nil || item.EmailSentAt == nil {
			return false
		}
		return now.Sub(*item.EmailSentAt) >= warmup
	}
}

// BuildStages returns the ordered stage table.
func BuildStages(warmup time.Duration, maxConcurrency int) []Stage {
	gate := WarmedUp(warmup)
	return []Stage{
		{
			Name:       StageNewEmail,
			Source:     queue.StatusReadyToSend,
			Processing: queue.StatusProcessingEmail,
			Success:    queue.StatusWarmingUp,
			Failure:    queue.StatusSystemCrash,
			Ineligible: queue.StatusFailedData,
			Requires:   FieldEmail,
			Action:     stageexec.ActionEmail,
		},
		{
			Name:     StageWarming,
			Source:   queue.StatusWarmingUp,
			Eligible: gate,
		},
		{
			Name:           StageCalling,
			Source:         queue.StatusWarmingUp,
			Processing:     queue.StatusProcessingCall,
			Success:        queue.StatusContacted,
			Failure:        queue.StatusSystemCrash,
			Ineligible:     queue.StatusFailedData,
			Requires:       FieldPhone,
			Action:         stageexec.ActionCall,
			MaxConcurrency: maxConcurrency,
			Eligible:       gate,
		},
	}
}
