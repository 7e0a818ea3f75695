package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a work item.
type Status string

const (
	StatusNew             Status = "new"
	StatusNeedsEnrichment Status = "needs_enrichment"
	StatusEnriched        Status = "enriched"
	StatusOutreached      Status = "outreached"
	StatusReadyToSend     Status = "ready_to_send"
	StatusProcessingEmail Status = "processing_email"
	StatusWarmingUp       Status = "warming_up"
	StatusProcessingCall  Status = "processing_call"
	StatusContacted       Status = "contacted"
	StatusFailedData      Status = "failed_data"
	StatusSystemCrash     Status = "system_crash"
	StatusUnreachable     Status = "unreachable"
)

var allStatuses = []Status{
	StatusNew,
	StatusNeedsEnrichment,
	StatusEnriched,
	StatusOutreached,
	StatusReadyToSend,
	StatusProcessingEmail,
	StatusWarmingUp,
	StatusProcessingCall,
	StatusContacted,
	StatusFailedData,
	StatusSystemCrash,
	StatusUnreachable,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var terminalStatuses = map[Status]struct{}{
	StatusContacted:   {},
	StatusFailedData:  {},
	StatusSystemCrash: {},
	StatusUnreachable: {},
}

// processingSources maps each in-flight status to the status it was claimed
// from. Stale reclaim moves rows back along these edges.
var processingSources = map[Status]Status{
	StatusProcessingEmail: StatusReadyToSend,
	StatusProcessingCall:  StatusWarmingUp,
}

// transitions lists every forward move. Recovery edges (stale reclaim and
// crash retry) are applied only by ReclaimStale and RetryCrashed. An
// outreached item was already emailed, so it skips ready_to_send.
var transitions = map[Status][]Status{
	StatusNew:             {StatusEnriched, StatusNeedsEnrichment, StatusUnreachable},
	StatusNeedsEnrichment: {StatusEnriched, StatusUnreachable},
	StatusEnriched:        {StatusOutreached, StatusReadyToSend, StatusUnreachable},
	StatusOutreached:      {StatusWarmingUp},
	StatusReadyToSend:     {StatusProcessingEmail, StatusFailedData, StatusUnreachable},
	StatusProcessingEmail: {StatusWarmingUp, StatusSystemCrash},
	StatusWarmingUp:       {StatusProcessingCall, StatusFailedData, StatusUnreachable},
	StatusProcessingCall:  {StatusContacted, StatusSystemCrash},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Valid reports whether s is a member of the status enumeration.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// IsTerminal reports whether no forward transition leaves s.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingSources[status]
	return ok
}

// ProcessingSource returns the status a processing row is reclaimed to.
func ProcessingSource(status Status) (Status, bool) {
	src, ok := processingSources[status]
	return src, ok
}

// CanTransition reports whether the table permits moving from one status to
// another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// HealthSummary describes aggregated item counts per lifecycle class.
type HealthSummary struct {
	Total      int
	Pipeline   int
	Processing int
	Waiting    int
	Contacted  int
	Failed     int
}

// DatabaseHealth captures diagnostic information about the store database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TablesPresent    []string
	MissingTables    []string
	IntegrityCheck   bool
	TotalItems       int
	TotalTasks       int
	Error            string
}

// Item represents one outreach target persisted in SQLite.
type Item struct {
	ID            int64
	Status        Status
	CompanyName   string
	ContactName   string
	Phone         string
	Email         string
	Website       string
	MetadataJSON  string
	Notes         string
	FailedStage   Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
	EnrichedAt    *time.Time
	OutreachedAt  *time.Time
	EmailSentAt   *time.Time
	CallStartedAt *time.Time
	ContactedAt   *time.Time
}

// HasPhone reports whether the item carries a non-blank phone number.
func (i Item) HasPhone() bool { return strings.TrimSpace(i.Phone) != "" }

// HasEmail reports whether the item carries a non-blank email address.
func (i Item) HasEmail() bool { return strings.TrimSpace(i.Email) != "" }

// Reachable reports whether at least one contact channel exists.
func (i Item) Reachable() bool { return i.HasPhone() || i.HasEmail() }

// IsProcessing returns true when the status reflects an in-flight stage.
func (i Item) IsProcessing() bool { return IsProcessingStatus(i.Status) }

// Metadata decodes the item's metadata bag.
func (i Item) Metadata() Metadata { return ParseMetadata(i.MetadataJSON) }

// LastTouchedAt returns the most recent outreach, email, or contact time.
func (i Item) LastTouchedAt() *time.Time {
	var latest *time.Time
	for _, ts := range []*time.Time{i.OutreachedAt, i.EmailSentAt, i.ContactedAt} {
		if ts == nil {
			continue
		}
		if latest == nil || ts.After(*latest) {
			latest = ts
		}
	}
	return latest
}

// NewItem carries the fields accepted when inserting a work item.
type NewItem struct {
	CompanyName string
	ContactName string
	Phone       string
	Email       string
	Website     string
	Status      Status
	Metadata    Metadata
}
