package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const metadataRetryAttempts = 5

// Change describes the columns written alongside a status transition.
// Nil fields are left untouched.
type Change struct {
	Notes         *string
	FailedStage   *Status
	EnrichedAt    *time.Time
	OutreachedAt  *time.Time
	EmailSentAt   *time.Time
	CallStartedAt *time.Time
	ContactedAt   *time.Time
	// Metadata edits the stored bag in place. The edit is applied against
	// the current row and retried if another writer changed the bag first.
	Metadata func(*Metadata)
}

// WithNotes returns a copy of c that writes notes.
func (c Change) WithNotes(notes string) Change {
	c.Notes = &notes
	return c
}

// WithFailedStage returns a copy of c that records the stage to retry from.
func (c Change) WithFailedStage(stage Status) Change {
	c.FailedStage = &stage
	return c
}

func (c Change) assignments() ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if c.Notes != nil {
		add("notes", nullableString(*c.Notes))
	}
	if c.FailedStage != nil {
		add("failed_stage", nullableString(string(*c.FailedStage)))
	}
	if c.EnrichedAt != nil {
		add("enriched_at", nullableTime(c.EnrichedAt))
	}
	if c.OutreachedAt != nil {
		add("outreached_at", nullableTime(c.OutreachedAt))
	}
	if c.EmailSentAt != nil {
		add("email_sent_at", nullableTime(c.EmailSentAt))
	}
	if c.CallStartedAt != nil {
		add("call_started_at", nullableTime(c.CallStartedAt))
	}
	if c.ContactedAt != nil {
		add("contacted_at", nullableTime(c.ContactedAt))
	}
	return sets, args
}

// Transition moves item id from one status to another if and only if it is
// still in from. It returns false without error when another writer got
// there first. Moves absent from the transition table are rejected with a
// *TransitionError before touching the database.
func (s *Store) Transition(ctx context.Context, id int64, from, to Status, change Change) (bool, error) {
	ctx = ensureContext(ctx)
	if !CanTransition(from, to) {
		return false, &TransitionError{ID: id, From: from, To: to}
	}

	sets, setArgs := change.assignments()
	for attempt := 0; attempt < metadataRetryAttempts; attempt++ {
		assignments := append([]string{"status = ?", "updated_at = ?"}, sets...)
		args := append([]any{to, formatTime(s.now())}, setArgs...)
		where := "id = ? AND status = ?"
		whereArgs := []any{id, from}

		if change.Metadata != nil {
			current, status, err := s.readMetadata(ctx, id)
			if err != nil {
				return false, err
			}
			if status != from {
				return false, nil
			}
			meta := ParseMetadata(current)
			change.Metadata(&meta)
			encoded, err := meta.Encode()
			if err != nil {
				return false, fmt.Errorf("encode metadata: %w", err)
			}
			assignments = append(assignments, "metadata_json = ?")
			args = append(args, encoded)
			where += " AND COALESCE(metadata_json, '') = ?"
			whereArgs = append(whereArgs, current)
		}

		query := "UPDATE work_items SET " + strings.Join(assignments, ", ") + " WHERE " + where
		res, err := s.execWithRetry(ctx, query, append(args, whereArgs...)...)
		if err != nil {
			return false, storeError("transition item", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return false, storeError("transition item", err)
		}
		if affected == 1 {
			return true, nil
		}
		if change.Metadata == nil {
			return false, nil
		}
	}
	return false, nil
}

// Claim is a Transition with no extra columns. The orchestrator uses it to
// take exclusive ownership of an item before running a stage.
func (s *Store) Claim(ctx context.Context, id int64, from, to Status) (bool, error) {
	return s.Transition(ctx, id, from, to, Change{})
}

func (s *Store) readMetadata(ctx context.Context, id int64) (string, Status, error) {
	var (
		raw    sql.NullString
		status string
	)
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(metadata_json, ''), status FROM work_items WHERE id = ?`, id).Scan(&raw, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil
	}
	if err != nil {
		return "", "", storeError("read metadata", err)
	}
	return raw.String, Status(status), nil
}

// ReclaimStale returns processing rows whose updated_at is older than cutoff
// to the status they were claimed from. Rows whose ids are in exclude are
// left alone; the caller still owns them.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time, exclude ...int64) (int64, error) {
	query := `UPDATE work_items
        SET status = CASE status
            WHEN ? THEN ?
            WHEN ? THEN ?
            ELSE status
        END,
            notes = ?, updated_at = ?
        WHERE status IN (?, ?) AND updated_at < ?`
	args := []any{
		StatusProcessingEmail, processingSources[StatusProcessingEmail],
		StatusProcessingCall, processingSources[StatusProcessingCall],
		"Reclaimed from stale processing",
		formatTime(s.now()),
		StatusProcessingEmail, StatusProcessingCall,
		formatTime(cutoff),
	}
	if len(exclude) > 0 {
		query += ` AND id NOT IN (` + makePlaceholders(len(exclude)) + `)`
		args = append(args, idArgs(exclude)...)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, storeError("reclaim stale items", err)
	}
	return res.RowsAffected()
}

// RetryCrashed moves system_crash items back to the status recorded in
// failed_stage. With no ids every crashed item is retried.
func (s *Store) RetryCrashed(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE work_items
        SET status = failed_stage, failed_stage = NULL, notes = ?, updated_at = ?
        WHERE status = ? AND failed_stage IN (?, ?)`
	args := []any{
		"Retry requested",
		formatTime(s.now()),
		StatusSystemCrash,
		StatusReadyToSend, StatusWarmingUp,
	}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		args = append(args, idArgs(ids)...)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, storeError("retry crashed items", err)
	}
	return res.RowsAffected()
}

// PromoteToSend moves items into the orchestrator sequence. Enriched items
// go to ready_to_send and get the first-touch email. Outreached items were
// already emailed, so they go straight to warming_up with email_sent_at
// taken from outreached_at. With no ids every eligible item moves.
func (s *Store) PromoteToSend(ctx context.Context, ids ...int64) (int64, error) {
	now := formatTime(s.now())
	query := `UPDATE work_items
        SET status = CASE status WHEN ? THEN ? ELSE ? END,
            email_sent_at = CASE status WHEN ? THEN COALESCE(outreached_at, ?) ELSE email_sent_at END,
            updated_at = ?
        WHERE status IN (?, ?)`
	args := []any{
		StatusOutreached, StatusWarmingUp, StatusReadyToSend,
		StatusOutreached, now,
		now,
		StatusEnriched, StatusOutreached,
	}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		args = append(args, idArgs(ids)...)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, storeError("promote items", err)
	}
	return res.RowsAffected()
}

// RecordEngagement adds the event's points to the item's engagement score.
// Only metadata_json is written; status and timestamps are untouched. It
// returns the new score.
func (s *Store) RecordEngagement(ctx context.Context, id int64, event EngagementEvent) (int, error) {
	ctx = ensureContext(ctx)
	points, ok := event.Points()
	if !ok {
		return 0, fmt.Errorf("record engagement: unknown event %q", event)
	}
	for attempt := 0; attempt < metadataRetryAttempts; attempt++ {
		current, status, err := s.readMetadata(ctx, id)
		if err != nil {
			return 0, err
		}
		if status == "" {
			return 0, fmt.Errorf("record engagement: item %d not found", id)
		}
		meta := ParseMetadata(current)
		meta.EngagementScore += points
		encoded, err := meta.Encode()
		if err != nil {
			return 0, fmt.Errorf("encode metadata: %w", err)
		}
		res, err := s.execWithRetry(
			ctx,
			`UPDATE work_items SET metadata_json = ? WHERE id = ? AND COALESCE(metadata_json, '') = ?`,
			encoded, id, current,
		)
		if err != nil {
			return 0, storeError("record engagement", err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 1 {
			return meta.EngagementScore, nil
		}
	}
	return 0, fmt.Errorf("record engagement: item %d metadata changed concurrently", id)
}

// Annotate replaces the notes of an item still in status without moving it.
func (s *Store) Annotate(ctx context.Context, id int64, status Status, notes string) (bool, error) {
	res, err := s.execWithRetry(
		ensureContext(ctx),
		`UPDATE work_items SET notes = ?, updated_at = ? WHERE id = ? AND status = ?`,
		nullableString(notes), formatTime(s.now()), id, status,
	)
	if err != nil {
		return false, storeError("annotate item", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, storeError("annotate item", err)
	}
	return affected == 1, nil
}
