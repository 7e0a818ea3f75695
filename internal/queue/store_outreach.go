package queue

import (
	"context"
	"time"
)

const (
	outreachTierExpr = `CASE WHEN json_valid(metadata_json) THEN json_extract(metadata_json, '$.tier') END`
	outreachableExpr = outreachTierExpr + ` IN (?, ?) AND trim(COALESCE(email, '')) <> ''`
	coolingExpr      = `(COALESCE(outreached_at, '') > ? OR COALESCE(email_sent_at, '') > ? OR COALESCE(contacted_at, '') > ?)`
)

// OutreachBacklog counts enriched items the outreach job leaves in place.
type OutreachBacklog struct {
	// Ineligible items are GREEN, unclassified, or have no email.
	Ineligible int
	// CoolingOff items qualify but were touched after the cutoff.
	CoolingOff int
}

func outreachArgs(cutoff time.Time) []any {
	ts := formatTime(cutoff)
	return []any{StatusEnriched, TierRed, TierYellow, ts, ts, ts}
}

// OutreachCandidates returns up to limit enriched RED or YELLOW items with
// an email that were not touched after cutoff, oldest first. A limit <= 0
// returns all of them.
func (s *Store) OutreachCandidates(ctx context.Context, cutoff time.Time, limit int) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM work_items
        WHERE status = ? AND ` + outreachableExpr + ` AND NOT ` + coolingExpr + `
        ORDER BY created_at, id`
	args := outreachArgs(cutoff)
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryItems(ctx, "outreach candidates", query, args...)
}

// OutreachBacklog reports how many enriched items OutreachCandidates
// excludes for the same cutoff.
func (s *Store) OutreachBacklog(ctx context.Context, cutoff time.Time) (OutreachBacklog, error) {
	var backlog OutreachBacklog
	ts := formatTime(cutoff)
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT
            COALESCE(SUM(CASE WHEN NOT (`+outreachableExpr+`) OR `+outreachTierExpr+` IS NULL THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN (`+outreachableExpr+`) AND `+coolingExpr+` THEN 1 ELSE 0 END), 0)
        FROM work_items WHERE status = ?`,
		TierRed, TierYellow, TierRed, TierYellow, ts, ts, ts, StatusEnriched,
	)
	if err := row.Scan(&backlog.Ineligible, &backlog.CoolingOff); err != nil {
		return backlog, storeError("outreach backlog", err)
	}
	return backlog, nil
}
