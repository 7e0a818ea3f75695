package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"outreach/internal/textutil"
)

// Insert adds a work item. Status defaults to new; an item with neither a
// phone nor an email is stored as unreachable.
func (s *Store) Insert(ctx context.Context, in NewItem) (*Item, error) {
	ctx = ensureContext(ctx)
	status := in.Status
	if status == "" {
		status = StatusNew
	}
	if !status.Valid() {
		return nil, fmt.Errorf("insert item: unknown status %q", status)
	}
	if strings.TrimSpace(in.Phone) == "" && strings.TrimSpace(in.Email) == "" {
		status = StatusUnreachable
	}
	metadataJSON, err := in.Metadata.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	timestamp := formatTime(s.now())

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO work_items (
            status, company_name, contact_name, phone, email, website,
            metadata_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		status,
		nullableString(strings.TrimSpace(in.CompanyName)),
		nullableString(strings.TrimSpace(in.ContactName)),
		nullableString(strings.TrimSpace(in.Phone)),
		nullableString(strings.TrimSpace(in.Email)),
		nullableString(strings.TrimSpace(in.Website)),
		metadataJSON,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, storeError("insert item", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a work item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM work_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get item", err)
	}
	return item, nil
}

// List returns items matching the provided statuses (all items when none),
// oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM work_items`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		args = statusArgs(statuses)
	}
	query += ` ORDER BY created_at, id`
	return s.queryItems(ctx, "list items", query, args...)
}

// Batch returns up to limit items in any of the statuses, oldest first.
func (s *Store) Batch(ctx context.Context, limit int, statuses ...Status) ([]*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + ` FROM work_items WHERE status IN (` + makePlaceholders(len(statuses)) + `) ORDER BY created_at, id`
	args := statusArgs(statuses)
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryItems(ctx, "batch items", query, args...)
}

// NextForStatuses returns the oldest item in any of the statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	items, err := s.Batch(ctx, 1, statuses...)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// NextWarmedUp returns the warming_up item whose email went out earliest,
// provided it went out at or before cutoff. Items with no email_sent_at are
// never eligible.
func (s *Store) NextWarmedUp(ctx context.Context, cutoff time.Time) (*Item, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM work_items
         WHERE status = ? AND email_sent_at IS NOT NULL AND email_sent_at <= ?
         ORDER BY email_sent_at, id LIMIT 1`,
		StatusWarmingUp,
		formatTime(cutoff),
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("next warmed up", err)
	}
	return item, nil
}

// FindDuplicate returns an existing item whose phone contains the trailing
// ten digits of phone, or whose website contains domain. Blank keys are
// ignored; nil is returned when nothing matches.
func (s *Store) FindDuplicate(ctx context.Context, phone, website string) (*Item, error) {
	digits := textutil.NormalizePhone(phone)
	domain := textutil.NormalizeDomain(website)

	var (
		clauses []string
		args    []any
	)
	if len(digits) >= 7 {
		clauses = append(clauses, `instr(`+digitsExpr("phone")+`, ?) > 0`)
		args = append(args, digits)
	}
	if domain != "" {
		clauses = append(clauses, `instr(lower(COALESCE(website, '')), ?) > 0`)
		args = append(args, domain)
	}
	if len(clauses) == 0 {
		return nil, nil
	}
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM work_items WHERE `+strings.Join(clauses, " OR ")+` ORDER BY id LIMIT 1`,
		args...,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find duplicate", err)
	}
	return item, nil
}

// digitsExpr strips common phone punctuation from column in SQL.
func digitsExpr(column string) string {
	expr := "COALESCE(" + column + ", '')"
	for _, ch := range []string{" ", "-", "(", ")", ".", "+", "/"} {
		expr = "replace(" + expr + ", '" + ch + "', '')"
	}
	return expr
}

func (s *Store) queryItems(ctx context.Context, operation, query string, args ...any) ([]*Item, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, storeError(operation, err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, storeError(operation, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(operation, err)
	}
	return items, nil
}
