package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM work_items GROUP BY status`)
	if err != nil {
		return nil, storeError("item stats", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, storeError("item stats", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// Health aggregates item state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch {
		case status == StatusContacted:
			health.Contacted += count
		case status.IsTerminal():
			health.Failed += count
		case IsProcessingStatus(status):
			health.Processing += count
		case status == StatusReadyToSend || status == StatusWarmingUp:
			health.Waiting += count
		default:
			health.Pipeline += count
		}
	}
	return health, nil
}

var requiredTables = []string{"work_items", "tasks", "schema_migrations"}

// CheckHealth returns diagnostic information about the database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	ctx = ensureContext(ctx)
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("database path is unknown")
	}
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, storeError("ping database", err)
	}
	health.DatabaseReadable = true

	for _, table := range requiredTables {
		var count int
		row := s.db.QueryRowContext(connCtx, "SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		if err := row.Scan(&count); err != nil {
			health.Error = err.Error()
			return health, storeError("query table info", err)
		}
		if count > 0 {
			health.TablesPresent = append(health.TablesPresent, table)
		} else {
			health.MissingTables = append(health.MissingTables, table)
		}
	}

	if version, err := s.SchemaVersion(connCtx); err == nil {
		health.SchemaVersion = version
	}

	var integrity string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		health.Error = err.Error()
		return health, storeError("integrity check", err)
	}
	health.IntegrityCheck = integrity == "ok"

	if len(health.MissingTables) == 0 {
		if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(1) FROM work_items").Scan(&health.TotalItems); err != nil {
			health.Error = err.Error()
			return health, storeError("count items", err)
		}
		if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(1) FROM tasks").Scan(&health.TotalTasks); err != nil {
			health.Error = err.Error()
			return health, storeError("count tasks", err)
		}
	}
	return health, nil
}
