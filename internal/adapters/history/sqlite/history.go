// Package sqlite stores finished validation-cycle summaries locally so past
// cycles can be inspected after the fact.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/halcyra/oracle-validator-cli/internal/ports"
)

const timeLayout = "2006-01-02 15:04:05"

type History struct {
	db *sql.DB
}

var _ ports.CycleHistory = (*History)(nil)

// New opens (creating if needed) the history database at path and ensures
// the schema exists.
func New(path string) (*History, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect history database: %w", err)
	}

	h := &History{db: db}
	if err := h.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure history database: %w", err)
	}
	if err := h.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return h, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := h.db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (h *History) createSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account TEXT NOT NULL,
		records INTEGER NOT NULL DEFAULT 0,
		successes INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		delta_valid INTEGER NOT NULL DEFAULT 0,
		delta_invalid INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cycles_account ON cycles(account, finished_at);
	`
	_, err := h.db.ExecContext(context.Background(), query)
	return err
}

func (h *History) RecordCycle(ctx context.Context, summary ports.CycleSummary) error {
	query := `
		INSERT INTO cycles (
			account, records, successes, failures,
			delta_valid, delta_invalid, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	finished := summary.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	_, err := h.db.ExecContext(ctx, query,
		summary.Account,
		summary.Records,
		summary.Successes,
		summary.Failures,
		summary.DeltaValid,
		summary.DeltaInvalid,
		summary.StartedAt.UTC().Format(timeLayout),
		finished.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert cycle summary: %w", err)
	}
	return nil
}

func (h *History) RecentCycles(ctx context.Context, limit int) ([]ports.CycleSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT account, records, successes, failures,
			   delta_valid, delta_invalid, started_at, finished_at
		FROM cycles
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`

	rows, err := h.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycle summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []ports.CycleSummary
	for rows.Next() {
		var summary ports.CycleSummary
		var startedAt, finishedAt string
		if err := rows.Scan(
			&summary.Account,
			&summary.Records,
			&summary.Successes,
			&summary.Failures,
			&summary.DeltaValid,
			&summary.DeltaInvalid,
			&startedAt,
			&finishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cycle summary: %w", err)
		}
		summary.StartedAt = parseStoredTime(startedAt)
		summary.FinishedAt = parseStoredTime(finishedAt)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycle summaries: %w", err)
	}

	return summaries, nil
}

func parseStoredTime(raw string) time.Time {
	parsed, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}
