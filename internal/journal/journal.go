// Package journal keeps a local history of runs in a sqlite database so
// repeated fetches over the same genus can be compared later. It stores run
// bookkeeping only, never upstream results.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	genus       TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	discovered  INTEGER NOT NULL DEFAULT 0,
	parsed      INTEGER NOT NULL DEFAULT 0,
	enriched    INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	output_path TEXT NOT NULL DEFAULT ''
)`

// Run is one journal row.
type Run struct {
	ID         string
	Genus      string
	StartedAt  time.Time
	FinishedAt time.Time
	Discovered int
	Parsed     int
	Enriched   int
	Failed     int
	Status     string
	OutputPath string
}

// Journal wraps the sqlite connection.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record inserts one run row.
func (j *Journal) Record(ctx context.Context, run Run) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, genus, started_at, finished_at, discovered, parsed, enriched, failed, status, output_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Genus,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Discovered,
		run.Parsed,
		run.Enriched,
		run.Failed,
		run.Status,
		run.OutputPath,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Runs returns all recorded runs, newest first.
func (j *Journal) Runs(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, genus, started_at, finished_at, discovered, parsed, enriched, failed, status, output_path
		 FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Genus, &started, &finished, &r.Discovered, &r.Parsed, &r.Enriched, &r.Failed, &r.Status, &r.OutputPath); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
