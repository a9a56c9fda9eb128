package store

import (
	"database/sql"
	"fmt"
	"time"
)

// IngestRun is one recorded ingestion run.
type IngestRun struct {
	ID            int64
	RepoRoot      string
	FilesScanned  int
	FilesRead     int
	FilesSkipped  int
	ChunksTotal   int
	AvgChunkLines float64
	Duration      time.Duration
	StartedAt     time.Time
}

// RunStore records and queries ingestion run history.
type RunStore struct {
	db *DB
}

// NewRunStore creates a run store over db.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// Record inserts a completed run.
func (r *RunStore) Record(run *IngestRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	res, err := r.db.sqlDB.Exec(`
		INSERT INTO ingest_runs (repo_root, files_scanned, files_read, files_skipped, chunks_total, avg_chunk_lines, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RepoRoot, run.FilesScanned, run.FilesRead, run.FilesSkipped,
		run.ChunksTotal, run.AvgChunkLines, run.Duration.Milliseconds(),
		run.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	run.ID, _ = res.LastInsertId()
	return nil
}

// Latest returns the most recent run, or nil when none exist.
func (r *RunStore) Latest() (*IngestRun, error) {
	runs, err := r.list(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// List returns up to limit runs, newest first.
func (r *RunStore) List(limit int) ([]*IngestRun, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.list(limit)
}

func (r *RunStore) list(limit int) ([]*IngestRun, error) {
	rows, err := r.db.sqlDB.Query(`
		SELECT id, repo_root, files_scanned, files_read, files_skipped, chunks_total, avg_chunk_lines, duration_ms, started_at
		FROM ingest_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*IngestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (*IngestRun, error) {
	var run IngestRun
	var durationMs int64
	var startedAt string
	if err := rows.Scan(
		&run.ID, &run.RepoRoot, &run.FilesScanned, &run.FilesRead, &run.FilesSkipped,
		&run.ChunksTotal, &run.AvgChunkLines, &durationMs, &startedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		run.StartedAt = t
	}
	return &run, nil
}
