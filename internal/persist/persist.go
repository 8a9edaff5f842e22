// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package persist records completed research runs in a SQLite database so
// past answers and their timelines can be reviewed later.
// Implements: prd005-orchestration (R6);
//
//	docs/ARCHITECTURE § Run History.
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Sink writes run records. A nil *Sink discards everything, so callers
// never branch on whether history is configured.
type Sink struct {
	db *sql.DB
	w  io.Writer
}

// Open opens or creates the run history database at path, creating parent
// directories and the schema as needed (R6.1).
func Open(path string, w io.Writer) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Sink{db: db, w: w}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Sink) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT,
			source TEXT,
			iterations INTEGER,
			sources_found INTEGER,
			confidence REAL,
			errors TEXT,
			citations TEXT,
			duration_ms INTEGER,
			completed_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS timeline_steps (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			step TEXT NOT NULL,
			description TEXT,
			details TEXT,
			status TEXT,
			started_at TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_timeline_run_id ON timeline_steps(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_completed_at ON runs(completed_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save records a completed run and its timeline. Persistence is best
// effort: failures are logged and never propagate, because recording
// history must not fail a run that already produced an answer (R6.2).
func (s *Sink) Save(ctx context.Context, result types.Result) {
	if s == nil {
		return
	}
	if err := s.save(ctx, result); err != nil {
		fmt.Fprintf(s.w, "warning: saving run %s failed: %v\n", result.Metadata.RunID, err)
	}
}

func (s *Sink) save(ctx context.Context, result types.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	errorsJSON, _ := json.Marshal(result.Metadata.Errors)
	citationsJSON, _ := json.Marshal(result.Citations)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, question, answer, source, iterations, sources_found,
			confidence, errors, citations, duration_ms, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
			question=excluded.question, answer=excluded.answer, source=excluded.source,
			iterations=excluded.iterations, sources_found=excluded.sources_found,
			confidence=excluded.confidence, errors=excluded.errors,
			citations=excluded.citations, duration_ms=excluded.duration_ms,
			completed_at=excluded.completed_at`,
		result.Metadata.RunID, result.Question, result.Answer, result.Metadata.Source,
		result.Metadata.Iterations, result.Metadata.SourcesFound,
		result.Metadata.Confidence, string(errorsJSON), string(citationsJSON),
		result.DurationMs, result.CompletedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	// Replace the timeline wholesale on re-save.
	if _, err := tx.ExecContext(ctx, `DELETE FROM timeline_steps WHERE run_id = ?`, result.Metadata.RunID); err != nil {
		return fmt.Errorf("clearing old timeline: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO timeline_steps (run_id, step, description, details, status, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing timeline insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range result.Timeline {
		detailsJSON, _ := json.Marshal(entry.Details)
		_, err := stmt.ExecContext(ctx,
			result.Metadata.RunID, entry.Step, entry.Description, string(detailsJSON),
			string(entry.Status), entry.StartedAt.UTC().Format(time.RFC3339Nano), entry.DurationMs,
		)
		if err != nil {
			return fmt.Errorf("inserting timeline step %s: %w", entry.Step, err)
		}
	}

	return tx.Commit()
}

// RunSummary is one row of run history.
type RunSummary struct {
	RunID        string    `json:"run_id" yaml:"run_id"`
	Question     string    `json:"question" yaml:"question"`
	Answer       string    `json:"answer" yaml:"answer"`
	Confidence   float64   `json:"confidence" yaml:"confidence"`
	Iterations   int       `json:"iterations" yaml:"iterations"`
	SourcesFound int       `json:"sources_found" yaml:"sources_found"`
	DurationMs   int64     `json:"duration_ms" yaml:"duration_ms"`
	CompletedAt  time.Time `json:"completed_at" yaml:"completed_at"`
}

// History returns the most recent runs, newest first (R6.3).
func (s *Sink) History(ctx context.Context, limit int) ([]RunSummary, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, question, answer, confidence, iterations, sources_found, duration_ms, completed_at
		 FROM runs ORDER BY completed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var r RunSummary
		var completedAt string
		if err := rows.Scan(&r.RunID, &r.Question, &r.Answer, &r.Confidence,
			&r.Iterations, &r.SourcesFound, &r.DurationMs, &completedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339Nano, completedAt); parseErr == nil {
			r.CompletedAt = t
		}
		summaries = append(summaries, r)
	}
	return summaries, rows.Err()
}

// Timeline returns the recorded steps for one run in execution order.
func (s *Sink) Timeline(ctx context.Context, runID string) ([]types.TimelineEntry, error) {
	if s == nil {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT step, description, details, status, started_at, duration_ms
		 FROM timeline_steps WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying timeline: %w", err)
	}
	defer rows.Close()

	var entries []types.TimelineEntry
	for rows.Next() {
		var e types.TimelineEntry
		var details, status, startedAt string
		if err := rows.Scan(&e.Step, &e.Description, &details, &status, &startedAt, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		if details != "" && details != "null" {
			json.Unmarshal([]byte(details), &e.Details)
		}
		e.Status = types.StepStatus(status)
		if t, parseErr := time.Parse(time.RFC3339Nano, startedAt); parseErr == nil {
			e.StartedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
