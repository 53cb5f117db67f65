// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package session persists run transcripts: one row per run plus one row per
// stage output, so past drafts and outlines survive the process.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kadirpekel/blogsmith/pkg/pipeline"
)

const (
	createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id VARCHAR(255) PRIMARY KEY,
    topic TEXT NOT NULL,
    status VARCHAR(50) NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_updated_at ON runs(updated_at);
`

	createOutputsTableSQL = `
CREATE TABLE IF NOT EXISTS run_outputs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id VARCHAR(255) NOT NULL,
    stage VARCHAR(255) NOT NULL,
    output_key VARCHAR(255) NOT NULL,
    output_value TEXT NOT NULL,
    attempts INTEGER NOT NULL,
    sequence_num INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_outputs_run_id ON run_outputs(run_id);
CREATE INDEX IF NOT EXISTS idx_outputs_sequence ON run_outputs(run_id, sequence_num);
`
)

// SQLRecorder stores run transcripts in SQLite.
type SQLRecorder struct {
	db *sql.DB
}

// RunRecord is one persisted run.
type RunRecord struct {
	ID        string
	Topic     string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OutputRecord is one persisted stage output.
type OutputRecord struct {
	RunID     string
	Stage     string
	Key       string
	Value     string
	Attempts  int
	CreatedAt time.Time
}

// New creates a SQLRecorder over an open database connection and initializes
// the schema.
func New(db *sql.DB) (*SQLRecorder, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	r := &SQLRecorder{db: db}
	if err := r.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return r, nil
}

// Open opens (or creates) a SQLite database at path and returns a recorder
// over it. Use ":memory:" for an ephemeral store.
func Open(path string) (*SQLRecorder, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database at %s: %w", path, err)
	}

	r, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLRecorder) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, createRunsTableSQL); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createOutputsTableSQL); err != nil {
		return fmt.Errorf("failed to create run_outputs table: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (r *SQLRecorder) Close() error {
	return r.db.Close()
}

// StartRun inserts a new run in "running" state.
func (r *SQLRecorder) StartRun(runID, topic string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}

	now := time.Now()
	_, err := r.db.ExecContext(context.Background(),
		`INSERT INTO runs (id, topic, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		runID, topic, "running", now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// RecordOutput appends one stage output to the run's transcript.
func (r *SQLRecorder) RecordOutput(runID, stage, key, value string, attempts int) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}

	ctx := context.Background()

	var sequenceNum int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence_num), 0) FROM run_outputs WHERE run_id = ?`,
		runID,
	).Scan(&sequenceNum)
	if err != nil {
		return fmt.Errorf("failed to get sequence number: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO run_outputs (run_id, stage, output_key, output_value, attempts, sequence_num, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, stage, key, value, attempts, sequenceNum+1, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert output: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE runs SET updated_at = ? WHERE id = ?`,
		time.Now(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run timestamp: %w", err)
	}
	return nil
}

// FinishRun sets the run's terminal status.
func (r *SQLRecorder) FinishRun(runID, status string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}

	_, err := r.db.ExecContext(context.Background(),
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	return nil
}

// Runs returns all persisted runs, most recently updated first.
func (r *SQLRecorder) Runs() ([]RunRecord, error) {
	rows, err := r.db.QueryContext(context.Background(),
		`SELECT id, topic, status, created_at, updated_at FROM runs ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.Topic, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// Outputs returns a run's stage outputs in the order they were recorded.
func (r *SQLRecorder) Outputs(runID string) ([]OutputRecord, error) {
	rows, err := r.db.QueryContext(context.Background(),
		`SELECT run_id, stage, output_key, output_value, attempts, created_at
FROM run_outputs WHERE run_id = ? ORDER BY sequence_num ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query outputs: %w", err)
	}
	defer rows.Close()

	var outputs []OutputRecord
	for rows.Next() {
		var rec OutputRecord
		if err := rows.Scan(&rec.RunID, &rec.Stage, &rec.Key, &rec.Value, &rec.Attempts, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan output: %w", err)
		}
		outputs = append(outputs, rec)
	}
	return outputs, rows.Err()
}

// Verify interface compliance at compile time
var _ pipeline.Recorder = (*SQLRecorder)(nil)
