package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run status values stored in pipeline_runs.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// PipelineRun is one row of the run log.
type PipelineRun struct {
	RunID        string
	Stage        string
	Status       string
	StartedAt    time.Time
	FinishedAt   time.Time // zero while running
	RowsIn       int
	RowsOut      int
	ErrorMessage string
}

// StartRun records the start of a stage and returns its run id.
func (s *Store) StartRun(ctx context.Context, stage string) (string, error) {
	runID := uuid.NewString()
	_, err := s.DB.ExecContext(ctx, `INSERT INTO pipeline_runs (run_id, stage, status, started_at) VALUES (?, ?, ?, ?)`,
		runID, stage, RunStatusRunning, formatTime(nowUTC()))
	if err != nil {
		return "", fmt.Errorf("error recording start of stage %s: %w", stage, err)
	}
	return runID, nil
}

// FinishRun marks a run as finished. A non-nil runErr marks it failed.
func (s *Store) FinishRun(ctx context.Context, runID string, rowsIn, rowsOut int, runErr error) error {
	status, message := RunStatusSucceeded, ""
	if runErr != nil {
		status, message = RunStatusFailed, runErr.Error()
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE pipeline_runs SET status = ?, finished_at = ?, rows_in = ?, rows_out = ?, error_message = ? WHERE run_id = ?`,
		status, formatTime(nowUTC()), rowsIn, rowsOut, message, runID)
	if err != nil {
		return fmt.Errorf("error recording end of run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown run id %s", runID)
	}
	return nil
}

// Runs returns the run log, oldest first.
func (s *Store) Runs(ctx context.Context) ([]PipelineRun, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT run_id, stage, status, started_at, finished_at, rows_in, rows_out, error_message FROM pipeline_runs ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying pipeline_runs: %w", err)
	}
	defer rows.Close()

	var runs []PipelineRun
	for rows.Next() {
		var r PipelineRun
		var started string
		var finished, message sql.NullString
		var rowsIn, rowsOut sql.NullInt64
		if err := rows.Scan(&r.RunID, &r.Stage, &r.Status, &started, &finished, &rowsIn, &rowsOut, &message); err != nil {
			return nil, fmt.Errorf("error scanning run row: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if finished.Valid {
			if r.FinishedAt, err = parseTime(finished.String); err != nil {
				return nil, err
			}
		}
		r.RowsIn, r.RowsOut = int(rowsIn.Int64), int(rowsOut.Int64)
		r.ErrorMessage = message.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over run rows: %w", err)
	}
	return runs, nil
}
