package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateRun records the start of a synthesis run and returns its ID
func (db *DB) CreateRun(ctx context.Context, start, end time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO synthesis_runs (range_start, range_end, status)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		start, end, RunStatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a run as completed with its outcome
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, outcome RunOutcome) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE synthesis_runs
		 SET status = $1, insights = $2, created = $3, updated = $4, deleted = $5, completed_at = NOW()
		 WHERE id = $6`,
		RunStatusCompleted, outcome.Insights, outcome.Created, outcome.Updated, outcome.Deleted, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// FailRun marks a run as failed
func (db *DB) FailRun(ctx context.Context, runID uuid.UUID, message string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE synthesis_runs SET status = $1, error_message = $2, completed_at = NOW() WHERE id = $3`,
		RunStatusFailed, message, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}

const runColumns = `id, range_start, range_end, status, insights, created, updated, deleted,
	error_message, started_at, completed_at`

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.RangeStart, &run.RangeEnd, &run.Status, &run.Insights,
		&run.Created, &run.Updated, &run.Deleted, &run.ErrorMessage, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM synthesis_runs WHERE id = $1`, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves recent runs, newest first
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+runColumns+` FROM synthesis_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}
