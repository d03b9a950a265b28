// Package db provides PostgreSQL storage for marketing events and synthesis runs.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS marketing_events (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    app_id            TEXT NOT NULL,
    external_event_id TEXT NOT NULL,
    event_name        TEXT NOT NULL,
    event_type        TEXT NOT NULL,
    event_description TEXT NOT NULL DEFAULT '',
    start_date_time   BIGINT NOT NULL,
    end_date_time     BIGINT NOT NULL,
    custom_properties JSONB NOT NULL DEFAULT '{}',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS marketing_events_app_external_idx
    ON marketing_events (app_id, external_event_id);

CREATE TABLE IF NOT EXISTS synthesis_runs (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    range_start   TIMESTAMPTZ NOT NULL,
    range_end     TIMESTAMPTZ NOT NULL,
    status        TEXT NOT NULL,
    insights      INT NOT NULL DEFAULT 0,
    created       INT NOT NULL DEFAULT 0,
    updated       INT NOT NULL DEFAULT 0,
    deleted       INT NOT NULL DEFAULT 0,
    error_message TEXT,
    started_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at  TIMESTAMPTZ
);
`

// EnsureSchema creates the tables used by this package if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
