// Package db provides PostgreSQL storage for the pipeline state and party run history.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied by EnsureSchema. Statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS pipeline_state (
	key        TEXT PRIMARY KEY,
	stage      TEXT NOT NULL,
	content    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS party_runs (
	id             UUID PRIMARY KEY,
	venue_name     TEXT NOT NULL,
	admitted_count INTEGER NOT NULL,
	total_rounds   INTEGER NOT NULL,
	source         TEXT NOT NULL,
	seed           BIGINT NOT NULL DEFAULT 0,
	content        JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

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

// EnsureSchema creates the tables used by this package when missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
