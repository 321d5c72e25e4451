package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/manthysbr/samarth/internal/core/ports"
)

// TraceRepository stores finished query traces in a DuckDB database file.
type TraceRepository struct {
	db *sql.DB
}

// Ensure TraceRepository implements TraceStore
var _ ports.TraceStore = (*TraceRepository)(nil)

// NewTraceRepository opens (or creates) the database at path and its schema.
// An empty path keeps everything in memory.
func NewTraceRepository(ctx context.Context, path string) (*TraceRepository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open trace db: %w", err)
	}
	r := &TraceRepository{db: db}
	if err := r.migrate(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return r, nil
}

func (r *TraceRepository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS traces (
			id          VARCHAR PRIMARY KEY,
			query       VARCHAR,
			status      VARCHAR,
			output      VARCHAR,
			steps       INTEGER,
			start_time  TIMESTAMP,
			end_time    TIMESTAMP,
			duration_ms BIGINT,
			span_count  INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS spans (
			id          VARCHAR PRIMARY KEY,
			query_id    VARCHAR,
			step        INTEGER,
			name        VARCHAR,
			kind        VARCHAR,
			status      VARCHAR,
			input       VARCHAR,
			output      VARCHAR,
			error       VARCHAR,
			start_time  TIMESTAMP,
			end_time    TIMESTAMP,
			duration_ms BIGINT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate trace db: %w", err)
		}
	}
	return nil
}

// Close closes the database
func (r *TraceRepository) Close() error {
	return r.db.Close()
}
