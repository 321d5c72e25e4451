package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/manthysbr/samarth/internal/core/domain"
)

const defaultTraceListLimit = 50

// SaveTrace persists a finished trace and all its spans.
func (r *TraceRepository) SaveTrace(ctx context.Context, trace *domain.Trace) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO traces (id, query, status, output, steps, start_time, end_time, duration_ms, span_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status      = excluded.status,
			output      = excluded.output,
			steps       = excluded.steps,
			end_time    = excluded.end_time,
			duration_ms = excluded.duration_ms,
			span_count  = excluded.span_count`,
		string(trace.ID),
		trace.Query,
		string(trace.Status),
		trace.Output,
		trace.Steps,
		trace.StartTime.UTC(),
		utcPtr(trace.EndTime),
		trace.DurationMs,
		trace.SpanCount,
	)
	if err != nil {
		return fmt.Errorf("upsert trace: %w", err)
	}

	for _, span := range trace.Spans {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO spans (id, query_id, step, name, kind, status, input, output, error, start_time, end_time, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				status      = excluded.status,
				output      = excluded.output,
				error       = excluded.error,
				end_time    = excluded.end_time,
				duration_ms = excluded.duration_ms`,
			string(span.ID),
			string(trace.ID),
			span.Step,
			span.Name,
			string(span.Kind),
			string(span.Status),
			span.Input,
			span.Output,
			span.Error,
			span.StartTime.UTC(),
			utcPtr(span.EndTime),
			span.DurationMs,
		)
		if err != nil {
			return fmt.Errorf("upsert span %s: %w", span.ID, err)
		}
	}

	return tx.Commit()
}

// ListTraces returns summaries of the most recent traces, newest first.
func (r *TraceRepository) ListTraces(ctx context.Context, limit int) ([]domain.TraceSummary, error) {
	if limit <= 0 {
		limit = defaultTraceListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, query, status, steps, start_time, duration_ms, span_count
		FROM traces
		ORDER BY start_time DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list traces: %w", err)
	}
	defer rows.Close()

	out := []domain.TraceSummary{}
	for rows.Next() {
		var (
			s          domain.TraceSummary
			id, status string
		)
		if err := rows.Scan(&id, &s.Query, &status, &s.Steps, &s.StartTime, &s.DurationMs, &s.SpanCount); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		s.ID = domain.QueryID(id)
		s.Status = domain.SpanStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetTrace returns a full trace with its spans.
func (r *TraceRepository) GetTrace(ctx context.Context, id domain.QueryID) (*domain.Trace, error) {
	var (
		t      domain.Trace
		status string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT query, status, output, steps, start_time, end_time, duration_ms, span_count
		FROM traces WHERE id = ?`, string(id),
	).Scan(&t.Query, &status, &t.Output, &t.Steps, &t.StartTime, &t.EndTime, &t.DurationMs, &t.SpanCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTraceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get trace: %w", err)
	}
	t.ID = id
	t.Status = domain.SpanStatus(status)

	spans, err := r.loadSpans(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Spans = spans
	return &t, nil
}

func (r *TraceRepository) loadSpans(ctx context.Context, id domain.QueryID) ([]domain.Span, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, step, name, kind, status, input, output, error, start_time, end_time, duration_ms
		FROM spans WHERE query_id = ?
		ORDER BY step ASC, start_time ASC`, string(id))
	if err != nil {
		return nil, fmt.Errorf("load spans: %w", err)
	}
	defer rows.Close()

	var out []domain.Span
	for rows.Next() {
		var (
			s                    domain.Span
			spanID, kind, status string
		)
		err := rows.Scan(&spanID, &s.Step, &s.Name, &kind, &status,
			&s.Input, &s.Output, &s.Error, &s.StartTime, &s.EndTime, &s.DurationMs)
		if err != nil {
			return nil, fmt.Errorf("scan span: %w", err)
		}
		s.ID = domain.SpanID(spanID)
		s.QueryID = id
		s.Kind = domain.SpanKind(kind)
		s.Status = domain.SpanStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
