package domain

import (
	"errors"
	"time"
)

// ErrTraceNotFound is returned when no trace exists for a query id.
var ErrTraceNotFound = errors.New("trace not found")

// SpanID identifies a span within a trace.
type SpanID string

// SpanKind classifies the work a span covers.
type SpanKind string

const (
	SpanKindReason SpanKind = "reason" // one reasoning engine call
	SpanKindTool   SpanKind = "tool"   // one tool dispatch
)

// SpanStatus indicates completion state of a span or trace.
type SpanStatus string

const (
	SpanStatusRunning SpanStatus = "running"
	SpanStatusOK      SpanStatus = "ok"
	SpanStatusError   SpanStatus = "error"
)

// Span is one unit of work inside a query: a reasoning call or a tool dispatch.
// Input and Output are truncated.
type Span struct {
	ID         SpanID     `json:"id"`
	QueryID    QueryID    `json:"query_id"`
	Step       int        `json:"step"`
	Name       string     `json:"name"`
	Kind       SpanKind   `json:"kind"`
	Status     SpanStatus `json:"status"`
	Input      string     `json:"input,omitempty"`
	Output     string     `json:"output,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	DurationMs int64      `json:"duration_ms"`
}

// Trace records one agent run from query to outcome.
type Trace struct {
	ID         QueryID    `json:"id"`
	Query      string     `json:"query"`
	Status     SpanStatus `json:"status"`
	Output     string     `json:"output,omitempty"`
	Steps      int        `json:"steps"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	DurationMs int64      `json:"duration_ms"`
	SpanCount  int        `json:"span_count"`
	Spans      []Span     `json:"spans,omitempty"`
}

// Summary drops the spans.
func (t *Trace) Summary() TraceSummary {
	return TraceSummary{
		ID:         t.ID,
		Query:      t.Query,
		Status:     t.Status,
		Steps:      t.Steps,
		StartTime:  t.StartTime,
		DurationMs: t.DurationMs,
		SpanCount:  t.SpanCount,
	}
}

// TraceSummary is the listing view of a trace.
type TraceSummary struct {
	ID         QueryID    `json:"id"`
	Query      string     `json:"query"`
	Status     SpanStatus `json:"status"`
	Steps      int        `json:"steps"`
	StartTime  time.Time  `json:"start_time"`
	DurationMs int64      `json:"duration_ms"`
	SpanCount  int        `json:"span_count"`
}
