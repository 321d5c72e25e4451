package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manthysbr/samarth/internal/core/domain"
	"github.com/manthysbr/samarth/internal/core/ports"
)

const (
	DefaultMaxTraces = 500
	maxSpanText      = 2000
	persistTimeout   = 10 * time.Second
)

type spanRef struct {
	queryID domain.QueryID
	index   int
}

// TraceCollector records a trace per agent run: one span per reasoning call
// and per tool dispatch. Recent traces stay in memory as a ring; finished
// traces are also handed to the store when one is configured.
// A nil *TraceCollector records nothing.
type TraceCollector struct {
	mu        sync.RWMutex
	logger    *slog.Logger
	store     ports.TraceStore
	maxTraces int

	traces map[domain.QueryID]*domain.Trace
	order  []domain.QueryID
	spans  map[domain.SpanID]spanRef

	persisting sync.WaitGroup
}

// NewTraceCollector creates a collector. store may be nil.
func NewTraceCollector(logger *slog.Logger, store ports.TraceStore, maxTraces int) *TraceCollector {
	if maxTraces <= 0 {
		maxTraces = DefaultMaxTraces
	}
	return &TraceCollector{
		logger:    logger,
		store:     store,
		maxTraces: maxTraces,
		traces:    make(map[domain.QueryID]*domain.Trace),
		spans:     make(map[domain.SpanID]spanRef),
	}
}

// StartTrace opens the trace of one query.
func (tc *TraceCollector) StartTrace(id domain.QueryID, query string) {
	if tc == nil {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.evictIfNeeded()
	tc.traces[id] = &domain.Trace{
		ID:        id,
		Query:     query,
		Status:    domain.SpanStatusRunning,
		StartTime: time.Now(),
	}
	tc.order = append(tc.order, id)
}

// EndTrace closes a trace with the run's outcome and persists it.
func (tc *TraceCollector) EndTrace(id domain.QueryID, outcome domain.Outcome) {
	if tc == nil {
		return
	}
	tc.mu.Lock()
	trace, ok := tc.traces[id]
	if !ok {
		tc.mu.Unlock()
		return
	}

	now := time.Now()
	trace.EndTime = &now
	trace.DurationMs = now.Sub(trace.StartTime).Milliseconds()
	switch o := outcome.(type) {
	case domain.AnswerOutcome:
		trace.Status = domain.SpanStatusOK
		trace.Output = truncate(o.Text, maxSpanText)
		trace.Steps = o.Steps
	case domain.ErrorOutcome:
		trace.Status = domain.SpanStatusError
		trace.Output = o.Message
		trace.Steps = o.Steps
	}

	var snapshot *domain.Trace
	if tc.store != nil {
		snapshot = copyTrace(trace)
	}
	tc.mu.Unlock()

	if snapshot == nil {
		return
	}
	tc.persisting.Add(1)
	go func() {
		defer tc.persisting.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := tc.store.SaveTrace(ctx, snapshot); err != nil {
			tc.logger.Warn("failed to persist trace", "query_id", string(id), "error", err)
		}
	}()
}

// StartSpan opens a span under a running trace. The returned id is empty
// when the trace is unknown; EndSpan ignores empty ids.
func (tc *TraceCollector) StartSpan(id domain.QueryID, step int, kind domain.SpanKind, name, input string) domain.SpanID {
	if tc == nil {
		return ""
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()

	trace, ok := tc.traces[id]
	if !ok {
		return ""
	}
	spanID := domain.SpanID(uuid.NewString())
	trace.Spans = append(trace.Spans, domain.Span{
		ID:        spanID,
		QueryID:   id,
		Step:      step,
		Name:      name,
		Kind:      kind,
		Status:    domain.SpanStatusRunning,
		Input:     truncate(input, maxSpanText),
		StartTime: time.Now(),
	})
	trace.SpanCount = len(trace.Spans)
	tc.spans[spanID] = spanRef{queryID: id, index: len(trace.Spans) - 1}
	return spanID
}

// EndSpan closes a span. A non-empty errMsg marks it failed.
func (tc *TraceCollector) EndSpan(spanID domain.SpanID, output, errMsg string) {
	if tc == nil || spanID == "" {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()

	ref, ok := tc.spans[spanID]
	if !ok {
		return
	}
	trace, ok := tc.traces[ref.queryID]
	if !ok {
		return
	}
	span := &trace.Spans[ref.index]
	now := time.Now()
	span.EndTime = &now
	span.DurationMs = now.Sub(span.StartTime).Milliseconds()
	span.Output = truncate(output, maxSpanText)
	span.Status = domain.SpanStatusOK
	if errMsg != "" {
		span.Status = domain.SpanStatusError
		span.Error = errMsg
	}
}

// ListTraces returns summaries of the traces held in memory, newest first.
func (tc *TraceCollector) ListTraces(ctx context.Context, limit int) ([]domain.TraceSummary, error) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	if limit <= 0 || limit > len(tc.order) {
		limit = len(tc.order)
	}
	out := make([]domain.TraceSummary, 0, limit)
	for i := len(tc.order) - 1; i >= 0 && len(out) < limit; i-- {
		if trace, ok := tc.traces[tc.order[i]]; ok {
			out = append(out, trace.Summary())
		}
	}
	return out, nil
}

// GetTrace returns a trace with its spans. Traces evicted from memory are
// looked up in the store.
func (tc *TraceCollector) GetTrace(ctx context.Context, id domain.QueryID) (*domain.Trace, error) {
	tc.mu.RLock()
	trace, ok := tc.traces[id]
	var out *domain.Trace
	if ok {
		out = copyTrace(trace)
	}
	tc.mu.RUnlock()

	if out != nil {
		return out, nil
	}
	if tc.store == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTraceNotFound, id)
	}
	stored, err := tc.store.GetTrace(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTraceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load trace %s: %w", id, err)
	}
	return stored, nil
}

// Wait blocks until pending trace writes have finished.
func (tc *TraceCollector) Wait() {
	if tc == nil {
		return
	}
	tc.persisting.Wait()
}

func (tc *TraceCollector) evictIfNeeded() {
	for len(tc.order) >= tc.maxTraces {
		oldest := tc.order[0]
		tc.order = tc.order[1:]
		if trace, ok := tc.traces[oldest]; ok {
			for _, span := range trace.Spans {
				delete(tc.spans, span.ID)
			}
			delete(tc.traces, oldest)
		}
	}
}

func copyTrace(t *domain.Trace) *domain.Trace {
	cp := *t
	cp.Spans = slices.Clone(t.Spans)
	return &cp
}
