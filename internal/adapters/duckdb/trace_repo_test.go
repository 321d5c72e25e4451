package duckdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manthysbr/samarth/internal/core/domain"
)

func sampleTrace(id string, start time.Time) *domain.Trace {
	end := start.Add(1500 * time.Millisecond)
	spanEnd := start.Add(time.Second)
	return &domain.Trace{
		ID:         domain.QueryID(id),
		Query:      "rainfall in Kerala 2001",
		Status:     domain.SpanStatusOK,
		Output:     "It rained 3000 mm.",
		Steps:      2,
		StartTime:  start,
		EndTime:    &end,
		DurationMs: 1500,
		SpanCount:  2,
		Spans: []domain.Span{
			{ID: domain.SpanID(id + "-s1"), QueryID: domain.QueryID(id), Step: 1, Name: "llm.generate", Kind: domain.SpanKindReason,
				Status: domain.SpanStatusOK, Output: `{"tool": "get_live_rainfall_data"}`, StartTime: start, EndTime: &spanEnd, DurationMs: 1000},
			{ID: domain.SpanID(id + "-s2"), QueryID: domain.QueryID(id), Step: 1, Name: "get_live_rainfall_data", Kind: domain.SpanKindTool,
				Status: domain.SpanStatusError, Error: "No rainfall records returned by API.", StartTime: spanEnd},
		},
	}
}

func TestTraceRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo, err := NewTraceRepository(ctx, "")
	require.NoError(t, err)
	defer repo.Close()

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveTrace(ctx, sampleTrace("q1", start)))

	got, err := repo.GetTrace(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "rainfall in Kerala 2001", got.Query)
	assert.Equal(t, domain.SpanStatusOK, got.Status)
	assert.Equal(t, 2, got.Steps)
	assert.True(t, start.Equal(got.StartTime))
	require.NotNil(t, got.EndTime)
	require.Len(t, got.Spans, 2)
	assert.Equal(t, domain.SpanKindReason, got.Spans[0].Kind)
	assert.Equal(t, "No rainfall records returned by API.", got.Spans[1].Error)
	assert.Nil(t, got.Spans[1].EndTime)

	_, err = repo.GetTrace(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTraceNotFound)
}

func TestTraceRepository_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	repo, err := NewTraceRepository(ctx, filepath.Join(t.TempDir(), "traces.db"))
	require.NoError(t, err)
	defer repo.Close()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.SaveTrace(ctx, sampleTrace(id, base.Add(time.Duration(i)*time.Minute))))
	}

	updated := sampleTrace("a", base)
	updated.Status = domain.SpanStatusError
	updated.Output = "step budget"
	require.NoError(t, repo.SaveTrace(ctx, updated))

	list, err := repo.ListTraces(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.QueryID("c"), list[0].ID)
	assert.Equal(t, domain.QueryID("b"), list[1].ID)

	all, err := repo.ListTraces(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.SpanStatusError, all[2].Status)
}
