package ports

import (
	"context"

	"github.com/manthysbr/samarth/internal/core/domain"
)

// CropRepository abstracts the crop production dataset (CSV loaded into DuckDB).
// State and crop filters are case-insensitive substring matches.
type CropRepository interface {
	// CountRows returns how many rows match state and year.
	CountRows(ctx context.Context, state string, year int) (int, error)

	// CropTotal sums production for a crop in a state and year.
	// rows is zero when nothing matched.
	CropTotal(ctx context.Context, state string, year int, crop string) (total float64, rows int, err error)

	// TopCrops returns the crops with the highest summed production.
	TopCrops(ctx context.Context, state string, year int, limit int) ([]domain.CropTotal, error)

	// HasDistricts reports whether the dataset carries a district column.
	HasDistricts(ctx context.Context) (bool, error)

	// DistrictTotals sums production per district, sorted by production.
	DistrictTotals(ctx context.Context, state, crop string, year int, ascending bool) ([]domain.DistrictTotal, error)

	// YearlyTotals sums production per year in [startYear, endYear].
	// Years without rows are absent from the map.
	YearlyTotals(ctx context.Context, state, crop string, startYear, endYear int) (map[int]float64, error)
}

// RainfallSource abstracts the subdivision rainfall API.
type RainfallSource interface {
	// Records fetches all rainfall rows. Implementations bound the call with a timeout.
	Records(ctx context.Context) ([]domain.RainfallRecord, error)
}

// TraceStore persists finished query traces.
type TraceStore interface {
	SaveTrace(ctx context.Context, trace *domain.Trace) error
	// ListTraces returns summaries, newest first.
	ListTraces(ctx context.Context, limit int) ([]domain.TraceSummary, error)
	// GetTrace returns domain.ErrTraceNotFound for an unknown id.
	GetTrace(ctx context.Context, id domain.QueryID) (*domain.Trace, error)
}
