package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/manthysbr/samarth/internal/core/domain"
)

// Coverage of the subdivision rainfall dataset.
const (
	RainfallFirstYear = 1901
	RainfallLastYear  = 2017

	rainfallCoverageNote = "Rainfall data is limited to 1901-2017."
)

// LiveRainfall handles get_live_rainfall_data.
func (t *DataTools) LiveRainfall(ctx context.Context, args domain.RainfallArgs) domain.ToolResult {
	if args.Year < RainfallFirstYear || args.Year > RainfallLastYear {
		return domain.NewToolError(
			fmt.Sprintf("Invalid year %d. Data is only available from %d to %d.", args.Year, RainfallFirstYear, RainfallLastYear),
			t.rainfallSource)
	}

	records, err := t.rainfall.Records(ctx)
	if err != nil {
		t.logger.Warn("rainfall fetch failed", "error", err)
		return domain.NewToolError(fmt.Sprintf("Unexpected error in rainfall API: %v", err), t.rainfallSource)
	}
	return t.rainfallForYear(records, args.State, args.Year)
}

// RainfallTrend handles get_rainfall_trend. The range is clamped to the
// dataset coverage and the records are fetched once for the whole range.
func (t *DataTools) RainfallTrend(ctx context.Context, args domain.RainfallTrendArgs) domain.ToolResult {
	start := max(RainfallFirstYear, args.StartYear)
	end := min(RainfallLastYear, args.EndYear)

	trend := make([]map[string]any, 0, max(0, end-start+1))
	if start <= end {
		records, fetchErr := t.rainfall.Records(ctx)
		if fetchErr != nil {
			t.logger.Warn("rainfall fetch failed", "error", fetchErr)
		}
		for year := start; year <= end; year++ {
			var result domain.ToolResult
			if fetchErr != nil {
				result = domain.NewToolError(fmt.Sprintf("Unexpected error in rainfall API: %v", fetchErr), t.rainfallSource)
			} else {
				result = t.rainfallForYear(records, args.State, year)
			}

			if msg, failed := result.ErrorMessage(); failed {
				trend = append(trend, map[string]any{"year": year, "total_rainfall_mm": nil, "note": msg})
				continue
			}
			trend = append(trend, map[string]any{"year": year, "total_rainfall_mm": result["total_rainfall_mm"]})
		}
	}

	return domain.ToolResult{
		"state":  args.State,
		"trend":  trend,
		"note":   rainfallCoverageNote,
		"source": t.rainfallSource,
	}
}

// rainfallForYear summarizes the first record whose subdivision contains the
// state and whose year matches.
func (t *DataTools) rainfallForYear(records []domain.RainfallRecord, state string, year int) domain.ToolResult {
	if len(records) == 0 {
		return domain.NewToolError("No rainfall records returned by API.", t.rainfallSource)
	}

	needle := strings.ToLower(state)
	var available []int
	for _, rec := range records {
		if !strings.Contains(strings.ToLower(rec.Subdivision), needle) || !rec.HasYear {
			continue
		}
		if rec.Year == year {
			months := rec.Months[:]
			return domain.ToolResult{
				"state":                       state,
				"year":                        year,
				"total_rainfall_mm":           round2(floats.Sum(months)),
				"average_monthly_rainfall_mm": round2(stat.Mean(months, nil)),
				"source":                      t.rainfallSource,
			}
		}
		available = append(available, rec.Year)
	}

	slices.Sort(available)
	available = slices.Compact(available)
	return domain.NewToolError(
		fmt.Sprintf("No data for %s in %d. Available years for this state: %s", state, year, formatYears(available)),
		t.rainfallSource)
}

func formatYears(years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
