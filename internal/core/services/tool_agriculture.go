package services

import (
	"context"
	"fmt"

	"github.com/manthysbr/samarth/internal/core/domain"
)

// maxTrendYears caps the inclusive year range of a production trend.
const maxTrendYears = 200

// Agriculture handles get_local_agriculture_data: a single crop total when a
// crop is given, the top crops otherwise.
func (t *DataTools) Agriculture(ctx context.Context, args domain.AgricultureArgs) domain.ToolResult {
	rows, err := t.crops.CountRows(ctx, args.State, args.Year)
	if err != nil {
		return t.datasetError(err)
	}
	if rows == 0 {
		return domain.NewToolError(fmt.Sprintf("No agriculture data found for %s in %d.", args.State, args.Year), t.cropSource)
	}

	if args.Crop != "" {
		total, matched, err := t.crops.CropTotal(ctx, args.State, args.Year, args.Crop)
		if err != nil {
			return t.datasetError(err)
		}
		if matched == 0 {
			return domain.NewToolError(
				fmt.Sprintf("No data found for crop '%s' in %s in %d.", args.Crop, args.State, args.Year),
				t.cropSource)
		}
		return domain.ToolResult{
			"state":                   args.State,
			"year":                    args.Year,
			"crop":                    args.Crop,
			"total_production_tonnes": round2(total),
			"source":                  t.cropSource,
		}
	}

	limit := args.TopN
	if limit <= 0 {
		limit = domain.DefaultTopN
	}
	top, err := t.crops.TopCrops(ctx, args.State, args.Year, limit)
	if err != nil {
		return t.datasetError(err)
	}
	crops := make([]domain.CropTotal, len(top))
	for i, c := range top {
		crops[i] = domain.CropTotal{Crop: c.Crop, ProductionTonnes: round2(c.ProductionTonnes)}
	}
	return domain.ToolResult{
		"state":     args.State,
		"year":      args.Year,
		"top_crops": crops,
		"source":    t.cropSource,
	}
}

// District handles get_district_production.
func (t *DataTools) District(ctx context.Context, args domain.DistrictArgs) domain.ToolResult {
	hasDistricts, err := t.crops.HasDistricts(ctx)
	if err != nil {
		return t.datasetError(err)
	}
	if !hasDistricts {
		return domain.NewToolError("District column not found in CSV.", t.cropSource)
	}

	ascending := args.SortOrder == domain.SortAscending
	totals, err := t.crops.DistrictTotals(ctx, args.State, args.Crop, args.Year, ascending)
	if err != nil {
		return t.datasetError(err)
	}
	if len(totals) == 0 {
		return domain.NewToolError(fmt.Sprintf("No data found for %s in %s in %d.", args.Crop, args.State, args.Year), t.cropSource)
	}

	label := "highest_production_district"
	if ascending {
		label = "lowest_production_district"
	}
	return domain.ToolResult{
		"state": args.State,
		"year":  args.Year,
		"crop":  args.Crop,
		label: domain.DistrictTotal{
			District:         totals[0].District,
			ProductionTonnes: round2(totals[0].ProductionTonnes),
		},
		"source": t.cropSource,
	}
}

// ProductionTrend handles get_production_trend. Every year of the inclusive
// range gets an entry; years without rows report zero.
func (t *DataTools) ProductionTrend(ctx context.Context, args domain.ProductionTrendArgs) domain.ToolResult {
	// The width is taken in uint64 so extreme years cannot wrap around.
	if args.StartYear <= args.EndYear && uint64(args.EndYear)-uint64(args.StartYear) >= maxTrendYears {
		return domain.NewToolError(
			fmt.Sprintf("Year range %d-%d is too large. Request at most %d years.", args.StartYear, args.EndYear, maxTrendYears),
			t.cropSource)
	}

	trend := []map[string]any{}
	if args.StartYear <= args.EndYear {
		width := args.EndYear - args.StartYear
		trend = make([]map[string]any, 0, width+1)
		totals, err := t.crops.YearlyTotals(ctx, args.State, args.Crop, args.StartYear, args.EndYear)
		if err != nil {
			return t.datasetError(err)
		}
		// Offsets keep the loop finite when EndYear is the largest int.
		for i := 0; i <= width; i++ {
			year := args.StartYear + i
			trend = append(trend, map[string]any{"year": year, "production_tonnes": round2(totals[year])})
		}
	}

	return domain.ToolResult{
		"state":  args.State,
		"crop":   args.Crop,
		"trend":  trend,
		"source": t.cropSource,
	}
}

func (t *DataTools) datasetError(err error) domain.ToolResult {
	t.logger.Warn("crop dataset query failed", "error", err)
	return domain.NewToolError(fmt.Sprintf("Unexpected error while reading CSV: %v", err), t.cropSource)
}
