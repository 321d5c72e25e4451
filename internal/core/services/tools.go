package services

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/manthysbr/samarth/internal/core/domain"
	"github.com/manthysbr/samarth/internal/core/ports"
)

// RainfallSourceName is the provenance string for rainfall results.
func RainfallSourceName(apiURL string) string {
	return "data.gov.in (Rainfall 1901-2017): " + apiURL
}

// CropSourceName is the provenance string for crop production results.
func CropSourceName(csvPath string) string {
	return "data.gov.in (Crop Production): " + csvPath
}

// DataTools implements the handlers behind the registry.
type DataTools struct {
	logger         *slog.Logger
	crops          ports.CropRepository
	rainfall       ports.RainfallSource
	cropSource     string
	rainfallSource string
}

// NewDataTools creates the tool handlers over the two data providers
func NewDataTools(logger *slog.Logger, crops ports.CropRepository, rainfall ports.RainfallSource, cropSource, rainfallSource string) *DataTools {
	return &DataTools{
		logger:         logger,
		crops:          crops,
		rainfall:       rainfall,
		cropSource:     cropSource,
		rainfallSource: rainfallSource,
	}
}

// NewToolRegistry builds the fixed tool set, in catalog order.
func NewToolRegistry(t *DataTools) (*domain.ToolRegistry, error) {
	minTopN := 1

	rainfall, err := domain.NewTool(
		"Get total/avg rainfall for a *single state* and *single year*. (Data 1901-2017 ONLY)",
		[]domain.ToolParam{
			{Name: "state", Type: domain.ParamString, Required: true},
			{Name: "year", Type: domain.ParamInteger, Required: true},
		},
		t.LiveRainfall,
	)
	if err != nil {
		return nil, err
	}

	agriculture, err := domain.NewTool(
		"Get agriculture data for a *single state* and *single year*. Provide 'crop' to get its total, or 'top_n' to get a list of top crops.",
		[]domain.ToolParam{
			{Name: "state", Type: domain.ParamString, Required: true},
			{Name: "year", Type: domain.ParamInteger, Required: true},
			{Name: "crop", Type: domain.ParamString},
			{Name: "top_n", Type: domain.ParamInteger, Minimum: &minTopN, Note: fmt.Sprintf("optional, default %d", domain.DefaultTopN)},
		},
		t.Agriculture,
	)
	if err != nil {
		return nil, err
	}

	district, err := domain.NewTool(
		"Finds the district with the highest ('desc') or lowest ('asc') production for a *specific crop*, *state*, and *year*.",
		[]domain.ToolParam{
			{Name: "state", Type: domain.ParamString, Required: true},
			{Name: "crop", Type: domain.ParamString, Required: true},
			{Name: "year", Type: domain.ParamInteger, Required: true},
			{Name: "sort_order", Type: domain.ParamString, Note: "'desc' or 'asc', default 'desc'", Enum: []string{domain.SortDescending, domain.SortAscending}},
		},
		t.District,
	)
	if err != nil {
		return nil, err
	}

	productionTrend, err := domain.NewTool(
		"Get a time-series list of production for *one crop* in *one state* over a *range of years*.",
		[]domain.ToolParam{
			{Name: "state", Type: domain.ParamString, Required: true},
			{Name: "crop", Type: domain.ParamString, Required: true},
			{Name: "start_year", Type: domain.ParamInteger, Required: true},
			{Name: "end_year", Type: domain.ParamInteger, Required: true},
		},
		t.ProductionTrend,
	)
	if err != nil {
		return nil, err
	}

	rainfallTrend, err := domain.NewTool(
		"Get a time-series list of total rainfall for *one state* over a *range of years*. (Data 1901-2017 ONLY)",
		[]domain.ToolParam{
			{Name: "state", Type: domain.ParamString, Required: true},
			{Name: "start_year", Type: domain.ParamInteger, Required: true},
			{Name: "end_year", Type: domain.ParamInteger, Required: true},
		},
		t.RainfallTrend,
	)
	if err != nil {
		return nil, err
	}

	return domain.NewToolRegistry(rainfall, agriculture, district, productionTrend, rainfallTrend)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
