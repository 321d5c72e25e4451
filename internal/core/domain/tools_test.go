package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rainfallTool(t *testing.T, handler func(ctx context.Context, args RainfallArgs) ToolResult) *Tool {
	t.Helper()
	tool, err := NewTool(
		"Get rainfall for a single state and year.",
		[]ToolParam{
			{Name: "state", Type: ParamString, Required: true},
			{Name: "year", Type: ParamInteger, Required: true},
		},
		handler,
	)
	require.NoError(t, err)
	return tool
}

func districtTool(t *testing.T) *Tool {
	t.Helper()
	tool, err := NewTool(
		"Highest or lowest producing district.",
		[]ToolParam{
			{Name: "state", Type: ParamString, Required: true},
			{Name: "crop", Type: ParamString, Required: true},
			{Name: "year", Type: ParamInteger, Required: true},
			{Name: "sort_order", Type: ParamString, Note: "'desc' or 'asc', default 'desc'", Enum: []string{SortDescending, SortAscending}},
		},
		func(ctx context.Context, args DistrictArgs) ToolResult {
			return ToolResult{"sort_order": args.SortOrder}
		},
	)
	require.NoError(t, err)
	return tool
}

func TestNewTool_NameComesFromArgs(t *testing.T) {
	tool := rainfallTool(t, func(ctx context.Context, args RainfallArgs) ToolResult { return nil })
	assert.Equal(t, ToolLiveRainfall, tool.Name)

	_, err := NewTool[RainfallArgs]("nil handler", nil, nil)
	assert.Error(t, err)
}

func TestTool_Bind(t *testing.T) {
	tool := districtTool(t)

	tests := []struct {
		name    string
		raw     map[string]any
		want    ToolArgs
		wantErr string
	}{
		{
			name: "valid",
			raw:  map[string]any{"state": "Punjab", "crop": "Rice", "year": float64(2010), "sort_order": "asc"},
			want: DistrictArgs{State: "Punjab", Crop: "Rice", Year: 2010, SortOrder: "asc"},
		},
		{
			name: "optional omitted",
			raw:  map[string]any{"state": "Punjab", "crop": "Rice", "year": float64(2010)},
			want: DistrictArgs{State: "Punjab", Crop: "Rice", Year: 2010},
		},
		{
			name: "optional null",
			raw:  map[string]any{"state": "Punjab", "crop": "Rice", "year": float64(2010), "sort_order": nil},
			want: DistrictArgs{State: "Punjab", Crop: "Rice", Year: 2010},
		},
		{
			name:    "required null",
			raw:     map[string]any{"state": nil, "crop": "Rice", "year": float64(2010)},
			wantErr: "state",
		},
		{
			name:    "missing required",
			raw:     map[string]any{"state": "Punjab", "crop": "Rice"},
			wantErr: "year",
		},
		{
			name:    "wrong type",
			raw:     map[string]any{"state": "Punjab", "crop": "Rice", "year": "2010"},
			wantErr: "year",
		},
		{
			name:    "fractional integer",
			raw:     map[string]any{"state": "Punjab", "crop": "Rice", "year": 2010.5},
			wantErr: "year",
		},
		{
			name:    "unknown argument",
			raw:     map[string]any{"state": "Punjab", "crop": "Rice", "year": float64(2010), "district": "Ludhiana"},
			wantErr: "district",
		},
		{
			name:    "enum violation",
			raw:     map[string]any{"state": "Punjab", "crop": "Rice", "year": float64(2010), "sort_order": "up"},
			wantErr: "sort_order",
		},
		{
			name:    "nil arguments",
			raw:     nil,
			wantErr: "state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := tool.Bind(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrToolExecution)
				assert.Contains(t, err.Error(), tt.wantErr)

				var toolErr *ToolError
				require.True(t, errors.As(err, &toolErr))
				assert.Equal(t, string(ToolDistrict), toolErr.Tool)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, args)
		})
	}
}

func TestTool_JSONSchema(t *testing.T) {
	minimum := 1
	tool, err := NewTool(
		"agri",
		[]ToolParam{
			{Name: "state", Type: ParamString, Required: true},
			{Name: "top_n", Type: ParamInteger, Minimum: &minimum},
		},
		func(ctx context.Context, args AgricultureArgs) ToolResult { return nil },
	)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"state": map[string]any{"type": "string"},
			"top_n": map[string]any{"type": []any{"integer", "null"}, "minimum": 1},
		},
		"additionalProperties": false,
		"required":             []string{"state"},
	}, tool.JSONSchema())

	_, err = tool.Bind(map[string]any{"state": "Goa", "top_n": float64(0)})
	assert.ErrorIs(t, err, ErrToolExecution)

	args, err := tool.Bind(map[string]any{"state": "Goa", "top_n": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, AgricultureArgs{State: "Goa", TopN: 1}, args)
}

func TestTool_Invoke(t *testing.T) {
	var got RainfallArgs
	tool := rainfallTool(t, func(ctx context.Context, args RainfallArgs) ToolResult {
		got = args
		return ToolResult{"state": args.State, "source": "test"}
	})

	result, err := tool.Invoke(context.Background(), RainfallArgs{State: "Kerala", Year: 2001})
	require.NoError(t, err)
	assert.Equal(t, "Kerala", result["state"])
	assert.Equal(t, RainfallArgs{State: "Kerala", Year: 2001}, got)

	// arguments of another tool never reach the handler
	_, err = tool.Invoke(context.Background(), DistrictArgs{State: "Kerala"})
	assert.ErrorIs(t, err, ErrToolExecution)

	_, err = tool.Invoke(context.Background(), nil)
	assert.ErrorIs(t, err, ErrToolExecution)
}

func TestTool_ArgumentSchema(t *testing.T) {
	assert.Equal(t,
		`{"state": "string", "crop": "string", "year": "integer", "sort_order": "string ('desc' or 'asc', default 'desc')"}`,
		districtTool(t).ArgumentSchema())

	tool, err := NewTool(
		"agri",
		[]ToolParam{
			{Name: "state", Type: ParamString, Required: true},
			{Name: "crop", Type: ParamString},
		},
		func(ctx context.Context, args AgricultureArgs) ToolResult { return nil },
	)
	require.NoError(t, err)
	assert.Equal(t, `{"state": "string", "crop": "string (optional)"}`, tool.ArgumentSchema())
}

func TestToolRegistry(t *testing.T) {
	rain := rainfallTool(t, func(ctx context.Context, args RainfallArgs) ToolResult { return nil })
	district := districtTool(t)

	reg, err := NewToolRegistry(rain, district)
	require.NoError(t, err)

	tool, ok := reg.Lookup("get_district_production")
	require.True(t, ok)
	assert.Same(t, district, tool)

	_, ok = reg.Lookup("get_weather")
	assert.False(t, ok)

	assert.Equal(t, []string{"get_live_rainfall_data", "get_district_production"}, reg.Names())
	assert.Len(t, reg.Tools(), 2)

	_, err = NewToolRegistry(rain, rain)
	assert.ErrorContains(t, err, "registered twice")

	_, err = NewToolRegistry(nil)
	assert.Error(t, err)
}

func TestToolRegistry_RenderDefinitions(t *testing.T) {
	rain := rainfallTool(t, func(ctx context.Context, args RainfallArgs) ToolResult { return nil })
	reg, err := NewToolRegistry(rain, districtTool(t))
	require.NoError(t, err)

	first := reg.RenderDefinitions()
	assert.Equal(t, first, reg.RenderDefinitions())

	assert.Equal(t,
		"- Tool: `get_live_rainfall_data`\n"+
			"  - Description: Get rainfall for a single state and year.\n"+
			"  - Arguments (JSON Schema): {\"state\": \"string\", \"year\": \"integer\"}\n"+
			"- Tool: `get_district_production`\n"+
			"  - Description: Highest or lowest producing district.\n"+
			"  - Arguments (JSON Schema): {\"state\": \"string\", \"crop\": \"string\", \"year\": \"integer\", \"sort_order\": \"string ('desc' or 'asc', default 'desc')\"}",
		first)
}
