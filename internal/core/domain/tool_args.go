package domain

// ToolName identifies a tool in the registry and in model output.
type ToolName string

const (
	ToolLiveRainfall    ToolName = "get_live_rainfall_data"
	ToolAgriculture     ToolName = "get_local_agriculture_data"
	ToolDistrict        ToolName = "get_district_production"
	ToolProductionTrend ToolName = "get_production_trend"
	ToolRainfallTrend   ToolName = "get_rainfall_trend"
)

const (
	DefaultTopN    = 5
	SortDescending = "desc"
	SortAscending  = "asc"
)

// ToolArgs is the closed set of argument variants, one per tool.
// Adding a tool means adding a variant here.
type ToolArgs interface {
	ToolName() ToolName
	isToolArgs()
}

// RainfallArgs selects one state and one year of rainfall.
type RainfallArgs struct {
	State string `json:"state"`
	Year  int    `json:"year"`
}

// AgricultureArgs selects crop production for one state and year.
// Without Crop the top TopN crops are returned.
type AgricultureArgs struct {
	State string `json:"state"`
	Year  int    `json:"year"`
	Crop  string `json:"crop,omitempty"`
	TopN  int    `json:"top_n,omitempty"`
}

// DistrictArgs asks for the highest or lowest producing district.
type DistrictArgs struct {
	State     string `json:"state"`
	Crop      string `json:"crop"`
	Year      int    `json:"year"`
	SortOrder string `json:"sort_order,omitempty"`
}

// ProductionTrendArgs asks for yearly production of one crop.
type ProductionTrendArgs struct {
	State     string `json:"state"`
	Crop      string `json:"crop"`
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year"`
}

// RainfallTrendArgs asks for yearly rainfall totals.
type RainfallTrendArgs struct {
	State     string `json:"state"`
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year"`
}

func (RainfallArgs) ToolName() ToolName        { return ToolLiveRainfall }
func (AgricultureArgs) ToolName() ToolName     { return ToolAgriculture }
func (DistrictArgs) ToolName() ToolName        { return ToolDistrict }
func (ProductionTrendArgs) ToolName() ToolName { return ToolProductionTrend }
func (RainfallTrendArgs) ToolName() ToolName   { return ToolRainfallTrend }

func (RainfallArgs) isToolArgs()        {}
func (AgricultureArgs) isToolArgs()     {}
func (DistrictArgs) isToolArgs()        {}
func (ProductionTrendArgs) isToolArgs() {}
func (RainfallTrendArgs) isToolArgs()   {}
