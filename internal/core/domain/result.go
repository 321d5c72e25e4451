package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	resultErrorKey  = "error"
	resultSourceKey = "source"
)

// ToolResult is the JSON-compatible mapping returned by a tool.
// Success results carry domain fields plus "source"; failures carry
// "error" plus "source".
type ToolResult map[string]any

// NewToolError builds a tool-domain error result
func NewToolError(message, source string) ToolResult {
	return ToolResult{resultErrorKey: message, resultSourceKey: source}
}

// ErrorMessage reports the tool-domain error, if any.
func (r ToolResult) ErrorMessage() (string, bool) {
	v, ok := r[resultErrorKey]
	if !ok {
		return "", false
	}
	msg, _ := v.(string)
	return msg, true
}

// Source returns the provenance string of the result.
func (r ToolResult) Source() string {
	s, _ := r[resultSourceKey].(string)
	return s
}

// Canonical serializes the result with sorted keys and without HTML escaping.
func (r ToolResult) Canonical() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(r)); err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// CropTotal is the summed production of one crop.
type CropTotal struct {
	Crop             string  `json:"crop"`
	ProductionTonnes float64 `json:"production_tonnes"`
}

// DistrictTotal is the summed production of one district.
type DistrictTotal struct {
	District         string  `json:"district"`
	ProductionTonnes float64 `json:"production_tonnes"`
}

// RainfallRecord is one subdivision-year row of the rainfall dataset.
// Months holds jan..dec in millimetres; missing values are zero.
type RainfallRecord struct {
	Subdivision string
	Year        int
	HasYear     bool
	Months      [12]float64
}
