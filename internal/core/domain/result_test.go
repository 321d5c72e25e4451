package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolResult_Canonical(t *testing.T) {
	r := ToolResult{
		"state":     "Punjab",
		"year":      2010,
		"top_crops": []CropTotal{{Crop: "Wheat", ProductionTonnes: 1.5}},
		"source":    "data.gov.in (Crop Production): data/a&b.csv",
	}

	out, err := r.Canonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"source":"data.gov.in (Crop Production): data/a&b.csv","state":"Punjab","top_crops":[{"crop":"Wheat","production_tonnes":1.5}],"year":2010}`,
		out)

	again, err := r.Canonical()
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestToolResult_Error(t *testing.T) {
	r := NewToolError("Invalid year 1850.", "rain-src")
	msg, failed := r.ErrorMessage()
	assert.True(t, failed)
	assert.Equal(t, "Invalid year 1850.", msg)
	assert.Equal(t, "rain-src", r.Source())

	_, failed = ToolResult{"source": "x"}.ErrorMessage()
	assert.False(t, failed)
}

func TestToolResult_CanonicalRejectsUnencodable(t *testing.T) {
	_, err := ToolResult{"bad": make(chan int)}.Canonical()
	assert.Error(t, err)
}
