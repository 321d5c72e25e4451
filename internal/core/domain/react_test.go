package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_Format(t *testing.T) {
	var h History
	assert.Equal(t, EmptyHistory, h.Format())

	h.Append(RoleToolCall, `{"tool": "get_live_rainfall_data", "args": {"state": "Kerala", "year": 2001}}`)
	h.Append(RoleToolOutput, `{"error":"boom","source":"s"}`)

	assert.Equal(t, 2, h.Len())
	assert.Equal(t,
		"Role: assistant (tool call)\nContent: {\"tool\": \"get_live_rainfall_data\", \"args\": {\"state\": \"Kerala\", \"year\": 2001}}\n"+
			"Role: tool_output\nContent: {\"error\":\"boom\",\"source\":\"s\"}",
		h.Format())

	entries := h.Entries()
	entries[0].Content = "mutated"
	assert.NotEqual(t, "mutated", h.Entries()[0].Content)
}

func TestErrorOutcome_Unwrap(t *testing.T) {
	o := ErrorOutcome{Message: "too complex", Cause: ErrStepBudgetExceeded}
	assert.Equal(t, "too complex", o.Error())
	assert.True(t, errors.Is(o, ErrStepBudgetExceeded))
}

func TestParseError(t *testing.T) {
	err := &ParseError{Raw: "nope", Reason: "no JSON object found"}
	assert.ErrorIs(t, err, ErrDecisionParse)
	assert.Contains(t, err.Error(), "no JSON object found")
}
