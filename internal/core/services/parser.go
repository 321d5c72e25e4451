package services

import (
	"encoding/json"
	"strings"

	"github.com/manthysbr/samarth/internal/core/domain"
)

// FinalAnswerMarker prefixes a final answer in model output.
const FinalAnswerMarker = "Final Answer:"

// ParseDecision classifies raw model output as a final answer or a tool call.
//
// Text starting with the marker (after trimming) is always a final answer,
// even if it contains braces. Anything else must hold a JSON object between
// its first '{' and last '}'. When strict decoding fails, single quotes are
// replaced with double quotes and decoding is retried once. That repair
// corrupts values containing apostrophes; it is kept for models that emit
// Python-style dicts.
func ParseDecision(raw string) (domain.Decision, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, FinalAnswerMarker) {
		return domain.FinalAnswer{Text: strings.TrimSpace(strings.TrimPrefix(trimmed, FinalAnswerMarker))}, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < 0 || end < start {
		return nil, &domain.ParseError{Raw: raw, Reason: "no JSON object found"}
	}
	candidate := raw[start : end+1]

	obj, err := decodeObject(candidate)
	if err != nil {
		repaired, repairErr := decodeObject(strings.ReplaceAll(candidate, "'", `"`))
		if repairErr != nil {
			return nil, &domain.ParseError{Raw: raw, Reason: "invalid JSON", Err: err}
		}
		obj = repaired
	}

	return toolCallFromObject(raw, obj)
}

func decodeObject(text string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func toolCallFromObject(raw string, obj map[string]any) (domain.Decision, error) {
	if obj == nil {
		return nil, &domain.ParseError{Raw: raw, Reason: "JSON value is not an object"}
	}

	name, ok := obj["tool"].(string)
	if !ok {
		return nil, &domain.ParseError{Raw: raw, Reason: `missing string field "tool"`}
	}

	args := map[string]any{}
	switch v := obj["args"].(type) {
	case nil:
	case map[string]any:
		args = v
	default:
		return nil, &domain.ParseError{Raw: raw, Reason: `field "args" must be an object`}
	}

	return domain.ToolCall{Tool: name, Args: args}, nil
}
