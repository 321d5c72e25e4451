package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrReasoningTransport means the reasoning engine could not be reached.
	// It is the only error that aborts a query.
	ErrReasoningTransport = errors.New("reasoning engine call failed")
	// ErrDecisionParse means the model output was neither a final answer nor a tool call.
	ErrDecisionParse = errors.New("could not parse decision")
	// ErrUnknownTool means the model named a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrToolExecution means binding or running a tool failed.
	ErrToolExecution = errors.New("tool execution failed")
	// ErrStepBudgetExceeded means the loop ran out of steps.
	ErrStepBudgetExceeded = errors.New("step budget exceeded")
)

// ParseError keeps the raw model output that could not be classified.
type ParseError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse JSON from LLM response (%s): %v", e.Reason, e.Err)
	}
	return "failed to parse JSON from LLM response: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrDecisionParse }

// ToolError wraps a binding or execution failure of a registered tool.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

func (e *ToolError) Is(target error) bool { return target == ErrToolExecution }
