package domain

import (
	"strings"
)

// Decision is the parsed output of one reasoning step.
// It is either a FinalAnswer or a ToolCall; no other variants exist.
type Decision interface {
	isDecision()
}

// FinalAnswer ends the loop with text for the user.
type FinalAnswer struct {
	Text string `json:"text"`
}

// ToolCall asks the orchestrator to run exactly one tool.
type ToolCall struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

func (FinalAnswer) isDecision() {}
func (ToolCall) isDecision()    {}

// HistoryRole labels a transcript entry
type HistoryRole string

const (
	RoleToolCall   HistoryRole = "assistant (tool call)"
	RoleToolOutput HistoryRole = "tool_output"
)

// EmptyHistory is rendered in place of the transcript before the first step.
const EmptyHistory = "No history yet."

// HistoryEntry is one line of the per-query transcript.
type HistoryEntry struct {
	Role    HistoryRole `json:"role"`
	Content string      `json:"content"`
}

// History is the ordered transcript of one query. It is append-only and is
// discarded when the query ends.
type History struct {
	entries []HistoryEntry
}

// Append adds an entry at the end of the transcript.
func (h *History) Append(role HistoryRole, content string) {
	h.entries = append(h.entries, HistoryEntry{Role: role, Content: content})
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the transcript.
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Format renders the transcript as role/content lines for the prompt.
func (h *History) Format() string {
	if len(h.entries) == 0 {
		return EmptyHistory
	}
	lines := make([]string, 0, len(h.entries))
	for _, e := range h.entries {
		lines = append(lines, "Role: "+string(e.Role)+"\nContent: "+e.Content)
	}
	return strings.Join(lines, "\n")
}

// Outcome is the terminal result of one agent run: AnswerOutcome or ErrorOutcome.
type Outcome interface {
	isOutcome()
}

// AnswerOutcome carries the final answer text.
type AnswerOutcome struct {
	QueryID QueryID `json:"query_id"`
	Text    string  `json:"text"`
	Steps   int     `json:"steps"`
}

// ErrorOutcome carries a user-facing diagnostic. Cause is one of
// ErrReasoningTransport or ErrStepBudgetExceeded.
type ErrorOutcome struct {
	QueryID QueryID `json:"query_id"`
	Message string  `json:"message"`
	Steps   int     `json:"steps"`
	Cause   error   `json:"-"`
}

func (AnswerOutcome) isOutcome() {}
func (ErrorOutcome) isOutcome()  {}

func (e ErrorOutcome) Error() string { return e.Message }
func (e ErrorOutcome) Unwrap() error { return e.Cause }
