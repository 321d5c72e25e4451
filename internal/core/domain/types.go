package domain

import (
	"context"

	"github.com/google/uuid"
)

// LLMProvider defines the interface for the reasoning engine.
// It receives a fully composed prompt and returns the raw model text.
type LLMProvider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// QueryID identifies a single agent run and its trace.
type QueryID string

// NewQueryID generates a random query identifier
func NewQueryID() QueryID {
	return QueryID(uuid.NewString())
}
