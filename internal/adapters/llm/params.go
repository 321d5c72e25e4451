package llm

import "time"

// Params are the generation settings shared by every provider.
type Params struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

const (
	DefaultMaxTokens = 1500
	DefaultTimeout   = 60 * time.Second
)

func (p Params) withDefaults() Params {
	if p.MaxTokens <= 0 {
		p.MaxTokens = DefaultMaxTokens
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	return p
}
