package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

// DefaultOllamaURL is the local Ollama endpoint
const DefaultOllamaURL = "http://localhost:11434"

// OllamaProvider implements domain.LLMProvider for a local Ollama instance
type OllamaProvider struct {
	client *ollama.Client
	params Params
}

// NewOllamaProvider creates a provider for the Ollama server at baseURL
func NewOllamaProvider(baseURL string, params Params) (*OllamaProvider, error) {
	baseURL = NormalizeOllamaBaseURL(baseURL)
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	if params.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	params = params.withDefaults()

	return &OllamaProvider{
		client: ollama.NewClient(u, &http.Client{Timeout: params.Timeout}),
		params: params,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// GenerateText runs a non-streaming generate call.
func (p *OllamaProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &ollama.GenerateRequest{
		Model:  p.params.Model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": p.params.Temperature,
			"num_predict": p.params.MaxTokens,
		},
	}

	var text strings.Builder
	err := p.client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		text.WriteString(gr.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}
	return text.String(), nil
}

// NormalizeOllamaBaseURL accepts host:port or URLs ending in /api or /v1.
func NormalizeOllamaBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return DefaultOllamaURL
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/api")
	base = strings.TrimSuffix(base, "/v1")
	return base
}
