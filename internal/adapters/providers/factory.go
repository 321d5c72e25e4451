package providers

import (
	"fmt"
	"os"
	"strings"

	"github.com/manthysbr/samarth/internal/adapters/llm"
	"github.com/manthysbr/samarth/internal/config"
	"github.com/manthysbr/samarth/internal/core/domain"
)

// Build creates the reasoning engine from configuration.
// It hides local/remote provider selection from callers.
func Build(cfg config.LLMConfig) (domain.LLMProvider, error) {
	params := llm.Params{
		Model:       strings.TrimSpace(cfg.Model),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	apiKey := strings.TrimSpace(cfg.APIKey)

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", config.ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("llm api_key is required for provider openai")
		}
		return llm.NewOpenAIProvider(baseURL, apiKey, params), nil
	case config.ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("llm api_key is required for provider anthropic")
		}
		return llm.NewAnthropicProvider(baseURL, apiKey, params), nil
	case config.ProviderOllama:
		if baseURL == "" {
			baseURL = strings.TrimSpace(os.Getenv("OLLAMA_HOST"))
		}
		return llm.NewOllamaProvider(baseURL, params)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
