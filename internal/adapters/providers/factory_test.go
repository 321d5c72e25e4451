package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manthysbr/samarth/internal/adapters/llm"
	"github.com/manthysbr/samarth/internal/config"
)

func TestBuild(t *testing.T) {
	t.Run("openai", func(t *testing.T) {
		p, err := Build(config.LLMConfig{Provider: "OpenAI", APIKey: "sk-test", Model: "gpt-4o-mini"})
		require.NoError(t, err)
		assert.IsType(t, &llm.OpenAIProvider{}, p)
	})

	t.Run("anthropic", func(t *testing.T) {
		p, err := Build(config.LLMConfig{Provider: config.ProviderAnthropic, APIKey: "ak-test"})
		require.NoError(t, err)
		assert.IsType(t, &llm.AnthropicProvider{}, p)
	})

	t.Run("ollama", func(t *testing.T) {
		p, err := Build(config.LLMConfig{Provider: config.ProviderOllama, Model: "llama3.2", BaseURL: "localhost:11434/v1"})
		require.NoError(t, err)
		assert.IsType(t, &llm.OllamaProvider{}, p)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := Build(config.LLMConfig{Provider: config.ProviderOpenAI})
		assert.ErrorContains(t, err, "api_key is required")
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := Build(config.LLMConfig{Provider: "palm"})
		assert.ErrorContains(t, err, "unsupported llm provider")
	})
}
