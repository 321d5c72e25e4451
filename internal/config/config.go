package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider names accepted in llm.provider
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Config is the full application configuration.
type Config struct {
	LLM    LLMConfig    `mapstructure:"llm" json:"llm"`
	Agent  AgentConfig  `mapstructure:"agent" json:"agent"`
	Data   DataConfig   `mapstructure:"data" json:"data"`
	Server ServerConfig `mapstructure:"server" json:"server"`
	Trace  TraceConfig  `mapstructure:"trace" json:"trace"`
	Log    LogConfig    `mapstructure:"log" json:"log"`
}

// LLMConfig selects and tunes the reasoning engine.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider" json:"provider"`
	Model       string        `mapstructure:"model" json:"model"`
	APIKey      string        `mapstructure:"api_key" json:"api_key,omitempty"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url,omitempty"`
	MaxTokens   int           `mapstructure:"max_tokens" json:"max_tokens"`
	Temperature float64       `mapstructure:"temperature" json:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
}

type AgentConfig struct {
	MaxSteps    int           `mapstructure:"max_steps" json:"max_steps"`
	ToolTimeout time.Duration `mapstructure:"tool_timeout" json:"tool_timeout"`
}

// DataConfig locates the two datasets.
type DataConfig struct {
	CSVPath         string        `mapstructure:"csv_path" json:"csv_path"`
	RainfallURL     string        `mapstructure:"rainfall_url" json:"rainfall_url"`
	APIKey          string        `mapstructure:"api_key" json:"api_key,omitempty"`
	RainfallTimeout time.Duration `mapstructure:"rainfall_timeout" json:"rainfall_timeout"`
	RainfallLimit   int           `mapstructure:"rainfall_limit" json:"rainfall_limit"`
}

type ServerConfig struct {
	Addr                 string   `mapstructure:"addr" json:"addr"`
	AllowedOrigins       []string `mapstructure:"allowed_origins" json:"allowed_origins"`
	MaxConcurrentQueries int      `mapstructure:"max_concurrent_queries" json:"max_concurrent_queries"`
}

// TraceConfig controls query traces. An empty DBPath keeps traces in memory only.
type TraceConfig struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled"`
	DBPath    string `mapstructure:"db_path" json:"db_path,omitempty"`
	MaxTraces int    `mapstructure:"max_traces" json:"max_traces"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			MaxTokens:   1500,
			Temperature: 0,
			Timeout:     60 * time.Second,
		},
		Agent: AgentConfig{
			MaxSteps:    8,
			ToolTimeout: 30 * time.Second,
		},
		Data: DataConfig{
			CSVPath:         "data/agriculture_production.csv",
			RainfallURL:     "https://api.data.gov.in/resource/8e0bd482-4aba-4d99-9cb9-ff124f6f1c2f",
			RainfallTimeout: 20 * time.Second,
			RainfallLimit:   5000,
		},
		Server: ServerConfig{
			Addr:                 ":8000",
			AllowedOrigins:       []string{"http://localhost", "http://localhost:5173", "http://127.0.0.1:5173"},
			MaxConcurrentQueries: 8,
		},
		Trace: TraceConfig{
			Enabled:   true,
			MaxTraces: 500,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.LLM.Provider) {
	case ProviderOpenAI, ProviderAnthropic:
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm.api_key is required for provider %s", c.LLM.Provider))
		}
	case ProviderOllama:
		if c.LLM.Model == "" {
			errs = append(errs, errors.New("llm.model is required for provider ollama"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported llm provider: %q", c.LLM.Provider))
	}

	if c.Agent.MaxSteps < 1 {
		errs = append(errs, fmt.Errorf("agent.max_steps must be at least 1, got %d", c.Agent.MaxSteps))
	}
	if strings.TrimSpace(c.Data.CSVPath) == "" {
		errs = append(errs, errors.New("data.csv_path is required"))
	}
	if strings.TrimSpace(c.Data.RainfallURL) == "" {
		errs = append(errs, errors.New("data.rainfall_url is required"))
	}
	if c.Trace.MaxTraces < 0 {
		errs = append(errs, fmt.Errorf("trace.max_traces cannot be negative, got %d", c.Trace.MaxTraces))
	}
	return errors.Join(errs...)
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	out := *c
	out.LLM.APIKey = MaskSecret(c.LLM.APIKey)
	out.Data.APIKey = MaskSecret(c.Data.APIKey)
	out.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return out
}
