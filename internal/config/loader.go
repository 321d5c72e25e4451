package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "SAMARTH"

// Loader reads configuration from defaults, an optional file, a .env file
// and the environment, in increasing priority.
type Loader struct {
	configPath string
	envFile    string
}

// NewLoader creates a loader. An empty configPath means no config file.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath, envFile: ".env"}
}

// WithEnvFile changes the dotenv file. An empty name disables it.
func (l *Loader) WithEnvFile(name string) *Loader {
	l.envFile = name
	return l
}

// Load builds the configuration. Validation is left to the caller.
func (l *Loader) Load() (*Config, error) {
	if l.envFile != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", l.envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("data.api_key", EnvPrefix+"_DATA_API_KEY", "DATA_GOV_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKeyFromEnv(cfg.LLM.Provider)
	}

	if err := openSecrets(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.timeout", d.LLM.Timeout)

	v.SetDefault("agent.max_steps", d.Agent.MaxSteps)
	v.SetDefault("agent.tool_timeout", d.Agent.ToolTimeout)

	v.SetDefault("data.csv_path", d.Data.CSVPath)
	v.SetDefault("data.rainfall_url", d.Data.RainfallURL)
	v.SetDefault("data.api_key", d.Data.APIKey)
	v.SetDefault("data.rainfall_timeout", d.Data.RainfallTimeout)
	v.SetDefault("data.rainfall_limit", d.Data.RainfallLimit)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.max_concurrent_queries", d.Server.MaxConcurrentQueries)

	v.SetDefault("trace.enabled", d.Trace.Enabled)
	v.SetDefault("trace.db_path", d.Trace.DBPath)
	v.SetDefault("trace.max_traces", d.Trace.MaxTraces)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// providerKeyFromEnv reads the vendor's conventional key variable.
func providerKeyFromEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}
