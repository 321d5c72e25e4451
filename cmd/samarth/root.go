package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/manthysbr/samarth/internal/adapters/datagov"
	"github.com/manthysbr/samarth/internal/adapters/duckdb"
	"github.com/manthysbr/samarth/internal/adapters/providers"
	"github.com/manthysbr/samarth/internal/config"
	"github.com/manthysbr/samarth/internal/core/domain"
	"github.com/manthysbr/samarth/internal/core/services"
)

const version = "0.1.0"

type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "samarth",
		Short: "Project Samarth - Q&A over Indian rainfall and crop data",
		Long: `Samarth answers natural-language questions about Indian agriculture and
rainfall. A language model plans the work and calls data tools backed by the
data.gov.in rainfall API and a local crop production CSV.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (json or yaml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
		newToolsCmd(opts),
		newTracesCmd(opts),
		newSealCmd(),
	)
	return cmd
}

// loadConfig reads and validates configuration. requireLLM is false for
// commands that never reach the reasoning engine.
func (o *rootOptions) loadConfig(requireLLM bool) (*config.Config, error) {
	cfg, err := config.NewLoader(o.configFile).WithEnvFile(o.envFile).Load()
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if requireLLM {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return cfg, nil
}

// components holds everything a command needs to answer queries.
type components struct {
	crops    *duckdb.CropStore
	registry *domain.ToolRegistry
	agent    *services.ReActAgentService
	tracer   *services.TraceCollector
	traces   *duckdb.TraceRepository
}

// Close flushes pending trace writes and releases both databases.
func (c *components) Close() error {
	c.tracer.Wait()
	var errs []error
	if c.traces != nil {
		errs = append(errs, c.traces.Close())
	}
	errs = append(errs, c.crops.Close())
	return errors.Join(errs...)
}

// buildRegistry wires the data providers into the tool set.
func buildRegistry(cfg *config.Config, logger *slog.Logger) (*duckdb.CropStore, *domain.ToolRegistry, error) {
	crops := duckdb.NewCropStore(logger, cfg.Data.CSVPath)
	rainfall := datagov.NewRainfallClient(logger, cfg.Data.RainfallURL, cfg.Data.APIKey, cfg.Data.RainfallLimit, cfg.Data.RainfallTimeout)

	tools := services.NewDataTools(logger, crops, rainfall,
		services.CropSourceName(cfg.Data.CSVPath),
		services.RainfallSourceName(cfg.Data.RainfallURL))
	registry, err := services.NewToolRegistry(tools)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build tool registry: %w", err)
	}
	return crops, registry, nil
}

// buildTracer returns a nil collector when tracing is disabled, and a nil
// repository when traces are kept in memory only.
func buildTracer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services.TraceCollector, *duckdb.TraceRepository, error) {
	if !cfg.Trace.Enabled {
		return nil, nil, nil
	}
	if cfg.Trace.DBPath == "" {
		return services.NewTraceCollector(logger, nil, cfg.Trace.MaxTraces), nil, nil
	}
	repo, err := duckdb.NewTraceRepository(ctx, cfg.Trace.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open trace store: %w", err)
	}
	return services.NewTraceCollector(logger, repo, cfg.Trace.MaxTraces), repo, nil
}

func buildComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*components, error) {
	crops, registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}

	llm, err := providers.Build(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to init llm provider: %w", err)
	}

	tracer, traces, err := buildTracer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	agent := services.NewReActAgentService(logger, llm, registry,
		services.WithMaxSteps(cfg.Agent.MaxSteps),
		services.WithToolTimeout(cfg.Agent.ToolTimeout),
		services.WithReasoningTimeout(cfg.LLM.Timeout),
		services.WithTracer(tracer),
	)
	logger.Info("agent ready",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"api_key", config.MaskSecret(cfg.LLM.APIKey),
		"tools", registry.Names(),
		"max_steps", agent.MaxSteps(),
		"tracing", cfg.Trace.Enabled)

	return &components{crops: crops, registry: registry, agent: agent, tracer: tracer, traces: traces}, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return config.NewLogger(cfg.Log, w)
}
