package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/manthysbr/samarth/internal/core/domain"
)

const (
	// DefaultMaxSteps bounds the reasoning/tool cycles of one query.
	DefaultMaxSteps = 8

	defaultToolTimeout = 30 * time.Second

	stepBudgetMessage = "The agent could not produce a final answer after multiple steps. The query may be too complex."
	recoveryHint      = "The LLM response was not valid JSON or the tool call failed. Make sure to respond with *only* JSON for tool calls or 'Final Answer:' for answers."
)

// AgentOption customizes a ReActAgentService
type AgentOption func(*ReActAgentService)

// WithMaxSteps sets the step ceiling. Values below 1 are ignored.
func WithMaxSteps(n int) AgentOption {
	return func(s *ReActAgentService) {
		if n >= 1 {
			s.maxSteps = n
		}
	}
}

// WithToolTimeout bounds every tool invocation.
func WithToolTimeout(d time.Duration) AgentOption {
	return func(s *ReActAgentService) {
		if d > 0 {
			s.toolTimeout = d
		}
	}
}

// WithReasoningTimeout bounds every reasoning engine call. Zero leaves the
// call bounded only by the caller's context and the provider client.
func WithReasoningTimeout(d time.Duration) AgentOption {
	return func(s *ReActAgentService) {
		s.llmTimeout = d
	}
}

// WithTracer records a trace for every run.
func WithTracer(tc *TraceCollector) AgentOption {
	return func(s *ReActAgentService) {
		s.tracer = tc
	}
}

// ReActAgentService runs the bounded reason/act loop over a fixed tool registry.
// It holds no per-query state, so one instance serves concurrent queries.
type ReActAgentService struct {
	logger      *slog.Logger
	llm         domain.LLMProvider
	tools       *domain.ToolRegistry
	catalog     string
	maxSteps    int
	toolTimeout time.Duration
	llmTimeout  time.Duration
	tracer      *TraceCollector
}

// NewReActAgentService creates a new agent over the given registry
func NewReActAgentService(logger *slog.Logger, llm domain.LLMProvider, tools *domain.ToolRegistry, opts ...AgentOption) *ReActAgentService {
	s := &ReActAgentService{
		logger:      logger,
		llm:         llm,
		tools:       tools,
		catalog:     tools.RenderDefinitions(),
		maxSteps:    DefaultMaxSteps,
		toolTimeout: defaultToolTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxSteps returns the configured step ceiling
func (s *ReActAgentService) MaxSteps() int {
	return s.maxSteps
}

// Run answers one query. History and the step counter live only for the
// duration of the call. The result is an AnswerOutcome or an ErrorOutcome;
// only a reasoning engine failure or an exhausted step budget ends a query
// without an answer.
func (s *ReActAgentService) Run(ctx context.Context, query string) domain.Outcome {
	queryID := domain.NewQueryID()
	s.tracer.StartTrace(queryID, query)
	outcome := s.run(ctx, queryID, query)
	s.tracer.EndTrace(queryID, outcome)
	return outcome
}

func (s *ReActAgentService) run(ctx context.Context, queryID domain.QueryID, query string) domain.Outcome {
	logger := s.logger.With("query_id", string(queryID))
	logger.Info("starting ReAct loop", "query", query, "max_steps", s.maxSteps)

	var history domain.History

	for step := 1; step <= s.maxSteps; step++ {
		logger.Info("ReAct step", "step", step)

		// 1. Compose
		prompt := buildAgentPrompt(s.catalog, &history, query)

		// 2. Reason
		spanID := s.tracer.StartSpan(queryID, step, domain.SpanKindReason, "llm.generate", query)
		response, err := s.reason(ctx, prompt)
		if err != nil {
			s.tracer.EndSpan(spanID, "", err.Error())
			logger.Error("llm generate failed", "step", step, "error", err)
			return domain.ErrorOutcome{
				QueryID: queryID,
				Message: fmt.Sprintf("Error communicating with LLM: %v", err),
				Steps:   step,
				Cause:   fmt.Errorf("%w: %w", domain.ErrReasoningTransport, err),
			}
		}
		s.tracer.EndSpan(spanID, response, "")
		logger.Info("LLM response", "step", step, "response", truncate(response, 200))

		// 3. Classify
		decision, err := ParseDecision(response)
		if err != nil {
			logger.Warn("could not parse LLM response", "step", step, "error", err)
			history.Append(domain.RoleToolOutput, recoveryMessage(err))
			continue
		}

		switch d := decision.(type) {
		case domain.FinalAnswer:
			logger.Info("final answer reached", "step", step)
			return domain.AnswerOutcome{QueryID: queryID, Text: d.Text, Steps: step}

		case domain.ToolCall:
			tool, ok := s.tools.Lookup(d.Tool)
			if !ok {
				err := fmt.Errorf("%w: LLM chose unknown tool: %s", domain.ErrUnknownTool, d.Tool)
				logger.Warn("unknown tool requested", "step", step, "tool", d.Tool)
				history.Append(domain.RoleToolOutput, recoveryMessage(err))
				continue
			}
			history.Append(domain.RoleToolCall, response)

			// 4. Dispatch, 5. Fold
			spanID := s.tracer.StartSpan(queryID, step, domain.SpanKindTool, d.Tool, argsText(d.Args))
			output, failure := s.dispatch(ctx, logger, tool, d.Args)
			s.tracer.EndSpan(spanID, output, failure)
			history.Append(domain.RoleToolOutput, output)
		}
	}

	logger.Warn("max steps reached without final answer", "max_steps", s.maxSteps)
	return domain.ErrorOutcome{
		QueryID: queryID,
		Message: stepBudgetMessage,
		Steps:   s.maxSteps,
		Cause:   domain.ErrStepBudgetExceeded,
	}
}

// Tools returns the registry the agent dispatches to
func (s *ReActAgentService) Tools() *domain.ToolRegistry {
	return s.tools
}

// RunTool binds and runs one registered tool outside the loop, with the same
// timeout and panic recovery as a dispatched call.
func (s *ReActAgentService) RunTool(ctx context.Context, name string, raw map[string]any) (domain.ToolResult, error) {
	tool, ok := s.tools.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTool, name)
	}
	args, err := tool.Bind(raw)
	if err != nil {
		return nil, err
	}
	return s.invoke(ctx, tool, args)
}

func (s *ReActAgentService) reason(ctx context.Context, prompt string) (string, error) {
	if s.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.llmTimeout)
		defer cancel()
	}
	return s.llm.GenerateText(ctx, prompt)
}

// dispatch binds and runs one tool and returns the history content for it.
// Every failure is folded into the returned text; failure describes it for
// tracing and is empty on success.
func (s *ReActAgentService) dispatch(ctx context.Context, logger *slog.Logger, tool *domain.Tool, raw map[string]any) (output, failure string) {
	logger.Info("executing tool", "tool", tool.Name, "params", raw)

	args, err := tool.Bind(raw)
	if err != nil {
		logger.Warn("tool arguments rejected", "tool", tool.Name, "error", err)
		return recoveryMessage(err), err.Error()
	}

	result, err := s.invoke(ctx, tool, args)
	if err != nil {
		logger.Warn("tool execution failed", "tool", tool.Name, "error", err)
		return recoveryMessage(err), err.Error()
	}

	output, err = result.Canonical()
	if err != nil {
		err = &domain.ToolError{Tool: string(tool.Name), Err: err}
		logger.Warn("tool output not serializable", "tool", tool.Name, "error", err)
		return recoveryMessage(err), err.Error()
	}

	if msg, failed := result.ErrorMessage(); failed {
		logger.Info("tool reported an error", "tool", tool.Name, "tool_error", msg)
		failure = msg
	}
	logger.Info("tool executed", "tool", tool.Name, "observation", truncate(output, 200))
	return output, failure
}

func (s *ReActAgentService) invoke(ctx context.Context, tool *domain.Tool, args domain.ToolArgs) (result domain.ToolResult, err error) {
	toolCtx, cancel := context.WithTimeout(ctx, s.toolTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &domain.ToolError{Tool: string(tool.Name), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	return tool.Invoke(toolCtx, args)
}

// recoveryMessage explains a recoverable failure to the reasoning engine.
func recoveryMessage(err error) string {
	var parseErr *domain.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Sprintf("Error: %v. Response was: %s. %s", err, truncate(parseErr.Raw, 500), recoveryHint)
	}
	return fmt.Sprintf("Error: %v. %s", err, recoveryHint)
}

func argsText(args map[string]any) string {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprint(args)
	}
	return string(data)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
