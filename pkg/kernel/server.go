package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime"
	"golang.org/x/sync/semaphore"

	"github.com/manthysbr/samarth/internal/core/domain"
)

const (
	// StatusMessage is returned by the root endpoint.
	StatusMessage = "Project Samarth API is running"

	// ErrorOutputPrefix marks error text in query responses.
	ErrorOutputPrefix = "❌ "

	defaultMaxConcurrent = 8
	maxBodyBytes         = 1 << 20
	defaultTraceLimit    = 50
	maxTraceLimit        = 500
)

// Agent answers queries and runs single tools.
type Agent interface {
	Run(ctx context.Context, query string) domain.Outcome
	RunTool(ctx context.Context, name string, raw map[string]any) (domain.ToolResult, error)
	Tools() *domain.ToolRegistry
}

// TraceReader exposes recorded query traces.
type TraceReader interface {
	ListTraces(ctx context.Context, limit int) ([]domain.TraceSummary, error)
	GetTrace(ctx context.Context, id domain.QueryID) (*domain.Trace, error)
}

type Server struct {
	logger *slog.Logger
	agent  Agent
	traces TraceReader
	spec   *APISpec
	slots  *semaphore.Weighted
}

// NewServer creates the HTTP boundary. maxConcurrent bounds queries and
// direct tool runs in flight.
func NewServer(logger *slog.Logger, agent Agent, spec *APISpec, maxConcurrent int) *Server {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Server{
		logger: logger,
		agent:  agent,
		spec:   spec,
		slots:  semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// WithTraces enables the trace endpoints.
func (s *Server) WithTraces(traces TraceReader) *Server {
	s.traces = traces
	return s
}

// Handler mounts every route on a new mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleStatus)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /openapi.json", s.handleOpenAPI)
	mux.HandleFunc("GET /v1/tools", s.handleListTools)
	mux.HandleFunc("POST /v1/tools/{name}/run", s.handleRunTool)
	if s.traces != nil {
		mux.HandleFunc("GET /v1/traces", s.handleListTraces)
		mux.HandleFunc("GET /v1/traces/{id}", s.handleGetTrace)
	}
	return mux
}

// GET /
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": StatusMessage})
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Output  string `json:"output"`
	Status  string `json:"status"`
	QueryID string `json:"query_id"`
}

// handleQuery runs one agent query. Error outcomes are still 200 responses:
// the output carries the user-facing text with the error prefix.
// POST /query
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := s.decodeBody(r, "/query", &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.slots.Acquire(r.Context(), 1); err != nil {
		s.logger.Warn("query rejected, no slot available", "error", err)
		writeError(w, http.StatusServiceUnavailable, "server is busy, try again later")
		return
	}
	defer s.slots.Release(1)

	start := time.Now()
	outcome := s.agent.Run(r.Context(), req.Query)

	var resp queryResponse
	switch o := outcome.(type) {
	case domain.AnswerOutcome:
		resp = queryResponse{Output: o.Text, Status: "ok", QueryID: string(o.QueryID)}
	case domain.ErrorOutcome:
		resp = queryResponse{Output: ErrorOutputPrefix + o.Message, Status: "error", QueryID: string(o.QueryID)}
	default:
		resp = queryResponse{Output: ErrorOutputPrefix + "unexpected agent outcome", Status: "error"}
	}
	s.logger.Info("query finished", "query_id", resp.QueryID, "status", resp.Status, "duration", time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

// GET /openapi.json
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.spec.JSON())
}

// toolDTO is the JSON representation of a registered tool.
type toolDTO struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Arguments   map[string]any `json:"arguments"`
}

// handleListTools returns all registered tools with their argument schemas.
// GET /v1/tools
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools := s.agent.Tools().Tools()
	dtos := make([]toolDTO, 0, len(tools))
	for _, t := range tools {
		dtos = append(dtos, toolDTO{
			Name:        string(t.Name),
			Description: t.Description,
			Arguments:   t.JSONSchema(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tools": dtos,
		"count": len(dtos),
	})
}

type runToolRequest struct {
	Args map[string]any `json:"args"`
}

// handleRunTool executes a tool by name with the provided JSON arguments.
// POST /v1/tools/{name}/run
// Body: {"args": {...}}
func (s *Server) handleRunTool(w http.ResponseWriter, r *http.Request) {
	var name string
	err := runtime.BindStyledParameterWithOptions("simple", "name", r.PathValue("name"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid tool name: %v", err))
		return
	}

	var req runToolRequest
	if err := s.decodeBody(r, "/v1/tools/{name}/run", &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.slots.Acquire(r.Context(), 1); err != nil {
		s.logger.Warn("tool run rejected, no slot available", "tool", name, "error", err)
		writeError(w, http.StatusServiceUnavailable, "server is busy, try again later")
		return
	}
	defer s.slots.Release(1)

	start := time.Now()
	result, err := s.agent.RunTool(r.Context(), name, req.Args)
	elapsed := time.Since(start).Milliseconds()

	if errors.Is(err, domain.ErrUnknownTool) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"ok":          false,
			"tool":        name,
			"error":       err.Error(),
			"duration_ms": elapsed,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"tool":        name,
		"result":      result,
		"duration_ms": elapsed,
	})
}

// handleListTraces returns recent query traces, newest first.
// GET /v1/traces?limit=50
func (s *Server) handleListTraces(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %v", err))
		return
	}
	n := defaultTraceLimit
	if limit != nil && *limit > 0 {
		n = min(*limit, maxTraceLimit)
	}

	traces, err := s.traces.ListTraces(r.Context(), n)
	if err != nil {
		s.logger.Error("failed to list traces", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"traces": traces,
		"count":  len(traces),
	})
}

// handleGetTrace returns a single trace with all spans.
// GET /v1/traces/{id}
func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", r.PathValue("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid trace id: %v", err))
		return
	}

	trace, err := s.traces.GetTrace(r.Context(), domain.QueryID(id))
	if errors.Is(err, domain.ErrTraceNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("failed to load trace", "query_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, trace)
}

// decodeBody validates the body against the API document, then decodes it into dst.
func (s *Server) decodeBody(r *http.Request, path string, dst any, optional bool) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if len(data) == 0 && optional {
		return nil
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := s.spec.ValidateBody(r.Method, path, generic); err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
