// Package api exposes component invocation over HTTP for serve mode.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/wasmact/wasmact/pkg/logging"
	"github.com/wasmact/wasmact/pkg/metrics"
	"github.com/wasmact/wasmact/pkg/models"
	"github.com/wasmact/wasmact/pkg/ratelimit"
	"github.com/wasmact/wasmact/pkg/tracing"
)

// ComponentInvoker is the slice of the invoker the HTTP layer depends on.
type ComponentInvoker interface {
	Config(applicationID, actionID string, input map[string]interface{}, timeoutSeconds int) (models.InvocationConfig, error)
	Execute(ctx context.Context, cfg models.InvocationConfig) (models.InvocationResult, error)
	ToolPath() string
	WasmFile() string
}

// Options configures the API server.
type Options struct {
	Invoker   ComponentInvoker
	Logger    *logging.Logger
	Metrics   *metrics.Recorder
	Tracer    *tracing.Provider
	APIKey    string
	RateRPS   float64
	RateBurst int
}

// Server handles invocation API requests.
type Server struct {
	invoker ComponentInvoker
	log     *logging.Logger
	metrics *metrics.Recorder
	tracer  *tracing.Provider
	limiter *ratelimit.Limiter
	apiKey  string
}

// NewServer creates an API server. Auth is enabled when APIKey is
// non-empty and rate limiting when RateRPS is positive.
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logging.NewLogger(logging.INFO, false)
	}
	var limiter *ratelimit.Limiter
	if opts.RateRPS > 0 {
		limiter = ratelimit.NewLimiter(opts.RateRPS, opts.RateBurst)
	}
	return &Server{
		invoker: opts.Invoker,
		log:     log,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		limiter: limiter,
		apiKey:  opts.APIKey,
	}
}

// Router builds the route table with middleware applied.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	if s.tracer != nil {
		r.Use(tracing.HTTPMiddleware(s.tracer))
	}
	if s.apiKey != "" {
		r.Use(s.requireAPIKey)
	}

	invoke := http.Handler(http.HandlerFunc(s.HandleInvoke))
	if s.limiter != nil {
		invoke = s.limiter.Middleware(ratelimit.IPKeyFunc)(invoke)
	}
	r.Handle("/v1/invoke", invoke).Methods("POST")
	r.HandleFunc("/healthz", s.Health).Methods("GET")
	r.HandleFunc("/readyz", s.Ready).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
	return r
}

// invokeRequest is the body of POST /v1/invoke. A non-positive
// timeout_seconds means the server default applies.
type invokeRequest struct {
	ApplicationID  string                 `json:"application_id"`
	ActionID       string                 `json:"action_id"`
	Input          map[string]interface{} `json:"input,omitempty"`
	TimeoutSeconds int                    `json:"timeout_seconds,omitempty"`
}

// HandleInvoke runs one component invocation and returns the result.
// Classified failures of the component itself still produce 200; the
// outcome is in the body.
func (s *Server) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg, err := s.invoker.Config(req.ApplicationID, req.ActionID, req.Input, req.TimeoutSeconds)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.invoker.Execute(r.Context(), cfg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.log.Warn("invocation canceled by client", map[string]interface{}{
				"application_id": cfg.ApplicationID,
				"action_id":      cfg.ActionID,
			})
			return
		}
		s.log.Error("invocation failed", map[string]interface{}{
			"application_id": cfg.ApplicationID,
			"action_id":      cfg.ActionID,
			"error":          err.Error(),
		})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready reports whether the runtime binary and component file are still
// in place.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.invoker.ToolPath()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"error":  "runtime binary missing",
		})
		return
	}
	if _, err := os.Stat(s.invoker.WasmFile()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"error":  "component file missing",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
