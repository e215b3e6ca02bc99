// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/scorecast/internal/app"
	"github.com/okian/scorecast/internal/domain/features"
	"github.com/okian/scorecast/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Predict runs every loaded model against a match state.
	Predict(ctx context.Context, st features.MatchState) (service.Response, error)

	// Models describes the loaded models in registry order.
	Models() []service.ModelInfo
	ModelCount() int
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed origins. "*" allows any origin.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	predictHandler *PredictHandler
	modelsHandler  *ModelsHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler

	corsOrigins []string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		predictHandler: NewPredictHandler(deps),
		modelsHandler:  NewModelsHandler(deps),
		healthHandler:  NewHealthHandler(deps),
		statsHandler:   NewStatsHandler(statsProvider),
		corsOrigins:    []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/models", MetricsMiddleware(s.modelsHandler.HandleModels, "models"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

// Handler wraps next with the middleware every route shares.
func (s *Server) Handler(next http.Handler) http.Handler {
	return Chain(next,
		RequestIDMiddleware,
		RecoveryMiddleware,
		CORSMiddleware(s.corsOrigins),
	)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
