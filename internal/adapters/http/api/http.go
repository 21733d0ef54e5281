// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/recordbook/internal/domain/records"
	"github.com/okian/recordbook/internal/domain/types"
	"github.com/okian/recordbook/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Records computes the ranked rows of a metric for the raw query.
	Records(ctx context.Context, metric string, q url.Values) ([]types.RecordRow, error)

	// Catalog lists the supported metrics.
	Catalog() []records.Metric
}

// RecordRow mirrors the read shape returned by records queries.
type RecordRow = types.RecordRow

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	recordsHandler *RecordsHandler

	requestTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithRequestTimeout bounds the time a single request may take. Zero
// disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.requestTimeout = d
		}
	}
}

// WithLogger sets the logger used to report failed requests.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.recordsHandler.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		recordsHandler: NewRecordsHandler(deps, logger.Nop()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /records", MetricsMiddleware(
		RequestMiddleware(s.recordsHandler.HandleCatalog, s.requestTimeout), "catalog"))
	mux.HandleFunc("GET /records/{metric}", MetricsMiddleware(
		RequestMiddleware(s.recordsHandler.HandleGetRecords, s.requestTimeout), "records"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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
