package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/couchcryptid/storm-data-skewt/internal/adapter/chart"
	"github.com/couchcryptid/storm-data-skewt/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessFunc adapts a function to sharedobs.ReadinessChecker.
type ReadinessFunc func(ctx context.Context) error

func (f ReadinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// Server exposes health, readiness, and metrics endpoints plus charts and
// analyses for the most recent runs. It is a chart.Sink and a pipeline.Loader.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	mu       sync.Mutex
	history  *history
	latestID string
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /skewt
// and /analysis routes. The last DefaultHistorySize analyses are also served
// by ID under /skewt/{id} and /analysis/{id}.
func NewServer(addr string, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		history: newHistory(DefaultHistorySize),
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /skewt", s.handleChart)
	mux.HandleFunc("GET /skewt/{id}", s.handleChart)
	mux.HandleFunc("GET /analysis", s.handleAnalysis)
	mux.HandleFunc("GET /analysis/{id}", s.handleAnalysis)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) Name() string { return "http" }

// WriteChart stores the chart under its analysis ID and makes it the latest.
func (s *Server) WriteChart(_ context.Context, c chart.Chart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.upsert(c.AnalysisID).chart = &c
	s.latestID = c.AnalysisID
	return nil
}

// Load stores the analysis document under its ID and makes it the latest.
func (s *Server) Load(_ context.Context, a domain.Analysis) error {
	data, err := json.Marshal(a.Document())
	if err != nil {
		return fmt.Errorf("serialize analysis: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.upsert(a.ID).analysis = data
	s.latestID = a.ID
	return nil
}

// lookup resolves the {id} path value, or the latest analysis when absent.
func (s *Server) lookup(r *http.Request) (record, bool) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = s.latestID
	}
	if id == "" {
		return record{}, false
	}
	rec, ok := s.history.get(id)
	if !ok {
		return record{}, false
	}
	return *rec, true
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(r)
	if !ok || rec.chart == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "chart not found"})
		return
	}
	c := rec.chart
	w.Header().Set("Content-Type", c.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(c.Data)))
	w.Header().Set("X-Analysis-Id", c.AnalysisID)
	w.WriteHeader(http.StatusOK)
	w.Write(c.Data) //nolint:errcheck // client went away
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(r)
	if !ok || rec.analysis == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "analysis not found"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(rec.analysis) //nolint:errcheck // client went away
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
