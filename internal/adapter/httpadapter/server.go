package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/domain"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/render"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportProvider exposes the report of the latest completed run.
type ReportProvider interface {
	LatestReport() (domain.Report, bool)
}

// Server exposes health, readiness, metrics, and latest-report HTTP endpoints.
type Server struct {
	httpServer *http.Server
	reports    ReportProvider
	renderers  map[string]render.Renderer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /report
// and /report/{format} routes. Formats are the renderer names.
func NewServer(addr string, ready sharedobs.ReadinessChecker, reports ReportProvider, renderers []render.Renderer, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reports:   reports,
		renderers: make(map[string]render.Renderer, len(renderers)),
		logger:    logger,
	}
	for _, r := range renderers {
		s.renderers[r.Name()] = r
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("GET /report/{format}", s.handleRenderedReport)

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

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.reports.LatestReport()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report yet"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRenderedReport(w http.ResponseWriter, r *http.Request) {
	renderer, ok := s.renderers[r.PathValue("format")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown format"})
		return
	}
	report, ok := s.reports.LatestReport()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report yet"})
		return
	}

	data, err := renderer.Render(report)
	if err != nil {
		s.logger.Error("render report failed", "format", renderer.Name(), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", `inline; filename="`+renderer.Filename()+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
