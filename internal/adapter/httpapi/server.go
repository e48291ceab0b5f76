// Package httpapi exposes the analysis results plus the operational
// health/readiness/metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
)

// ResultSource serves the latest completed analysis result.
type ResultSource interface {
	Result() *domain.Result
	CheckReadiness(ctx context.Context) error
}

// ReportGenerator writes a PDF for a result and returns its path.
type ReportGenerator interface {
	Generate(result *domain.Result) (string, error)
}

// Server exposes the analysis API and operational endpoints.
type Server struct {
	httpServer *http.Server
	source     ResultSource
	reports    ReportGenerator
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api/v1 routes plus /healthz,
// /readyz, and /metrics.
func NewServer(addr string, source ResultSource, reports ReportGenerator, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		source:  source,
		reports: reports,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/hotspots", s.handleHotspots)
	mux.HandleFunc("GET /api/v1/trends", s.handleTrends)
	mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
	mux.HandleFunc("POST /api/v1/report", s.handleReport)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.source.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// latestResult writes a 503 and returns nil when no run has completed.
func (s *Server) latestResult(w http.ResponseWriter) *domain.Result {
	result := s.source.Result()
	if result == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "no analysis result available yet",
		})
		return nil
	}
	return result
}

func (s *Server) handleHotspots(w http.ResponseWriter, _ *http.Request) {
	result := s.latestResult(w)
	if result == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":         result.RunID,
		"generated_at":   result.GeneratedAt,
		"match_radius_m": result.MatchRadiusM,
		"hotspots":       result.Hotspots,
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, _ *http.Request) {
	result := s.latestResult(w)
	if result == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":       result.RunID,
		"generated_at": result.GeneratedAt,
		"buckets":      result.TrendBuckets,
		"stats":        result.TrendStats,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	result := s.latestResult(w)
	if result == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":          result.RunID,
		"generated_at":    result.GeneratedAt,
		"sensor_count":    result.SensorCount,
		"report_count":    result.ReportCount,
		"skipped":         result.Skipped,
		"hotspot_count":   len(result.Hotspots),
		"critical_count":  result.CriticalCount,
		"anomaly_count":   result.AnomalyCount,
		"trend_direction": result.TrendStats.Direction,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	result := s.latestResult(w)
	if result == nil {
		return
	}
	path, err := s.reports.Generate(result)
	if err != nil {
		s.logger.Error("report generation failed", "run_id", result.RunID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "report generation failed",
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"run_id": result.RunID,
		"path":   path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
