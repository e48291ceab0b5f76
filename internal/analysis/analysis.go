// Package analysis orchestrates one full load-detect-match-trend pass over
// the datasets and holds the latest result for the HTTP API, the report
// generator, and the optional sinks.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
	"github.com/SeeSense-AK/dublin-dashboard/internal/loader"
	"github.com/SeeSense-AK/dublin-dashboard/internal/observability"
)

// Publisher sends a completed result to a message broker.
type Publisher interface {
	PublishResult(ctx context.Context, result *domain.Result) error
}

// Store persists a completed result.
type Store interface {
	SaveResult(ctx context.Context, result *domain.Result) error
}

// Params collects the dependencies and tuning for a Service.
type Params struct {
	Loader       *loader.Loader
	Paths        loader.Paths
	Cluster      domain.ClusterConfig
	MatchRadiusM float64
	Trend        domain.TrendConfig

	// Insighter may be nil, in which case every hotspot gets the
	// deterministic fallback insight.
	Insighter          domain.Insighter
	InsightMaxHotspots int
	InsightConcurrency int

	// Optional sinks; nil disables them.
	Publisher Publisher
	Store     Store

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Service runs analyses and serves the most recent result.
type Service struct {
	p      Params
	logger *slog.Logger

	mu     sync.RWMutex
	result *domain.Result
	ready  atomic.Bool
}

// New creates an analysis Service.
func New(p Params) *Service {
	if p.InsightConcurrency < 1 {
		p.InsightConcurrency = 1
	}
	return &Service{p: p, logger: p.Logger}
}

// CheckReadiness returns nil once at least one analysis run has completed.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no analysis run has completed yet")
	}
	return nil
}

// Result returns the most recent completed result, or nil before the first
// run finishes. The returned value is shared and must not be mutated.
func (s *Service) Result() *domain.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Run executes one complete analysis pass. Sink failures are logged and do
// not fail the run; only a failed dataset load does.
func (s *Service) Run(ctx context.Context) error {
	start := time.Now()
	s.p.Metrics.AnalysisRunning.Set(1)
	defer s.p.Metrics.AnalysisRunning.Set(0)

	ds, err := s.p.Loader.Load(s.p.Paths)
	if err != nil {
		s.p.Metrics.RunsTotal.WithLabelValues("error").Inc()
		return err
	}
	s.recordLoadMetrics(ds)

	hotspots := domain.DetectHotspots(ds.Readings, s.p.Cluster)
	analyses := s.analyzeHotspots(ctx, hotspots, ds.Reports)

	buckets := domain.BuildTrend(ds.TrendEvents(), s.p.Trend)
	stats := domain.SummarizeTrend(buckets)

	result := &domain.Result{
		RunID:        uuid.New().String(),
		GeneratedAt:  domain.TimeNow(),
		SensorCount:  len(ds.Readings),
		ReportCount:  len(ds.Reports),
		Skipped:      ds.Skipped,
		Hotspots:     analyses,
		TrendBuckets: buckets,
		TrendStats:   stats,
		MatchRadiusM: s.p.MatchRadiusM,
	}
	for _, b := range buckets {
		if b.Anomaly {
			result.AnomalyCount++
		}
	}
	for _, a := range analyses {
		if a.Hotspot.RiskLevel == "Critical" {
			result.CriticalCount++
		}
	}

	s.mu.Lock()
	s.result = result
	s.mu.Unlock()
	s.ready.Store(true)

	s.p.Metrics.HotspotsDetected.Set(float64(len(analyses)))
	s.p.Metrics.AnomaliesDetected.Set(float64(result.AnomalyCount))
	s.p.Metrics.RunDuration.Observe(time.Since(start).Seconds())
	s.p.Metrics.RunsTotal.WithLabelValues("success").Inc()

	s.logger.Info("analysis run complete",
		"run_id", result.RunID,
		"hotspots", len(analyses),
		"anomalies", result.AnomalyCount,
		"duration", time.Since(start),
	)

	s.deliver(ctx, result)
	return nil
}

// analyzeHotspots matches reports and generates insights for every hotspot.
// The AI insighter is only consulted for the top-ranked hotspots, with
// bounded concurrency; the rest get the deterministic fallback. Results are
// written by index so the output keeps the detector's ordering.
func (s *Service) analyzeHotspots(ctx context.Context, hotspots []domain.Hotspot, reports []domain.PerceptionReport) []domain.HotspotAnalysis {
	if len(hotspots) == 0 {
		return nil
	}

	analyses := make([]domain.HotspotAnalysis, len(hotspots))
	for i, h := range hotspots {
		matches := domain.MatchReports(h, reports, s.p.MatchRadiusM)
		dominant, _ := domain.ExtractThemes(domain.MatchComments(matches, 50))
		analyses[i] = domain.HotspotAnalysis{
			Hotspot:        h,
			Matches:        matches,
			ThemeCounts:    domain.ThemeCounts(matches),
			DominantTheme:  dominant,
			SentimentScore: domain.SentimentScore(matches),
		}
	}

	sem := make(chan struct{}, s.p.InsightConcurrency)
	var wg sync.WaitGroup
	for i := range analyses {
		insighter := s.p.Insighter
		if i >= s.p.InsightMaxHotspots {
			// Past the AI hotspot cap: fallback only, no API call.
			insighter = nil
		}

		wg.Add(1)
		go func(i int, insighter domain.Insighter) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			insightStart := time.Now()
			analyses[i] = domain.EnrichWithInsight(ctx, analyses[i], insighter, s.logger)
			if insighter != nil {
				s.p.Metrics.InsightDuration.Observe(time.Since(insightStart).Seconds())
				s.p.Metrics.InsightRequests.WithLabelValues(insightOutcome(analyses[i].Insight)).Inc()
			}
		}(i, insighter)
	}
	wg.Wait()

	return analyses
}

func insightOutcome(insight domain.Insight) string {
	if insight.Method == "ai" {
		return "success"
	}
	return "fallback"
}

// deliver pushes the result to the optional sinks. A sink failure is an
// operational problem, not an analysis problem, so it only logs.
func (s *Service) deliver(ctx context.Context, result *domain.Result) {
	if s.p.Publisher != nil {
		if err := s.p.Publisher.PublishResult(ctx, result); err != nil {
			s.logger.Error("publish result failed", "run_id", result.RunID, "error", err)
		}
	}
	if s.p.Store != nil {
		if err := s.p.Store.SaveResult(ctx, result); err != nil {
			s.logger.Error("persist result failed", "run_id", result.RunID, "error", err)
		}
	}
}

func (s *Service) recordLoadMetrics(ds *loader.Dataset) {
	var infra, ride int
	for _, r := range ds.Reports {
		if r.Kind == domain.ReportInfrastructure {
			infra++
		} else {
			ride++
		}
	}
	s.p.Metrics.RowsLoaded.WithLabelValues("sensor").Add(float64(len(ds.Readings)))
	s.p.Metrics.RowsLoaded.WithLabelValues("infra").Add(float64(infra))
	s.p.Metrics.RowsLoaded.WithLabelValues("ride").Add(float64(ride))
	s.p.Metrics.RowsSkipped.WithLabelValues("sensor").Add(float64(ds.Skipped.SensorRows))
	s.p.Metrics.RowsSkipped.WithLabelValues("infra").Add(float64(ds.Skipped.InfraRows))
	s.p.Metrics.RowsSkipped.WithLabelValues("ride").Add(float64(ds.Skipped.RideRows))
}
