// Command validate performs offline integrity checks over a set of input
// CSVs: it loads them through the real loader, runs hotspot detection, report
// matching, and trend analysis, and verifies the structural invariants the
// service relies on (disjoint cluster membership, severity ordering, match
// radius, contiguous trend buckets).
//
// Usage:
//
//	go run ./cmd/validate \
//	  -sensor-csv data/sensor_readings.csv \
//	  -infra-csv data/infrastructure_reports.csv \
//	  -ride-csv data/ride_reports.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
	"github.com/SeeSense-AK/dublin-dashboard/internal/loader"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	sensorCSV := flag.String("sensor-csv", "data/sensor_readings.csv", "path to the sensor readings CSV")
	infraCSV := flag.String("infra-csv", "data/infrastructure_reports.csv", "path to the infrastructure reports CSV")
	rideCSV := flag.String("ride-csv", "data/ride_reports.csv", "path to the ride reports CSV")
	radiusM := flag.Float64("cluster-radius-m", 30, "clustering radius in meters")
	minSize := flag.Int("min-cluster-size", 3, "minimum readings per hotspot")
	matchRadiusM := flag.Float64("match-radius-m", 25, "report matching radius in meters")
	flag.Parse()

	if code := run(*sensorCSV, *infraCSV, *rideCSV, *radiusM, *minSize, *matchRadiusM); code != 0 {
		os.Exit(code)
	}
}

func run(sensorCSV, infraCSV, rideCSV string, radiusM float64, minSize int, matchRadiusM float64) int {
	fmt.Println("=== Road Safety Data Integrity Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ds, err := loader.New(logger).Load(loader.Paths{
		SensorCSV: sensorCSV,
		InfraCSV:  infraCSV,
		RideCSV:   rideCSV,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load datasets: %v\n", err)
		return 1
	}

	clusterCfg := domain.ClusterConfig{
		RadiusM:           radiusM,
		MinClusterSize:    minSize,
		SeverityThreshold: 2,
		SeverityWeight:    0.3,
	}
	trendCfg := domain.TrendConfig{
		Granularity: domain.GranularityDay,
		Window:      7,
		ZThreshold:  2.0,
	}

	hotspots := domain.DetectHotspots(ds.Readings, clusterCfg)
	buckets := domain.BuildTrend(ds.TrendEvents(), trendCfg)

	phases := []*phase{
		validateInputs(ds),
		validateHotspots(hotspots, ds.Readings, clusterCfg),
		validateMatching(hotspots, ds.Reports, matchRadiusM),
		validateTrend(buckets, trendCfg, len(ds.Readings)),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Loaded: %d readings, %d reports (skipped %d/%d/%d), %d hotspots, %d trend buckets\n",
		len(ds.Readings), len(ds.Reports),
		ds.Skipped.SensorRows, ds.Skipped.InfraRows, ds.Skipped.RideRows,
		len(hotspots), len(buckets))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Input Integrity ──
// Everything the loader accepted must satisfy the parsing contract.

func validateInputs(ds *loader.Dataset) *phase {
	p := &phase{name: "Phase 1: Input Integrity (loader)"}

	for i, r := range ds.Readings {
		if r.Geo.Lat < -90 || r.Geo.Lat > 90 || r.Geo.Lon < -180 || r.Geo.Lon > 180 {
			p.errorf("reading %d: coordinates out of range (%.5f, %.5f)", i, r.Geo.Lat, r.Geo.Lon)
		}
		if r.Geo.Lat == 0 && r.Geo.Lon == 0 {
			p.errorf("reading %d: null island coordinates passed validation", i)
		}
		if r.Severity < 0 {
			p.errorf("reading %d: negative severity %g", i, r.Severity)
		}
		if r.Timestamp.IsZero() {
			p.errorf("reading %d: zero timestamp", i)
		}
	}

	for i, r := range ds.Reports {
		if r.Kind != domain.ReportInfrastructure && r.Kind != domain.ReportRide {
			p.errorf("report %d: unknown kind %q", i, r.Kind)
		}
		if r.Geo.Lat == 0 && r.Geo.Lon == 0 {
			p.errorf("report %d: null island coordinates passed validation", i)
		}
		if r.Timestamp.IsZero() {
			p.errorf("report %d: zero timestamp", i)
		}
	}

	return p
}

// ── Phase 2: Hotspot Invariants ──
// Membership is disjoint, clusters meet the minimum size, aggregates are
// consistent, output is ordered and reproducible.

func validateHotspots(hotspots []domain.Hotspot, readings []domain.SensorReading, cfg domain.ClusterConfig) *phase {
	p := &phase{name: "Phase 2: Hotspot Invariants (clustering)"}

	seen := map[int]string{}
	for _, h := range hotspots {
		if h.MemberCount != len(h.Members) {
			p.errorf("%s: member count %d != %d members", h.ID, h.MemberCount, len(h.Members))
		}
		if h.MemberCount < cfg.MinClusterSize {
			p.errorf("%s: cluster size %d below minimum %d", h.ID, h.MemberCount, cfg.MinClusterSize)
		}
		for _, idx := range h.Members {
			if idx < 0 || idx >= len(readings) {
				p.errorf("%s: member index %d out of range", h.ID, idx)
				continue
			}
			if prev, dup := seen[idx]; dup {
				p.errorf("%s: reading %d already belongs to %s", h.ID, idx, prev)
			}
			seen[idx] = h.ID
			if readings[idx].Severity < cfg.SeverityThreshold {
				p.errorf("%s: member %d severity %g below threshold %g", h.ID, idx, readings[idx].Severity, cfg.SeverityThreshold)
			}
		}

		if h.AggSeverity < h.MeanSeverity-1e-9 || h.AggSeverity > h.MaxSeverity+1e-9 {
			p.errorf("%s: aggregate severity %g outside [mean %g, max %g]", h.ID, h.AggSeverity, h.MeanSeverity, h.MaxSeverity)
		}
		if h.FirstSeen.After(h.LastSeen) {
			p.errorf("%s: first seen %s after last seen %s", h.ID, h.FirstSeen, h.LastSeen)
		}
		switch h.RiskLevel {
		case "Critical", "High", "Medium", "Low":
		default:
			p.errorf("%s: unknown risk level %q", h.ID, h.RiskLevel)
		}
	}

	for i := 1; i < len(hotspots); i++ {
		if hotspots[i].AggSeverity > hotspots[i-1].AggSeverity+1e-9 {
			p.errorf("ordering: %s (%.3f) ranked below %s (%.3f)",
				hotspots[i].ID, hotspots[i].AggSeverity, hotspots[i-1].ID, hotspots[i-1].AggSeverity)
		}
	}

	// Reproducibility: a second pass over the same input must agree.
	again := domain.DetectHotspots(readings, cfg)
	if len(again) != len(hotspots) {
		p.errorf("reproducibility: %d hotspots on first run, %d on second", len(hotspots), len(again))
	} else {
		for i := range hotspots {
			if hotspots[i].ID != again[i].ID {
				p.errorf("reproducibility: rank %d is %s on first run, %s on second", i, hotspots[i].ID, again[i].ID)
			}
		}
	}

	return p
}

// ── Phase 3: Match Invariants ──
// Every match lies within the radius and matches are ordered by distance.

func validateMatching(hotspots []domain.Hotspot, reports []domain.PerceptionReport, radiusM float64) *phase {
	p := &phase{name: "Phase 3: Match Invariants (perception)"}

	for _, h := range hotspots {
		matches := domain.MatchReports(h, reports, radiusM)
		for i, m := range matches {
			d := domain.HaversineM(h.Centroid, m.Report.Geo)
			if math.Abs(d-m.DistanceM) > 1e-6 {
				p.errorf("%s match %d: recorded distance %.3fm, recomputed %.3fm", h.ID, i, m.DistanceM, d)
			}
			if m.DistanceM > radiusM {
				p.errorf("%s match %d: distance %.3fm exceeds radius %.0fm", h.ID, i, m.DistanceM, radiusM)
			}
			if i > 0 && m.DistanceM < matches[i-1].DistanceM-1e-9 {
				p.errorf("%s: match %d (%.3fm) out of distance order", h.ID, i, m.DistanceM)
			}
		}
	}

	return p
}

// ── Phase 4: Trend Invariants ──
// Buckets are contiguous, counts sum to the input size, and anomalies are
// only flagged once a full baseline window exists.

func validateTrend(buckets []domain.TrendBucket, cfg domain.TrendConfig, readingCount int) *phase {
	p := &phase{name: "Phase 4: Trend Invariants (time series)"}

	total := 0
	for i, b := range buckets {
		total += b.Count
		if b.Count < 0 {
			p.errorf("bucket %d: negative count %d", i, b.Count)
		}
		if i > 0 {
			var expected time.Time
			if cfg.Granularity == domain.GranularityDay {
				expected = buckets[i-1].Start.AddDate(0, 0, 1)
			} else {
				expected = buckets[i-1].Start.AddDate(0, 0, 7)
			}
			if !b.Start.Equal(expected) {
				p.errorf("bucket %d: starts %s, expected contiguous %s", i, b.Start, expected)
			}
		}
		if i < cfg.Window && b.Anomaly {
			p.errorf("bucket %d: flagged anomalous before a full %d-bucket baseline", i, cfg.Window)
		}
		if b.Anomaly && b.AnomalyType != "spike" && b.AnomalyType != "drop" {
			p.errorf("bucket %d: anomaly with unknown type %q", i, b.AnomalyType)
		}
		if !b.Anomaly && b.AnomalyType != "" {
			p.errorf("bucket %d: anomaly type %q on an unflagged bucket", i, b.AnomalyType)
		}
	}

	if total != readingCount {
		p.errorf("bucket counts sum to %d, expected %d readings", total, readingCount)
	}

	return p
}
