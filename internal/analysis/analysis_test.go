package analysis_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeeSense-AK/dublin-dashboard/internal/analysis"
	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
	"github.com/SeeSense-AK/dublin-dashboard/internal/loader"
	"github.com/SeeSense-AK/dublin-dashboard/internal/observability"
)

// --- mocks ---

type mockInsighter struct {
	mu       sync.Mutex
	calls    int
	inUse    atomic.Int32
	maxInUse atomic.Int32
	err      error
}

func (m *mockInsighter) HotspotInsight(_ context.Context, s domain.HotspotSummary) (domain.Insight, error) {
	cur := m.inUse.Add(1)
	for {
		prev := m.maxInUse.Load()
		if cur <= prev || m.maxInUse.CompareAndSwap(prev, cur) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	m.inUse.Add(-1)

	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.err != nil {
		return domain.Insight{}, m.err
	}
	return domain.Insight{Summary: "insight for " + s.HotspotID, Method: "ai", Model: "test-model"}, nil
}

type mockPublisher struct {
	mu      sync.Mutex
	results []*domain.Result
	err     error
}

func (m *mockPublisher) PublishResult(_ context.Context, result *domain.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
	return m.err
}

type mockStore struct {
	saved []*domain.Result
	err   error
}

func (m *mockStore) SaveResult(_ context.Context, result *domain.Result) error {
	m.saved = append(m.saved, result)
	return m.err
}

// --- fixtures ---

// writeSensorCSV writes two clusters: three severity-8 readings around
// (53.35, -6.26) and two severity-3 readings ~1.1km north, spread over four
// days so the trend series has shape.
func writeSensorCSV(t *testing.T, dir string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("device_id,position_latitude,position_longitude,max_severity,timestamp,event_type,speed_kmh\n")
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	rows := []struct {
		dev      string
		lat, lon float64
		sev      float64
		at       time.Time
		event    string
	}{
		{"dev-1", 53.35000, -6.26000, 8, base, "braking"},
		{"dev-2", 53.35005, -6.26000, 8, base.Add(24 * time.Hour), "braking"},
		{"dev-1", 53.35010, -6.26000, 8, base.Add(48 * time.Hour), "swerving"},
		{"dev-3", 53.36000, -6.26000, 3, base.Add(72 * time.Hour), "pothole"},
		{"dev-3", 53.36005, -6.26000, 3, base.Add(73 * time.Hour), "pothole"},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%.5f,%.5f,%.0f,%d,%s,20.0\n", r.dev, r.lat, r.lon, r.sev, r.at.Unix(), r.event)
	}

	path := filepath.Join(dir, "sensor.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func writeRideCSV(t *testing.T, dir string) string {
	t.Helper()
	content := "lat,lng,date,time,incidenttype,commentfinal,incidentrating\n" +
		"53.35005,-6.26000,2025-09-02,09:00,Close Pass,van passed very close here,2\n"
	path := filepath.Join(dir, "ride.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testParams(t *testing.T) analysis.Params {
	t.Helper()
	dir := t.TempDir()
	return analysis.Params{
		Loader: loader.New(discardLogger()),
		Paths: loader.Paths{
			SensorCSV: writeSensorCSV(t, dir),
			RideCSV:   writeRideCSV(t, dir),
		},
		Cluster: domain.ClusterConfig{
			RadiusM:           50,
			MinClusterSize:    2,
			SeverityThreshold: 0,
			SeverityWeight:    0.3,
		},
		MatchRadiusM: 25,
		Trend: domain.TrendConfig{
			Granularity: domain.GranularityDay,
			Window:      3,
			ZThreshold:  2.0,
		},
		InsightMaxHotspots: 10,
		InsightConcurrency: 2,
		Logger:             discardLogger(),
		Metrics:            observability.NewMetricsForTesting(),
	}
}

// --- tests ---

func TestService_Run_FullPass(t *testing.T) {
	fixed := time.Date(2025, 9, 5, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(nil) })

	svc := analysis.New(testParams(t))
	require.NoError(t, svc.Run(context.Background()))

	result := svc.Result()
	require.NotNil(t, result)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, fixed, result.GeneratedAt)
	assert.Equal(t, 5, result.SensorCount)
	assert.Equal(t, 1, result.ReportCount)

	// Two clusters, higher severity first.
	require.Len(t, result.Hotspots, 2)
	first := result.Hotspots[0]
	assert.Equal(t, 3, first.Hotspot.MemberCount)
	assert.InDelta(t, 8.0, first.Hotspot.MeanSeverity, 1e-9)

	// The ride report sits inside the first cluster.
	require.Len(t, first.Matches, 1)
	assert.Equal(t, "Close Pass", first.Matches[0].Report.Theme)
	assert.Equal(t, "Close Pass", first.DominantTheme)
	assert.InDelta(t, 2.0, first.SentimentScore, 1e-9)
	assert.Empty(t, result.Hotspots[1].Matches)

	// No insighter configured: every hotspot falls back.
	for _, a := range result.Hotspots {
		assert.Equal(t, "fallback", a.Insight.Method)
		assert.NotEmpty(t, a.Insight.Summary)
	}

	// Four days of events, one bucket per day.
	require.Len(t, result.TrendBuckets, 4)
	counts := make([]int, len(result.TrendBuckets))
	for i, b := range result.TrendBuckets {
		counts[i] = b.Count
	}
	assert.Equal(t, []int{1, 1, 1, 2}, counts)
}

func TestService_Run_UsesInsighter(t *testing.T) {
	params := testParams(t)
	insighter := &mockInsighter{}
	params.Insighter = insighter

	svc := analysis.New(params)
	require.NoError(t, svc.Run(context.Background()))

	result := svc.Result()
	require.Len(t, result.Hotspots, 2)
	for _, a := range result.Hotspots {
		assert.Equal(t, "ai", a.Insight.Method)
		assert.Equal(t, "insight for "+a.Hotspot.ID, a.Insight.Summary)
	}
	assert.Equal(t, 2, insighter.calls)
}

func TestService_Run_InsightMaxHotspots(t *testing.T) {
	params := testParams(t)
	insighter := &mockInsighter{}
	params.Insighter = insighter
	params.InsightMaxHotspots = 1

	svc := analysis.New(params)
	require.NoError(t, svc.Run(context.Background()))

	result := svc.Result()
	require.Len(t, result.Hotspots, 2)
	assert.Equal(t, "ai", result.Hotspots[0].Insight.Method)
	assert.Equal(t, "fallback", result.Hotspots[1].Insight.Method)
	assert.Equal(t, 1, insighter.calls)
}

func TestService_Run_InsighterFailureFallsBack(t *testing.T) {
	params := testParams(t)
	params.Insighter = &mockInsighter{err: errors.New("rate limited")}

	svc := analysis.New(params)
	require.NoError(t, svc.Run(context.Background()))

	for _, a := range svc.Result().Hotspots {
		assert.Equal(t, "fallback", a.Insight.Method)
	}
}

func TestService_Run_BoundedConcurrency(t *testing.T) {
	params := testParams(t)
	insighter := &mockInsighter{}
	params.Insighter = insighter
	params.InsightConcurrency = 1

	svc := analysis.New(params)
	require.NoError(t, svc.Run(context.Background()))

	assert.Equal(t, int32(1), insighter.maxInUse.Load())
}

func TestService_Run_Deterministic(t *testing.T) {
	params := testParams(t)
	svc := analysis.New(params)

	require.NoError(t, svc.Run(context.Background()))
	first := svc.Result()
	require.NoError(t, svc.Run(context.Background()))
	second := svc.Result()

	// Run identity differs; the analysis content must not.
	if diff := cmp.Diff(first.Hotspots, second.Hotspots); diff != "" {
		t.Errorf("hotspot analyses differ between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.TrendBuckets, second.TrendBuckets); diff != "" {
		t.Errorf("trend buckets differ between runs (-first +second):\n%s", diff)
	}
}

func TestService_Run_DeliversToSinks(t *testing.T) {
	params := testParams(t)
	pub := &mockPublisher{}
	store := &mockStore{}
	params.Publisher = pub
	params.Store = store

	svc := analysis.New(params)
	require.NoError(t, svc.Run(context.Background()))

	require.Len(t, pub.results, 1)
	require.Len(t, store.saved, 1)
	assert.Equal(t, svc.Result().RunID, pub.results[0].RunID)
}

func TestService_Run_SinkFailureDoesNotFailRun(t *testing.T) {
	params := testParams(t)
	params.Publisher = &mockPublisher{err: errors.New("broker down")}
	params.Store = &mockStore{err: errors.New("db down")}

	svc := analysis.New(params)
	assert.NoError(t, svc.Run(context.Background()))
	assert.NotNil(t, svc.Result())
}

func TestService_Run_LoadFailure(t *testing.T) {
	params := testParams(t)
	params.Paths.SensorCSV = filepath.Join(t.TempDir(), "missing.csv")

	svc := analysis.New(params)
	require.Error(t, svc.Run(context.Background()))
	assert.Nil(t, svc.Result())
}

func TestService_CheckReadiness(t *testing.T) {
	svc := analysis.New(testParams(t))

	require.Error(t, svc.CheckReadiness(context.Background()))

	require.NoError(t, svc.Run(context.Background()))
	assert.NoError(t, svc.CheckReadiness(context.Background()))
}
