package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
)

const testGroqKey = "gsk_test-key"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/sensor_readings.csv", cfg.SensorCSV)
	assert.Equal(t, "data/infrastructure_reports.csv", cfg.InfraCSV)
	assert.Equal(t, "data/ride_reports.csv", cfg.RideCSV)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.InDelta(t, 30.0, cfg.ClusterRadiusM, 1e-9)
	assert.Equal(t, 3, cfg.MinClusterSize)
	assert.InDelta(t, 2.0, cfg.SeverityThreshold, 1e-9)
	assert.InDelta(t, 0.3, cfg.SeverityWeight, 1e-9)
	assert.InDelta(t, 25.0, cfg.MatchRadiusM, 1e-9)

	assert.Equal(t, domain.GranularityDay, cfg.TrendGranularity)
	assert.Equal(t, 7, cfg.TrendWindow)
	assert.InDelta(t, 2.0, cfg.AnomalyThreshold, 1e-9)

	assert.False(t, cfg.InsightEnabled)
	assert.Empty(t, cfg.GroqAPIKey)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.GroqModel)
	assert.Equal(t, 15*time.Second, cfg.GroqTimeout)
	assert.Equal(t, 1000, cfg.InsightCacheSize)
	assert.Equal(t, 4, cfg.InsightConcurrency)
	assert.Equal(t, 10, cfg.InsightMaxHotspots)
	assert.Equal(t, time.Hour, cfg.InsightTTL)

	assert.Empty(t, cfg.RefreshSchedule)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "road-safety-insights", cfg.KafkaTopic)
	assert.Empty(t, cfg.PostgresDSN)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "reports", cfg.ReportDir)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SENSOR_CSV", "/data/sensor.csv")
	t.Setenv("INFRA_CSV", "/data/infra.csv")
	t.Setenv("RIDE_CSV", "/data/ride.csv")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("CLUSTER_RADIUS_M", "50")
	t.Setenv("MIN_CLUSTER_SIZE", "5")
	t.Setenv("SEVERITY_THRESHOLD", "3")
	t.Setenv("SEVERITY_WEIGHT", "0.5")
	t.Setenv("MATCH_RADIUS_M", "40")
	t.Setenv("TREND_GRANULARITY", "week")
	t.Setenv("TREND_WINDOW", "4")
	t.Setenv("ANOMALY_THRESHOLD", "2.5")
	t.Setenv("GROQ_API_KEY", testGroqKey)
	t.Setenv("GROQ_MODEL", "llama-3.1-8b-instant")
	t.Setenv("GROQ_TIMEOUT", "20s")
	t.Setenv("INSIGHT_CACHE_SIZE", "500")
	t.Setenv("INSIGHT_CONCURRENCY", "8")
	t.Setenv("INSIGHT_MAX_HOTSPOTS", "25")
	t.Setenv("REFRESH_SCHEDULE", "@hourly")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/safety")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REPORT_DIR", "/tmp/reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/sensor.csv", cfg.SensorCSV)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.InDelta(t, 50.0, cfg.ClusterRadiusM, 1e-9)
	assert.Equal(t, 5, cfg.MinClusterSize)
	assert.InDelta(t, 0.5, cfg.SeverityWeight, 1e-9)
	assert.InDelta(t, 40.0, cfg.MatchRadiusM, 1e-9)
	assert.Equal(t, domain.GranularityWeek, cfg.TrendGranularity)
	assert.Equal(t, 4, cfg.TrendWindow)
	assert.True(t, cfg.InsightEnabled)
	assert.Equal(t, testGroqKey, cfg.GroqAPIKey)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.GroqModel)
	assert.Equal(t, 20*time.Second, cfg.GroqTimeout)
	assert.Equal(t, 25, cfg.InsightMaxHotspots)
	assert.Equal(t, "@hourly", cfg.RefreshSchedule)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
	assert.Equal(t, "postgres://localhost/safety", cfg.PostgresDSN)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "/tmp/reports", cfg.ReportDir)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidClusterRadius(t *testing.T) {
	t.Setenv("CLUSTER_RADIUS_M", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLUSTER_RADIUS_M")
}

func TestLoad_InvalidSeverityWeight(t *testing.T) {
	for _, v := range []string{"-0.1", "1.5", "heavy"} {
		t.Setenv("SEVERITY_WEIGHT", v)
		_, err := Load()
		require.Error(t, err, "SEVERITY_WEIGHT=%s", v)
		assert.Contains(t, err.Error(), "SEVERITY_WEIGHT")
	}
}

func TestLoad_InvalidGranularity(t *testing.T) {
	t.Setenv("TREND_GRANULARITY", "hour")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TREND_GRANULARITY")
}

func TestLoad_InvalidTrendWindow(t *testing.T) {
	t.Setenv("TREND_WINDOW", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TREND_WINDOW")
}

func TestLoad_InsightEnabledWithoutKey(t *testing.T) {
	t.Setenv("INSIGHT_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestLoad_GroqKeyImpliesEnabled(t *testing.T) {
	t.Setenv("GROQ_API_KEY", testGroqKey)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.InsightEnabled)
}

func TestLoad_InsightExplicitlyDisabled(t *testing.T) {
	t.Setenv("GROQ_API_KEY", testGroqKey)
	t.Setenv("INSIGHT_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.InsightEnabled)
}

func TestLoad_InvalidInsightConcurrency(t *testing.T) {
	t.Setenv("INSIGHT_CONCURRENCY", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSIGHT_CONCURRENCY")
}
