// Package config populates service settings from environment variables. A
// .env file in the working directory is honored when present, which keeps
// local development close to the deployed container environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Dataset file paths.
	SensorCSV string
	InfraCSV  string
	RideCSV   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Hotspot detection.
	ClusterRadiusM    float64
	MinClusterSize    int
	SeverityThreshold float64
	SeverityWeight    float64

	// Report matching.
	MatchRadiusM float64

	// Trend analysis.
	TrendGranularity domain.Granularity
	TrendWindow      int
	AnomalyThreshold float64

	// Groq AI insight configuration.
	GroqAPIKey         string
	GroqModel          string
	GroqTimeout        time.Duration
	InsightEnabled     bool
	InsightCacheSize   int
	InsightConcurrency int
	InsightMaxHotspots int
	InsightTTL         time.Duration

	// Scheduled refresh; empty disables the cron trigger.
	RefreshSchedule string

	// Optional sinks, each disabled when its address is empty.
	KafkaBrokers []string
	KafkaTopic   string
	PostgresDSN  string
	RedisAddr    string

	// PDF export.
	ReportDir string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	groqTimeout, err := parseDuration("GROQ_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	insightTTL, err := parseDuration("INSIGHT_TTL", "1h")
	if err != nil {
		return nil, err
	}

	clusterRadius, err := parseFloat("CLUSTER_RADIUS_M", 30)
	if err != nil {
		return nil, err
	}
	severityThreshold, err := parseFloat("SEVERITY_THRESHOLD", 2)
	if err != nil {
		return nil, err
	}
	severityWeight, err := parseFloat("SEVERITY_WEIGHT", 0.3)
	if err != nil {
		return nil, err
	}
	matchRadius, err := parseFloat("MATCH_RADIUS_M", 25)
	if err != nil {
		return nil, err
	}
	anomalyThreshold, err := parseFloat("ANOMALY_THRESHOLD", 2.0)
	if err != nil {
		return nil, err
	}

	minClusterSize, err := parseInt("MIN_CLUSTER_SIZE", 3)
	if err != nil {
		return nil, err
	}
	trendWindow, err := parseInt("TREND_WINDOW", 7)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("INSIGHT_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	concurrency, err := parseInt("INSIGHT_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	maxHotspots, err := parseInt("INSIGHT_MAX_HOTSPOTS", 10)
	if err != nil {
		return nil, err
	}

	groqAPIKey := os.Getenv("GROQ_API_KEY")
	insightEnabled := groqAPIKey != ""
	if v := os.Getenv("INSIGHT_ENABLED"); v != "" {
		insightEnabled = v == "true"
	}

	cfg := &Config{
		SensorCSV: envOrDefault("SENSOR_CSV", "data/sensor_readings.csv"),
		InfraCSV:  envOrDefault("INFRA_CSV", "data/infrastructure_reports.csv"),
		RideCSV:   envOrDefault("RIDE_CSV", "data/ride_reports.csv"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ClusterRadiusM:    clusterRadius,
		MinClusterSize:    minClusterSize,
		SeverityThreshold: severityThreshold,
		SeverityWeight:    severityWeight,

		MatchRadiusM: matchRadius,

		TrendGranularity: domain.Granularity(envOrDefault("TREND_GRANULARITY", "day")),
		TrendWindow:      trendWindow,
		AnomalyThreshold: anomalyThreshold,

		GroqAPIKey:         groqAPIKey,
		GroqModel:          envOrDefault("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GroqTimeout:        groqTimeout,
		InsightEnabled:     insightEnabled,
		InsightCacheSize:   cacheSize,
		InsightConcurrency: concurrency,
		InsightMaxHotspots: maxHotspots,
		InsightTTL:         insightTTL,

		RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "road-safety-insights"),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),

		ReportDir: envOrDefault("REPORT_DIR", "reports"),
	}

	if cfg.SensorCSV == "" {
		return nil, errors.New("SENSOR_CSV is required")
	}
	if cfg.ClusterRadiusM <= 0 {
		return nil, errors.New("CLUSTER_RADIUS_M must be positive")
	}
	if cfg.MinClusterSize < 1 {
		return nil, errors.New("MIN_CLUSTER_SIZE must be at least 1")
	}
	if cfg.SeverityWeight < 0 || cfg.SeverityWeight > 1 {
		return nil, errors.New("SEVERITY_WEIGHT must be between 0 and 1")
	}
	if cfg.MatchRadiusM <= 0 {
		return nil, errors.New("MATCH_RADIUS_M must be positive")
	}
	if !cfg.TrendGranularity.Valid() {
		return nil, fmt.Errorf("TREND_GRANULARITY must be %q or %q", domain.GranularityDay, domain.GranularityWeek)
	}
	if cfg.TrendWindow < 1 {
		return nil, errors.New("TREND_WINDOW must be at least 1")
	}
	if cfg.AnomalyThreshold <= 0 {
		return nil, errors.New("ANOMALY_THRESHOLD must be positive")
	}
	if cfg.InsightEnabled && cfg.GroqAPIKey == "" {
		return nil, errors.New("INSIGHT_ENABLED is true but GROQ_API_KEY is not set")
	}
	if cfg.InsightConcurrency < 1 {
		return nil, errors.New("INSIGHT_CONCURRENCY must be at least 1")
	}
	if cfg.InsightCacheSize < 1 {
		return nil, errors.New("INSIGHT_CACHE_SIZE must be at least 1")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
