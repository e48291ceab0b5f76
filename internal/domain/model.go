package domain

import "time"

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SensorReading is one abnormal cycling event recorded by a device.
// Immutable once parsed; loaded once per run.
type SensorReading struct {
	DeviceID  string    `json:"device_id"`
	Geo       Geo       `json:"geo"`
	Severity  float64   `json:"severity"`
	EventType string    `json:"event_type,omitempty"`
	SpeedKMH  float64   `json:"speed_kmh,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReportKind distinguishes the two perception datasets.
type ReportKind string

const (
	ReportInfrastructure ReportKind = "infrastructure"
	ReportRide           ReportKind = "ride"
)

// PerceptionReport is a user-submitted, geolocated report of a road issue.
// Rating is only populated for ride reports; 0 means unrated.
type PerceptionReport struct {
	Kind      ReportKind `json:"kind"`
	Geo       Geo        `json:"geo"`
	Theme     string     `json:"theme,omitempty"`
	Comment   string     `json:"comment,omitempty"`
	Rating    float64    `json:"rating,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Hotspot is a spatial cluster of sensor readings indicating a concentration
// of road-safety risk. Derived, recomputed per run, never persisted with
// identity beyond its deterministic ID.
type Hotspot struct {
	ID           string         `json:"id"`
	Centroid     Geo            `json:"centroid"`
	MemberCount  int            `json:"member_count"`
	MeanSeverity float64        `json:"mean_severity"`
	MaxSeverity  float64        `json:"max_severity"`
	AggSeverity  float64        `json:"agg_severity"`
	RiskScore    float64        `json:"risk_score"`
	RiskLevel    string         `json:"risk_level"`
	DeviceCount  int            `json:"device_count"`
	EventTypes   map[string]int `json:"event_types,omitempty"`
	FirstSeen    time.Time      `json:"first_seen"`
	LastSeen     time.Time      `json:"last_seen"`

	// Members holds indexes into the detector's input slice. Used by
	// invariant checks; not part of the serialized output.
	Members []int `json:"-"`
}

// ReportMatch links a PerceptionReport to a hotspot with the measured
// centroid distance. Valid only when DistanceM is at or under the matching
// radius used to produce it.
type ReportMatch struct {
	Report    PerceptionReport `json:"report"`
	DistanceM float64          `json:"distance_m"`
}

// TrendBucket is one fixed-width time interval of the trend series.
type TrendBucket struct {
	Start       time.Time `json:"start"`
	Count       int       `json:"count"`
	Baseline    float64   `json:"baseline,omitempty"`
	ZScore      float64   `json:"z_score,omitempty"`
	Anomaly     bool      `json:"anomaly"`
	AnomalyType string    `json:"anomaly_type,omitempty"` // "spike" or "drop"
}

// TrendStats summarizes the direction of the whole trend series.
type TrendStats struct {
	Slope         float64 `json:"slope"`
	Direction     string  `json:"direction"` // "increasing", "decreasing", "stable"
	PercentChange float64 `json:"percent_change"`
	Mean          float64 `json:"mean"`
	StdDev        float64 `json:"std_dev"`
}

// Insight is the natural-language analysis of one hotspot. Method records
// whether it came from the AI collaborator ("ai") or the deterministic
// fallback ("fallback").
type Insight struct {
	Summary         string   `json:"summary"`
	Themes          []string `json:"themes,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Method          string   `json:"method"`
	Model           string   `json:"model,omitempty"`
}

// HotspotAnalysis is a hotspot enriched with matched perception reports and
// an insight.
type HotspotAnalysis struct {
	Hotspot        Hotspot        `json:"hotspot"`
	Matches        []ReportMatch  `json:"matches"`
	ThemeCounts    map[string]int `json:"theme_counts,omitempty"`
	DominantTheme  string         `json:"dominant_theme,omitempty"`
	SentimentScore float64        `json:"sentiment_score,omitempty"`
	Insight        Insight        `json:"insight"`
}

// SkipCounts records rows dropped at the CSV parsing boundary, per dataset.
type SkipCounts struct {
	SensorRows int `json:"sensor_rows"`
	InfraRows  int `json:"infra_rows"`
	RideRows   int `json:"ride_rows"`
}

// Result is the structured outcome of one full analysis run, consumed by the
// HTTP API, the report generator, and the optional Kafka/Postgres sinks.
type Result struct {
	RunID         string            `json:"run_id"`
	GeneratedAt   time.Time         `json:"generated_at"`
	SensorCount   int               `json:"sensor_count"`
	ReportCount   int               `json:"report_count"`
	Skipped       SkipCounts        `json:"skipped"`
	Hotspots      []HotspotAnalysis `json:"hotspots"`
	TrendBuckets  []TrendBucket     `json:"trend_buckets"`
	TrendStats    TrendStats        `json:"trend_stats"`
	MatchRadiusM  float64           `json:"match_radius_m"`
	AnomalyCount  int               `json:"anomaly_count"`
	CriticalCount int               `json:"critical_count"`
}
