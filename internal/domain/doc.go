// Package domain models road-safety sensor and perception data for the
// Dublin cycling safety analysis service.
//
// # Data Sources
//
// Three CSV datasets feed the service:
//
// Sensor readings — accelerometer-derived abnormal cycling events exported
// from the sensor platform. Columns:
//
//	position_latitude, position_longitude  WGS-84 decimal degrees
//	max_severity                           0–10 severity score for the event
//	timestamp                              Unix seconds (UTC)
//	device_id                              opaque device identifier
//	event_type                             "braking", "acceleration", "cornering", "pothole"
//	speed_kmh                              speed at the time of the event
//
// Infrastructure reports — user-submitted reports of infrastructure problems.
// Columns: lat, lng, date ("2006-01-02"), time ("15:04:05" or "15:04"),
// infrastructuretype, finalcomment.
//
// Ride reports — user-submitted reports of incidents experienced during a
// ride. Columns: lat, lng, date, time, incidenttype, commentfinal,
// incidentrating (1–5, lower is worse; empty when unrated).
//
// Field-collected CSVs are messy: rows with missing or out-of-range
// coordinates, unparseable timestamps, or negative severity are skipped and
// counted, never fatal. Validation happens exactly once, at this parsing
// boundary; downstream code assumes well-formed records.
//
// # Hotspots
//
// Readings at or above the configured severity threshold are clustered with
// fixed-radius single-linkage clustering: two readings are neighbors when
// their haversine distance is at or under the cluster radius, and a cluster
// is the connected component of the neighbor graph. Components smaller than
// the minimum cluster size are discarded. Hotspots order by aggregate
// severity (descending), then member count, then first-seen time, so a run
// over identical input is reproducible.
//
// Risk levels (Critical, High, Medium, Low) derive from a blend of mean
// severity and incident count, matching the operational thresholds used by
// the dashboard: score = 0.6·meanSeverity + 0.4·min(count/10, 10).
//
// # IDs
//
// Hotspot IDs are deterministic SHA-256 hashes of the rounded centroid,
// member count and first-seen time. Re-running the detector on the same
// input yields the same IDs, which keeps downstream persistence idempotent
// and the insight cache stable across runs.
package domain
