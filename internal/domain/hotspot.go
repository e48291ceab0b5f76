package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
)

// ClusterConfig holds the hotspot detector knobs. Zero values are invalid;
// config validation happens at load time, not here.
type ClusterConfig struct {
	// RadiusM is the neighbor distance threshold in meters.
	RadiusM float64
	// MinClusterSize is the minimum readings required to form a hotspot.
	MinClusterSize int
	// SeverityThreshold drops readings below it before clustering.
	SeverityThreshold float64
	// SeverityWeight blends max severity into the aggregate score:
	// agg = (1-w)·mean + w·max.
	SeverityWeight float64
}

// DetectHotspots clusters sensor readings into ranked hotspots using
// fixed-radius single-linkage clustering: readings within RadiusM of each
// other join the same cluster, and clusters below MinClusterSize are
// discarded. The neighbor scan is quadratic, which is fine for the
// session-sized in-memory tables this service works on.
//
// Output is ordered by descending aggregate severity, ties broken by larger
// member count, then earlier first-seen time. Empty input, or input with no
// qualifying cluster, yields an empty (nil) slice.
func DetectHotspots(readings []SensorReading, cfg ClusterConfig) []Hotspot {
	// Indexes of readings that qualify for clustering.
	eligible := make([]int, 0, len(readings))
	for i, r := range readings {
		if r.Severity >= cfg.SeverityThreshold {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	components := connectedComponents(readings, eligible, cfg.RadiusM)

	var hotspots []Hotspot
	for _, members := range components {
		if len(members) < cfg.MinClusterSize {
			continue
		}
		hotspots = append(hotspots, buildHotspot(readings, members, cfg.SeverityWeight))
	}

	sort.SliceStable(hotspots, func(i, j int) bool {
		a, b := hotspots[i], hotspots[j]
		if a.AggSeverity != b.AggSeverity {
			return a.AggSeverity > b.AggSeverity
		}
		if a.MemberCount != b.MemberCount {
			return a.MemberCount > b.MemberCount
		}
		return a.FirstSeen.Before(b.FirstSeen)
	})
	return hotspots
}

// connectedComponents groups the eligible reading indexes into clusters via
// breadth-first search over the radius-neighbor graph. Iterating seeds in
// input order keeps component membership deterministic.
func connectedComponents(readings []SensorReading, eligible []int, radiusM float64) [][]int {
	visited := make(map[int]bool, len(eligible))
	var components [][]int

	for _, seed := range eligible {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		component := []int{seed}
		queue := []int{seed}

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, candidate := range eligible {
				if visited[candidate] {
					continue
				}
				if HaversineM(readings[current].Geo, readings[candidate].Geo) <= radiusM {
					visited[candidate] = true
					component = append(component, candidate)
					queue = append(queue, candidate)
				}
			}
		}
		components = append(components, component)
	}
	return components
}

func buildHotspot(readings []SensorReading, members []int, severityWeight float64) Hotspot {
	points := make([]Geo, len(members))
	devices := make(map[string]bool)
	eventTypes := make(map[string]int)

	h := Hotspot{
		MemberCount: len(members),
		Members:     append([]int(nil), members...),
		FirstSeen:   readings[members[0]].Timestamp,
		LastSeen:    readings[members[0]].Timestamp,
	}

	var severitySum float64
	for i, idx := range members {
		r := readings[idx]
		points[i] = r.Geo
		severitySum += r.Severity
		if r.Severity > h.MaxSeverity {
			h.MaxSeverity = r.Severity
		}
		if r.Timestamp.Before(h.FirstSeen) {
			h.FirstSeen = r.Timestamp
		}
		if r.Timestamp.After(h.LastSeen) {
			h.LastSeen = r.Timestamp
		}
		if r.DeviceID != "" {
			devices[r.DeviceID] = true
		}
		if r.EventType != "" {
			eventTypes[r.EventType]++
		}
	}

	h.Centroid = Centroid(points)
	h.MeanSeverity = severitySum / float64(len(members))
	h.AggSeverity = (1-severityWeight)*h.MeanSeverity + severityWeight*h.MaxSeverity
	h.RiskScore = h.MeanSeverity * math.Log1p(float64(h.MemberCount))
	h.RiskLevel = classifyRisk(h.MeanSeverity, h.MemberCount)
	h.DeviceCount = len(devices)
	if len(eventTypes) > 0 {
		h.EventTypes = eventTypes
	}
	h.ID = hotspotID(h.Centroid, h.MemberCount, h.FirstSeen.Unix())
	return h
}

// classifyRisk maps severity and frequency to the dashboard's four-level
// risk scale: score = 0.6·meanSeverity + 0.4·min(count/10, 10).
func classifyRisk(meanSeverity float64, count int) string {
	score := meanSeverity*0.6 + math.Min(float64(count)/10, 10)*0.4
	switch {
	case score >= 3.5:
		return "Critical"
	case score >= 2.5:
		return "High"
	case score >= 1.5:
		return "Medium"
	default:
		return "Low"
	}
}

// hotspotID produces a deterministic ID from the cluster's key fields.
// Reprocessing the same readings yields the same ID, so persistence and
// insight caching stay idempotent across runs.
func hotspotID(centroid Geo, count int, firstSeenUnix int64) string {
	input := fmt.Sprintf("%.6f|%.6f|%d|%d", centroid.Lat, centroid.Lon, count, firstSeenUnix)
	hash := sha256.Sum256([]byte(input))
	return "hs-" + hex.EncodeToString(hash[:8])
}
