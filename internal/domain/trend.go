package domain

import (
	"math"
	"sort"
	"time"
)

// Granularity selects the trend bucket width.
type Granularity string

const (
	GranularityDay  Granularity = "day"
	GranularityWeek Granularity = "week"
)

// Valid reports whether g is a supported granularity.
func (g Granularity) Valid() bool {
	return g == GranularityDay || g == GranularityWeek
}

// bucketStart truncates t to the start of its bucket in UTC. Weeks start on
// Monday.
func (g Granularity) bucketStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if g == GranularityDay {
		return day
	}
	// Monday = 0 offset; Go's Sunday = 0 needs remapping.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func (g Granularity) next(t time.Time) time.Time {
	if g == GranularityDay {
		return t.AddDate(0, 0, 1)
	}
	return t.AddDate(0, 0, 7)
}

// TrendConfig holds the trend analyzer knobs.
type TrendConfig struct {
	Granularity Granularity
	// Window is the number of prior buckets forming the rolling baseline.
	Window int
	// ZThreshold flags a bucket anomalous when |count-baseline| exceeds this
	// many baseline standard deviations.
	ZThreshold float64
}

// zScoreEpsilon keeps the z-score finite over a flat baseline while still
// flagging any genuine deviation from it.
const zScoreEpsilon = 1e-6

// BuildTrend buckets event timestamps at the configured granularity and
// flags anomalies against a trailing rolling baseline.
//
// The returned buckets partition [first event, last event] with zero-filled
// gaps: no gaps, no overlaps, and the counts sum to len(events). Buckets with
// fewer than Window prior buckets have no baseline and are never flagged —
// insufficient history, not an error. Empty input yields nil.
func BuildTrend(events []time.Time, cfg TrendConfig) []TrendBucket {
	if len(events) == 0 {
		return nil
	}

	counts := make(map[time.Time]int, len(events))
	first := cfg.Granularity.bucketStart(events[0])
	last := first
	for _, e := range events {
		start := cfg.Granularity.bucketStart(e)
		counts[start]++
		if start.Before(first) {
			first = start
		}
		if start.After(last) {
			last = start
		}
	}

	var buckets []TrendBucket
	for start := first; !start.After(last); start = cfg.Granularity.next(start) {
		buckets = append(buckets, TrendBucket{Start: start, Count: counts[start]})
	}

	for i := range buckets {
		if i < cfg.Window {
			continue
		}
		mean, std := meanStd(buckets[i-cfg.Window : i])
		b := &buckets[i]
		b.Baseline = mean
		b.ZScore = math.Abs(float64(b.Count)-mean) / (std + zScoreEpsilon)
		if b.ZScore > cfg.ZThreshold {
			b.Anomaly = true
			if float64(b.Count) > mean {
				b.AnomalyType = "spike"
			} else {
				b.AnomalyType = "drop"
			}
		}
	}
	return buckets
}

func meanStd(buckets []TrendBucket) (float64, float64) {
	var sum float64
	for _, b := range buckets {
		sum += float64(b.Count)
	}
	mean := sum / float64(len(buckets))

	var variance float64
	for _, b := range buckets {
		d := float64(b.Count) - mean
		variance += d * d
	}
	variance /= float64(len(buckets))
	return mean, math.Sqrt(variance)
}

// SummarizeTrend fits a least-squares line through the bucket counts and
// labels the direction. The direction is "stable" unless the modeled change
// across the range exceeds 10% of the mean count; there is no p-value here,
// just a practical significance floor.
func SummarizeTrend(buckets []TrendBucket) TrendStats {
	if len(buckets) == 0 {
		return TrendStats{Direction: "stable"}
	}

	mean, std := meanStd(buckets)
	stats := TrendStats{Direction: "stable", Mean: mean, StdDev: std}
	if len(buckets) < 2 {
		return stats
	}

	// Least-squares slope with x = 0..n-1.
	n := float64(len(buckets))
	xMean := (n - 1) / 2
	var num, den float64
	for i, b := range buckets {
		dx := float64(i) - xMean
		num += dx * (float64(b.Count) - mean)
		den += dx * dx
	}
	stats.Slope = num / den

	firstCount := float64(buckets[0].Count)
	lastCount := float64(buckets[len(buckets)-1].Count)
	if firstCount != 0 {
		stats.PercentChange = (lastCount - firstCount) / firstCount * 100
	}

	modeledChange := math.Abs(stats.Slope) * (n - 1)
	if mean > 0 && modeledChange > 0.1*mean {
		if stats.Slope > 0 {
			stats.Direction = "increasing"
		} else {
			stats.Direction = "decreasing"
		}
	}
	return stats
}

// SortTimes sorts timestamps ascending in place and returns the slice.
// The loader collects events per CSV row order; bucketing itself is order
// independent, but a sorted slice keeps fixtures and logs readable.
func SortTimes(events []time.Time) []time.Time {
	sort.Slice(events, func(i, j int) bool { return events[i].Before(events[j]) })
	return events
}
