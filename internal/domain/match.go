package domain

import "sort"

// MatchReports finds the perception reports within radiusM of the hotspot
// centroid. Pure function of its inputs: nothing is shared between hotspots,
// so callers may evaluate hotspots in parallel.
//
// Matches are ordered nearest first, ties broken by earlier report timestamp.
func MatchReports(h Hotspot, reports []PerceptionReport, radiusM float64) []ReportMatch {
	var matches []ReportMatch
	for _, r := range reports {
		d := HaversineM(h.Centroid, r.Geo)
		if d <= radiusM {
			matches = append(matches, ReportMatch{Report: r, DistanceM: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].DistanceM != matches[j].DistanceM {
			return matches[i].DistanceM < matches[j].DistanceM
		}
		return matches[i].Report.Timestamp.Before(matches[j].Report.Timestamp)
	})
	return matches
}

// ThemeCounts tallies the report themes in a match set. Reports without a
// theme count under "Unknown".
func ThemeCounts(matches []ReportMatch) map[string]int {
	if len(matches) == 0 {
		return nil
	}
	counts := make(map[string]int, len(matches))
	for _, m := range matches {
		theme := m.Report.Theme
		if theme == "" {
			theme = "Unknown"
		}
		counts[theme]++
	}
	return counts
}

// SentimentScore averages the incident ratings of matched ride reports
// (1–5 scale, lower is worse). Returns 0 when no matched ride report
// carries a rating.
func SentimentScore(matches []ReportMatch) float64 {
	var sum float64
	var n int
	for _, m := range matches {
		if m.Report.Kind == ReportRide && m.Report.Rating > 0 {
			sum += m.Report.Rating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// MatchComments returns up to max non-empty comments from the match set, in
// match order (nearest first).
func MatchComments(matches []ReportMatch, max int) []string {
	var comments []string
	for _, m := range matches {
		if len(comments) >= max {
			break
		}
		if m.Report.Comment != "" {
			comments = append(comments, m.Report.Comment)
		}
	}
	return comments
}
