package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// HotspotSummary is the condensed view of one analyzed hotspot handed to the
// AI collaborator. It carries everything a prompt needs and nothing it
// doesn't.
type HotspotSummary struct {
	HotspotID      string
	Centroid       Geo
	EventCount     int
	DeviceCount    int
	MeanSeverity   float64
	MaxSeverity    float64
	RiskLevel      string
	EventTypes     map[string]int
	FirstSeen      time.Time
	LastSeen       time.Time
	ReportCount    int
	ThemeCounts    map[string]int
	DominantTheme  string
	SentimentScore float64
	Comments       []string
}

// NewHotspotSummary projects a HotspotAnalysis into the form the insight
// layer consumes.
func NewHotspotSummary(a HotspotAnalysis) HotspotSummary {
	return HotspotSummary{
		HotspotID:      a.Hotspot.ID,
		Centroid:       a.Hotspot.Centroid,
		EventCount:     a.Hotspot.MemberCount,
		DeviceCount:    a.Hotspot.DeviceCount,
		MeanSeverity:   a.Hotspot.MeanSeverity,
		MaxSeverity:    a.Hotspot.MaxSeverity,
		RiskLevel:      a.Hotspot.RiskLevel,
		EventTypes:     a.Hotspot.EventTypes,
		FirstSeen:      a.Hotspot.FirstSeen,
		LastSeen:       a.Hotspot.LastSeen,
		ReportCount:    len(a.Matches),
		ThemeCounts:    a.ThemeCounts,
		DominantTheme:  a.DominantTheme,
		SentimentScore: a.SentimentScore,
		Comments:       MatchComments(a.Matches, 10),
	}
}

// Insighter generates a natural-language insight for a hotspot.
type Insighter interface {
	HotspotInsight(ctx context.Context, s HotspotSummary) (Insight, error)
}

// EnrichWithInsight attaches an insight to the analysis. If insighter is nil
// or the call fails, the deterministic fallback insight is used instead
// (graceful degradation; a failed AI call never aborts the run).
func EnrichWithInsight(ctx context.Context, a HotspotAnalysis, insighter Insighter, logger *slog.Logger) HotspotAnalysis {
	if insighter == nil {
		a.Insight = FallbackInsight(NewHotspotSummary(a))
		return a
	}

	insight, err := insighter.HotspotInsight(ctx, NewHotspotSummary(a))
	if err != nil {
		logger.Warn("insight generation failed, using fallback",
			"hotspot_id", a.Hotspot.ID,
			"error", err,
		)
		a.Insight = FallbackInsight(NewHotspotSummary(a))
		return a
	}
	a.Insight = insight
	return a
}

// fallbackRecommendations maps a dominant theme to the canned recommendation
// used when the AI collaborator is unavailable.
var fallbackRecommendations = map[string]string{
	"Close Pass":   "Review lane widths and consider protected cycle infrastructure at this location.",
	"Poor Surface": "Inspect and resurface the carriageway at this location.",
	"Obstruction":  "Increase enforcement against vehicles blocking the cycle route.",
}

// FallbackInsight builds the deterministic rule-based insight used when no
// AI credential is configured or the AI call fails. Same summary input,
// same output — tests and the exported report rely on that.
func FallbackInsight(s HotspotSummary) Insight {
	summary := fmt.Sprintf(
		"This location shows %d abnormal cycling events with an average severity of %.1f/10.",
		s.EventCount, s.MeanSeverity,
	)
	if eventType, share := dominantEventType(s.EventTypes, s.EventCount); eventType != "" {
		summary += fmt.Sprintf(
			" The dominant event type is %s (%.1f%% of events), suggesting specific road conditions or traffic patterns requiring attention.",
			eventType, share,
		)
	}
	if s.ReportCount > 0 {
		summary += fmt.Sprintf(
			" %d user reports corroborate these findings; the convergence of sensor data and user experiences confirms this as a genuine safety concern.",
			s.ReportCount,
		)
	} else {
		summary += " No user perception reports are available for this location, making the sensor data the primary evidence of safety issues."
	}

	themes := topThemes(s.ThemeCounts, 4)
	if len(themes) == 0 && s.DominantTheme != "" {
		themes = []string{s.DominantTheme}
	}

	recommendation, ok := fallbackRecommendations[s.DominantTheme]
	if !ok {
		recommendation = "Commission a site survey to identify the underlying hazard."
	}

	return Insight{
		Summary:         summary,
		Themes:          themes,
		Recommendations: []string{recommendation},
		Method:          "fallback",
		Model:           "rule_based",
	}
}

// dominantEventType returns the most frequent event type and its percentage
// share, ties broken alphabetically. Empty when no event types are known.
func dominantEventType(eventTypes map[string]int, total int) (string, float64) {
	if len(eventTypes) == 0 || total == 0 {
		return "", 0
	}
	names := make([]string, 0, len(eventTypes))
	for name := range eventTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if eventTypes[name] > eventTypes[best] {
			best = name
		}
	}
	return best, float64(eventTypes[best]) / float64(total) * 100
}

// topThemes returns up to max theme names ordered by count descending, ties
// alphabetical.
func topThemes(counts map[string]int, max int) []string {
	if len(counts) == 0 {
		return nil
	}
	themes := make([]string, 0, len(counts))
	for t := range counts {
		themes = append(themes, t)
	}
	sort.Slice(themes, func(i, j int) bool {
		if counts[themes[i]] != counts[themes[j]] {
			return counts[themes[i]] > counts[themes[j]]
		}
		return themes[i] < themes[j]
	})
	if len(themes) > max {
		themes = themes[:max]
	}
	return themes
}
