package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchHotspot() Hotspot {
	return Hotspot{
		ID:       "hs-test",
		Centroid: Geo{Lat: 53.35, Lon: -6.26},
	}
}

func perceptionReport(lat, lon float64, theme string, ts time.Time) PerceptionReport {
	return PerceptionReport{
		Kind:      ReportInfrastructure,
		Geo:       Geo{Lat: lat, Lon: lon},
		Theme:     theme,
		Timestamp: ts,
	}
}

func TestMatchReports_RadiusBoundary(t *testing.T) {
	base := time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC)

	reports := []PerceptionReport{
		// ~11m north of the centroid.
		perceptionReport(53.35010, -6.26, "Poor Surface", base),
		// ~30m north: outside a 25m radius.
		perceptionReport(53.35027, -6.26, "Close Pass", base),
	}

	matches := MatchReports(matchHotspot(), reports, 25)

	require.Len(t, matches, 1)
	assert.Equal(t, "Poor Surface", matches[0].Report.Theme)
	assert.InDelta(t, 11.1, matches[0].DistanceM, 0.5)
}

func TestMatchReports_OrderedByDistance(t *testing.T) {
	base := time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC)

	reports := []PerceptionReport{
		perceptionReport(53.35015, -6.26, "far", base),
		perceptionReport(53.35005, -6.26, "near", base),
		perceptionReport(53.35010, -6.26, "mid", base),
	}

	matches := MatchReports(matchHotspot(), reports, 25)

	require.Len(t, matches, 3)
	assert.Equal(t, "near", matches[0].Report.Theme)
	assert.Equal(t, "mid", matches[1].Report.Theme)
	assert.Equal(t, "far", matches[2].Report.Theme)
}

func TestMatchReports_DistanceTieBrokenByTimestamp(t *testing.T) {
	base := time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC)

	// Same location, different timestamps: earlier report first.
	reports := []PerceptionReport{
		perceptionReport(53.35005, -6.26, "later", base.Add(time.Hour)),
		perceptionReport(53.35005, -6.26, "earlier", base),
	}

	matches := MatchReports(matchHotspot(), reports, 25)

	require.Len(t, matches, 2)
	assert.Equal(t, "earlier", matches[0].Report.Theme)
	assert.Equal(t, "later", matches[1].Report.Theme)
}

func TestMatchReports_NoReports(t *testing.T) {
	assert.Empty(t, MatchReports(matchHotspot(), nil, 25))
}

func TestMatchReports_Pure(t *testing.T) {
	base := time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC)
	reports := []PerceptionReport{
		perceptionReport(53.35005, -6.26, "a", base),
		perceptionReport(53.35010, -6.26, "b", base),
	}

	first := MatchReports(matchHotspot(), reports, 25)
	second := MatchReports(matchHotspot(), reports, 25)
	assert.Equal(t, first, second)

	// Input slice untouched.
	assert.Equal(t, "a", reports[0].Theme)
	assert.Equal(t, "b", reports[1].Theme)
}

func TestThemeCounts(t *testing.T) {
	base := time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC)
	matches := []ReportMatch{
		{Report: perceptionReport(53.35, -6.26, "Close Pass", base)},
		{Report: perceptionReport(53.35, -6.26, "Close Pass", base)},
		{Report: perceptionReport(53.35, -6.26, "", base)},
	}

	counts := ThemeCounts(matches)
	assert.Equal(t, map[string]int{"Close Pass": 2, "Unknown": 1}, counts)

	assert.Nil(t, ThemeCounts(nil))
}

func TestSentimentScore(t *testing.T) {
	rideMatch := func(rating float64) ReportMatch {
		return ReportMatch{Report: PerceptionReport{Kind: ReportRide, Rating: rating}}
	}

	tests := []struct {
		name     string
		matches  []ReportMatch
		expected float64
	}{
		{"no matches", nil, 0},
		{
			"infrastructure reports ignored",
			[]ReportMatch{{Report: PerceptionReport{Kind: ReportInfrastructure, Rating: 5}}},
			0,
		},
		{"unrated ride ignored", []ReportMatch{rideMatch(0)}, 0},
		{"mean of ratings", []ReportMatch{rideMatch(2), rideMatch(4)}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SentimentScore(tt.matches), 1e-9)
		})
	}
}

func TestMatchComments(t *testing.T) {
	matches := []ReportMatch{
		{Report: PerceptionReport{Comment: "first"}},
		{Report: PerceptionReport{Comment: ""}},
		{Report: PerceptionReport{Comment: "second"}},
		{Report: PerceptionReport{Comment: "third"}},
	}

	assert.Equal(t, []string{"first", "second"}, MatchComments(matches, 2))
	assert.Empty(t, MatchComments(nil, 5))
}
