// Package report renders an analysis result into a PDF for stakeholders who
// work from documents rather than dashboards.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
)

const (
	titleText  = "Spinovate Safety Dashboard"
	maxCards   = 10
	maxMatches = 3
)

// Generator writes PDF reports into a directory.
type Generator struct {
	dir string
}

// NewGenerator creates a Generator writing into dir, creating it if needed.
func NewGenerator(dir string) (*Generator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &Generator{dir: dir}, nil
}

// Filename returns the deterministic report name for a result. One report
// per day: rerunning the analysis overwrites that day's file.
func Filename(result *domain.Result) string {
	return fmt.Sprintf("road_safety_report_%s.pdf", result.GeneratedAt.UTC().Format("20060102"))
}

// Generate renders the result and returns the written file path.
func (g *Generator) Generate(result *domain.Result) (string, error) {
	pdf := buildPDF(result)

	path := filepath.Join(g.dir, Filename(result))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func buildPDF(result *domain.Result) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(30, 60, 110)
		pdf.CellFormat(0, 10, titleText, "", 1, "C", false, 0, "")
		pdf.SetDrawColor(30, 60, 110)
		pdf.Line(10, 22, 200, 22)
		pdf.Ln(4)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	writeSummary(pdf, result)
	writeMetricGrid(pdf, result)
	writeHotspots(pdf, result)
	writeTrend(pdf, result)
	return pdf
}

func writeSummary(pdf *fpdf.Fpdf, result *domain.Result) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, "Road Safety Analysis Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s | Run %s",
		result.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), result.RunID), "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func writeMetricGrid(pdf *fpdf.Fpdf, result *domain.Result) {
	metrics := []struct {
		label string
		value string
	}{
		{"Sensor events", fmt.Sprintf("%d", result.SensorCount)},
		{"User reports", fmt.Sprintf("%d", result.ReportCount)},
		{"Hotspots", fmt.Sprintf("%d", len(result.Hotspots))},
		{"Critical hotspots", fmt.Sprintf("%d", result.CriticalCount)},
		{"Trend anomalies", fmt.Sprintf("%d", result.AnomalyCount)},
		{"Trend direction", result.TrendStats.Direction},
	}

	cellW := 63.3
	for i, m := range metrics {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetFillColor(240, 244, 250)
		pdf.CellFormat(cellW, 9, m.value, "1", 0, "C", true, 0, "")
		if (i+1)%3 == 0 {
			pdf.Ln(-1)
			for _, mm := range metrics[i-2 : i+1] {
				pdf.SetFont("Helvetica", "", 8)
				pdf.CellFormat(cellW, 5, mm.label, "1", 0, "C", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}
	pdf.Ln(4)
}

func writeHotspots(pdf *fpdf.Fpdf, result *domain.Result) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Top Hotspots", "", 1, "L", false, 0, "")

	if len(result.Hotspots) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, "No hotspots detected in the current dataset.", "", 1, "L", false, 0, "")
		pdf.Ln(2)
		return
	}

	hotspots := result.Hotspots
	if len(hotspots) > maxCards {
		hotspots = hotspots[:maxCards]
	}
	for rank, a := range hotspots {
		writeHotspotCard(pdf, rank+1, a)
	}
}

func writeHotspotCard(pdf *fpdf.Fpdf, rank int, a domain.HotspotAnalysis) {
	h := a.Hotspot

	pdf.SetFont("Helvetica", "B", 10)
	r, g, b := riskColor(h.RiskLevel)
	pdf.SetTextColor(r, g, b)
	pdf.CellFormat(0, 6, fmt.Sprintf("#%d  %s  (%.5f, %.5f)", rank, h.RiskLevel, h.Centroid.Lat, h.Centroid.Lon),
		"", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("%d events from %d devices | severity avg %.1f max %.1f | %s to %s",
		h.MemberCount, h.DeviceCount, h.MeanSeverity, h.MaxSeverity,
		h.FirstSeen.UTC().Format("2006-01-02"), h.LastSeen.UTC().Format("2006-01-02")),
		"", 1, "L", false, 0, "")

	if len(a.Matches) > 0 {
		line := fmt.Sprintf("%d matched reports", len(a.Matches))
		if a.DominantTheme != "" {
			line += " | theme: " + a.DominantTheme
		}
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		for _, m := range a.Matches[:min(len(a.Matches), maxMatches)] {
			if m.Report.Comment == "" {
				continue
			}
			pdf.SetFont("Helvetica", "I", 8)
			pdf.MultiCell(0, 4, fmt.Sprintf(`  "%s" (%.0fm away)`, m.Report.Comment, m.DistanceM), "", "L", false)
			pdf.SetFont("Helvetica", "", 9)
		}
	}

	if a.Insight.Summary != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 4.5, a.Insight.Summary, "", "L", false)
		if len(a.Insight.Recommendations) > 0 {
			pdf.SetFont("Helvetica", "B", 9)
			pdf.CellFormat(0, 5, "Recommended: "+strings.Join(a.Insight.Recommendations, "; "), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(3)
}

func writeTrend(pdf *fpdf.Fpdf, result *domain.Result) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Trend", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	stats := result.TrendStats
	pdf.CellFormat(0, 6, fmt.Sprintf("Direction %s | mean %.1f events per bucket | change %.1f%% across the period",
		stats.Direction, stats.Mean, stats.PercentChange), "", 1, "L", false, 0, "")

	anomalies := 0
	for _, b := range result.TrendBuckets {
		if !b.Anomaly {
			continue
		}
		anomalies++
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("  %s: %s of %d events (baseline %.1f)",
			b.Start.UTC().Format("2006-01-02"), b.AnomalyType, b.Count, b.Baseline), "", 1, "L", false, 0, "")
	}
	if anomalies == 0 {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, "  No anomalous periods detected.", "", 1, "L", false, 0, "")
	}
}

func riskColor(level string) (int, int, int) {
	switch level {
	case "Critical":
		return 180, 30, 30
	case "High":
		return 200, 110, 20
	case "Medium":
		return 170, 140, 20
	default:
		return 40, 120, 50
	}
}
