package groq

import (
	"errors"
	"sort"
	"strings"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
)

// parseInsight extracts the SUMMARY / THEMES / RECOMMENDATIONS sections from
// a model response. Models drift, so parsing is lenient about whitespace and
// bullet styles, but a response with no SUMMARY section is rejected.
func parseInsight(content string) (domain.Insight, error) {
	var insight domain.Insight
	section := ""

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case hasHeader(line, "SUMMARY:"):
			section = "summary"
			line = trimHeader(line, "SUMMARY:")
		case hasHeader(line, "THEMES:"):
			section = "themes"
			line = trimHeader(line, "THEMES:")
		case hasHeader(line, "RECOMMENDATIONS:"):
			section = "recommendations"
			line = trimHeader(line, "RECOMMENDATIONS:")
		}
		if line == "" {
			continue
		}

		switch section {
		case "summary":
			if insight.Summary != "" {
				insight.Summary += " "
			}
			insight.Summary += line
		case "themes":
			for _, theme := range strings.Split(line, ",") {
				if theme = strings.TrimSpace(theme); theme != "" {
					insight.Themes = append(insight.Themes, theme)
				}
			}
		case "recommendations":
			if rec := trimBullet(line); rec != "" {
				insight.Recommendations = append(insight.Recommendations, rec)
			}
		}
	}

	if insight.Summary == "" {
		return domain.Insight{}, errors.New("response has no SUMMARY section")
	}
	return insight, nil
}

func hasHeader(line, header string) bool {
	return strings.HasPrefix(strings.ToUpper(line), header)
}

func trimHeader(line, header string) string {
	return strings.TrimSpace(line[len(header):])
}

// trimBullet strips "-", "*", and "1." style list markers.
func trimBullet(line string) string {
	line = strings.TrimLeft(line, "-* \t")
	if i := strings.IndexByte(line, '.'); i > 0 && i <= 2 && isDigits(line[:i]) {
		line = line[i+1:]
	}
	return strings.TrimSpace(line)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
