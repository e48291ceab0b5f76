package domain

import (
	"regexp"
	"sort"
	"strings"
)

var wordRe = regexp.MustCompile(`\b[a-z]{4,}\b`)

// themeKeywords maps a safety theme to the trigger words that imply it.
// Checked in order; the first theme with a hit wins.
var themeKeywords = []struct {
	theme string
	words []string
}{
	{"Close Pass", []string{"close", "pass", "overtake"}},
	{"Poor Surface", []string{"surface", "pothole", "rough"}},
	{"Obstruction", []string{"obstruction", "block", "parked"}},
}

// ExtractThemes derives a dominant safety theme and the most frequent
// keywords from free-text report comments. Keyword-based on purpose: it is
// the deterministic companion to the AI insight path and the source of
// fallback themes when the AI collaborator is unavailable.
func ExtractThemes(comments []string) (dominant string, keywords []string) {
	if len(comments) == 0 {
		return "", nil
	}

	text := strings.ToLower(strings.Join(comments, " "))

	dominant = "General Safety"
	for _, tk := range themeKeywords {
		for _, w := range tk.words {
			if strings.Contains(text, w) {
				dominant = tk.theme
				break
			}
		}
		if dominant != "General Safety" {
			break
		}
	}

	counts := make(map[string]int)
	for _, w := range wordRe.FindAllString(text, -1) {
		counts[w]++
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	// Frequency descending, alphabetical within ties, so the keyword list is
	// stable across runs.
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > 5 {
		words = words[:5]
	}
	return dominant, words
}
