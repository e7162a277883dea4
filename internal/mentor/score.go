package mentor

import "strings"

var (
	lawMarkers       = []string{"law", "principle", "rule"}
	forbiddenMarkers = []string{"forbidden", "secret", "never"}
)

// EstimateEngagement scores how shareable a mentor reply is, 0..100.
// Deterministic and purely lexical; the weights are tuned, not derived.
func EstimateEngagement(text string) int {
	score := 50
	lower := strings.ToLower(text)
	if containsAnyWord(lower, lawMarkers) {
		score += 10
	}
	if containsAnyWord(lower, forbiddenMarkers) {
		score += 15
	}
	if len(text) > 200 {
		score += 10
	}
	if strings.HasSuffix(strings.TrimSpace(text), "?") {
		score += 5
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func containsAnyWord(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
