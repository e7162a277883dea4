// Package analysis recovers structured payloads from free-form model text
// and normalizes them into the canonical result shapes. Recovery is
// best-effort by design: every failure route lands on a deterministic
// fallback payload, so normalization is total.
package analysis

import (
	"encoding/json"
	"strings"

	"github.com/hollowbyte/subtext-backend/internal/sanitize"
)

// Payload is the untyped object recovered from a model reply.
type Payload map[string]any

// ExtractPayload sanitizes raw model text and recovers the JSON object
// anchored to the final closing brace. The greedy span (first "{" to last
// "}") is tried first, then the balanced region ending at the last "}".
// Returns (nil, false) when nothing parseable is present.
func ExtractPayload(raw string) (Payload, bool) {
	text := sanitize.Text(raw)

	lastClose := strings.LastIndex(text, "}")
	if lastClose < 0 {
		return nil, false
	}
	firstOpen := strings.Index(text, "{")
	if firstOpen < 0 || firstOpen > lastClose {
		return nil, false
	}

	if p, ok := tryDecode(text[firstOpen : lastClose+1]); ok {
		return p, true
	}
	if start, ok := balancedStart(text, lastClose); ok && start != firstOpen {
		if p, ok := tryDecode(text[start : lastClose+1]); ok {
			return p, true
		}
	}
	return nil, false
}

func tryDecode(candidate string) (Payload, bool) {
	var p Payload
	if err := json.Unmarshal([]byte(candidate), &p); err != nil {
		return nil, false
	}
	if p == nil {
		return nil, false
	}
	return p, true
}

// balancedStart walks backwards from the closing brace at end counting brace
// depth, skipping braces inside string literals. Braces and quotes are ASCII
// so byte indexing is safe.
func balancedStart(text string, end int) (int, bool) {
	depth := 0
	inString := false
	for i := end; i >= 0; i-- {
		c := text[i]
		if c == '"' && (i == 0 || text[i-1] != '\\') {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '}':
			depth++
		case '{':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
