// Package sanitize repairs mis-encoded characters and strips decorative
// markup from model output before any text leaves the pipeline. Both passes
// are idempotent: Text(Text(s)) == Text(s).
package sanitize

import (
	"regexp"
	"strings"
)

// UTF-8 bytes decoded once as Latin-1 (and the cp1252 shapes the same bytes
// produce, which is what actually shows up in the wild). Longest sequences
// first so the bare marker byte never eats a longer pair.
var encodingRepairer = strings.NewReplacer(
	"â", "’", // ’ via latin-1
	"â", "‘", // ‘
	"â", "“", // “
	"â", "”", // ”
	"â", "–", // –
	"â", "—", // —
	"â¦", "…", // …
	"â¢", "•", // •
	"â€™", "’", // ’ via cp1252 ("â€™")
	"â€˜", "‘", // ‘ ("â€˜")
	"â€œ", "“", // “ ("â€œ")
	"â€“", "–", // – ("â€“")
	"â€”", "—", // — ("â€”")
	"â€¦", "…", // … ("â€¦")
	"â€¢", "•", // • ("â€¢")
	"Â", "", // stray Â marker
)

var (
	listMarkerRE    = regexp.MustCompile(`(?m)^[ \t]*[-*][ \t]+`)
	blockquoteRE    = regexp.MustCompile(`(?m)^>[ \t]?`)
	boldRE          = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	underlineRE     = regexp.MustCompile(`__([^_]+)__`)
	italicStarRE    = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicUnderRE   = regexp.MustCompile(`\b_([^_\n]+)_\b`)
	periodRunRE     = regexp.MustCompile(`\.{3,}`)
	blankRunRE      = regexp.MustCompile(`\n{3,}`)
	trailingSpaceRE = regexp.MustCompile(`[ \t]+\n`)
	dashVariantRE   = regexp.MustCompile("[–―]")
)

// Bullet is the canonical list glyph every list marker normalizes to.
const Bullet = "•"

// RepairEncoding replaces the known mojibake byte sequences with the
// characters they originally were.
func RepairEncoding(s string) string {
	return encodingRepairer.Replace(s)
}

// StripMarkup removes emphasis wrappers, canonicalizes list and quote
// markers, and collapses decorative runs.
func StripMarkup(s string) string {
	s = listMarkerRE.ReplaceAllString(s, Bullet+" ")
	s = blockquoteRE.ReplaceAllString(s, "")
	s = boldRE.ReplaceAllString(s, "$1")
	s = underlineRE.ReplaceAllString(s, "$1")
	s = italicStarRE.ReplaceAllString(s, "$1")
	s = italicUnderRE.ReplaceAllString(s, "$1")
	s = periodRunRE.ReplaceAllString(s, "…")
	s = dashVariantRE.ReplaceAllString(s, "—")
	s = trailingSpaceRE.ReplaceAllString(s, "\n")
	s = blankRunRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Text runs both passes.
func Text(s string) string {
	return StripMarkup(RepairEncoding(s))
}

// Deep applies Text through nested maps and slices, leaving non-string
// leaves untouched.
func Deep(v any) any {
	switch t := v.(type) {
	case string:
		return Text(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Deep(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Deep(item)
		}
		return out
	default:
		return v
	}
}
