package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hollowbyte/subtext-backend/internal/sanitize"
	"github.com/hollowbyte/subtext-backend/internal/types"
)

const (
	maxReceipts    = 6
	receiptMaxLen  = 220
	scanCertainty  = 62
	scanViral      = 55
	patternCertain = 58
	patternViral   = 61

	powerPlayFiller = "Hold the frame: decide, offer, stop talking."

	defaultScanHeadline  = "Decoded: a move dressed up as small talk"
	defaultScanTake      = "The words are casual; the structure is a test of how available you are."
	defaultNextMove      = "Send one concrete thing, then let the silence work."
	defaultPrinciple     = "Scarcity reads as value. Availability reads as surplus."
	defaultPatternTake   = "The thread runs on one side withholding and the other compensating."
	defaultPrognosisText = "Unchanged inputs, unchanged loop."
)

// keywordRule is one ordered classification rule: first matching substring
// wins. The labels are heuristics, not guarantees.
type keywordRule struct {
	needle string
	label  string
}

var tacticRules = []keywordRule{
	{"guilt", "Guilt Lever"},
	{"jealous", "Jealousy Ping"},
	{"silent", "Strategic Silence"},
	{"ignor", "Strategic Silence"},
	{"maybe", "Breadcrumbing"},
	{"busy", "Scarcity Play"},
	{"test", "Compliance Test"},
	{"apolog", "Deflection Loop"},
	{"sorry", "Deflection Loop"},
	{"vague", "Optionality Hold"},
}

var targetingRules = []keywordRule{
	{"insecur", "Your self-doubt"},
	{"valid", "Your need for validation"},
	{"jealous", "Your fear of losing them"},
	{"fear", "Your fear of losing them"},
	{"time", "Your availability"},
	{"schedul", "Your availability"},
	{"avail", "Your availability"},
}

const (
	genericTactic    = "Mixed Signals"
	genericTargeting = "Your attention"
	matchedConf      = 72
	genericConf      = 40
)

func classify(rules []keywordRule, text, generic string) (string, int) {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if strings.Contains(lower, r.needle) {
			return r.label, matchedConf
		}
	}
	return generic, genericConf
}

var (
	dayTimeRE = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|tonight|tomorrow)\b|\b\d{1,2}(:\d{2})?\s*(am|pm)\b`)
	hostingRE = regexp.MustCompile(`(?i)\bi\s+(reserved|booked|arranged|planned|got\s+us)\b`)
)

// assertiveness estimates how much of a plan the input carries, 0..10.
// Inverted and rescaled it becomes the red_flag metric: the less concrete
// the move, the redder the flag.
func assertiveness(raw string) int {
	trimmed := strings.TrimSpace(raw)
	score := 5
	hasDayTime := dayTimeRE.MatchString(trimmed)
	if hasDayTime {
		score += 2
	}
	if hostingRE.MatchString(trimmed) {
		score += 2
	}
	if strings.HasSuffix(trimmed, "?") && !hasDayTime {
		score -= 2
	}
	if len(trimmed) < 6 {
		score -= 2
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score
}

func redFlagFrom(raw string) int {
	return clampScore((10 - assertiveness(raw)) * 10)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func riskLevelFrom(redFlag int) string {
	switch {
	case redFlag >= 67:
		return "HIGH"
	case redFlag >= 34:
		return "MODERATE"
	default:
		return "LOW"
	}
}

// strField returns a sanitized pointer to a non-empty string payload value.
func strField(p Payload, key string) *string {
	if p == nil {
		return nil
	}
	if s, ok := p[key].(string); ok {
		clean := sanitize.Text(s)
		if clean != "" {
			return &clean
		}
	}
	return nil
}

func listField(p Payload, key string) []string {
	if p == nil {
		return nil
	}
	raw, ok := p[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			clean := sanitize.Text(s)
			if clean != "" {
				out = append(out, clean)
			}
		}
	}
	return out
}

func strOrDefault(p Payload, key, def string) *string {
	if v := strField(p, key); v != nil {
		return v
	}
	d := def
	return &d
}

// exactlyThree truncates or pads to exactly 3 entries: payload-provided
// items first, then the stated principle, then canonical filler.
func exactlyThree(items []string, principle *string) []string {
	if len(items) > 3 {
		items = items[:3]
	}
	if len(items) < 3 && principle != nil {
		items = append(items, *principle)
	}
	for len(items) < 3 {
		items = append(items, powerPlayFiller)
	}
	return items
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

func capReceipts(receipts []string) []string {
	if len(receipts) > maxReceipts {
		return receipts[:maxReceipts]
	}
	return receipts
}

// scanReceipts uses an explicit message field when the payload carries one,
// else the first one or two non-empty input lines.
func scanReceipts(p Payload, rawInput string) []string {
	if msg := strField(p, "message"); msg != nil {
		return []string{truncateRunes(*msg, receiptMaxLen)}
	}
	var out []string
	for _, line := range strings.Split(rawInput, "\n") {
		line = sanitize.Text(line)
		if line == "" {
			continue
		}
		out = append(out, truncateRunes(line, receiptMaxLen))
		if len(out) == 2 {
			break
		}
	}
	return out
}

// NormalizeScan maps whatever payload is available into the canonical Scan
// shape. Total: every canonical field is populated or explicitly null.
func NormalizeScan(p Payload, rawInput, tone string) types.AnalysisResult {
	headline := strOrDefault(p, "headline", defaultScanHeadline)
	take := strOrDefault(p, "analysis", defaultScanTake)
	mistake := strField(p, "mistake")

	classifierText := joinForClassifier(take, mistake, headline)
	tacticLabel, tacticConf := classify(tacticRules, classifierText, genericTactic)
	targetingLabel, _ := classify(targetingRules, classifierText, genericTargeting)

	redFlag := redFlagFrom(rawInput)
	principle := strOrDefault(p, "principle", defaultPrinciple)
	style := sanitize.Text(tone)

	return types.AnalysisResult{
		Context:   scanContext(rawInput),
		Headline:  headline,
		CoreTake:  take,
		Tactic:    types.Tactic{Label: tacticLabel, Confidence: clampScore(tacticConf)},
		Motives:   strField(p, "motives"),
		Targeting: &targetingLabel,
		PowerPlay: exactlyThree(listField(p, "why"), principle),
		Receipts:  capReceipts(scanReceipts(p, rawInput)),
		NextMoves: strOrDefault(p, "next", defaultNextMove),
		SuggestedReply: types.SuggestedReply{
			Style: &style,
			Text:  strOrDefault(p, "rewrite", ScanFallbackRewrite),
		},
		Safety: types.Safety{
			RiskLevel: riskLevelFrom(redFlag),
			Notes:     strField(p, "safety_notes"),
		},
		Metrics: types.Metrics{
			RedFlag:        redFlag,
			Certainty:      scanCertainty,
			ViralPotential: scanViral,
		},
		Pattern:             types.PatternArc{},
		Ambiguity:           strField(p, "ambiguity"),
		HiddenAgenda:        strField(p, "hidden_agenda"),
		CounterIntervention: strField(p, "counter_intervention"),
		LongGame:            principle,
	}
}

func scanContext(rawInput string) string {
	if isMultiInput(rawInput) {
		return "scan_multi"
	}
	return "scan"
}

// Mirrors the prompt builder's multi-message detection so the context label
// and the instruction wording agree.
func isMultiInput(raw string) bool {
	return strings.Contains(raw, "\n") ||
		strings.Contains(raw, "—") ||
		strings.Contains(raw, "--") ||
		strings.Contains(raw, ";")
}

// threadReceipts formats payload thread triples, falling back to a speaker
// prefix parse of the raw input.
func threadReceipts(p Payload, rawInput string) []string {
	if p != nil {
		if raw, ok := p["thread"].([]any); ok && len(raw) > 0 {
			var out []string
			for _, item := range raw {
				entry, ok := item.(map[string]any)
				if !ok {
					continue
				}
				who := sanitize.Text(stringAt(entry, "who"))
				said := sanitize.Text(stringAt(entry, "said"))
				meaning := sanitize.Text(stringAt(entry, "meaning"))
				if said == "" {
					continue
				}
				if who == "" {
					who = "You"
				}
				out = append(out, formatReceipt(who, said, meaning))
			}
			if len(out) > 0 {
				return capReceipts(out)
			}
		}
	}
	return capReceipts(parseThreadLines(rawInput))
}

func formatReceipt(who, said, meaning string) string {
	said = truncateRunes(said, receiptMaxLen)
	if meaning == "" {
		return fmt.Sprintf("%s: “%s”", who, said)
	}
	return fmt.Sprintf("%s: “%s” — %s", who, said, meaning)
}

// parseThreadLines attributes speakers via You:/Them: prefixes; lines
// without a prefix default to "You".
func parseThreadLines(rawInput string) []string {
	var out []string
	for _, line := range strings.Split(rawInput, "\n") {
		line = sanitize.Text(line)
		if line == "" {
			continue
		}
		who := "You"
		said := line
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "them:"):
			who = "Them"
			said = strings.TrimSpace(line[len("them:"):])
		case strings.HasPrefix(lower, "you:"):
			said = strings.TrimSpace(line[len("you:"):])
		}
		meaning := "defense/admin pivot"
		if who == "Them" {
			meaning = "test/withhold"
		}
		out = append(out, formatReceipt(who, said, meaning))
	}
	return out
}

// NormalizePattern maps a payload into the canonical Pattern shape — same
// spine as Scan, thread-aware receipts, and the cycle arc when present.
func NormalizePattern(p Payload, rawInput, tone string) types.AnalysisResult {
	headline := strOrDefault(p, "headline", PatternFallbackHeadline)
	take := strOrDefault(p, "analysis", defaultPatternTake)
	mistake := strField(p, "mistake")

	classifierText := joinForClassifier(take, mistake, headline)
	tacticLabel, tacticConf := classify(tacticRules, classifierText, genericTactic)
	targetingLabel, _ := classify(targetingRules, classifierText, genericTargeting)

	redFlag := redFlagFrom(rawInput)
	principle := strOrDefault(p, "principle", defaultPrinciple)
	style := sanitize.Text(tone)

	fixes := listField(p, "fixes")
	if len(fixes) > 3 {
		fixes = fixes[:3]
	}

	return types.AnalysisResult{
		Context:   "pattern",
		Headline:  headline,
		CoreTake:  take,
		Tactic:    types.Tactic{Label: tacticLabel, Confidence: clampScore(tacticConf)},
		Motives:   strField(p, "motives"),
		Targeting: &targetingLabel,
		PowerPlay: exactlyThree(fixes, principle),
		Receipts:  threadReceipts(p, rawInput),
		NextMoves: strOrDefault(p, "next", defaultNextMove),
		SuggestedReply: types.SuggestedReply{
			Style: &style,
			Text:  strField(p, "rewrite"),
		},
		Safety: types.Safety{
			RiskLevel: riskLevelFrom(redFlag),
			Notes:     strField(p, "safety_notes"),
		},
		Metrics: types.Metrics{
			RedFlag:        redFlag,
			Certainty:      patternCertain,
			ViralPotential: patternViral,
		},
		Pattern: types.PatternArc{
			Cycle:     cycleArc(p),
			Prognosis: strOrDefault(p, "prognosis", defaultPrognosisText),
		},
		Ambiguity:           strField(p, "ambiguity"),
		HiddenAgenda:        strField(p, "hidden_agenda"),
		CounterIntervention: strField(p, "counter_intervention"),
		LongGame:            principle,
	}
}

// cycleArc renders "start → mid → end" only when all three stage labels are
// present.
func cycleArc(p Payload) *string {
	if p == nil {
		return nil
	}
	cycle, ok := p["cycle"].(map[string]any)
	if !ok {
		return nil
	}
	start := sanitize.Text(stringAt(cycle, "start"))
	mid := sanitize.Text(stringAt(cycle, "mid"))
	end := sanitize.Text(stringAt(cycle, "end"))
	if start == "" || mid == "" || end == "" {
		return nil
	}
	arc := fmt.Sprintf("%s → %s → %s", start, mid, end)
	return &arc
}

func stringAt(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func joinForClassifier(parts ...*string) string {
	var sb strings.Builder
	for _, part := range parts {
		if part == nil {
			continue
		}
		sb.WriteString(*part)
		sb.WriteString(" ")
	}
	return sb.String()
}
