package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

// Hand-authored payload skeletons used whenever the model is unavailable or
// its reply is unusable. They satisfy the canonical schema with no external
// call, and echo a collapsed copy of the input so the substitute does not
// read as canned.

const (
	ScanFallbackHeadline = "Low-risk probe: interested, but keeping it deniable"
	ScanFallbackRewrite  = "Thursday, 7pm, the wine bar on 5th. I already booked for two."

	PatternFallbackHeadline  = "Push-pull loop: they test, you absorb"
	PatternFallbackPrognosis = "More of the same, at longer intervals, until one of you names it."
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// inputEcho returns the first non-empty line of raw input,
// whitespace-collapsed and truncated, for embedding in fallback prose.
func inputEcho(raw string, max int) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(whitespaceRE.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		return truncateRunes(line, max)
	}
	return ""
}

func ScanFallback(rawInput string) Payload {
	echo := inputEcho(rawInput, 120)
	analysisText := "A vague opener with no time, place, or cost attached. Whoever answers first with enthusiasm pays for the ambiguity."
	if echo != "" {
		analysisText = fmt.Sprintf("“%s” is a vague opener with no time, place, or cost attached. Whoever answers first with enthusiasm pays for the ambiguity.", echo)
	}
	return Payload{
		"headline": ScanFallbackHeadline,
		"analysis": analysisText,
		"mistake":  "Answering an open-ended probe with your full availability.",
		"rewrite":  ScanFallbackRewrite,
		"why": []any{
			"A concrete plan converts interest into a yes/no decision.",
			"Naming the place signals you already have a life they can join.",
			"A single option removes the negotiation they were setting up.",
		},
		"next":      "Send it once and do not follow up before they answer.",
		"principle": "Never trade a plan for a maybe.",
	}
}

func PatternFallback(rawInput string) Payload {
	echo := inputEcho(rawInput, 120)
	analysisText := "One side keeps floating soft withdrawals, the other keeps closing the distance for them. The thread rewards the withholder every round."
	if echo != "" {
		analysisText = fmt.Sprintf("Starting from “%s”, one side keeps floating soft withdrawals while the other closes the distance for them. The thread rewards the withholder every round.", echo)
	}
	return Payload{
		"headline": PatternFallbackHeadline,
		"analysis": analysisText,
		"mistake":  "Filling every silence they leave on purpose.",
		"rewrite":  "Sounds like a no. I'll make other plans.",
		"why": []any{
			"It prices their ambiguity instead of subsidizing it.",
			"It ends the round without a plea or an accusation.",
			"It hands the next move back to them with a cost attached.",
		},
		"next": "Hold the silence. The next message that matters is theirs.",
		"fixes": []any{
			"Stop answering tests within seconds.",
			"Mirror their investment level for one full exchange.",
			"Offer one concrete plan, then stop selling it.",
		},
		"principle": "Whoever needs the reply least writes the rules.",
		"cycle": map[string]any{
			"start": "soft withdrawal",
			"mid":   "over-pursuit",
			"end":   "reluctant re-engagement",
		},
		"prognosis": PatternFallbackPrognosis,
	}
}
