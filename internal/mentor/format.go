// Package mentor post-processes persona-chat text so every preset's
// structural contract holds no matter what the model returned. Formatting is
// pure and total: missing structure is repaired by inserting canonical
// filler, never by failing.
package mentor

import (
	"regexp"
	"strings"

	"github.com/hollowbyte/subtext-backend/internal/persona"
	"github.com/hollowbyte/subtext-backend/internal/sanitize"
)

const (
	defaultLine      = `Line: "I like my plans better. Come along Thursday or don't."`
	defaultPrinciple = "Principle: Scarcity reads as value. Availability reads as surplus."
	defaultCommand   = "COMMAND: Send one message with a concrete plan today. Report back."
	defaultLaw       = "Law: Never ask for a slot. Offer one."
	defaultUse       = `Use: "I'm doing the wine bar on 5th on Thursday. In or out?"`
	defaultQuote     = `Try this word for word: "You bring the excuses, I'll bring the wine."`
	defaultQuestion  = "What outcome do you actually want here?"
)

var adviseFillerBullets = []string{
	sanitize.Bullet + " Name one concrete plan instead of an open question.",
	sanitize.Bullet + " Match their investment; stop exceeding it.",
	sanitize.Bullet + " Decide your walk-away point before you type.",
}

// The canonical drill replaces the whole output when the model under-delivers
// numbered questions.
var drillQuestions = []string{
	"1) What exactly did you want when you sent your last message?",
	"2) What did you get instead?",
	"3) Who replied faster across the last five exchanges?",
	"4) What's the longest you've let their message sit unanswered?",
	"5) When did you last propose a concrete time and place?",
	"6) What happened the last time you went quiet?",
	"7) Which of their messages are you rereading, and why?",
	"8) What would you tell a friend who showed you this thread?",
	"9) What are you afraid happens if you stop initiating?",
	"10) What do they lose if you walk away tomorrow?",
	"11) What's the one line you've been too careful to send?",
	"12) If nothing changes in 30 days, do you stay?",
}

var (
	numberedLineRE = regexp.MustCompile(`^\d+\)\s+`)
	lineMarkerRE   = regexp.MustCompile(`(?m)^Line:\s*".+"`)
	useMarkerRE    = regexp.MustCompile(`(?m)^Use:\s*".+"`)
	quotedRE       = regexp.MustCompile(`"[^"]+"|\x{201c}[^\x{201d}]+\x{201d}`)
	standaloneRE   = regexp.MustCompile(`^(Line|Principle|COMMAND|Law|Use|Try this word for word):`)
)

// Format enforces the preset's structural contract on sanitized mentor text.
func Format(preset persona.Preset, text string) string {
	text = sanitize.Text(text)
	switch preset {
	case persona.PresetAdvise:
		return formatAdvise(text)
	case persona.PresetDrill:
		return formatDrill(text)
	case persona.PresetRoleplay:
		return formatRoleplay(text)
	default:
		return formatChat(text)
	}
}

// ensureMarkerLine appends the canonical line when no line starts with the
// marker. This combinator is the whole repair strategy: one rule per
// required marker, shared across presets.
func ensureMarkerLine(text, marker, canonical string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), marker) {
			return text
		}
	}
	if strings.TrimSpace(text) == "" {
		return canonical
	}
	return text + "\n" + canonical
}

func formatAdvise(text string) string {
	lines := strings.Split(text, "\n")
	var bullets, rest []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), sanitize.Bullet+" ") {
			bullets = append(bullets, strings.TrimSpace(line))
		} else {
			rest = append(rest, line)
		}
	}
	if len(bullets) < 3 {
		var markers, prose []string
		for _, line := range rest {
			trimmed := strings.TrimSpace(line)
			if standaloneRE.MatchString(trimmed) {
				markers = append(markers, trimmed)
			} else {
				prose = append(prose, line)
			}
		}
		sentences := splitSentences(strings.Join(prose, " "))
		n := 3 - len(bullets)
		if n > len(sentences) {
			n = len(sentences)
		}
		var promoted []string
		for _, s := range sentences[:n] {
			promoted = append(promoted, sanitize.Bullet+" "+s)
		}
		bullets = append(promoted, bullets...)
		for i := 0; len(bullets) < 3; i++ {
			bullets = append(bullets, adviseFillerBullets[i%len(adviseFillerBullets)])
		}
		text = strings.Join(bullets, "\n")
		if leftover := strings.TrimSpace(strings.Join(sentences[n:], " ")); leftover != "" {
			text += "\n" + leftover
		}
		for _, m := range markers {
			text += "\n" + m
		}
	}
	if !lineMarkerRE.MatchString(text) {
		text = ensureMarkerLine(text, "Line:", defaultLine)
	}
	text = ensureMarkerLine(text, "Principle:", defaultPrinciple)
	return text
}

var sentenceEndRE = regexp.MustCompile(`[.!?\x{2026}]+\s+`)

func splitSentences(prose string) []string {
	prose = strings.TrimSpace(strings.ReplaceAll(prose, "\n", " "))
	if prose == "" {
		return nil
	}
	var out []string
	rest := prose
	for rest != "" {
		loc := sentenceEndRE.FindStringIndex(rest)
		if loc == nil {
			out = append(out, strings.TrimSpace(rest))
			break
		}
		out = append(out, strings.TrimSpace(rest[:loc[1]]))
		rest = rest[loc[1]:]
	}
	return out
}

func formatDrill(text string) string {
	var numbered []string
	command, law := "", ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case numberedLineRE.MatchString(line):
			numbered = append(numbered, line)
		case strings.HasPrefix(line, "COMMAND:") && command == "":
			command = line
		case strings.HasPrefix(line, "Law:") && law == "":
			law = line
		}
	}
	if len(numbered) < 12 {
		numbered = drillQuestions
	} else {
		numbered = numbered[:12]
	}
	if command == "" {
		command = defaultCommand
	}
	if law == "" {
		law = defaultLaw
	}
	return strings.Join(numbered, "\n") + "\n" + command + "\n" + law
}

func formatRoleplay(text string) string {
	text = reflowParagraphs(text)
	if !useMarkerRE.MatchString(text) {
		text = ensureMarkerLine(text, "Use:", defaultUse)
	}
	return text
}

func formatChat(text string) string {
	text = reflowParagraphs(text)
	if !quotedRE.MatchString(text) {
		if strings.TrimSpace(text) == "" {
			text = defaultQuote
		} else {
			text += "\n\n" + defaultQuote
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(text), "?") {
		text += "\n\n" + defaultQuestion
	}
	return text
}

// reflowParagraphs merges consecutive prose lines into terminated paragraphs
// separated by one blank line. Bullet lines and marker lines stay standalone.
func reflowParagraphs(text string) string {
	var paragraphs []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		p := strings.Join(current, " ")
		if !strings.ContainsAny(lastRune(p), ".!?…”\"") {
			p += "."
		}
		paragraphs = append(paragraphs, p)
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, sanitize.Bullet+" "), standaloneRE.MatchString(line):
			flush()
			paragraphs = append(paragraphs, line)
		default:
			current = append(current, line)
		}
	}
	flush()
	return strings.Join(paragraphs, "\n\n")
}

func lastRune(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return ""
	}
	return string(runes[len(runes)-1])
}
