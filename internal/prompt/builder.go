// Package prompt turns a GenerationRequest into the instruction/content pair
// sent upstream. Building is a pure function of the request plus the
// read-only persona catalog.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hollowbyte/subtext-backend/internal/persona"
	"github.com/hollowbyte/subtext-backend/internal/platform/model"
	"github.com/hollowbyte/subtext-backend/internal/types"
)

type Builder struct {
	catalog *persona.Catalog
}

func NewBuilder(catalog *persona.Catalog) *Builder {
	if catalog == nil {
		catalog = persona.DefaultCatalog()
	}
	return &Builder{catalog: catalog}
}

// Built is the ready-to-send prompt: system instruction, user content, and
// the sampling params chosen for this mode/preset.
type Built struct {
	System string
	User   string
	Params model.Params
}

// Build composes the prompt for a request. An unrecognized content mode is a
// programming-contract violation and is the one error allowed to propagate.
func (b *Builder) Build(req types.GenerationRequest) (Built, error) {
	switch req.Mode {
	case types.ScanMode:
		return b.buildScan(req), nil
	case types.PatternMode:
		return b.buildPattern(req), nil
	case types.MentorMode:
		return b.buildMentor(req), nil
	default:
		return Built{}, fmt.Errorf("unrecognized content mode %q", req.Mode)
	}
}

// IsMultiInput reports whether scan input looks like several messages pasted
// inline rather than one.
func IsMultiInput(raw string) bool {
	return strings.Contains(raw, "\n") ||
		strings.Contains(raw, "—") ||
		strings.Contains(raw, "--") ||
		strings.Contains(raw, ";")
}

const analysisSchemaNote = `Reply with exactly one JSON object and nothing else. Keys:
"headline": one-line read of what is really happening.
"analysis": the core take, two or three sentences.
"mistake": the weakest move visible in the exchange.
"rewrite": the single line to send instead.
"why": array of exactly 3 short reasons the rewrite works.
"next": the next move after sending it.
"principle": the rule to remember.`

func (b *Builder) buildScan(req types.GenerationRequest) Built {
	subject := "this message someone received"
	if IsMultiInput(req.RawInput) {
		subject = "these messages, in the order they arrived"
	}
	system := fmt.Sprintf(
		"You decode subtext in dating and social messages. Read %s and name the real move behind the words. Tone of your verdict: %s. Be specific, quote the exact words that matter, never moralize.\n\n%s",
		subject, toneOrDefault(req.Tone), analysisSchemaNote,
	)
	return Built{
		System: system,
		User:   req.RawInput,
		Params: model.Params{MaxTokens: 700, Temperature: 0.6, TopP: 0.95},
	}
}

const patternSchemaNote = `Reply with exactly one JSON object and nothing else. Keys:
"headline": one-line read of the dynamic.
"analysis": the core take on the pattern, two or three sentences.
"mistake": the recurring weak move by "You".
"rewrite": the single line "You" should send next.
"why": array of exactly 3 short reasons.
"next": the next move after that.
"principle": the rule to remember.
"thread": array of {"who","said","meaning"} for each turn.
"fixes": array of up to 3 short corrections, strongest first.
"cycle": {"start","mid","end"} stage labels for the loop.
"prognosis": where this goes if nothing changes.`

func (b *Builder) buildPattern(req types.GenerationRequest) Built {
	system := fmt.Sprintf(
		"You decode multi-turn dynamics between two people. The input is an alternating thread between \"You\" and \"Them\". Map each turn to its real meaning, then name the loop the two of them are stuck in. Tone of your verdict: %s.\n\n%s",
		toneOrDefault(req.Tone), patternSchemaNote,
	)
	return Built{
		System: system,
		User:   req.RawInput,
		Params: model.Params{MaxTokens: 900, Temperature: 0.55, TopP: 0.95},
	}
}

const mentorPreamble = "You are a mentor inside a texting-strategy app. Stay in character. " +
	"Hard limits: no contact with minors as a topic, no harassment scripts, no threats, " +
	"no deception that damages a third party; if the user is in danger or despair, drop " +
	"character and point them to real help. Otherwise: no disclaimers, no hedging, no " +
	"apologies for the persona's edge."

func (b *Builder) buildMentor(req types.GenerationRequest) Built {
	key, desc := b.catalog.Resolve(req.PersonaKey)
	preset, ok := persona.ParsePreset(req.Preset)
	if !ok {
		preset = persona.PresetChat
	}

	var sb strings.Builder
	sb.WriteString(mentorPreamble)
	sb.WriteString("\n\nPersona (")
	sb.WriteString(key)
	sb.WriteString("): ")
	sb.WriteString(desc)
	if s := strings.TrimSpace(req.Intensity); s != "" {
		sb.WriteString("\nIntensity: ")
		sb.WriteString(s)
	}
	sb.WriteString("\n\n")
	sb.WriteString(presetContract(preset))

	budget := persona.BudgetFor(preset)
	return Built{
		System: sb.String(),
		User:   req.RawInput,
		Params: model.Params{MaxTokens: budget.MaxTokens, Temperature: budget.Temperature, TopP: 0.95},
	}
}

// presetContract states the structural requirements the formatter will
// enforce afterwards, so a compliant model usually needs no repair.
func presetContract(p persona.Preset) string {
	switch p {
	case persona.PresetAdvise:
		return `Structure your answer as:
- at least 3 bullet points, each one concrete move
- a line starting Line: with the exact message to send, in double quotes
- a line starting Principle: with the rule behind it`
	case persona.PresetDrill:
		return `Interrogate the user. Output exactly 12 numbered questions, one per line, formatted "1) ..." through "12) ...". After them, one line starting COMMAND: with a direct order, and one line starting Law: with the governing law.`
	case persona.PresetRoleplay:
		return `Play the scene with the user in character. Short paragraphs. End with a line starting Use: containing, in double quotes, the one line they should actually send.`
	default:
		return `Talk with the user as the persona. Quote at least one exact phrase they could send, in double quotes, and end your reply with a question back to them.`
	}
}

func toneOrDefault(tone string) string {
	t := strings.ToLower(strings.TrimSpace(tone))
	switch t {
	case "clinical", "playful", "savage", "soft":
		return t
	default:
		return "clinical"
	}
}
