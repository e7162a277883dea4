package mentor

import (
	"strings"

	"github.com/hollowbyte/subtext-backend/internal/persona"
)

// Hand-authored substitute replies, one per preset, used whenever the
// upstream model fails. Format still runs over them, so the structural
// contract holds on this path too.

var fallbackByPreset = map[persona.Preset]string{
	persona.PresetAdvise: `Strip it down to what you control.
` + "•" + ` Stop auditioning. One concrete plan, offered once.
` + "•" + ` Let their last message age before you answer it.
` + "•" + ` If they counter with vagueness, treat it as a no.
Line: "I like my plans better. Come along Thursday or don't."
Principle: Scarcity reads as value. Availability reads as surplus.`,

	persona.PresetDrill: strings.Join(drillQuestions, "\n") + "\n" +
		defaultCommand + "\n" + defaultLaw,

	persona.PresetRoleplay: `Fine. I'm them. I just texted you "maybe this weekend, not sure yet" and put my phone face down. Your move.

Most people answer inside a minute and lose the round before it starts. You are not going to do that.

Use: "I'm doing the wine bar on 5th on Thursday. In or out?"`,

	persona.PresetChat: `The line you're looking for already exists, you're just afraid it sounds too direct. It doesn't. Direct is the whole point.

Try this word for word: "You bring the excuses, I'll bring the wine."

What outcome do you actually want here?`,
}

// FallbackText returns the deterministic substitute for a preset.
func FallbackText(p persona.Preset) string {
	if text, ok := fallbackByPreset[p]; ok {
		return text
	}
	return fallbackByPreset[persona.PresetChat]
}
