// Package persona holds the read-only mentor lookup data: persona
// descriptions and per-preset sampling budgets. Both are built once at
// startup and never mutated, so concurrent reads need no locking.
package persona

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Preset string

const (
	PresetAdvise   Preset = "advise"
	PresetDrill    Preset = "drill"
	PresetRoleplay Preset = "roleplay"
	PresetChat     Preset = "chat"
)

func ParsePreset(s string) (Preset, bool) {
	switch Preset(strings.ToLower(strings.TrimSpace(s))) {
	case PresetAdvise:
		return PresetAdvise, true
	case PresetDrill:
		return PresetDrill, true
	case PresetRoleplay:
		return PresetRoleplay, true
	case PresetChat:
		return PresetChat, true
	default:
		return "", false
	}
}

// Budget is the output/sampling allowance for one preset. No two presets
// share the same pair.
type Budget struct {
	MaxTokens   int
	Temperature float64
}

var presetBudgets = map[Preset]Budget{
	PresetAdvise:   {MaxTokens: 420, Temperature: 0.72},
	PresetDrill:    {MaxTokens: 520, Temperature: 0.65},
	PresetRoleplay: {MaxTokens: 360, Temperature: 0.85},
	PresetChat:     {MaxTokens: 300, Temperature: 0.90},
}

func BudgetFor(p Preset) Budget {
	if b, ok := presetBudgets[p]; ok {
		return b
	}
	return presetBudgets[PresetChat]
}

const DefaultKey = "sage"

var defaultPersonas = map[string]string{
	"sage": "A calm older strategist who has seen every move twice. Speaks " +
		"plainly, never flatters, treats composure as the only leverage that " +
		"matters, and always returns the conversation to what the user can " +
		"control.",
	"viper": "A ruthless social tactician. Reads every message as a position " +
		"on a board, names the play without softening it, and pushes the user " +
		"toward decisive, slightly uncomfortable action.",
	"playmaker": "A warm, quick-witted charmer. Believes attraction is mostly " +
		"timing and specificity, teaches through reworded lines rather than " +
		"theory, and keeps everything light until the moment to commit.",
	"analyst": "A clinical conversation analyst. Strips emotion out of the " +
		"read, cites the exact words that carry the signal, and quantifies " +
		"confidence instead of reassuring.",
}

// Catalog maps a persona key to its descriptive text. Unknown keys resolve
// to the default persona; that is a lookup rule, not an error.
type Catalog struct {
	personas   map[string]string
	defaultKey string
}

func DefaultCatalog() *Catalog {
	return &Catalog{personas: defaultPersonas, defaultKey: DefaultKey}
}

type catalogFile struct {
	Default  string            `yaml:"default"`
	Personas map[string]string `yaml:"personas"`
}

// LoadCatalog reads a YAML persona file. An empty path returns the built-in
// catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse persona catalog: %w", err)
	}
	if len(f.Personas) == 0 {
		return nil, fmt.Errorf("persona catalog %s has no personas", path)
	}
	// Keys fold to lower case; the default folds with them before the
	// membership check so a mixed-case file still resolves.
	personas := make(map[string]string, len(f.Personas))
	for k, v := range f.Personas {
		personas[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	def := strings.ToLower(strings.TrimSpace(f.Default))
	if _, ok := personas[def]; !ok {
		return nil, fmt.Errorf("persona catalog %s: default %q not present", path, f.Default)
	}
	return &Catalog{personas: personas, defaultKey: def}, nil
}

// Resolve returns the persona key that will actually be used and its
// description. Unknown or empty keys fall back to the default persona.
func (c *Catalog) Resolve(key string) (string, string) {
	k := strings.ToLower(strings.TrimSpace(key))
	if desc, ok := c.personas[k]; ok {
		return k, desc
	}
	return c.defaultKey, c.personas[c.defaultKey]
}

func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.personas))
	for k := range c.personas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
