package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ContentMode string

const (
	ScanMode    ContentMode = "scan"
	PatternMode ContentMode = "pattern"
	MentorMode  ContentMode = "mentor"
)

// GenerationRequest is one user intent, constructed once per call and never
// mutated afterward.
type GenerationRequest struct {
	Mode       ContentMode
	RawInput   string
	Tone       string
	PersonaKey string
	Preset     string
	Intensity  string
}

// Tactic is the classified move behind a message.
type Tactic struct {
	Label      string `json:"label"`
	Confidence int    `json:"confidence"`
}

type SuggestedReply struct {
	Style *string `json:"style"`
	Text  *string `json:"text"`
}

type Safety struct {
	RiskLevel string  `json:"risk_level"`
	Notes     *string `json:"notes"`
}

type Metrics struct {
	RedFlag        int `json:"red_flag"`
	Certainty      int `json:"certainty"`
	ViralPotential int `json:"viral_potential"`
}

type PatternArc struct {
	Cycle     *string `json:"cycle"`
	Prognosis *string `json:"prognosis"`
}

// AnalysisResult is the canonical output shape for scan and pattern modes.
// Every field is always present; consumers rely on keys never being omitted.
type AnalysisResult struct {
	Context             string         `json:"context"`
	Headline            *string        `json:"headline"`
	CoreTake            *string        `json:"core_take"`
	Tactic              Tactic         `json:"tactic"`
	Motives             *string        `json:"motives"`
	Targeting           *string        `json:"targeting"`
	PowerPlay           []string       `json:"power_play"`
	Receipts            []string       `json:"receipts"`
	NextMoves           *string        `json:"next_moves"`
	SuggestedReply      SuggestedReply `json:"suggested_reply"`
	Safety              Safety         `json:"safety"`
	Metrics             Metrics        `json:"metrics"`
	Pattern             PatternArc     `json:"pattern"`
	Ambiguity           *string        `json:"ambiguity"`
	HiddenAgenda        *string        `json:"hidden_agenda"`
	CounterIntervention *string        `json:"counter_intervention"`
	LongGame            *string        `json:"long_game"`
}

// MentorResult is the canonical output of a persona-chat exchange.
type MentorResult struct {
	Mentor       string    `json:"mentor"`
	Response     string    `json:"response"`
	Preset       string    `json:"preset"`
	TimestampUTC time.Time `json:"timestampUTC"`
	ViralScore   int       `json:"viralScore"`
	Fallback     bool      `json:"fallback"`
}

// UserProgress is the per-user progress document row. Doc is an opaque JSON
// object merged shallowly on write.
type UserProgress struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string         `gorm:"uniqueIndex;not null" json:"user_id"`
	Doc       datatypes.JSON `gorm:"type:jsonb" json:"doc"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (UserProgress) TableName() string { return "user_progress" }
