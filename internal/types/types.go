// Package types holds the domain model shared by the suggestion pipeline
// and the closed error taxonomy its components raise.
package types

import "time"

// Message is a single chat message extracted from the page by the
// extension's content script. Messages arrive ordered oldest to newest.
type Message struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// Persona is a named personality configuration that shapes generated
// suggestions. Name and PromptText must be non-empty after trimming.
type Persona struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PromptText string    `json:"prompt"`
	CreatedAt  time.Time `json:"createdAt"`
	LastUsed   time.Time `json:"lastUsed"`
}

// PersonaCollection maps persona id to persona. Exactly one id may be
// marked active via a separate pointer value in storage; if set it must
// resolve to an existing persona.
type PersonaCollection map[string]Persona

// ResponseLength selects the word-count guidance embedded in the prompt.
type ResponseLength string

const (
	LengthShort  ResponseLength = "short"
	LengthMedium ResponseLength = "medium"
	LengthLong   ResponseLength = "long"
)

// GenerationSettings are the user-tunable knobs persisted under the
// extensionSettings storage key.
type GenerationSettings struct {
	MaxMessages      int            `json:"maxMessages"`
	ResponseLength   ResponseLength `json:"responseLength"`
	DebugMode        bool           `json:"debugMode"`
	TotalGenerations int            `json:"totalGenerations"`
}

// DefaultSettings returns the settings used when storage holds none.
func DefaultSettings() GenerationSettings {
	return GenerationSettings{
		MaxMessages:    10,
		ResponseLength: LengthMedium,
	}
}

// DayStats is one calendar day's usage bucket.
type DayStats struct {
	Total      int            `json:"total"`
	PerPersona map[string]int `json:"perPersona"`
}

// UsageStats maps day-key ("2006-01-02") to that day's counters.
// Retention is bounded to the most recent 30 day-keys.
type UsageStats map[string]DayStats

// DayKeyFormat is the layout for usage day-keys. Lexicographic order on
// keys in this layout matches chronological order.
const DayKeyFormat = "2006-01-02"

// Storage key schema shared between the host and the extension pages.
const (
	KeyAPIKey          = "apiKey"
	KeyPersonas        = "personas"
	KeyActivePersonaID = "activePersonaId"
	KeySettings        = "extensionSettings"
	KeyUsageStats      = "usageStats"
)
