package dialogue

import (
	"time"

	"concierge/internal/speech"
)

// #region tool-event

// ToolEvent is a structured record of one collaborator interaction and its
// result, attached to the turn that triggered it.
type ToolEvent struct {
	Source    string // "db" | "kg" | "llm" | "system"
	Subtype   string // e.g. "select", "sparql", "verbalization"
	Request   string // issued SQL/SPARQL/params, rendered for inspection
	Rows      []map[string]string
	Count     int
	ElapsedMS int64
	Err       string
	At        time.Time
}

// #endregion tool-event

// #region turn

// Turn is one dialogue turn with optional tool events attached.
type Turn struct {
	ID         string // ULID, sortable by creation time
	Role       string // "user" | "assistant" | "system"
	Text       string
	ActMajor   speech.ActMajor
	ActSubtype speech.ActSubtype
	Intent     speech.Intent
	Slots      speech.Slots
	Mood       speech.Mood
	ToolEvents []ToolEvent
	At         time.Time
}

// #endregion turn

// #region user-profile

// UserProfile holds the identity and derived interaction preferences for the
// session's user. RoleLevel 0 is the CEO; higher numbers are lower ranks.
// RoleLevel < 0 means unknown.
type UserProfile struct {
	Tone        string // "neutral" | "formal" | "casual"
	Role        string
	RoleLevel   int
	Department  string
	Name        string
	StaffID     int  // 0 when not verified
	Verified    bool
	PrivacyMode string // "ask" | "anonymous" | "identified"
	PriceBand   string // "budget" | "mid" | "premium"
	Verbosity   string // "brief" | "normal" | "detailed"
}

func defaultProfile() UserProfile {
	return UserProfile{
		Tone:        "neutral",
		Role:        "employee",
		RoleLevel:   -1,
		PrivacyMode: "ask",
		PriceBand:   "mid",
		Verbosity:   "normal",
	}
}

// #endregion user-profile

// #region entities

// VenueEntity is the remembered venue from the most recent venue-shaped turn.
type VenueEntity struct {
	Type         string
	Neighborhood string
	Cuisine      string
}

// Entities tracks the salient referents for pronoun resolution.
type Entities struct {
	Person string
	Place  string
	Venue  *VenueEntity
}

// #endregion entities

// #region pending-action

// PendingAction is a deferred operation awaiting the user's confirmation.
type PendingAction struct {
	Kind   string
	Intent speech.Intent
	Slots  speech.Slots
}

// #endregion pending-action

// #region fact

// Fact is a compact summary of a recent db/kg tool event, used in prompts.
type Fact struct {
	Source  string
	Summary []map[string]string
	Count   int
	When    time.Time
}

// #endregion fact
