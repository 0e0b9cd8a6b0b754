package replay

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a conversation replay fixture:
// an optional starting profile plus an ordered list of turns with their
// expected classification outcomes.
type Fixture struct {
	Description string        `json:"description"`
	Profile     *Profile      `json:"profile,omitempty"`
	Turns       []FixtureTurn `json:"turns"`
}

// Profile seeds the session's user profile before the first turn. StaffID
// non-zero marks the profile verified, mirroring a directory hit.
type Profile struct {
	Name        string `json:"name"`
	StaffID     int    `json:"staff_id"`
	Role        string `json:"role"`
	RoleLevel   int    `json:"role_level"`
	Department  string `json:"department"`
	PrivacyMode string `json:"privacy_mode"`
}

// FixtureTurn is one recorded utterance and what the extractor and state
// machine must produce for it.
type FixtureTurn struct {
	Text   string `json:"text"`
	Expect Expect `json:"expect"`
}

// Expect lists the assertions for one turn. Empty fields are not checked, so
// fixtures only pin what they care about.
type Expect struct {
	Intent       string `json:"intent,omitempty"`
	ActMajor     string `json:"act_major,omitempty"`
	ActSubtype   string `json:"act_subtype,omitempty"`
	Type         string `json:"type,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	Cuisine      string `json:"cuisine,omitempty"`
	Person       string `json:"person,omitempty"`
	Sort         string `json:"sort,omitempty"`
	OpenNow      *bool  `json:"open_now,omitempty"`
	Cancel       *bool  `json:"cancel,omitempty"`
	TopicShift   *bool  `json:"topic_shift,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and validates a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if len(f.Turns) == 0 {
		return nil, fmt.Errorf("fixture %s has no turns", path)
	}
	for i, t := range f.Turns {
		if t.Text == "" {
			return nil, fmt.Errorf("fixture turn %d has empty text", i)
		}
	}
	return &f, nil
}

// #endregion fixture-loader
