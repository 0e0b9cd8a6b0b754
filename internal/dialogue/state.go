package dialogue

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"concierge/internal/speech"
)

// #region state

// State is the per-session dialogue state handle. A State is owned by exactly
// one session; callers serialize access per session, so the struct itself
// carries no lock.
type State struct {
	// Durable slot memory across turns.
	Slots speech.Slots

	Profile   UserProfile
	History   []Turn
	DBEnabled bool

	// Lightweight tracking and policies.
	HistoryIntents []speech.Intent // rolling window, newest last
	NextExpected   string
	Pending        *PendingAction
	LastSentiment  speech.Mood

	// One-time onboarding gate.
	AskedNameOnce bool

	// KG caches for follow-up detail questions.
	LastKGRows    []map[string]string
	KGDetailCache map[string]map[string]string

	TopicID      string
	LastEntities Entities
}

const intentWindow = 6

// NewState returns a fresh session state with default profile values.
func NewState() *State {
	return &State{
		Profile:       defaultProfile(),
		KGDetailCache: make(map[string]map[string]string),
		LastSentiment: speech.MoodNeutral,
	}
}

// #endregion state

// #region update-api

// AddUserTurn appends a user turn and merges its durable slots into the
// session slot memory. Ephemeral control slots never persist.
func (s *State) AddUserTurn(text string, actMajor speech.ActMajor,
	actSubtype speech.ActSubtype, intent speech.Intent,
	slots speech.Slots, mood speech.Mood) {

	s.History = append(s.History, Turn{
		ID:         ulid.Make().String(),
		Role:       "user",
		Text:       text,
		ActMajor:   actMajor,
		ActSubtype: actSubtype,
		Intent:     intent,
		Slots:      slots,
		Mood:       mood,
		At:         time.Now().UTC(),
	})

	s.Slots = speech.MergeDurable(s.Slots, slots)

	s.HistoryIntents = append(s.HistoryIntents, intent)
	if len(s.HistoryIntents) > intentWindow {
		s.HistoryIntents = s.HistoryIntents[len(s.HistoryIntents)-intentWindow:]
	}
}

// AddAssistantTurn appends an assistant turn.
func (s *State) AddAssistantTurn(text string) {
	s.History = append(s.History, Turn{
		ID:   ulid.Make().String(),
		Role: "assistant",
		Text: text,
		At:   time.Now().UTC(),
	})
}

func (s *State) attachToolEvent(ev ToolEvent) {
	if len(s.History) == 0 {
		s.History = append(s.History, Turn{
			ID:   ulid.Make().String(),
			Role: "system",
			Text: "boot",
			At:   time.Now().UTC(),
		})
	}
	last := &s.History[len(s.History)-1]
	last.ToolEvents = append(last.ToolEvents, ev)
}

// LogDBResult records a relational select result on the current turn.
func (s *State) LogDBResult(sql string, rows []map[string]string, elapsedMS int64, err error) {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	s.attachToolEvent(ToolEvent{
		Source:    "db",
		Subtype:   "select",
		Request:   sql,
		Rows:      rows,
		Count:     len(rows),
		ElapsedMS: elapsedMS,
		Err:       errStr,
		At:        time.Now().UTC(),
	})
}

// LogKGResult records a SPARQL result on the current turn and replaces the
// follow-up cache with the new bindings. The replacement is total: stale rows
// from an earlier list never mix with the new ones.
func (s *State) LogKGResult(sparql string, bindings []map[string]string, elapsedMS int64, err error) {
	s.LastKGRows = append([]map[string]string(nil), bindings...)

	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	s.attachToolEvent(ToolEvent{
		Source:    "kg",
		Subtype:   "sparql",
		Request:   sparql,
		Rows:      bindings,
		Count:     len(bindings),
		ElapsedMS: elapsedMS,
		Err:       errStr,
		At:        time.Now().UTC(),
	})
}

// #endregion update-api

// #region prompting-views

// RecentFacts returns up to k recent db/kg results, oldest first.
func (s *State) RecentFacts(k int) []Fact {
	var facts []Fact
	for i := len(s.History) - 1; i >= 0 && len(facts) < k; i-- {
		evs := s.History[i].ToolEvents
		for j := len(evs) - 1; j >= 0 && len(facts) < k; j-- {
			ev := evs[j]
			if ev.Source != "db" && ev.Source != "kg" {
				continue
			}
			facts = append(facts, Fact{
				Source:  ev.Source,
				Summary: ev.Rows,
				Count:   ev.Count,
				When:    ev.At,
			})
		}
	}
	// Reverse into chronological order.
	for i, j := 0, len(facts)-1; i < j; i, j = i+1, j-1 {
		facts[i], facts[j] = facts[j], facts[i]
	}
	return facts
}

// ShortString is the compact durable-slot view for system hints.
func (s *State) ShortString() string {
	return s.Slots.ShortString()
}

// PersonaBrief is a single-line persona summary for prompting.
func (s *State) PersonaBrief() string {
	p := s.Profile
	name := p.Name
	if name == "" {
		name = "unknown"
	}
	role := p.Role
	if role == "" {
		role = "unknown"
	}
	level := "n/a"
	if p.RoleLevel >= 0 {
		level = fmt.Sprintf("%d", p.RoleLevel)
	}
	dept := p.Department
	if dept == "" {
		dept = "n/a"
	}
	return fmt.Sprintf(
		"name=%s | role=%s | level=%s | dept=%s | privacy=%s | tone=%s | verbosity=%s | price_band=%s | verified=%v",
		name, role, level, dept, p.PrivacyMode, p.Tone, p.Verbosity, p.PriceBand, p.Verified)
}

// VenueContext exposes the remembered venue entity (plus the durable sort
// preference) to the extractor's anaphora promotion.
func (s *State) VenueContext() speech.VenueContext {
	v := s.LastEntities.Venue
	if v == nil {
		return speech.VenueContext{}
	}
	return speech.VenueContext{
		Known:        true,
		Type:         v.Type,
		Neighborhood: v.Neighborhood,
		Cuisine:      v.Cuisine,
		Sort:         s.Slots.Sort,
	}
}

// #endregion prompting-views

// #region onboarding

// NeedsOnboarding reports whether the name question should be asked: ask-mode
// privacy, not verified, and never asked before.
func (s *State) NeedsOnboarding() bool {
	return s.Profile.PrivacyMode == "ask" &&
		!s.Profile.Verified &&
		!s.AskedNameOnce
}

// #endregion onboarding

// #region user-modeling

// UpdateUserIdentity replaces the identity fields and re-derives the
// tone/verbosity/price preferences from the new role level. staffID 0 means
// unverified; roleLevel < 0 means unknown. Calling it twice with the same
// arguments yields the same profile.
func (s *State) UpdateUserIdentity(name string, staffID int, role string,
	roleLevel int, department, privacyMode string) {

	p := &s.Profile
	if name != "" {
		p.Name = name
	}
	p.StaffID = staffID
	if role != "" {
		p.Role = role
	}
	p.RoleLevel = roleLevel
	p.Department = department
	p.Verified = staffID != 0
	p.PrivacyMode = privacyMode

	if p.Verified || privacyMode == "anonymous" {
		s.AskedNameOnce = true
	}

	lvl := roleLevel
	if lvl < 0 {
		lvl = 99
	}
	switch {
	case privacyMode == "anonymous" || !p.Verified:
		p.Tone, p.Verbosity, p.PriceBand = "neutral", "normal", "mid"
	case lvl <= 2:
		p.Tone, p.Verbosity, p.PriceBand = "formal", "brief", "premium"
	case lvl <= 4:
		p.Tone, p.Verbosity, p.PriceBand = "neutral", "normal", "mid"
	default:
		p.Tone, p.Verbosity, p.PriceBand = "casual", "detailed", "budget"
	}
}

// #endregion user-modeling
