package dialogue

import (
	"regexp"

	"concierge/internal/speech"
)

// #region reference-patterns

var (
	personPronounPat = regexp.MustCompile(`(?i)\b(him|her|them)\b`)
	placeDeicticPat  = regexp.MustCompile(`(?i)\bthere\b|\bthat place\b|\bit\b`)
)

// #endregion reference-patterns

// #region resolve

// ResolveReferences fills empty slots from remembered entities when the text
// uses a pronoun or deictic. Explicit slots always win; resolution only runs
// into gaps. Returns the (possibly) enriched copy.
func (s *State) ResolveReferences(text string, slots speech.Slots) speech.Slots {
	if personPronounPat.MatchString(text) && slots.Person == "" {
		if s.LastEntities.Person != "" {
			slots.Person = s.LastEntities.Person
		}
	}
	if placeDeicticPat.MatchString(text) && slots.Place == "" && slots.Neighborhood == "" {
		if v := s.LastEntities.Venue; v != nil {
			if v.Neighborhood != "" {
				slots.Neighborhood = v.Neighborhood
			}
			if v.Type != "" && slots.Type == "" {
				slots.Type = v.Type
			}
		}
	}
	return slots
}

// #endregion resolve
