package dialogue

import "concierge/internal/speech"

// #region topic-tracking

// UpdateTopicsAndEntities tracks salient entities from the turn's slots and
// soft-resets domain memory when the topic fingerprint shifts. Only
// domain-shaped turns participate; small talk never moves the topic.
func (s *State) UpdateTopicsAndEntities(intent speech.Intent, slots speech.Slots) {
	prevVenue := s.LastEntities.Venue
	if slots.Person != "" {
		s.LastEntities.Person = slots.Person
	}
	if slots.Place != "" {
		s.LastEntities.Place = slots.Place
	}
	if slots.Type != "" || slots.Neighborhood != "" {
		s.LastEntities.Venue = &VenueEntity{
			Type:         slots.Type,
			Neighborhood: slots.Neighborhood,
			Cuisine:      slots.Cuisine,
		}
	}

	topical := intent.IsDomain() || slots.HasDomain()
	if !topical {
		return
	}

	newTopic := speech.Fingerprint(intent, slots)
	shifted := s.TopicID != "" && newTopic != s.TopicID

	if shifted {
		// Detail follow-ups must keep the KG caches alive: a place_info
		// turn whose venue slots do not conflict with the remembered venue
		// is a drill-down on the current list, not a new topic.
		if !(intent == speech.IntentPlaceInfo && !venueConflict(prevVenue, slots)) {
			s.Slots = s.Slots.ClearDomain()
			s.LastKGRows = nil
			s.KGDetailCache = make(map[string]map[string]string)
			s.NextExpected = ""
		}
	}

	s.TopicID = newTopic
}

// venueConflict reports whether the turn's venue slots contradict the venue
// remembered so far. Slots matching the remembered values, or absent ones,
// are not a conflict; any venue slot with no remembered venue is.
func venueConflict(prev *VenueEntity, slots speech.Slots) bool {
	if slots.Type == "" && slots.Neighborhood == "" && slots.Cuisine == "" {
		return false
	}
	if prev == nil {
		return true
	}
	if slots.Type != "" && slots.Type != prev.Type {
		return true
	}
	if slots.Neighborhood != "" && slots.Neighborhood != prev.Neighborhood {
		return true
	}
	if slots.Cuisine != "" && slots.Cuisine != prev.Cuisine {
		return true
	}
	return false
}

// #endregion topic-tracking
