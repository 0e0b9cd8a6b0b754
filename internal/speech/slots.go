package speech

import (
	"fmt"
	"hash/fnv"
)

// #region slots

// Slots is the fixed, closed slot vocabulary for a turn. The zero value of a
// field means "absent": booleans are only ever set to true, strings are
// non-empty when set, and numeric fields are positive when set. Confirm,
// Cancel, and ActSubtype are ephemeral control slots that never survive into
// durable memory.
type Slots struct {
	Type         string
	Neighborhood string
	Cuisine      string
	Near         string
	Sort         string
	Date         string
	Time         string
	Person       string
	Place        string

	Wifi         bool
	Outdoor      bool
	Veggie       bool
	Alcohol      bool
	Reservations bool
	Payment      bool
	OpenNow      bool

	PriceMin  int
	PriceMax  int
	RatingMin float64
	Limit     int

	// Ephemeral control slots.
	Confirm    bool
	Cancel     bool
	ActSubtype ActSubtype
}

// #endregion slots

// #region merge

// MergeDurable returns a new durable slot set: old slots with cur's non-empty
// durable values written over them. Ephemeral control slots are stripped from
// both sides, so the result is safe to persist. Pure function; neither
// argument is mutated.
func MergeDurable(old, cur Slots) Slots {
	out := old
	out.Confirm = false
	out.Cancel = false
	out.ActSubtype = ""

	if cur.Type != "" {
		out.Type = cur.Type
	}
	if cur.Neighborhood != "" {
		out.Neighborhood = cur.Neighborhood
	}
	if cur.Cuisine != "" {
		out.Cuisine = cur.Cuisine
	}
	if cur.Near != "" {
		out.Near = cur.Near
	}
	if cur.Sort != "" {
		out.Sort = cur.Sort
	}
	if cur.Date != "" {
		out.Date = cur.Date
	}
	if cur.Time != "" {
		out.Time = cur.Time
	}
	if cur.Person != "" {
		out.Person = cur.Person
	}
	if cur.Place != "" {
		out.Place = cur.Place
	}

	out.Wifi = out.Wifi || cur.Wifi
	out.Outdoor = out.Outdoor || cur.Outdoor
	out.Veggie = out.Veggie || cur.Veggie
	out.Alcohol = out.Alcohol || cur.Alcohol
	out.Reservations = out.Reservations || cur.Reservations
	out.Payment = out.Payment || cur.Payment
	out.OpenNow = out.OpenNow || cur.OpenNow

	if cur.PriceMin > 0 {
		out.PriceMin = cur.PriceMin
	}
	if cur.PriceMax > 0 {
		out.PriceMax = cur.PriceMax
	}
	if cur.RatingMin > 0 {
		out.RatingMin = cur.RatingMin
	}
	if cur.Limit > 0 {
		out.Limit = cur.Limit
	}

	return out
}

// #endregion merge

// #region domain-shape

// HasDomain reports whether any domain-shaped slot is present. Ephemeral
// control slots do not count.
func (s Slots) HasDomain() bool {
	return s.Type != "" || s.Neighborhood != "" || s.Cuisine != "" ||
		s.Near != "" || s.Sort != "" || s.Date != "" || s.Time != "" ||
		s.Person != "" || s.Place != "" ||
		s.Wifi || s.Outdoor || s.Veggie || s.Alcohol ||
		s.Reservations || s.Payment || s.OpenNow ||
		s.PriceMin > 0 || s.PriceMax > 0 || s.RatingMin > 0 ||
		s.Limit > 0
}

// ClearDomain returns the slots with every domain-shaped field reset. Used on
// topic shift; ephemeral fields are reset too since a cleared set is always
// the start of a fresh durable map.
func (s Slots) ClearDomain() Slots {
	return Slots{}
}

// #endregion domain-shape

// #region fingerprint

// Fingerprint computes the stable topic hash over intent plus the salient
// slot subset (type, neighborhood, place, person, date, time).
func Fingerprint(intent Intent, s Slots) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s",
		intent, s.Type, s.Neighborhood, s.Place, s.Person, s.Date, s.Time)
	return fmt.Sprintf("%016x", h.Sum64())
}

// #endregion fingerprint

// #region short-string

// ShortString is a compact view of the salient slots for system hints.
func (s Slots) ShortString() string {
	type kv struct{ k, v string }
	var pairs []kv
	add := func(k, v string) {
		if v != "" {
			pairs = append(pairs, kv{k, v})
		}
	}
	add("date", s.Date)
	add("time", s.Time)
	add("person", s.Person)
	add("place", s.Place)
	add("type", s.Type)
	add("near", s.Near)
	add("neighborhood", s.Neighborhood)
	add("cuisine", s.Cuisine)
	add("sort", s.Sort)
	if s.Limit > 0 {
		add("limit", fmt.Sprintf("%d", s.Limit))
	}
	if len(pairs) == 0 {
		return "no critical slots"
	}
	out := ""
	for i, p := range pairs {
		if i > 0 {
			out += " "
		}
		out += p.k + "=" + p.v
	}
	return out
}

// #endregion short-string
