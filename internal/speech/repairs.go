package speech

import (
	"regexp"
	"strings"
)

// #region repair-patterns

var (
	hedgePat      = regexp.MustCompile(`(?i)\buh+\b|\bum+\b|\berm+\b|\bwell[, ]|\bok(ay)?,?\b|\bsort of\b|\bkinda\b|\bperhaps\b|\bmaybe\b|\bi guess\b`)
	repairPat     = regexp.MustCompile(`(?i)\bi mean\b|\bsorry(,)? i meant\b|\bto clarify\b|\bactually\b`)
	multiSpacePat = regexp.MustCompile(`\s+`)
)

// #endregion repair-patterns

// #region self-repair

// ApplySelfRepair cleans disfluencies from an utterance. When a repair lead
// is present ("i mean", "actually") only the segment after it is kept, unless
// the utterance is a cancellation like "never mind". Hedges are stripped and
// whitespace collapsed. Returns the cleaned text and whether anything changed.
func ApplySelfRepair(text string) (string, bool) {
	if text == "" {
		return text, false
	}
	t := text
	if loc := repairPat.FindStringIndex(t); loc != nil && !strings.Contains(strings.ToLower(t), "never mind") {
		t = t[loc[1]:]
	}
	t2 := hedgePat.ReplaceAllString(t, " ")
	t2 = strings.TrimSpace(multiSpacePat.ReplaceAllString(t2, " "))
	return t2, t2 != text
}

// #endregion self-repair

// #region clarify

// StateView is the minimal durable-slot view MaybeClarify needs from the
// dialogue state.
type StateView struct {
	Neighborhood string
}

// MaybeClarify returns at most one short clarification question, and only
// when a critical slot is missing for the detected intent. Empty string means
// no clarification is needed.
func MaybeClarify(actMajor ActMajor, intent Intent, slots Slots, durable StateView) string {
	if slots.Cancel {
		return ""
	}

	// Venue search: neighborhood first, then type. Price is inferred from
	// the persona, never asked.
	if intent == IntentFoodSearch {
		if slots.Neighborhood == "" && slots.Near == "" && durable.Neighborhood == "" {
			return "Any neighborhood preference in Athens (e.g., Kolonaki, Koukaki), or should I search all of Athens?"
		}
		if slots.Type == "" {
			return "Are you thinking of a restaurant, cafe, or bar?"
		}
		return ""
	}

	if intent.DBBacked() {
		if slots.Person != "" && slots.Date == "" && slots.Time == "" {
			return "For which date or time window should I check?"
		}
		if (slots.Date != "" || slots.Time != "") && slots.Person == "" {
			return "Do you want me to filter by a specific person or team?"
		}
		return ""
	}

	if actMajor == ActDirective && !slots.HasDomain() {
		return "Could you give me one detail so I can be precise?"
	}

	return ""
}

// #endregion clarify
