package router

import (
	"fmt"
	"strings"

	"concierge/internal/dialogue"
	"concierge/internal/identity"
	"concierge/internal/speech"
)

// #region onboarding

const onboardingPrompt = "Before we continue, could you share your full name so I can " +
	"personalize results? If you prefer, we can continue anonymously."

const onboardingNudge = " Onboarding: ask the user, in one short sentence, for their " +
	"full name to personalize results, and explicitly offer an anonymous option. If " +
	"they choose anonymous, proceed without personalization and never ask again."

// #endregion onboarding

// #region acks

// ackForLevel picks a canned acknowledgment matched to the user's register.
// Verified senior staff (level 0..2) get the formal set, verified level 5+
// the casual set, everyone else the neutral set.
func ackForLevel(sub speech.ActSubtype, p dialogue.UserProfile) string {
	formal := map[speech.ActSubtype]string{
		speech.SubGreet:     "Good day. How may I assist you?",
		speech.SubThank:     "You are most welcome.",
		speech.SubGoodbye:   "Goodbye. It was a pleasure assisting you.",
		speech.SubApologize: "No apology needed. How may I help?",
	}
	neutral := map[speech.ActSubtype]string{
		speech.SubGreet:     "Hello, how can I help?",
		speech.SubThank:     "You're welcome.",
		speech.SubGoodbye:   "Goodbye, take care.",
		speech.SubApologize: "No worries, let's continue.",
	}
	casual := map[speech.ActSubtype]string{
		speech.SubGreet:     "Hi! How can I help?",
		speech.SubThank:     "Anytime!",
		speech.SubGoodbye:   "See you around!",
		speech.SubApologize: "All good, no stress.",
	}

	var m map[speech.ActSubtype]string
	switch {
	case p.Verified && p.RoleLevel >= 0 && p.RoleLevel <= 2:
		m = formal
	case p.Verified && p.RoleLevel >= 5:
		m = casual
	default:
		m = neutral
	}
	if s, ok := m[sub]; ok {
		return s
	}
	return neutral[speech.SubGreet]
}

// #endregion acks

// #region addressing

// addressingHint tells the generator how to address the current user.
func addressingHint(p dialogue.UserProfile) string {
	if !p.Verified || p.Name == "" {
		return "Address the user neutrally; you do not know their name."
	}
	last := identity.LastName(p.Name)
	first := identity.FirstName(p.Name)
	switch {
	case p.RoleLevel >= 0 && p.RoleLevel <= 2:
		return fmt.Sprintf("Address the user formally as Mr./Ms. %s; never use their first name.", last)
	case p.RoleLevel >= 0 && p.RoleLevel <= 4:
		return fmt.Sprintf("Address the user politely; Mr./Ms. %s is acceptable, avoid over-familiarity.", last)
	default:
		if first != "" {
			return fmt.Sprintf("You may address the user casually by first name (%s), sparingly.", first)
		}
		return "Address the user casually but do not invent a name."
	}
}

// verifiedEtiquette is the one-turn hint emitted right after a successful
// directory verification, so the reply acknowledges the user at the correct
// register without parroting their full name back.
func verifiedEtiquette(p dialogue.UserProfile) string {
	last := identity.LastName(p.Name)
	first := identity.FirstName(p.Name)
	switch {
	case p.RoleLevel >= 0 && p.RoleLevel <= 2:
		return fmt.Sprintf(" Immediate etiquette: do not thank the user for sharing their name "+
			"and do not use their first or full name. If addressing is unavoidable, use exactly "+
			"\"Mr./Ms. %s\"; otherwise omit the name.", last)
	case p.RoleLevel >= 0 && p.RoleLevel <= 4:
		return fmt.Sprintf(" Immediate etiquette: avoid the user's name; if strictly necessary "+
			"prefer \"Mr./Ms. %s\". Do not echo the full name.", last)
	default:
		if first != "" {
			return fmt.Sprintf(" Immediate etiquette: you may greet the user once by first name "+
				"(%s), then drop the name. Never echo the full name.", first)
		}
		return " Immediate etiquette: do not echo the user's full name."
	}
}

// #endregion addressing

// #region system-hint

func summarizeFacts(facts []dialogue.Fact) string {
	if len(facts) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(facts))
	for _, f := range facts {
		parts = append(parts, fmt.Sprintf("%s:%d@%s", f.Source, f.Count, f.When.Format("15:04:05")))
	}
	return strings.Join(parts, "; ")
}

func priceBandText(band string) string {
	switch band {
	case "budget":
		return "The user prefers budget options (~€12–25 per person); lead with the cheaper picks."
	case "premium":
		return "The user prefers premium options (~€30–60 per person); lead with the highest-rated picks."
	default:
		return "The user fits a mid-range budget (~€15–35 per person); balance rating and price."
	}
}

// foodPolicyHint formats the venue-listing policy attached ahead of the
// knowledge-graph context for food searches.
func foodPolicyHint(band string) string {
	return "When knowledge graph context is provided for a food or place request, first list " +
		"up to 3 options as bullets in the form \"Name — Address (price/rating when known)\". " +
		priceBandText(band) + " Then ask exactly one short follow-up, preferably about " +
		"neighborhood or cuisine. Do not ask about date or price; infer price preferences " +
		"from the persona."
}

// staffPolicyHint states the directory access policy for this user when the
// question touches staff data.
func staffPolicyHint(userText string, p dialogue.UserProfile) string {
	low := strings.ToLower(userText)
	if !strings.Contains(low, "staff") && !strings.Contains(low, "employee") &&
		!strings.Contains(low, "department") {
		return ""
	}
	dept := identity.CanonicalDepartment(p.Department)
	if identity.HasFullAccess(dept) || (p.RoleLevel >= 0 && p.RoleLevel <= 2) {
		return " Staff policy: this user has company-wide directory access; answer fully."
	}
	if dept != "" {
		return fmt.Sprintf(" Staff policy: this user may only see staff of the %s department; "+
			"if the database context is restricted, say so briefly.", dept)
	}
	return " Staff policy: this user's department is unknown, so staff listings are " +
		"restricted; ask which department they belong to if they push for staff data."
}

// systemHintBase assembles the per-turn system prompt: etiquette, style,
// classification, durable slots, persona and recent tool facts, plus the
// intent-specific grounding instructions.
func systemHintBase(actMajor speech.ActMajor, actSub speech.ActSubtype,
	intent speech.Intent, mood speech.Mood, st *dialogue.State, userText string) string {

	p := st.Profile
	styleHint := speech.ForMoodAndUser(mood, p.Role, p.Tone, p.Verbosity)
	etiquette := "Language: English only. " + addressingHint(p) +
		" Avoid filler like \"I've noted your preferences\" or \"awaiting your reply\"; " +
		"be crisp and concrete. Never echo the user's full name back to them."

	base := fmt.Sprintf("You are the company concierge assistant. %s Ask brief clarifying "+
		"questions only when essential information is missing; otherwise answer directly. "+
		"Do not restate the user's slots back to them. Style: %s (verbosity=%s). "+
		"Act: %s/%s. Intent: %s. Known slots: %s. Persona: %s. Recent tool facts: %s.",
		etiquette, styleHint, p.Verbosity, actMajor, actSub, intent,
		st.ShortString(), st.PersonaBrief(), summarizeFacts(st.RecentFacts(3)))

	switch {
	case intent == speech.IntentFoodSearch:
		base += " Prefer real results from the knowledge graph context when available. " +
			priceBandText(p.PriceBand)
	case intent == speech.IntentDBQuery:
		base += " Prefer real results from the database context when available."
		base += staffPolicyHint(userText, p)
	}
	return base
}

// #endregion system-hint
