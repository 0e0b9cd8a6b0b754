package speech

import "strings"

// #region style

var execRoleWords = []string{"ceo", "cfo", "coo", "cto", "director", "head", "manager", "executive"}

// ForMoodAndUser composes a compact style hint from the turn mood and the
// user's profile fields. role is the job title, tone the formality
// preference, verbosity one of brief/normal/detailed.
func ForMoodAndUser(mood Mood, role, tone, verbosity string) string {
	role = strings.ToLower(role)
	if role == "" {
		role = "employee"
	}
	tone = strings.ToLower(tone)
	if tone == "" {
		tone = "neutral"
	}
	verbosity = strings.ToLower(verbosity)
	if verbosity == "" {
		verbosity = "normal"
	}

	var base string
	switch mood {
	case MoodNegative:
		base = "calm, empathetic, concise"
	case MoodPositive:
		base = "friendly, encouraging, concise"
	default:
		base = "neutral, polite, clear"
	}

	isExec := false
	for _, k := range execRoleWords {
		if strings.Contains(role, k) {
			isExec = true
			break
		}
	}
	wantsFormal := tone == "formal" || tone == "polite" || isExec

	if wantsFormal {
		base += "; professional tone; avoid slang; no emojis"
	} else {
		base += "; conversational but precise; no fluff"
	}

	switch verbosity {
	case "brief":
		base += "; keep answers very short (2-4 sentences max)"
	case "detailed":
		base += "; add one short rationale or example if helpful"
	default:
		base += "; keep it succinct"
	}

	if isExec || verbosity == "brief" {
		base += "; prefer bullets for lists; highlight key data first"
	}

	return base
}

// #endregion style
