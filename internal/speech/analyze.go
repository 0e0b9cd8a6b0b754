package speech

import (
	"strconv"
	"strings"
)

// #region helpers

func extractType(t string) string {
	for _, r := range venueRules {
		if r.re.MatchString(t) {
			return r.canon
		}
	}
	return ""
}

func extractNeighborhood(t string) string {
	for _, r := range neighborhoodRules {
		if r.re.MatchString(t) {
			return r.canon
		}
	}
	return ""
}

func extractCuisine(t string) string {
	for _, r := range cuisineRules {
		if r.re.MatchString(t) {
			return r.label
		}
	}
	return ""
}

// DetectCuisine infers a cuisine label from raw text. Used as a fallback
// when the slot set lacks one.
func DetectCuisine(text string) string {
	return extractCuisine(strings.ToLower(text))
}

// #endregion helpers

// #region act-decision

// decideActAndIntent runs the ordered act/intent cascade. Precedence:
// domain (DB/KG) over small-talk over generic for intent, and
// ASK/REQUEST over confirm/deny over acknowledgments over state for act.
func decideActAndIntent(utterance string) (ActMajor, ActSubtype, Intent) {
	ul := strings.ToLower(strings.TrimSpace(utterance))

	venueType := extractType(ul)
	venueLike := venueType != ""
	if !venueLike {
		for _, w := range venueBareWords {
			if strings.Contains(ul, w) {
				venueLike = true
				break
			}
		}
	}
	dbLike := dbHardPat.MatchString(ul)
	hasDomain := dbLike || venueLike || openNowPat.MatchString(ul) || nearPat.MatchString(ul)

	isQuestion := questionPat.MatchString(ul)
	isRequest := orderVerbPat.MatchString(ul) || imperativePat.MatchString(ul)

	isAffirm := affirmPat.MatchString(ul)
	isDeny := denyPat.MatchString(ul)

	// Pure acknowledgments are short and carry no domain, question, or
	// request signal.
	pureAck := func(match bool) bool {
		if !match || isQuestion || isRequest || hasDomain {
			return false
		}
		return len(strings.Fields(ul)) <= 6
	}

	var intent Intent
	switch {
	case dbLike:
		intent = IntentDBQuery
	case venueLike || openNowPat.MatchString(ul) || nearPat.MatchString(ul):
		intent = IntentFoodSearch
	case pureAck(greetPat.MatchString(ul)):
		intent = IntentGreet
	case pureAck(goodbyePat.MatchString(ul)):
		intent = IntentGoodbye
	case pureAck(thanksPat.MatchString(ul)):
		intent = IntentThanks
	case pureAck(apologyPat.MatchString(ul)):
		intent = IntentApology
	case isAffirm:
		intent = IntentAffirm
	case isDeny:
		intent = IntentDeny
	case moodUnhappyPat.MatchString(ul) || notGreatPat.MatchString(ul):
		intent = IntentMoodUnhappy
	case moodGreatPat.MatchString(ul):
		intent = IntentMoodGreat
	case botChallengePat.MatchString(ul):
		intent = IntentBotChallenge
	default:
		intent = IntentGeneric
	}

	var major ActMajor
	var sub ActSubtype
	switch {
	case isQuestion:
		major, sub = ActDirective, SubAsk
	case isRequest:
		major, sub = ActDirective, SubRequest
	case isAffirm:
		major, sub = ActConstative, SubConfirm
	case isDeny:
		major, sub = ActConstative, SubDeny
	case pureAck(greetPat.MatchString(ul)):
		major, sub = ActAcknowledgment, SubGreet
	case pureAck(thanksPat.MatchString(ul)):
		major, sub = ActAcknowledgment, SubThank
	case pureAck(apologyPat.MatchString(ul)):
		major, sub = ActAcknowledgment, SubApologize
	case pureAck(goodbyePat.MatchString(ul)):
		major, sub = ActAcknowledgment, SubGoodbye
	case planPat.MatchString(ul):
		major, sub = ActCommissive, SubPlan
	case promisePat.MatchString(ul):
		major, sub = ActCommissive, SubPromise
	default:
		major, sub = ActConstative, SubState
	}

	return major, sub, intent
}

// #endregion act-decision

// #region analyze

// Analyze classifies one utterance and extracts its slots. venue carries the
// session's remembered venue entity for anaphora promotion; pass the zero
// value when the session has none. Small-talk intents return early with only
// the control slots set.
func Analyze(text string, venue VenueContext) (ActMajor, Intent, Slots) {
	t := NormalizeTypos(strings.TrimSpace(text))
	ul := strings.ToLower(t)

	var slots Slots
	if confirmPat.MatchString(ul) {
		slots.Confirm = true
	}
	if cancelPat.MatchString(ul) {
		slots.Cancel = true
	}

	actMajor, actSubtype, intent := decideActAndIntent(t)
	slots.ActSubtype = actSubtype

	if intent.IsSmallTalk() {
		return actMajor, intent, slots
	}

	if vt := extractType(ul); canonTypes[vt] {
		slots.Type = vt
	}
	if hood := extractNeighborhood(ul); hood != "" {
		slots.Neighborhood = hood
	}
	if nearPat.MatchString(ul) {
		slots.Near = "HQ"
	}
	if c := extractCuisine(ul); c != "" {
		slots.Cuisine = c
	}

	if wifiPat.MatchString(ul) {
		slots.Wifi = true
	}
	if outdoorPat.MatchString(ul) {
		slots.Outdoor = true
	}
	if veggiePat.MatchString(ul) {
		slots.Veggie = true
	}
	if alcoPat.MatchString(ul) {
		slots.Alcohol = true
	}
	if resPat.MatchString(ul) {
		slots.Reservations = true
	}
	if payPat.MatchString(ul) {
		slots.Payment = true
	}
	if openNowPat.MatchString(ul) {
		slots.OpenNow = true
	}

	// Explicit ranges win over a bare "under N" cap, so the range runs last.
	if m := priceMaxPat.FindStringSubmatch(ul); m != nil {
		slots.PriceMax, _ = strconv.Atoi(m[1])
	}
	if m := priceRangePat.FindStringSubmatch(ul); m != nil {
		slots.PriceMin, _ = strconv.Atoi(m[1])
		slots.PriceMax, _ = strconv.Atoi(m[2])
	}
	if m := ratingMinPat.FindStringSubmatch(ul); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			slots.RatingMin = f
		}
	}

	if m := limitPat.FindStringSubmatch(ul); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				slots.Limit, _ = strconv.Atoi(g)
				break
			}
		}
	}
	if sortBestPat.MatchString(ul) {
		slots.Sort = "best"
	} else if sortCheapPat.MatchString(ul) {
		slots.Sort = "cheap"
	}

	// Anaphora: "there/more/another" continues the remembered venue search.
	if intent == IntentGeneric && venue.Known {
		for _, tok := range continuationTokens {
			if strings.Contains(ul, tok) {
				intent = IntentFoodSearch
				if venue.Type != "" && slots.Type == "" {
					slots.Type = venue.Type
				}
				if venue.Neighborhood != "" && slots.Neighborhood == "" {
					slots.Neighborhood = venue.Neighborhood
				}
				if venue.Sort != "" && slots.Sort == "" {
					slots.Sort = venue.Sort
				}
				break
			}
		}
	}

	// Strong DB cues override anaphora bias.
	if dbHardPat.MatchString(ul) {
		intent = IntentDBQuery
	}

	return actMajor, intent, slots
}

// #endregion analyze
