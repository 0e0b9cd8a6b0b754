package speech

// #region act-major

// ActMajor is the top-level speech-act category of an utterance.
type ActMajor string

const (
	ActDirective      ActMajor = "DIRECTIVE"
	ActConstative     ActMajor = "CONSTATIVE"
	ActAcknowledgment ActMajor = "ACKNOWLEDGMENT"
	ActCommissive     ActMajor = "COMMISSIVE"
)

// #endregion act-major

// #region act-subtype

// ActSubtype refines the major act into its directive/constative flavor.
type ActSubtype string

const (
	SubAsk       ActSubtype = "ASK"
	SubRequest   ActSubtype = "REQUEST"
	SubConfirm   ActSubtype = "CONFIRM"
	SubDeny      ActSubtype = "DENY"
	SubGreet     ActSubtype = "GREET"
	SubThank     ActSubtype = "THANK"
	SubApologize ActSubtype = "APOLOGIZE"
	SubGoodbye   ActSubtype = "GOODBYE"
	SubPlan      ActSubtype = "PLAN"
	SubPromise   ActSubtype = "PROMISE"
	SubState     ActSubtype = "STATE"
)

// #endregion act-subtype

// #region intent

// Intent is the per-turn conversational intent. Domain intents route to a
// data source; small-talk intents short-circuit in the router.
type Intent string

const (
	IntentDBQuery      Intent = "db_query"
	IntentCheckTasks   Intent = "check_tasks"
	IntentFreeSlots    Intent = "free_slots"
	IntentFoodSearch   Intent = "food_search"
	IntentPlaceInfo    Intent = "place_info"
	IntentGreet        Intent = "greet"
	IntentGoodbye      Intent = "goodbye"
	IntentThanks       Intent = "thanks"
	IntentApology      Intent = "apology"
	IntentAffirm       Intent = "affirm"
	IntentDeny         Intent = "deny"
	IntentMoodUnhappy  Intent = "mood_unhappy"
	IntentMoodGreat    Intent = "mood_great"
	IntentBotChallenge Intent = "bot_challenge"
	IntentGeneric      Intent = "generic"
)

// IsSmallTalk reports whether the intent skips slot extraction entirely.
func (i Intent) IsSmallTalk() bool {
	switch i {
	case IntentGreet, IntentGoodbye, IntentAffirm, IntentDeny,
		IntentMoodGreat, IntentMoodUnhappy, IntentBotChallenge,
		IntentThanks, IntentApology:
		return true
	}
	return false
}

// IsDomain reports whether the intent belongs to the fixed domain set used
// for topic tracking and effective-intent inheritance.
func (i Intent) IsDomain() bool {
	switch i {
	case IntentFoodSearch, IntentPlaceInfo, IntentDBQuery,
		IntentCheckTasks, IntentFreeSlots:
		return true
	}
	return false
}

// KGBacked reports whether the intent is answered from the knowledge graph.
func (i Intent) KGBacked() bool {
	return i == IntentFoodSearch || i == IntentPlaceInfo
}

// DBBacked reports whether the intent is answered from the relational store.
func (i Intent) DBBacked() bool {
	return i == IntentDBQuery || i == IntentCheckTasks || i == IntentFreeSlots
}

// #endregion intent

// #region mood

// Mood is the discrete sentiment label attached to a turn.
type Mood string

const (
	MoodPositive Mood = "positive"
	MoodNegative Mood = "negative"
	MoodNeutral  Mood = "neutral"
)

// #endregion mood

// #region venue-context

// VenueContext carries the remembered venue entity (and prior sort
// preference) that anaphora promotion needs. Known is false when the session
// has no remembered venue yet.
type VenueContext struct {
	Known        bool
	Type         string
	Neighborhood string
	Cuisine      string
	Sort         string
}

// #endregion venue-context
