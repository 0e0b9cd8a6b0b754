package speech

import "regexp"

// #region typo-fixes

// typoFixes normalizes known misspellings of domain vocabulary before any
// other pattern runs. Keys are matched as whole words, case-insensitively.
var typoFixes = []struct {
	re    *regexp.Regexp
	right string
}{
	{regexp.MustCompile(`(?i)\breastaurant\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\brestarant\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\brestauratn\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\bcusine\b`), "cuisine"},
	{regexp.MustCompile(`(?i)\bcuisne\b`), "cuisine"},
	{regexp.MustCompile(`(?i)\bcusiune\b`), "cuisine"},
	{regexp.MustCompile(`(?i)\bkolonakii\b`), "kolonaki"},
	{regexp.MustCompile(`(?i)\bpsiri\b`), "psyrri"},
	{regexp.MustCompile(`(?i)\bexarcheia\b`), "exarchia"},
	{regexp.MustCompile(`(?i)\bkukaki\b`), "koukaki"},
}

// NormalizeTypos rewrites known misspellings so downstream patterns match.
func NormalizeTypos(s string) string {
	for _, f := range typoFixes {
		s = f.re.ReplaceAllString(s, f.right)
	}
	return s
}

// #endregion typo-fixes

// #region venue-synonyms

// venueRule maps one synonym pattern to its canonical venue type. Rule order
// is a contract: the first matching pattern wins.
type venueRule struct {
	re    *regexp.Regexp
	canon string
}

var venueRules = []venueRule{
	// Restaurants
	{regexp.MustCompile(`(?i)\brestaurants?\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\bresto\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\bresturant\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\brestaraunt\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\beat(?:ery|eries)\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\bdiners?\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\bsteakhouses?\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\bpizzerias?\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\btrattorias?\b|\btrattorie\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\bosterias?\b|\bosterie\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\btavernas?\b|\btaverns?\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\bgrill\s*houses?\b|\bgrills?\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\broasteries?\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\bfast\s*food\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\btake[-\s]?aways?\b|\btakeouts?\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\bsouvlak(?:i|ia)\b|\bgyro?s?\b|\bkebabs?\b|\bmeze(?:dopolio)?\b|\bmezze?\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\bbrasseries?\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\bbistros?\b`), "restaurant"},
	{regexp.MustCompile(`(?i)\bfood\b`), "restaurant"},
	// Cafes
	{regexp.MustCompile(`(?i)\bcaf(?:e|é)s?\b`), "cafe"},
	{regexp.MustCompile(`(?i)\bcoffee\s*shops?\b`), "cafe"},
	{regexp.MustCompile(`(?i)\bcoffees?\b`), "cafe"},
	{regexp.MustCompile(`(?i)\bespresso\s*bars?\b`), "cafe"},
	{regexp.MustCompile(`(?i)\bbrunch\b|\bbreakfast\b`), "cafe"},
	{regexp.MustCompile(`(?i)\bbakeries?\b|\bpatisseries?\b|\bpastry\s*shops?\b|\bconfectionery?\b`), "cafe"},
	{regexp.MustCompile(`(?i)\bgelaterias?\b|\bice\s*cream\b|\bdessert\s*bars?\b|\bcreperies?\b|\bbagels?\b|\bdonuts?\b`), "cafe"},
	{regexp.MustCompile(`(?i)\bcafeterias?\b`), "cafe"},
	// Bars
	{regexp.MustCompile(`(?i)\bbars?\b`), "bar"},
	{regexp.MustCompile(`(?i)\bpubs?\b`), "bar"},
	{regexp.MustCompile(`(?i)\bbrewer(?:y|ies)\b|\btaprooms?\b`), "bar"},
	{regexp.MustCompile(`(?i)\bwine\s*bars?\b`), "bar"},
	{regexp.MustCompile(`(?i)\bcocktail\s*bars?\b|\bcocktails?\b`), "bar"},
	{regexp.MustCompile(`(?i)\bouzeris?\b|\bouzeries\b|\bouzerias?\b`), "bar"},
	{regexp.MustCompile(`(?i)\blounges?\b`), "bar"},
}

// canonTypes is the closed set of venue types the knowledge graph knows.
var canonTypes = map[string]bool{"restaurant": true, "cafe": true, "bar": true}

// #endregion venue-synonyms

// #region neighborhoods

// neighborhoodRules normalize spelling/casing variants to canonical labels.
var neighborhoodRules = []struct {
	re    *regexp.Regexp
	canon string
}{
	{regexp.MustCompile(`(?i)\bsyntagma(\s+square)?\b`), "Syntagma"},
	{regexp.MustCompile(`(?i)\bpláka\b|\bplaka\b`), "Plaka"},
	{regexp.MustCompile(`(?i)\bmonastiraki\b`), "Monastiraki"},
	{regexp.MustCompile(`(?i)\bkolonaki\b`), "Kolonaki"},
	{regexp.MustCompile(`(?i)\bkoukaki\b`), "Koukaki"},
	{regexp.MustCompile(`(?i)\bexarchia\b`), "Exarchia"},
	{regexp.MustCompile(`(?i)\bpsyrri\b`), "Psyrri"},
}

// #endregion neighborhoods

// #region feature-flags

var (
	wifiPat    = regexp.MustCompile(`(?i)\b(wifi|wi[-\s]?fi|internet)\b`)
	outdoorPat = regexp.MustCompile(`(?i)\b(outdoor|outside|terrace|patio|garden|sidewalk|veranda)\b`)
	veggiePat  = regexp.MustCompile(`(?i)\b(vegan|vegetarian|veg[-\s]?friendly)\b`)
	alcoPat    = regexp.MustCompile(`(?i)\b(alcohol|drinks?|cocktails?|beer|wine)\b`)
	resPat     = regexp.MustCompile(`(?i)\b(reservations?|book|table|reserve)\b`)
	payPat     = regexp.MustCompile(`(?i)\b(cash|visa|mastercard|amex|american express|paypal|card|cards)\b`)
	openNowPat = regexp.MustCompile(`(?i)\b(open now|open\s*(right\s*)?now|hours|opening)\b`)
	nearPat    = regexp.MustCompile(`(?i)\bnear(by)?\b|\bclose\s*to\b|near me|close by|around here`)
)

// #endregion feature-flags

// #region numeric-constraints

var (
	priceMaxPat   = regexp.MustCompile(`(?i)(?:under|below|<|<=|up to|no more than)\s*(\d{1,3})\s*€?`)
	priceRangePat = regexp.MustCompile(`(?i)(\d{1,3})\s*[-–]\s*(\d{1,3})\s*€?`)
	ratingMinPat  = regexp.MustCompile(`(?i)(?:rating|stars?)[^\d]{0,6}(\d(?:\.\d)?)`)
	limitPat      = regexp.MustCompile(`(?i)\btop\s*(\d{1,2})\b|\bfirst\s*(\d{1,2})\b|\bnext\s*(\d{1,2})\b`)
	sortBestPat   = regexp.MustCompile(`(?i)\b(best|top|highest[-\s]?rated)\b`)
	sortCheapPat  = regexp.MustCompile(`(?i)\b(cheap|cheapest|budget|value|affordable|inexpensive|low[-\s]?cost|good value)\b`)
)

// #endregion numeric-constraints

// #region cuisine

// cuisineRules are checked in declared order; the label is title-cased into
// the cuisine slot.
var cuisineRules = []struct {
	label string
	re    *regexp.Regexp
}{
	{"Italian", regexp.MustCompile(`(?i)\bitalian\b`)},
	{"Greek", regexp.MustCompile(`(?i)\bgreek\b`)},
	{"Japanese", regexp.MustCompile(`(?i)\bjapanese\b|\bsushi\b`)},
	{"Mexican", regexp.MustCompile(`(?i)\bmexican\b`)},
	{"Indian", regexp.MustCompile(`(?i)\bindian\b`)},
	{"Thai", regexp.MustCompile(`(?i)\bthai\b`)},
	{"Chinese", regexp.MustCompile(`(?i)\bchinese\b`)},
	{"Mediterranean", regexp.MustCompile(`(?i)\bmediterranean\b`)},
	{"Seafood", regexp.MustCompile(`(?i)\bsea\s*food\b`)},
	{"Pizza", regexp.MustCompile(`(?i)\bpizza\b`)},
	{"Burgers", regexp.MustCompile(`(?i)\bburgers?\b`)},
	{"Vegan", regexp.MustCompile(`(?i)\bvegan\b`)},
	{"Vegetarian", regexp.MustCompile(`(?i)\bvegetarian\b`)},
	{"Middle Eastern", regexp.MustCompile(`(?i)\bmiddle\s+eastern\b|\blebanese\b|\bturkish\b`)},
}

// #endregion cuisine

// #region db-keywords

// dbHardPat is the strong database cue. It always wins over anaphora
// promotion: any match forces intent db_query.
var dbHardPat = regexp.MustCompile(`(?i)\b(tasks?|todo|appointments?|meeting|schedule|calendar|staff|assign|resched|reschedule)\b`)

// #endregion db-keywords

// #region control-flags

var (
	confirmPat = regexp.MustCompile(`(?i)\b(yes|yeah|yep|correct|do it|go ahead|sounds good|ok(ay)?|please proceed)\b`)
	cancelPat  = regexp.MustCompile(`(?i)\b(cancel(\s*(it|that))?|never[\s-]?mind|nvm|stop|abort|undo|don'?t\s+(do|proceed)|do\s+not\s+(do|proceed))\b`)
)

// #endregion control-flags

// #region directive-cues

var (
	imperativePat = regexp.MustCompile(`(?i)^(show|find|list|give|tell|check|lookup|look up|filter|summarize|book|schedule|add|create|send|draft)\b`)
	orderVerbPat  = regexp.MustCompile(`(?i)\b(order|book|schedule|create|add|assign|find|show|send|set up|make)\b`)
	questionPat   = regexp.MustCompile(`(?i)\?$|^\s*(can|could|would|will|do|does|did|how|what|when|where|why|which|who)\b`)
)

// #endregion directive-cues

// #region small-talk

var (
	greetPat        = regexp.MustCompile(`(?i)\b(hey|hello|hi|good\s*(morning|evening|afternoon))\b`)
	goodbyePat      = regexp.MustCompile(`(?i)\b(bye|good\s*bye|see\s*you|later|good\s*night)\b`)
	affirmPat       = regexp.MustCompile(`(?i)\b(yes|y|indeed|of course|correct|sure|okay|ok|sounds good)\b`)
	denyPat         = regexp.MustCompile(`(?i)\b(no|n|never|not really|nope|cancel|stop)\b`)
	moodGreatPat    = regexp.MustCompile(`(?i)\b(perfect|great|amazing|wonderful|very good|super|fantastic|happy)\b`)
	moodUnhappyPat  = regexp.MustCompile(`(?i)\b(horrible|sad|unhappy|not good|disappointed|annoyed|frustrated|upset|tired|stressed)\b`)
	notGreatPat     = regexp.MustCompile(`(?i)\bnot\s+great\b`)
	botChallengePat = regexp.MustCompile(`(?i)\b(are you a (bot|human)\??|am i talking to (a )?(bot|human)\??)\b`)
	thanksPat       = regexp.MustCompile(`(?i)\b(thanks?|thank you|appreciate it)\b`)
	apologyPat      = regexp.MustCompile(`(?i)\b(sorry|my bad|apologies|pardon)\b`)
)

// #endregion small-talk

// #region commissives

var (
	promisePat = regexp.MustCompile(`(?i)\b(i ('?ll|will|shall|can)\s*(do|handle|fix|take care))\b`)
	planPat    = regexp.MustCompile(`(?i)\b(let('?s)?|we could|we should)\s+(do|go|book|plan|organize|schedule)\b`)
)

// #endregion commissives

// #region venue-bare-words

// venueBareWords are loose lexical cues that mark an utterance venue-like
// even when no synonym rule fires (e.g. "drinks after lunch").
var venueBareWords = []string{"bar", "cafe", "restaurant", "coffee", "lunch", "dinner", "drinks"}

// #endregion venue-bare-words

// #region continuation-tokens

// continuationTokens trigger anaphora promotion of a generic turn when the
// session remembers a venue.
var continuationTokens = []string{"there", "more", "another"}

// #endregion continuation-tokens
