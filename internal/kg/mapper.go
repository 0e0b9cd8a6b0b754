package kg

import (
	"regexp"
	"strings"
)

// #region prefixes

// PrefixBlock is the standard prefix header prepended to queries that miss
// the required prefixes.
const PrefixBlock = `PREFIX ex: <http://example.org/>
PREFIX schema: <https://schema.org/>
PREFIX geo: <http://www.w3.org/2003/01/geo/wgs84_pos#>
PREFIX geosparql: <http://www.opengis.net/ont/geosparql#>
PREFIX sf: <http://www.opengis.net/ont/sf#>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
`

// EnsurePrefixes prepends the standard block when any required prefix is
// missing from the query.
func EnsurePrefixes(s string) string {
	for _, p := range []string{"PREFIX ex:", "PREFIX schema:", "PREFIX rdfs:"} {
		if !strings.Contains(s, p) {
			return PrefixBlock + "\n" + s
		}
	}
	return s
}

// #endregion prefixes

// #region normalization-maps

// mapRule rewrites one schema drift pattern from LLM output to the dataset's
// vocabulary. Rules apply in order.
type mapRule struct {
	re   *regexp.Regexp
	repl string
}

var propertyRules = []mapRule{
	{regexp.MustCompile(`\bschema:priceRange\b`), "ex:averagePricePerPerson"},
	{regexp.MustCompile(`\bschema:price\b`), "ex:averagePricePerPerson"},
	{regexp.MustCompile(`\bprice\b`), "ex:averagePricePerPerson"},

	{regexp.MustCompile(`\bschema:hasWifi\b`), "ex:hasWifi"},
	{regexp.MustCompile(`\bwifi\b`), "ex:hasWifi"},

	{regexp.MustCompile(`\bschema:outdoorSeating\b`), "ex:hasOutdoorSeating"},
	{regexp.MustCompile(`\boutdoor\b`), "ex:hasOutdoorSeating"},

	{regexp.MustCompile(`\bschema:vegetarianFriendly\b`), "ex:veggieFriendly"},
	{regexp.MustCompile(`\bschema:veganFriendly\b`), "ex:veggieFriendly"},
	{regexp.MustCompile(`\bvegan\b`), "ex:veggieFriendly"},
	{regexp.MustCompile(`\bvegetarian\b`), "ex:veggieFriendly"},

	{regexp.MustCompile(`\bschema:noise\b`), "ex:noiseLevel"},
	{regexp.MustCompile(`\bnoise\b`), "ex:noiseLevel"},

	{regexp.MustCompile(`\bschema:accessibility\b`), "ex:accessibility"},
	{regexp.MustCompile(`\baccessible\b`), "ex:accessibility"},

	{regexp.MustCompile(`\bschema:alcohol\b`), "schema:servesAlcohol"},
	{regexp.MustCompile(`\balcohol\b`), "schema:servesAlcohol"},
	{regexp.MustCompile(`\bdrinks\b`), "schema:servesAlcohol"},

	{regexp.MustCompile(`\bschema:aggregateRating\b`), "ex:avgRating"},
	{regexp.MustCompile(`\bschema:rating\b`), "ex:avgRating"},
	{regexp.MustCompile(`\brating\b`), "ex:avgRating"},

	{regexp.MustCompile(`\bschema:name\b`), "rdfs:label"},
	{regexp.MustCompile(`\bex:name\b`), "rdfs:label"},
}

var classRules = []mapRule{
	{regexp.MustCompile(`\bschema:Cafe\b`), "schema:CafeOrCoffeeShop"},
	{regexp.MustCompile(`\bschema:CoffeeShop\b`), "schema:CafeOrCoffeeShop"},
	{regexp.MustCompile(`\blocal:Cafe\b`), "schema:CafeOrCoffeeShop"},
	{regexp.MustCompile(`\bkg:Cafe\b`), "schema:CafeOrCoffeeShop"},
	{regexp.MustCompile(`\bns:Cafe\b`), "schema:CafeOrCoffeeShop"},

	{regexp.MustCompile(`\bschema:Bar\b`), "schema:BarOrPub"},
	{regexp.MustCompile(`\blocal:Bar\b`), "schema:BarOrPub"},
	{regexp.MustCompile(`\bkg:Bar\b`), "schema:BarOrPub"},
	{regexp.MustCompile(`\bns:Bar\b`), "schema:BarOrPub"},

	{regexp.MustCompile(`\blocal:Restaurant\b`), "schema:Restaurant"},
	{regexp.MustCompile(`\bkg:Restaurant\b`), "schema:Restaurant"},
	{regexp.MustCompile(`\bns:Restaurant\b`), "schema:Restaurant"},
}

// prefixFixRules repair bare ':Class' tokens left by models that invent an
// empty prefix. Go's regexp has no lookbehind, so the leading char (or start)
// is captured and restored.
var prefixFixRules = []mapRule{
	{regexp.MustCompile(`(^|[^A-Za-z0-9_]):Restaurant\b`), "${1}schema:Restaurant"},
	{regexp.MustCompile(`(^|[^A-Za-z0-9_]):Cafe\b`), "${1}schema:CafeOrCoffeeShop"},
	{regexp.MustCompile(`(^|[^A-Za-z0-9_]):Bar\b`), "${1}schema:BarOrPub"},
	{regexp.MustCompile(`(^|[^A-Za-z0-9_]):Place\b`), "${1}schema:Place"},
}

// #endregion normalization-maps

// #region fences

var fenceRe = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*|\\s*```$")

// StripFences removes markdown code fences from LLM output.
func StripFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}

// #endregion fences

// #region bareword-objects

var tripleRe = regexp.MustCompile(`(?m)(\S+)\s+(\S+)\s+([^.;{}]+)\s*\.`)
var numberRe = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][-+]?\d+)?$`)

// quoteBarewordObjects quotes plain object tokens that are not variables,
// IRIs, prefixed names, numbers, or booleans.
func quoteBarewordObjects(s string) string {
	return tripleRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := tripleRe.FindStringSubmatch(m)
		subj, pred, obj := parts[1], parts[2], strings.TrimSpace(parts[3])
		switch {
		case strings.HasPrefix(obj, "?"),
			strings.HasPrefix(obj, "<"),
			strings.HasPrefix(obj, `"`),
			strings.Contains(obj, ":"),
			numberRe.MatchString(obj),
			strings.EqualFold(obj, "true"),
			strings.EqualFold(obj, "false"):
			return m
		}
		return subj + " " + pred + ` "` + obj + `" .`
	})
}

// #endregion bareword-objects

// #region map-query

func applyRules(s string, rules []mapRule) string {
	for _, r := range rules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// MapQuery normalizes generated SPARQL: strips fences, aligns classes and
// properties to the dataset schema, repairs bare prefixes, and quotes
// bareword objects.
func MapQuery(raw string) string {
	if raw == "" {
		return raw
	}
	s := StripFences(raw)
	s = applyRules(s, classRules)
	s = applyRules(s, propertyRules)
	s = applyRules(s, prefixFixRules)
	return quoteBarewordObjects(s)
}

// #endregion map-query
