package kg

import (
	"fmt"
	"strings"

	"concierge/internal/speech"
)

// #region template

var classForType = map[string]string{
	"restaurant": "schema:Restaurant",
	"cafe":       "schema:CafeOrCoffeeShop",
	"bar":        "schema:BarOrPub",
}

// TemplatedQuery builds a minimal deterministic query from structured slots,
// used when LLM generation fails or returns zero rows.
func TemplatedQuery(slots speech.Slots, policy PricePolicy, cuisine string) string {
	klass, ok := classForType[strings.ToLower(slots.Type)]
	if !ok {
		klass = "schema:Restaurant"
	}

	located := "  ?place ex:locatedIn+ ex:Athens ."
	if slots.Neighborhood != "" {
		located = fmt.Sprintf("  ?place ex:locatedIn <http://example.org/hood/%s> .", slots.Neighborhood)
	}

	cuisineFilter := ""
	if cuisine != "" {
		cuisineFilter = fmt.Sprintf("  FILTER(CONTAINS(LCASE(STR(?cuisine)), '%s'))\n",
			escapeSPARQLString(strings.ToLower(cuisine)))
	}

	return fmt.Sprintf(`%s
SELECT ?place ?label ?address ?price ?rating ?cuisine
WHERE {
  ?place a %s ;
         rdfs:label ?label .
%s
  OPTIONAL { ?place schema:address ?address }
  OPTIONAL { ?place ex:averagePricePerPerson ?price }
  OPTIONAL { ?place ex:avgRating ?rating }
  OPTIONAL { ?place schema:servesCuisine ?cuisine }
%s}
%s
LIMIT %d
`, PrefixBlock, klass, located, cuisineFilter, policy.Order, policy.Limit)
}

// #endregion template
