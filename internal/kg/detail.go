package kg

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"concierge/internal/dialogue"
)

// #region detail-queries

func detailQueryForPlace(placeIRI string) string {
	return fmt.Sprintf(`%s
SELECT
  ?label ?address ?price ?rating ?cuisine
  ?phone ?website ?email ?opening ?openingSpec
  ?reservations ?payment ?priceRange ?alcohol ?diet ?menu
  ?sameAs ?reviewCount ?latitude ?longitude
WHERE {
  BIND(<%s> AS ?place)
  OPTIONAL { ?place rdfs:label ?label }
  OPTIONAL { ?place schema:address ?address }
  OPTIONAL { ?place ex:averagePricePerPerson ?price }
  OPTIONAL { ?place ex:avgRating ?rating }
  OPTIONAL { ?place schema:servesCuisine ?cuisine }
  OPTIONAL { ?place schema:telephone ?phone }
  OPTIONAL { ?place ex:telephone ?phone }
  OPTIONAL { ?place schema:url ?website }
  OPTIONAL { ?place ex:url ?website }
  OPTIONAL { ?place schema:email ?email }
  OPTIONAL { ?place schema:openingHours ?opening }
  OPTIONAL { ?place schema:openingHoursSpecification ?openingSpec }
  OPTIONAL { ?place schema:acceptsReservations ?reservations }
  OPTIONAL { ?place ex:acceptsReservations ?reservations }
  OPTIONAL { ?place schema:paymentAccepted ?payment }
  OPTIONAL { ?place ex:paymentAccepted ?payment }
  OPTIONAL { ?place schema:priceRange ?priceRange }
  OPTIONAL { ?place schema:servesAlcohol ?alcohol }
  OPTIONAL { ?place schema:dietaryRestriction ?diet }
  OPTIONAL { ?place schema:menu ?menu }
  OPTIONAL { ?place schema:sameAs ?sameAs }
  OPTIONAL { ?place schema:reviewCount ?reviewCount }
  OPTIONAL { ?place <http://www.w3.org/2003/01/geo/wgs84_pos#lat> ?latitude }
  OPTIONAL { ?place <http://www.w3.org/2003/01/geo/wgs84_pos#long> ?longitude }
}
LIMIT 1
`, PrefixBlock, placeIRI)
}

// whitelistPredicates bounds the generic fallback sweep to known-safe
// properties.
var whitelistPredicates = []string{
	"https://schema.org/telephone",
	"https://schema.org/url",
	"https://schema.org/email",
	"https://schema.org/openingHours",
	"https://schema.org/openingHoursSpecification",
	"https://schema.org/acceptsReservations",
	"https://schema.org/paymentAccepted",
	"https://schema.org/priceRange",
	"https://schema.org/servesAlcohol",
	"https://schema.org/dietaryRestriction",
	"https://schema.org/menu",
	"https://schema.org/sameAs",
	"https://schema.org/reviewCount",
	"http://example.org/telephone",
	"http://example.org/url",
	"http://example.org/menu",
	"http://example.org/instagram",
	"http://example.org/facebook",
	"http://example.org/tags",
}

func detailQueryFallback(placeIRI string) string {
	preds := make([]string, len(whitelistPredicates))
	for i, p := range whitelistPredicates {
		preds[i] = "<" + p + ">"
	}
	return fmt.Sprintf(`%s
SELECT ?p ?o WHERE {
  BIND(<%s> AS ?place)
  ?place ?p ?o .
  FILTER(?p IN (%s))
}
LIMIT 25
`, PrefixBlock, placeIRI, strings.Join(preds, " "))
}

func detailQueryByLabel(label string) string {
	lab := strings.ReplaceAll(label, `\`, `\\`)
	lab = strings.ReplaceAll(lab, `"`, `\"`)
	return fmt.Sprintf(`%s
SELECT ?place WHERE {
  ?place rdfs:label ?lab .
  FILTER(LCASE(STR(?lab)) = LCASE("%s"))
}
LIMIT 1
`, PrefixBlock, lab)
}

// #endregion detail-queries

// #region detail-exec

// fetchDetail fetches and caches extra facts for a place IRI. When the rich
// optionals come back thin, a whitelist sweep packs extra predicate/object
// pairs into p__N/o__N keys.
func (c *Client) fetchDetail(ctx context.Context, placeIRI string, st *dialogue.State) map[string]string {
	if cached, ok := st.KGDetailCache[placeIRI]; ok {
		return cached
	}

	rows, _ := c.ExecQuery(ctx, detailQueryForPlace(placeIRI), st)
	var row map[string]string
	if len(rows) > 0 {
		row = rows[0]
	}

	if len(row) <= 5 {
		sweep, _ := c.ExecQuery(ctx, detailQueryFallback(placeIRI), st)
		for i, r := range sweep {
			if i >= 20 {
				break
			}
			p, o := r["p"], r["o"]
			if p == "" || o == "" {
				continue
			}
			if row == nil {
				row = make(map[string]string)
			}
			row[fmt.Sprintf("p__%d", i+1)] = p
			row[fmt.Sprintf("o__%d", i+1)] = o
		}
	}

	if row != nil {
		st.KGDetailCache[placeIRI] = row
	}
	return row
}

// #endregion detail-exec

// #region detail-verbalization

var detailStandardFields = []string{
	"averagePricePerPerson", "avgRating", "address", "servesCuisine", "rdfs#label",
}

// verbalizeDetail shows the new facts first (anything not already in the
// list view), then contact/policy extras, then a few whitelisted generic
// pairs from the sweep.
func verbalizeDetail(baseRow, detailRow map[string]string) string {
	label := rowGet(detailRow, "label")
	if label == "" {
		label = rowGet(baseRow, "label", "name", "place")
	}
	if label == "" {
		label = "This place"
	}

	knownAddr := rowGet(baseRow, "address")
	knownPrice := rowGet(baseRow, "price", "averagePricePerPerson")
	knownRate := rowGet(baseRow, "rating", "avgRating")
	knownCuisine := rowGet(baseRow, "cuisine")

	addr := firstNonEmpty(detailRow["address"], knownAddr)
	price := firstNonEmpty(detailRow["price"], knownPrice)
	rate := firstNonEmpty(detailRow["rating"], knownRate)
	cuisine := firstNonEmpty(detailRow["cuisine"], knownCuisine)

	var header []string
	if addr != "" && addr != knownAddr {
		header = append(header, addr)
	}
	if cuisine != "" && cuisine != knownCuisine {
		header = append(header, "cuisine "+cuisine)
	}
	if rate != "" && rate != knownRate {
		header = append(header, "rating "+rate)
	}
	if price != "" && price != knownPrice {
		header = append(header, "~€"+price+"/person")
	}
	if len(header) == 0 {
		// Nothing new learned: still show a compact header.
		if addr != "" {
			header = append(header, addr)
		}
		if cuisine != "" {
			header = append(header, "cuisine "+cuisine)
		}
		if rate != "" {
			header = append(header, "rating "+rate)
		}
		if price != "" {
			header = append(header, "~€"+price+"/person")
		}
	}

	var extras []string
	addExtra := func(key, prefix string) {
		if v := detailRow[key]; v != "" {
			extras = append(extras, prefix+v)
		}
	}
	addExtra("phone", "☎ ")
	addExtra("email", "email: ")
	addExtra("website", "website: ")
	if v := firstNonEmpty(detailRow["opening"], detailRow["openingSpec"]); v != "" {
		extras = append(extras, "hours: "+v)
	}
	addExtra("reservations", "reservations: ")
	addExtra("payment", "payment: ")
	addExtra("priceRange", "price range: ")
	addExtra("alcohol", "alcohol: ")
	addExtra("diet", "diet: ")
	addExtra("menu", "menu: ")
	addExtra("sameAs", "profile: ")
	addExtra("reviewCount", "reviews: ")
	if detailRow["latitude"] != "" && detailRow["longitude"] != "" {
		extras = append(extras, "geo: "+detailRow["latitude"]+","+detailRow["longitude"])
	}

	extras = append(extras, genericPairExtras(detailRow)...)

	var lines []string
	if len(header) > 0 {
		lines = append(lines, strings.Join(header, " — "))
	}
	if len(extras) > 0 {
		lines = append(lines, strings.Join(extras, " · "))
	}
	if len(lines) == 0 {
		return label
	}
	return label + ":\n" + strings.Join(lines, "\n")
}

// genericPairExtras pulls up to 5 p__N/o__N sweep pairs, skipping fields the
// header already shows.
func genericPairExtras(detailRow map[string]string) []string {
	var out []string
	for i := 1; i <= 20 && len(out) < 5; i++ {
		p := detailRow[fmt.Sprintf("p__%d", i)]
		o := detailRow[fmt.Sprintf("o__%d", i)]
		if p == "" || o == "" {
			continue
		}
		dup := false
		for _, std := range detailStandardFields {
			if strings.Contains(p, std) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		short := p
		if j := strings.LastIndex(p, "/"); j >= 0 {
			short = p[j+1:]
		}
		out = append(out, short+": "+o)
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// #endregion detail-verbalization

// #region place-matching

var quotedSpanRe = regexp.MustCompile(`["\x{201C}](.+?)["\x{201D}]`)
var placeTokensRe = regexp.MustCompile(`[\w'\-\.]+(?:\s+[\w'\-\.]+)*`)

// extractPlaceQuery pulls a place mention out of the turn: the place slot if
// set, else a quoted span, else the last multi-token or numbered chunk.
func extractPlaceQuery(userText, placeSlot string) string {
	if s := strings.TrimSpace(placeSlot); s != "" {
		return s
	}
	t := strings.TrimSpace(userText)
	if t == "" {
		return ""
	}
	if m := quotedSpanRe.FindStringSubmatch(t); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1])
	}
	var last string
	for _, c := range placeTokensRe.FindAllString(t, -1) {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if strings.ContainsAny(c, "0123456789") || len(strings.Fields(c)) >= 2 {
			last = c
		}
	}
	return last
}

// findRowByLabel matches a cached row by exact label or IRI tail, falling
// back to the first partial label match.
func findRowByLabel(rows []map[string]string, q string) map[string]string {
	qn := strings.ToLower(strings.TrimSpace(q))
	if qn == "" {
		return nil
	}
	var best map[string]string
	for _, row := range rows {
		label := strings.ToLower(rowGet(row, "label", "name"))
		place := strings.ToLower(row["place"])
		if label == qn || (place != "" && strings.HasSuffix(place, qn)) {
			return row
		}
		if best == nil && label != "" && strings.Contains(label, qn) {
			best = row
		}
	}
	return best
}

func placeIRI(row map[string]string) string {
	if v := row["place"]; strings.HasPrefix(v, "http") {
		return v
	}
	return ""
}

// #endregion place-matching
