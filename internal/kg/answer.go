package kg

import (
	"context"
	"log"
	"regexp"
	"strings"

	"concierge/internal/dialogue"
	"concierge/internal/llm"
	"concierge/internal/speech"
)

// #region generation

const fewshotQuery = "```sparql\n" +
	`PREFIX ex: <http://example.org/>
PREFIX schema: <https://schema.org/>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT ?place ?label ?address ?price ?rating
WHERE {
  ?place a schema:Restaurant ;
         ex:locatedIn ex:Athens ;
         rdfs:label ?label .
  OPTIONAL { ?place schema:address ?address }
  OPTIONAL { ?place ex:averagePricePerPerson ?price }
  OPTIONAL { ?place ex:avgRating ?rating }
}
` + "ORDER BY DESC(?rating) ASC(?price)\nLIMIT 5\n```"

// generateSPARQL prompts the generator with strict rules and a compact
// few-shot. Empty result means generation failed and the template takes over.
func (c *Client) generateSPARQL(ctx context.Context, question string, policy PricePolicy, cuisine string) string {
	cuisineHint := ""
	if cuisine != "" {
		cuisineHint = "User requested cuisine: '" + cuisine + "'. "
	}
	sys := "You generate SPARQL for a local Blazegraph endpoint.\n" +
		"CRITICAL RULES:\n" +
		"1) ALWAYS include these prefixes exactly once at the top:\n" + PrefixBlock +
		"2) Only use existing classes/properties from the ontology (schema, ex, rdfs).\n" +
		"3) Keep queries SMALL (<=6 variables) and include LIMIT.\n" +
		"4) Include ?price (ex:averagePricePerPerson) and ?rating (ex:avgRating) when available.\n" +
		"5) Persona price band: '" + policy.Band + "'. Prefer results using this sorting: " + policy.Order + ".\n" +
		"6) If cuisine is requested, bind 'schema:servesCuisine ?cuisine' and filter case-insensitively, e.g.:\n" +
		"   FILTER(CONTAINS(LCASE(STR(?cuisine)), 'italian')).\n" +
		"7) " + cuisineHint + "No invented prefixes. No explanations. Return only SPARQL.\n"

	messages := []llm.Message{
		{Role: "system", Content: sys},
		{Role: "user", Content: "Return the few-shot example only."},
		{Role: "assistant", Content: fewshotQuery},
		{Role: "user", Content: question},
	}
	content, err := c.Gen.CompleteSPARQL(ctx, messages)
	if err != nil {
		log.Printf("[KG] generation error: %v", err)
		return ""
	}
	return StripFences(content)
}

// #endregion generation

// #region answer

// AnswerWithKG resolves a venue question: detail follow-ups answer from the
// cached list (with per-place enrichment); everything else goes through
// generate, normalize, rewrite, validate, execute, with a templated fallback
// when generation fails or returns nothing. Empty string means no context
// could be produced.
func (c *Client) AnswerWithKG(ctx context.Context, userText string, slots speech.Slots, st *dialogue.State) string {
	// Follow-up detail about a previously listed place.
	if q := extractPlaceQuery(userText, slots.Place); q != "" && len(st.LastKGRows) > 0 {
		if hit := findRowByLabel(st.LastKGRows, q); hit != nil {
			iri := placeIRI(hit)
			if iri == "" {
				if lbl := rowGet(hit, "label"); lbl != "" {
					if rows, _ := c.ExecQuery(ctx, detailQueryByLabel(lbl), st); len(rows) > 0 {
						iri = placeIRI(rows[0])
					}
				}
			}
			if iri != "" {
				if detail := c.fetchDetail(ctx, iri, st); detail != nil {
					return verbalizeDetail(hit, detail)
				}
			}
			return VerbalizeSingle(hit)
		}
	}

	policy := PersonaPricePolicy(st.Profile, slots)
	cuisine := slots.Cuisine
	if cuisine == "" {
		cuisine = speech.DetectCuisine(userText)
	}

	raw := c.generateSPARQL(ctx, userText, policy, cuisine)
	if raw == "" {
		return c.execTemplate(ctx, slots, st, policy, cuisine)
	}

	q := EnsurePrefixes(MapQuery(raw))
	q = rewriteCuisineEqualsToFilter(q, cuisine)
	q = injectNeighborhood(q, slots.Neighborhood)
	q = enforceOrderBy(q, policy.Order)
	q = coerceLimit(q, policy.Limit, policy.UserSetLimit)
	q = sanitizeVarsAndLimit(q, policy.Limit)

	if ok, reason := validateSelect(q); !ok {
		log.Printf("[KG] generated query rejected (%s); using template", reason)
		return c.execTemplate(ctx, slots, st, policy, cuisine)
	}

	rows, _ := c.ExecQuery(ctx, q, st)
	if len(rows) == 0 && (cuisine != "" || slots.Neighborhood != "") {
		log.Printf("[KG] zero rows; falling back to templated query")
		return c.execTemplate(ctx, slots, st, policy, cuisine)
	}
	return Verbalize(rows, policy.Limit)
}

func (c *Client) execTemplate(ctx context.Context, slots speech.Slots, st *dialogue.State, policy PricePolicy, cuisine string) string {
	rows, _ := c.ExecQuery(ctx, TemplatedQuery(slots, policy, cuisine), st)
	return Verbalize(rows, policy.Limit)
}

// #endregion answer

// #region cache-answer

var (
	numInTextRe = regexp.MustCompile(`\b(\d{1,5})\b`)
	detailCueRe = regexp.MustCompile(`(?i)\b(?:more info|details?|tell me more|what about)\b`)
	wordSplitRe = regexp.MustCompile(`\W+`)
)

// HasDetailCue reports whether the text asks for follow-up detail about a
// previously listed place.
func HasDetailCue(text string) bool {
	return detailCueRe.MatchString(text)
}

// TryAnswerFromCache serves a detail request about one of the cached list
// rows without touching the endpoint: numeric label match first, then token
// containment, then a weak first-row fallback. Empty string means no hit.
func TryAnswerFromCache(userText string, rows []map[string]string) string {
	if len(rows) == 0 {
		return ""
	}
	t := strings.ToLower(userText)

	targetNum := ""
	if m := numInTextRe.FindStringSubmatch(t); m != nil {
		targetNum = m[1]
	}

	var best map[string]string
	for _, row := range rows {
		label := strings.ToLower(strings.TrimSpace(rowGet(row, "label", "name", "place")))
		if label == "" {
			continue
		}
		if targetNum != "" && strings.Contains(label, targetNum) {
			best = row
			break
		}
		if best == nil && tokensContained(t, label) {
			best = row
		}
	}

	if best == nil && detailCueRe.MatchString(t) {
		best = rows[0]
	}
	if best == nil {
		return ""
	}

	parts := rowParts(best)
	if len(parts) == 0 {
		return "Results:\n• (item)"
	}
	return "Results:\n• " + strings.Join(parts, " — ")
}

// tokensContained reports whether every alphabetic token longer than 3 chars
// appears in the label.
func tokensContained(text, label string) bool {
	toks := wordSplitRe.Split(text, -1)
	any := false
	for _, w := range toks {
		if len(w) <= 3 || !isAlpha(w) {
			continue
		}
		any = true
		if !strings.Contains(label, w) {
			return false
		}
	}
	return any
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return s != ""
}

// #endregion cache-answer
