package kg

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// #region rewriters

var (
	cuisineEqRe    = regexp.MustCompile(`(?im)^\s*\?place\s+schema:servesCuisine\s+(".*?"(?:@[a-z\-]+)?|\S+)\s*\.\s*$`)
	orderByBlockRe = regexp.MustCompile(`(?is)\bORDER\s+BY\b[^}]*?((\bLIMIT\b)|(}$))`)
	limitRe        = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)\b`)
	whereOpenRe    = regexp.MustCompile(`(?is)(WHERE\s*{)`)
	selectLineRe   = regexp.MustCompile(`(?is)(SELECT\s+(?:DISTINCT\s+)?)(.*?)(\s+WHERE)`)
)

// enforceOrderBy guarantees exactly one ORDER BY, replacing any existing
// block or inserting the clause before LIMIT.
func enforceOrderBy(s, orderClause string) string {
	if orderClause == "" || !strings.Contains(strings.ToUpper(orderClause), "ORDER BY") {
		return s
	}
	if loc := orderByBlockRe.FindStringSubmatchIndex(s); loc != nil {
		// Replace up to (not including) the trailing LIMIT or closing brace.
		end := loc[2] // start of the captured terminator
		return s[:loc[0]] + orderClause + "\n" + s[end:]
	}
	if m := limitRe.FindStringIndex(s); m != nil {
		return s[:m[0]] + orderClause + "\n" + s[m[0]:]
	}
	return strings.TrimRight(s, " \t\n") + "\n" + orderClause + "\n"
}

// rewriteCuisineEqualsToFilter replaces a hard equals on servesCuisine with
// an OPTIONAL bind plus a case-insensitive CONTAINS filter.
func rewriteCuisineEqualsToFilter(s, cuisine string) string {
	if cuisine == "" {
		return s
	}
	val := escapeSPARQLString(strings.ToLower(cuisine))
	replacement := "  OPTIONAL { ?place schema:servesCuisine ?cuisine }\n" +
		"  FILTER(CONTAINS(LCASE(STR(?cuisine)), '" + val + "'))\n"
	s2 := cuisineEqRe.ReplaceAllString(s, replacement)
	if s2 != s {
		s2 = ensureSelectVar(s2, "?cuisine")
	}
	return s2
}

// injectNeighborhood pins the query to a neighborhood IRI when slots carry
// one: replace the Athens-wide constraint if present, otherwise add a triple
// at the top of the WHERE block.
func injectNeighborhood(s, hood string) string {
	if hood == "" {
		return s
	}
	hoodIRI := "<http://example.org/hood/" + hood + ">"
	if strings.Contains(s, hoodIRI) {
		return s
	}
	s2 := strings.Replace(s, "ex:locatedIn ex:Athens", "ex:locatedIn "+hoodIRI, 1)
	if s2 != s {
		return s2
	}
	return whereOpenRe.ReplaceAllString(s, "${1}\n  ?place ex:locatedIn "+hoodIRI+" .\n")
}

// coerceLimit raises LIMIT to target unless the user explicitly set one.
func coerceLimit(s string, target int, userForced bool) string {
	m := limitRe.FindStringSubmatch(s)
	if m == nil || userForced {
		return s
	}
	if current, err := strconv.Atoi(m[1]); err == nil && current < target {
		return limitRe.ReplaceAllString(s, fmt.Sprintf("LIMIT %d", target))
	}
	return s
}

// ensureSelectVar appends a variable to the SELECT clause if absent.
func ensureSelectVar(s, v string) string {
	if m := selectLineRe.FindStringSubmatch(s); m != nil && !strings.Contains(m[2], v) {
		return selectLineRe.ReplaceAllString(s, "${1}${2} "+v+"${3}")
	}
	return s
}

// #endregion rewriters

// #region sanitize

var badVarRe = regexp.MustCompile(`\?[A-Za-z0-9_]+:([A-Za-z0-9_]+)`)

// sanitizeVarsAndLimit fixes malformed ?prefix:var tokens and guarantees a
// LIMIT clause.
func sanitizeVarsAndLimit(s string, defaultLimit int) string {
	s = badVarRe.ReplaceAllString(s, "?$1")
	if !limitRe.MatchString(s) {
		s = strings.TrimRight(s, " \t\n") + fmt.Sprintf("\nLIMIT %d\n", defaultLimit)
	}
	return s
}

var selectHeadRe = regexp.MustCompile(`(?im)^\s*SELECT\b`)
var selectVarsRe = regexp.MustCompile(`(?is)SELECT\s+(.*?)\s+WHERE`)
var varTokenRe = regexp.MustCompile(`\?[A-Za-z_]\w*`)
var commentLineRe = regexp.MustCompile(`(?m)^\s*#.*$`)

// validateSelect runs quick static checks: SELECT and WHERE present, sane
// variable and triple counts. Returns ok plus a reason for the log.
func validateSelect(s string) (bool, string) {
	if !selectHeadRe.MatchString(s) && !strings.Contains(s, "SELECT") {
		return false, "not a SELECT"
	}
	up := strings.ToUpper(s)
	if !strings.Contains(up, "SELECT") {
		return false, "not a SELECT"
	}
	if !strings.Contains(up, "WHERE") {
		return false, "missing WHERE"
	}
	selVars := 0
	if m := selectVarsRe.FindStringSubmatch(s); m != nil {
		selVars = len(varTokenRe.FindAllString(m[1], -1))
	}
	if selVars > 12 {
		return false, "too many select vars"
	}
	if i := strings.Index(up, "WHERE"); i >= 0 {
		body := commentLineRe.ReplaceAllString(s[i:], "")
		if strings.Count(body, ".") > 60 {
			return false, "too many triples"
		}
	}
	return true, "ok"
}

func escapeSPARQLString(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, "'", `\'`)
}

// #endregion sanitize
