package identity

import (
	"regexp"
	"strings"
)

// #region name-patterns

// Name token shapes: title-case words with optional hyphen/apostrophe joins,
// or initials like "J.".
const (
	capNameWord  = `(?:[A-Z]\.|[A-Z][a-z]+(?:[-'][A-Z][a-z]+)*)`
	flexNameWord = `(?:[A-Za-z]\.|[A-Za-z][a-z]+(?:[-'][A-Za-z][a-z]+)*)`
)

var capNameGroup = capNameWord + `(?:\s+` + capNameWord + `){1,3}`
var flexNameGroup = `(` + flexNameWord + `(?:\s+` + flexNameWord + `){1,3})`

// namePatterns are the case-insensitive lead-ins; the captured candidate is
// validated afterwards.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bmy name is\s+` + flexNameGroup + `\b`),
	regexp.MustCompile(`(?i)\bi am\s+` + flexNameGroup + `\b`),
	regexp.MustCompile(`(?i)\bi['\x{2019}]m\s+` + flexNameGroup + `\b`),
	regexp.MustCompile(`(?i)\bthis is\s+` + flexNameGroup + `\b`),
	regexp.MustCompile(`(?i)\bcall me\s+` + flexNameGroup + `\b`),
	regexp.MustCompile(`(?i)\bfull name\s*(?:is|:)\s*` + flexNameGroup + `\b`),
	regexp.MustCompile(`(?i)\bname\s*[:\-]\s*` + flexNameGroup + `\b`),
}

// Fallbacks only match clearly name-like tokens (case-sensitive).
var (
	fallbackBareName    = regexp.MustCompile(`^(` + capNameGroup + `)$`)
	fallbackLeadingName = regexp.MustCompile(`^(` + capNameGroup + `)\s+(?:speaking|here)\b`)
)

var (
	initialTok = regexp.MustCompile(`^[A-Z]\.$`)
	titleTok   = regexp.MustCompile(`^[A-Z][a-z]+(?:[-'][A-Z][a-z]+)*$`)
)

var anonymousCues = []string{
	"stay anonymous", "skip name", "don't save my name", "be anonymous", "anonymous",
}

// #endregion name-patterns

// #region name-validation

func looksLikeName(name string) bool {
	for _, tok := range strings.Fields(name) {
		if initialTok.MatchString(tok) || titleTok.MatchString(tok) {
			return true
		}
	}
	return false
}

func capToken(tok string) string {
	if tok == "" {
		return tok
	}
	if len(tok) == 2 && tok[1] == '.' {
		return strings.ToUpper(tok[:1]) + "."
	}
	if strings.Contains(tok, "-") {
		parts := strings.Split(tok, "-")
		for i, p := range parts {
			parts[i] = capToken(p)
		}
		return strings.Join(parts, "-")
	}
	if strings.Contains(tok, "'") {
		parts := strings.Split(tok, "'")
		for i, p := range parts {
			parts[i] = capToken(p)
		}
		return strings.Join(parts, "'")
	}
	return strings.ToUpper(tok[:1]) + strings.ToLower(tok[1:])
}

// NormalizeName title-cases each token, preserving hyphens, apostrophes, and
// initials, and strips trailing punctuation.
func NormalizeName(s string) string {
	var out []string
	for _, w := range strings.Fields(strings.TrimSpace(s)) {
		w = strings.Trim(w, ",.;:!?")
		if w != "" {
			out = append(out, capToken(w))
		}
	}
	return strings.Join(out, " ")
}

// #endregion name-validation

// #region extraction

// ExtractFullName pulls a 2-4 token full name out of an utterance. Lead-in
// phrases ("my name is ...") are tried first; a bare title-case line or a
// "<Name> speaking" opener works as fallback. Empty string means no name.
func ExtractFullName(text string) string {
	if text == "" {
		return ""
	}
	for _, pat := range namePatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			candidate := strings.TrimSpace(m[1])
			if looksLikeName(candidate) {
				return NormalizeName(candidate)
			}
		}
	}
	trimmed := strings.TrimSpace(text)
	if m := fallbackBareName.FindStringSubmatch(trimmed); m != nil {
		return NormalizeName(m[1])
	}
	if m := fallbackLeadingName.FindStringSubmatch(trimmed); m != nil {
		return NormalizeName(m[1])
	}
	return ""
}

// MentionsAnonymous reports whether the user is opting out of identification.
func MentionsAnonymous(text string) bool {
	t := strings.ToLower(text)
	for _, cue := range anonymousCues {
		if strings.Contains(t, cue) {
			return true
		}
	}
	return false
}

// LastName returns the final token of a full name.
func LastName(full string) string {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// FirstName returns the first token of a full name.
func FirstName(full string) string {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// #endregion extraction
