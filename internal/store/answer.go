package store

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"concierge/internal/dialogue"
	"concierge/internal/identity"
)

// #region answer

var sqlEchoRe = regexp.MustCompile(`(?i)\b(show|print)\b.*\b(sql|query)\b`)

// AnswerWithDB generates SQL for a workplace question, runs it, logs the
// result on the session, and returns a short summary. ACCESS_LIMIT-prefixed
// returns are policy refusals for the router to relay; empty string means the
// store could not answer and the reply falls back to plain generation.
func (s *Store) AnswerWithDB(ctx context.Context, userText string, st *dialogue.State, intentOverride string) string {
	if !st.DBEnabled {
		return ""
	}

	profile := st.Profile
	userDept := identity.CanonicalDepartment(profile.Department)
	userName := profile.Name

	effectiveQ := PersonalizeQuestion(userText, userName)
	probe := inferRequest(effectiveQ, userDept)

	// Staff listings require identification.
	if probe.Kind == "staff" {
		if profile.PrivacyMode == "anonymous" || userName == "" {
			return "ACCESS_LIMIT: Identification required to view staff by department. Please share your full name."
		}
		if identity.NeedsDeptGuard(profile.RoleLevel) && !identity.HasFullAccess(userDept) && userDept == "" {
			return "ACCESS_LIMIT: Department is unknown. To list staff, please confirm your department."
		}
	}

	finalQ := effectiveQ
	if intentOverride != "" {
		finalQ = fmt.Sprintf("%s\n(intent: %s)", effectiveQ, intentOverride)
	}

	t0 := time.Now()
	sql, raw, err := s.generateSQL(ctx, finalQ, userName, userDept, profile.RoleLevel)
	if err != nil {
		log.Printf("[DB] generation failed: %v", err)
		st.LogDBResult(raw, nil, time.Since(t0).Milliseconds(), err)
		return ""
	}

	rows, cols, err := s.runSQL(ctx, sql)
	st.LogDBResult(sql, rows, time.Since(t0).Milliseconds(), err)
	if err != nil {
		log.Printf("[DB] execution failed: %v", err)
		return ""
	}

	body := verbalizeRows(rows, cols)
	if sqlEchoRe.MatchString(userText) {
		body = fmt.Sprintf("Final SQL:\n%s\n\n%s", sql, body)
	}
	return body
}

// verbalizeRows renders up to 10 rows as bullet lines, keys in column order.
func verbalizeRows(rows []map[string]string, cols []string) string {
	if len(rows) == 0 {
		return "No results found."
	}
	n := len(rows)
	if n > 10 {
		n = 10
	}
	var lines []string
	for _, row := range rows[:n] {
		pairs := make([]string, 0, len(cols))
		for _, c := range cols {
			pairs = append(pairs, fmt.Sprintf("%s: %s", c, row[c]))
		}
		lines = append(lines, "• "+strings.Join(pairs, "; "))
	}
	return strings.Join(lines, "\n")
}

// #endregion answer
