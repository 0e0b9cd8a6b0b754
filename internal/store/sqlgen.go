package store

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"concierge/internal/identity"
	"concierge/internal/llm"
)

// #region schema-hint

// schemaHint is the system prompt for the text-to-SQL model: tight schema,
// read-only, canonical projections.
const schemaHint = `You are an expert PostgreSQL SQL generator.
RULES:
- Output ONE valid SQL statement ONLY. No explanations, no markdown, no backticks.
- MUST be READ-ONLY (SELECT / WITH). Never use INSERT/UPDATE/DELETE/DROP/CREATE.
- Use ONLY these tables/columns (public schema):
  staff(id,name,role,role_level,department,email,phone,manager_id)
  tasks(id,title,status,starts_at,assignee)
  appointments(id,subject,person,room,starts_at,ends_at)
Mappings:
- 'today' -> DATE(starts_at)=CURRENT_DATE
- 'tomorrow' -> DATE(starts_at)=CURRENT_DATE + INTERVAL '1 day'
- 'upcoming' -> starts_at >= NOW()
Filters & projections:
- Use ILIKE for ALL text filters (name, department, person, assignee) and include wildcards, e.g. '%IT%'.
- For STAFF-by-department requests, the canonical projection is:
  SELECT id, name, role FROM staff WHERE department ILIKE '%<DEPT>%' ORDER BY name ASC
- Never select a table name as a column. There is NO 'staff' column in the staff table.
- Prefer only the columns relevant to the request.
- Order upcoming by starts_at ASC. Use LIMIT when the user asks for top/next N.
- Never add columns/tables not listed. Never use double quotes for string literals.
IMPORTANT: Obey the LAST user message exactly.
`

// #endregion schema-hint

// #region fewshots

type fewshot struct {
	question string
	sql      string
}

var fewshotPool = map[string]fewshot{
	"appt:list_upcoming_by_person": {
		"upcoming appointments for Alice Mark",
		"SELECT id, subject, person, room, starts_at " +
			"FROM appointments " +
			"WHERE person ILIKE '%Alice Mark%' AND starts_at >= NOW() " +
			"ORDER BY starts_at ASC",
	},
	"appt:next_n": {
		"next 5 appointments",
		"SELECT id, subject, person, room, starts_at " +
			"FROM appointments " +
			"WHERE starts_at >= NOW() " +
			"ORDER BY starts_at ASC LIMIT 5",
	},
	"appt:count_tomorrow": {
		"how many appointments do I have tomorrow",
		"SELECT COUNT(*) AS cnt " +
			"FROM appointments " +
			"WHERE DATE(starts_at) = CURRENT_DATE + INTERVAL '1 day'",
	},
	"task:list_upcoming_by_assignee": {
		"upcoming tasks for Alex Trust",
		"SELECT id, title, status, starts_at, assignee " +
			"FROM tasks " +
			"WHERE assignee ILIKE '%Alex Trust%' AND starts_at >= NOW() " +
			"ORDER BY starts_at ASC",
	},
	"staff:list_by_dept_canonical": {
		"list IT staff and their roles",
		"SELECT id, name, role FROM staff " +
			"WHERE department ILIKE '%IT%' " +
			"ORDER BY name ASC",
	},
	"staff:nl_variant_in_dept": {
		"staff in HR department",
		"SELECT id, name, role FROM staff " +
			"WHERE department ILIKE '%HR%' " +
			"ORDER BY name ASC",
	},
}

// selectFewshots picks up to 3 examples aligned with the inferred request.
func selectFewshots(req request) []fewshot {
	var shots []fewshot
	switch req.Kind {
	case "appointments":
		if req.Count && req.Date == "tomorrow" {
			shots = append(shots, fewshotPool["appt:count_tomorrow"])
		}
		if req.Name != "" || req.Date == "upcoming" {
			shots = append(shots, fewshotPool["appt:list_upcoming_by_person"])
		}
		if req.Limit > 0 {
			shots = append(shots, fewshotPool["appt:next_n"])
		}
	case "tasks":
		shots = append(shots, fewshotPool["task:list_upcoming_by_assignee"])
	case "staff":
		shots = append(shots, fewshotPool["staff:list_by_dept_canonical"])
		shots = append(shots, fewshotPool["staff:nl_variant_in_dept"])
		if req.Department != "" {
			shots = append(shots, fewshot{
				fmt.Sprintf("can you give me the staff of %s department?", req.Department),
				"SELECT id, name, role FROM staff " +
					fmt.Sprintf("WHERE department ILIKE '%%%s%%' ", req.Department) +
					"ORDER BY name ASC",
			})
		}
	}
	if len(shots) > 3 {
		shots = shots[:3]
	}
	return shots
}

// #endregion fewshots

// #region request-inference

// request is the lightweight parse of a workplace question used to steer
// few-shot selection and guards.
type request struct {
	Kind       string // "appointments" | "tasks" | "staff" | ""
	Name       string
	Date       string // "today" | "tomorrow" | "upcoming" | ""
	Limit      int
	Count      bool
	Department string
}

var (
	nextNRe   = regexp.MustCompile(`\bnext\s+(\d+)\b`)
	forNameRe = regexp.MustCompile(`\bfor\s+([a-z]+(?:\s+[a-z]+)*)`)

	deptOfRe      = regexp.MustCompile(`\b(?:staff|employees?)\s+(?:of|from|in)\s+([a-z0-9 &/\-]+?)\s+department\b`)
	deptPrefixRe  = regexp.MustCompile(`\b([a-z0-9 &/\-]+?)\s+department\s+(?:staff|employees?)\b`)
	deptNamedRe   = regexp.MustCompile(`\bdepartment\s+of\s+([a-z0-9 &/\-]+?)\b`)
	deptGenericRe = regexp.MustCompile(`\b([a-z0-9 &/\-]+?)\s+department\b`)
	myDeptRe      = regexp.MustCompile(`\bmy\s+department\b`)

	firstPersonRe = regexp.MustCompile(`(?i)\b(my|me|i)\b`)
)

// inferRequest extracts kind, date window, limit, count, name, and department
// from the question text. "my department" resolves to the user's own.
func inferRequest(userText, userDept string) request {
	text := strings.ToLower(strings.TrimSpace(userText))
	var req request

	switch {
	case strings.Contains(text, "appointment"):
		req.Kind = "appointments"
	case strings.Contains(text, "task"):
		req.Kind = "tasks"
	case strings.Contains(text, "staff") || strings.Contains(text, "employee"):
		req.Kind = "staff"
	}

	switch {
	case strings.Contains(text, "today"):
		req.Date = "today"
	case strings.Contains(text, "tomorrow"):
		req.Date = "tomorrow"
	case strings.Contains(text, "upcoming") || strings.Contains(text, "next"):
		req.Date = "upcoming"
	}

	if strings.Contains(text, "how many") || strings.Contains(text, "count") {
		req.Count = true
	}
	if m := nextNRe.FindStringSubmatch(text); m != nil {
		req.Limit, _ = strconv.Atoi(m[1])
	}
	if m := forNameRe.FindStringSubmatch(text); m != nil {
		req.Name = m[1]
	}

	for _, re := range []*regexp.Regexp{deptOfRe, deptPrefixRe, deptNamedRe} {
		if m := re.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "my" {
			req.Department = titleWords(strings.TrimSpace(m[1]))
			break
		}
	}
	if req.Department == "" && userDept != "" && myDeptRe.MatchString(text) {
		req.Department = userDept
	}
	if req.Department == "" {
		if m := deptGenericRe.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "my" {
			req.Department = titleWords(strings.TrimSpace(m[1]))
		}
	}
	return req
}

func titleWords(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = strings.ToUpper(f[:1]) + f[1:]
	}
	return strings.Join(fields, " ")
}

var (
	myDeptPrepRe = regexp.MustCompile(`(?i)\b(of|from|in)\s+my\s+department\b`)
	myDeptBareRe = regexp.MustCompile(`(?i)\bmy\s+department\b`)
)

// expandMyDepartment inlines "my department" with the concrete department.
func expandMyDepartment(userText, userDept string) string {
	if userText == "" || userDept == "" {
		return userText
	}
	s := myDeptPrepRe.ReplaceAllString(userText, "${1} "+userDept+" department")
	return myDeptBareRe.ReplaceAllString(s, userDept+" department")
}

// PersonalizeQuestion appends "for <Name>" to first-person appointment/task
// asks when the user's name is known, so the generated SQL filters on it.
func PersonalizeQuestion(userText, userName string) string {
	if userName == "" || !firstPersonRe.MatchString(userText) {
		return userText
	}
	req := inferRequest(userText, "")
	if (req.Kind == "appointments" || req.Kind == "tasks") && req.Name == "" {
		return userText + " for " + userName
	}
	return userText
}

// #endregion request-inference

// #region message-building

func buildMessages(userText, userName string, req request, extraHint string) []llm.Message {
	msgs := []llm.Message{{Role: "system", Content: schemaHint}}
	for _, shot := range selectFewshots(req) {
		msgs = append(msgs,
			llm.Message{Role: "user", Content: shot.question},
			llm.Message{Role: "assistant", Content: shot.sql})
	}

	if userName != "" && firstPersonRe.MatchString(userText) {
		switch req.Kind {
		case "appointments":
			msgs = append(msgs,
				llm.Message{Role: "user", Content: "my upcoming appointments"},
				llm.Message{Role: "assistant", Content: "SELECT id, subject, person, room, starts_at " +
					"FROM appointments " +
					fmt.Sprintf("WHERE person ILIKE '%%%s%%' AND starts_at >= NOW() ", userName) +
					"ORDER BY starts_at ASC"})
		case "tasks":
			msgs = append(msgs,
				llm.Message{Role: "user", Content: "my upcoming tasks"},
				llm.Message{Role: "assistant", Content: "SELECT id, title, status, starts_at, assignee " +
					"FROM tasks " +
					fmt.Sprintf("WHERE assignee ILIKE '%%%s%%' AND starts_at >= NOW() ", userName) +
					"ORDER BY starts_at ASC"})
		}
	}

	if extraHint != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: extraHint})
	}
	return append(msgs, llm.Message{Role: "user", Content: userText})
}

// #endregion message-building

// #region output-normalization

var sqlFenceRe = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*|\\s*```$")
var spaceRunRe = regexp.MustCompile(`\s+`)

var smartQuotes = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`)

func stripSQLFences(s string) string {
	return strings.TrimSpace(sqlFenceRe.ReplaceAllString(s, ""))
}

// normalizeSQLSpacing fixes quotes and whitespace only; no semantic rewrites.
func normalizeSQLSpacing(raw string) string {
	s := stripSQLFences(raw)
	s = smartQuotes.Replace(s)
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(s, " "))
}

// #endregion output-normalization

// #region validation

var allowedCols = map[string]map[string]bool{
	"staff": {"id": true, "name": true, "role": true, "role_level": true,
		"department": true, "email": true, "phone": true, "manager_id": true},
	"tasks": {"id": true, "title": true, "status": true, "starts_at": true, "assignee": true},
	"appointments": {"id": true, "subject": true, "person": true, "room": true,
		"starts_at": true, "ends_at": true},
}

var projectionRe = regexp.MustCompile(`(?is)\bSELECT\s+(.*?)\s+FROM\s+([a-z_][a-z0-9_]*)`)
var funcCallRe = regexp.MustCompile(`\w+\s*\(`)

func parseProjection(sql string) ([]string, string) {
	m := projectionRe.FindStringSubmatch(sql)
	if m == nil {
		return nil, ""
	}
	cols := strings.Split(strings.TrimSpace(m[1]), ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	return cols, strings.ToLower(m[2])
}

// hasInvalidProjection reports whether the statement selects unknown columns
// or the table name itself.
func hasInvalidProjection(sql string) bool {
	cols, table := parseProjection(sql)
	if table == "" {
		return true
	}
	allowed, ok := allowedCols[table]
	if !ok {
		return true
	}
	for _, c := range cols {
		lower := strings.ToLower(c)
		if c == "*" || funcCallRe.MatchString(lower) {
			continue
		}
		base := strings.TrimSpace(strings.SplitN(lower, " as ", 2)[0])
		if base == table || !allowed[base] {
			return true
		}
	}
	return false
}

var deptFilterRe = regexp.MustCompile(`(?i)\bdepartment\s+ilike\b`)
var myLiteralRe = regexp.MustCompile(`(?i)department\s+ilike\s*'%\s*my\s*%'`)

func sqlHasDeptFilter(sql string) bool { return deptFilterRe.MatchString(sql) }
func sqlUsesMyLiteral(sql string) bool { return myLiteralRe.MatchString(sql) }

func sqlHasSpecificDept(sql, dept string) bool {
	re := regexp.MustCompile(`(?i)department\s+ilike\s*'%\s*` + regexp.QuoteMeta(dept) + `\s*%'`)
	return re.MatchString(sql)
}

// #endregion validation

// #region generation

func (s *Store) generateSQLOnce(ctx context.Context, question, userName string, req request, extraHint string) (string, string, error) {
	content, err := s.Gen.CompleteSQL(ctx, buildMessages(question, userName, req, extraHint))
	if err != nil {
		return "", "", fmt.Errorf("sql generation: %w", err)
	}
	raw := stripSQLFences(content)
	return normalizeSQLSpacing(raw), raw, nil
}

// generateSQL produces a department-aware, read-only statement, retrying once
// when the projection or the department guard comes back wrong. Returns the
// final and the raw statement.
func (s *Store) generateSQL(ctx context.Context, question, userName, userDept string, roleLevel int) (string, string, error) {
	req := inferRequest(question, userDept)
	expandedQ := expandMyDepartment(question, userDept)

	guarded := req.Kind == "staff" && identity.NeedsDeptGuard(roleLevel) && !identity.HasFullAccess(userDept)

	extraHint := ""
	if guarded {
		if userDept != "" {
			extraHint = fmt.Sprintf("For staff listings, restrict results to department '%s'. "+
				"Use the canonical projection: SELECT id, name, role FROM staff "+
				"WHERE department ILIKE '%%%s%%' ORDER BY name ASC", userDept, userDept)
		} else {
			extraHint = "For staff listings, do not reveal cross-department information when the user's department " +
				"is unknown; ask them to confirm their department in the SQL-friendly filter wording."
		}
	}

	sql, raw, err := s.generateSQLOnce(ctx, expandedQ, userName, req, extraHint)
	if err != nil {
		return "", "", err
	}

	needsRetry := false
	retryHint := ""

	if hasInvalidProjection(sql) {
		needsRetry = true
		if req.Kind == "staff" {
			tgt := userDept
			if tgt == "" {
				tgt = "<DEPT>"
			}
			retryHint = fmt.Sprintf("Your previous SQL selected invalid columns or wrong projection. "+
				"Use exactly: SELECT id, name, role FROM staff "+
				"WHERE department ILIKE '%%%s%%' ORDER BY name ASC", tgt)
		} else {
			retryHint = "Your previous SQL selected invalid columns. Use only actual columns from the schema."
		}
	}

	if guarded {
		if userDept != "" {
			if !sqlHasDeptFilter(sql) || sqlUsesMyLiteral(sql) || !sqlHasSpecificDept(sql, userDept) {
				needsRetry = true
				retryHint = fmt.Sprintf("Ensure the WHERE clause restricts results to department ILIKE '%%%s%%'. "+
					"Projection should be: id, name, role. ORDER BY name ASC.", userDept)
			}
		} else {
			needsRetry = true
			retryHint = "The user's department is unknown. Produce a SQL statement that filters by department, " +
				"but first require the concrete department (e.g., '%Finance%')."
		}
	}

	if needsRetry {
		sql, raw, err = s.generateSQLOnce(ctx, expandedQ, userName, req, retryHint)
		if err != nil {
			return "", "", err
		}
	}

	log.Printf("[DB] final sql: %s", sql)

	verb := strings.ToUpper(strings.SplitN(strings.TrimSpace(sql), " ", 2)[0])
	if verb != "SELECT" && verb != "WITH" {
		return "", raw, fmt.Errorf("blocked non-read sql verb in: %.80s", sql)
	}
	return sql, raw, nil
}

// #endregion generation
