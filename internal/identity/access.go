package identity

import "strings"

// #region departments

// Departments is the closed set of canonical department labels.
var Departments = []string{"R&D", "Operations", "UX", "Finance", "IT", "Sales", "HR"}

var deptSynonyms = map[string][]string{
	"R&D":        {"r&d", "rnd", "research & development", "research and development"},
	"Operations": {"operations", "ops"},
	"UX":         {"ux", "user experience", "design"},
	"Finance":    {"finance", "fin"},
	"IT":         {"it", "information technology", "it dept", "it department"},
	"Sales":      {"sales", "bizdev", "business development"},
	"HR":         {"hr", "human resources"},
}

// CanonicalDepartment maps free text to a canonical department label.
// Empty string means no match.
func CanonicalDepartment(s string) string {
	txt := strings.ToLower(strings.TrimSpace(s))
	if txt == "" {
		return ""
	}
	if c := matchDept(txt); c != "" {
		return c
	}
	txt = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(txt, " department", ""), " dept", ""))
	return matchDept(txt)
}

func matchDept(txt string) string {
	for _, canon := range Departments {
		if txt == strings.ToLower(canon) {
			return canon
		}
	}
	for canon, toks := range deptSynonyms {
		for _, t := range toks {
			if txt == t {
				return canon
			}
		}
	}
	return ""
}

// #endregion departments

// #region access-policy

// HasFullAccess reports whether the department grants cross-department staff
// visibility. IT and HR coordinate for the whole company.
func HasFullAccess(dept string) bool {
	c := CanonicalDepartment(dept)
	return c == "IT" || c == "HR"
}

// NeedsDeptGuard reports whether staff listings must be restricted to the
// user's own department. Level 0-2 is senior leadership with cross-department
// access; level 3 and up, or an unknown level (< 0), is restricted.
func NeedsDeptGuard(roleLevel int) bool {
	return roleLevel < 0 || roleLevel >= 3
}

// #endregion access-policy

// #region staff-record

// StaffRecord is one row from the staff directory.
type StaffRecord struct {
	ID         int    `db:"id"`
	Name       string `db:"name"`
	Role       string `db:"role"`
	RoleLevel  int    `db:"role_level"`
	Department string `db:"department"`
}

// #endregion staff-record
