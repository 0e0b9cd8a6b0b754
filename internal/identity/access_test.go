package identity

import "testing"

func TestCanonicalDepartment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"IT", "IT"},
		{"information technology", "IT"},
		{"it department", "IT"},
		{"human resources", "HR"},
		{"ops", "Operations"},
		{"research and development", "R&D"},
		{"design", "UX"},
		{"Finance dept", "Finance"},
		{"bizdev", "Sales"},
		{"warehouse", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CanonicalDepartment(tt.in); got != tt.want {
			t.Errorf("CanonicalDepartment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHasFullAccess(t *testing.T) {
	if !HasFullAccess("it") || !HasFullAccess("Human Resources") {
		t.Errorf("IT/HR should have full access")
	}
	if HasFullAccess("Finance") || HasFullAccess("") {
		t.Errorf("non-coordinator department granted full access")
	}
}

func TestNeedsDeptGuard(t *testing.T) {
	tests := []struct {
		level int
		want  bool
	}{
		{0, false}, {2, false}, {3, true}, {7, true}, {-1, true},
	}
	for _, tt := range tests {
		if got := NeedsDeptGuard(tt.level); got != tt.want {
			t.Errorf("NeedsDeptGuard(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
