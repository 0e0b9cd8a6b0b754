package identity

import "testing"

func TestExtractFullName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"my-name-is", "my name is Danielle Smith", "Danielle Smith"},
		{"i-am", "Hi, I am Danielle Smith.", "Danielle Smith"},
		{"im-apostrophe", "I'm Maria Papadopoulou", "Maria Papadopoulou"},
		{"this-is", "this is John Doe", "John Doe"},
		{"call-me", "call me Anna Maria Rossi", "Anna Maria Rossi"},
		{"name-colon", "name: Kostas Alexiou", "Kostas Alexiou"},
		{"bare-two-tokens", "Danielle Smith", "Danielle Smith"},
		{"speaking", "Danielle Smith speaking", "Danielle Smith"},
		{"hyphenated", "my name is Anne-Marie Laurent", "Anne-Marie Laurent"},
		{"initial", "I am J. Smith", "J Smith"},

		// Candidates with no title-case token are rejected.
		{"lowercase-after-leadin", "my name is danielle smith", ""},
		{"lowercase-bare", "danielle smith", ""},
		{"no-name", "find a cafe near Plaka please", ""},
		{"single-word", "Danielle", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractFullName(tt.text); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMentionsAnonymous(t *testing.T) {
	if !MentionsAnonymous("I'd rather stay anonymous") {
		t.Errorf("missed anonymity opt-out")
	}
	if MentionsAnonymous("find a cafe") {
		t.Errorf("false anonymity detection")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"danielle smith", "Danielle Smith"},
		{"ANNA ROSSI", "Anna Rossi"},
		{"anne-marie o'brien", "Anne-Marie O'Brien"},
		{"kostas alexiou,", "Kostas Alexiou"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNameParts(t *testing.T) {
	if got := LastName("Danielle Smith"); got != "Smith" {
		t.Errorf("LastName: got %q", got)
	}
	if got := FirstName("Danielle Smith"); got != "Danielle" {
		t.Errorf("FirstName: got %q", got)
	}
	if LastName("") != "" || FirstName("") != "" {
		t.Errorf("empty name parts not empty")
	}
}
