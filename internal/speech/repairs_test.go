package speech

import "testing"

func TestApplySelfRepair(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		want        string
		wantChanged bool
	}{
		{"repair-lead", "um, actually find a cafe", "find a cafe", true},
		{"hedge-only", "maybe a bar in Plaka", "a bar in Plaka", true},
		{"never-mind-kept", "never mind, forget it", "never mind, forget it", false},
		{"clean", "find a cafe", "find a cafe", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := ApplySelfRepair(tt.text)
			if got != tt.want {
				t.Errorf("text: got %q, want %q", got, tt.want)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed: got %v, want %v", changed, tt.wantChanged)
			}
		})
	}
}

func TestMaybeClarify(t *testing.T) {
	tests := []struct {
		name     string
		major    ActMajor
		intent   Intent
		slots    Slots
		durable  StateView
		wantsAsk bool
	}{
		{"food-no-hood", ActDirective, IntentFoodSearch, Slots{Type: "cafe"}, StateView{}, true},
		{"food-hood-remembered", ActDirective, IntentFoodSearch, Slots{Type: "cafe"}, StateView{Neighborhood: "Plaka"}, false},
		{"food-no-type", ActDirective, IntentFoodSearch, Slots{Neighborhood: "Plaka"}, StateView{}, true},
		{"food-complete", ActDirective, IntentFoodSearch, Slots{Type: "bar", Neighborhood: "Psyrri"}, StateView{}, false},
		{"db-person-no-date", ActDirective, IntentDBQuery, Slots{Person: "Alex"}, StateView{}, true},
		{"db-date-no-person", ActDirective, IntentCheckTasks, Slots{Date: "2026-09-01"}, StateView{}, true},
		{"cancel-suppresses", ActDirective, IntentFoodSearch, Slots{Cancel: true}, StateView{}, false},
		{"bare-directive", ActDirective, IntentGeneric, Slots{}, StateView{}, true},
		{"statement", ActConstative, IntentGeneric, Slots{}, StateView{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := MaybeClarify(tt.major, tt.intent, tt.slots, tt.durable)
			if (q != "") != tt.wantsAsk {
				t.Errorf("clarify: got %q, wantsAsk=%v", q, tt.wantsAsk)
			}
		})
	}
}
