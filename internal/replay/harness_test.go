package replay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func boolp(b bool) *bool { return &b }

func TestReplayPassesMatchingFixture(t *testing.T) {
	f := &Fixture{
		Description: "venue search with anaphora",
		Turns: []FixtureTurn{
			{
				Text: "find a greek restaurant in kolonaki",
				Expect: Expect{
					Intent:       "food_search",
					ActMajor:     "DIRECTIVE",
					ActSubtype:   "REQUEST",
					Type:         "restaurant",
					Neighborhood: "Kolonaki",
					Cuisine:      "greek",
				},
			},
			{
				Text: "what about a cafe there",
				Expect: Expect{
					Intent:       "food_search",
					Type:         "cafe",
					Neighborhood: "Kolonaki",
				},
			},
		},
	}

	results, sum := Replay(f)
	for _, r := range results {
		if !r.Passed() {
			t.Errorf("turn %d %q: %v", r.Index, r.Text, r.Mismatches)
		}
	}
	if sum.Passed != 2 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestReplayReportsMismatches(t *testing.T) {
	f := &Fixture{
		Turns: []FixtureTurn{
			{
				Text:   "find a cafe in plaka",
				Expect: Expect{Intent: "db_query", Neighborhood: "Plaka"},
			},
		},
	}

	results, sum := Replay(f)
	if sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(results[0].Mismatches) != 1 {
		t.Fatalf("mismatches = %v", results[0].Mismatches)
	}
}

func TestReplayTracksTopicShift(t *testing.T) {
	f := &Fixture{
		Turns: []FixtureTurn{
			{Text: "find a cafe in plaka", Expect: Expect{TopicShift: boolp(false)}},
			{Text: "find a bar in koukaki", Expect: Expect{TopicShift: boolp(true)}},
		},
	}

	_, sum := Replay(f)
	if sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestReplayControlSlots(t *testing.T) {
	f := &Fixture{
		Turns: []FixtureTurn{
			{Text: "never mind, cancel that", Expect: Expect{Cancel: boolp(true)}},
		},
	}
	_, sum := Replay(f)
	if sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestLoadFixture(t *testing.T) {
	f := Fixture{
		Description: "roundtrip",
		Turns: []FixtureTurn{
			{Text: "hello", Expect: Expect{Intent: "greet"}},
		},
	}
	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Description != "roundtrip" || len(got.Turns) != 1 {
		t.Fatalf("unexpected fixture: %+v", got)
	}

	if _, err := LoadFixture(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("want error for missing file")
	}
}
