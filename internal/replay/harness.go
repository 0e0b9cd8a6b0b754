package replay

import (
	"fmt"

	"concierge/internal/dialogue"
	"concierge/internal/speech"
)

// #region results

// TurnResult is the outcome of replaying one fixture turn.
type TurnResult struct {
	Index      int
	Text       string
	Intent     speech.Intent
	ActMajor   speech.ActMajor
	ActSubtype speech.ActSubtype
	Slots      speech.Slots
	TopicShift bool
	Mismatches []string
}

// Passed reports whether every pinned expectation held.
func (r TurnResult) Passed() bool { return len(r.Mismatches) == 0 }

// Summary aggregates a replay run.
type Summary struct {
	Description string
	TotalTurns  int
	Passed      int
	Failed      int
}

// #endregion results

// #region harness

// Replay drives the fixture's turns through the extractor and dialogue state
// exactly the way the router does per turn: self-repair, classification with
// the remembered venue context, reference resolution, durable merge, topic
// tracking. It is fully deterministic and touches no collaborator.
func Replay(f *Fixture) ([]TurnResult, Summary) {
	st := dialogue.NewState()
	if p := f.Profile; p != nil {
		st.UpdateUserIdentity(p.Name, p.StaffID, p.Role, p.RoleLevel, p.Department, p.PrivacyMode)
	}

	results := make([]TurnResult, 0, len(f.Turns))
	for i, turn := range f.Turns {
		textForCls := turn.Text
		if clean, changed := speech.ApplySelfRepair(turn.Text); changed && clean != "" {
			textForCls = clean
		}

		actMajor, intent, slots := speech.Analyze(textForCls, st.VenueContext())
		slots = st.ResolveReferences(turn.Text, slots)
		mood := speech.GetMood(textForCls)

		merged := speech.MergeDurable(st.Slots, slots)
		topicBefore := st.TopicID
		st.UpdateTopicsAndEntities(intent, merged)
		shifted := topicBefore != "" && st.TopicID != topicBefore
		st.AddUserTurn(turn.Text, actMajor, slots.ActSubtype, intent, slots, mood)

		r := TurnResult{
			Index:      i,
			Text:       turn.Text,
			Intent:     intent,
			ActMajor:   actMajor,
			ActSubtype: slots.ActSubtype,
			Slots:      slots,
			TopicShift: shifted,
		}
		r.Mismatches = check(turn.Expect, r)
		results = append(results, r)
	}

	sum := Summary{Description: f.Description, TotalTurns: len(results)}
	for _, r := range results {
		if r.Passed() {
			sum.Passed++
		} else {
			sum.Failed++
		}
	}
	return results, sum
}

func check(want Expect, got TurnResult) []string {
	var bad []string
	expectStr := func(field, w, g string) {
		if w != "" && w != g {
			bad = append(bad, fmt.Sprintf("%s: want %q, got %q", field, w, g))
		}
	}
	expectStr("intent", want.Intent, string(got.Intent))
	expectStr("act_major", want.ActMajor, string(got.ActMajor))
	expectStr("act_subtype", want.ActSubtype, string(got.ActSubtype))
	expectStr("type", want.Type, got.Slots.Type)
	expectStr("neighborhood", want.Neighborhood, got.Slots.Neighborhood)
	expectStr("cuisine", want.Cuisine, got.Slots.Cuisine)
	expectStr("person", want.Person, got.Slots.Person)
	expectStr("sort", want.Sort, got.Slots.Sort)

	expectBool := func(field string, w *bool, g bool) {
		if w != nil && *w != g {
			bad = append(bad, fmt.Sprintf("%s: want %v, got %v", field, *w, g))
		}
	}
	expectBool("open_now", want.OpenNow, got.Slots.OpenNow)
	expectBool("cancel", want.Cancel, got.Slots.Cancel)
	expectBool("topic_shift", want.TopicShift, got.TopicShift)

	return bad
}

// #endregion harness
