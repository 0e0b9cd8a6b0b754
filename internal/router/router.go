package router

import (
	"context"
	"fmt"
	"log"
	"strings"

	"concierge/internal/dialogue"
	"concierge/internal/identity"
	"concierge/internal/kg"
	"concierge/internal/llm"
	"concierge/internal/speech"
)

const unavailableReply = "The assistant is temporarily unavailable. Please try again in a moment."

const staffGateReply = "For staff directory access, please share your full name so I can " +
	"verify your identity."

// #region helpers

func latestUser(msgs []llm.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return msgs[i].Content
		}
	}
	return ""
}

// stripSystem drops caller-supplied system messages; the router owns the
// system prompt for the enriched request.
func stripSystem(msgs []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == "system" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// lastDomainIntent scans the rolling intent window newest-first for a domain
// intent to carry a generic follow-up turn forward.
func lastDomainIntent(window []speech.Intent) speech.Intent {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].IsDomain() {
			return window[i]
		}
	}
	return ""
}

// #endregion helpers

// #region route

// Route runs one conversational turn. It classifies the latest user message,
// updates the session state, short-circuits acks and gates, gathers tool
// context, and streams the enriched request through the generator. Route
// never returns a hard failure for tool problems; only a nil generator is an
// error.
func (r *Router) Route(ctx context.Context, p llm.Payload, st *dialogue.State) (llm.Stream, error) {
	if r.Gen == nil {
		return nil, fmt.Errorf("router: no generator configured")
	}

	userText := latestUser(p.Messages)

	// Classification runs on the repaired text, reference resolution and
	// identity capture on the raw text.
	textForCls := userText
	if clean, changed := speech.ApplySelfRepair(userText); changed && clean != "" {
		textForCls = clean
	}

	actMajor, intent, slots := speech.Analyze(textForCls, st.VenueContext())
	slots = st.ResolveReferences(userText, slots)
	actSub := slots.ActSubtype
	mood := speech.GetMood(textForCls)
	moodScore := speech.GetScore(textForCls)

	// Identity capture. A recognized name flips the profile to verified; an
	// unknown name is kept for addressing without any access grant.
	name := ""
	if st.DBEnabled {
		name = identity.ExtractFullName(userText)
	}
	justVerified := false
	if name != "" && r.Dir != nil {
		rec, err := r.Dir.LookupStaffExact(ctx, name)
		if err != nil {
			log.Printf("[ROUTE] staff lookup failed: %v", err)
		}
		if rec != nil {
			st.UpdateUserIdentity(rec.Name, rec.ID, rec.Role, rec.RoleLevel, rec.Department, "identified")
			justVerified = true
			log.Printf("[ROUTE] verified %q as staff #%d (level %d)", rec.Name, rec.ID, rec.RoleLevel)
		} else {
			st.UpdateUserIdentity(name, 0, "", -1, "", st.Profile.PrivacyMode)
		}
	}
	wantsAnonymous := identity.MentionsAnonymous(userText)
	if wantsAnonymous && name == "" && !st.Profile.Verified {
		st.UpdateUserIdentity("", 0, "", st.Profile.RoleLevel, st.Profile.Department, "anonymous")
	}
	identityOnly := name != "" || wantsAnonymous

	// An identity-only turn inherits the previous domain intent so "I'm
	// Danielle Smith" right after a staff question re-runs that question.
	effectiveIntent := intent
	if intent == speech.IntentGeneric && identityOnly {
		if prev := lastDomainIntent(st.HistoryIntents); prev != "" {
			effectiveIntent = prev
		}
	}

	// A detail follow-up against the cached row list is a drill-down, not a
	// new search; routing it as place_info keeps the caches alive across the
	// topic-fingerprint change. Database keywords still win outright.
	detailFollowUp := kg.HasDetailCue(userText) && len(st.LastKGRows) > 0
	if detailFollowUp && !effectiveIntent.DBBacked() {
		effectiveIntent = speech.IntentPlaceInfo
	}

	merged := speech.MergeDurable(st.Slots, slots)
	st.UpdateTopicsAndEntities(effectiveIntent, merged)
	st.AddUserTurn(userText, actMajor, actSub, intent, slots, mood)

	// One-time onboarding: ask for a name before the first substantive turn.
	// Small talk never burns the single ask.
	if st.NeedsOnboarding() && !intent.IsSmallTalk() {
		st.AskedNameOnce = true
		return llm.TextStream(onboardingPrompt), nil
	}

	// Pure social acts get a canned reply without touching the generator.
	switch actSub {
	case speech.SubGreet, speech.SubThank, speech.SubGoodbye, speech.SubApologize:
		return llm.TextStream(ackForLevel(actSub, st.Profile)), nil
	}

	if slots.Cancel {
		st.Pending = nil
		return llm.TextStream(ackForLevel(speech.SubApologize, st.Profile)), nil
	}
	if slots.Confirm && st.Pending != nil {
		st.Pending = nil
		return llm.TextStream("Confirmed."), nil
	}

	// Hard gate: anonymous users never reach the staff directory.
	low := strings.ToLower(userText)
	staffLike := strings.Contains(low, "staff") || strings.Contains(low, "employee")
	if st.Profile.PrivacyMode == "anonymous" && staffLike && effectiveIntent.DBBacked() {
		return llm.TextStream(staffGateReply), nil
	}

	sysHint := systemHintBase(actMajor, actSub, effectiveIntent, mood, st, userText)
	sysHint += fmt.Sprintf(" MoodScore=%.2f.", moodScore)

	if st.Profile.PrivacyMode == "ask" && !st.Profile.Verified {
		sysHint += onboardingNudge
	}
	if justVerified {
		sysHint += verifiedEtiquette(st.Profile)
	}

	// Clarification is advisory: the hint carries at most one question, and
	// never for venue searches, which the tool pipeline handles itself.
	if (actSub == speech.SubAsk || actSub == speech.SubRequest) &&
		effectiveIntent.DBBacked() {
		view := speech.StateView{Neighborhood: st.Slots.Neighborhood}
		if q := speech.MaybeClarify(actMajor, effectiveIntent, merged, view); q != "" {
			sysHint += fmt.Sprintf(" If key information is missing, ask exactly one short "+
				"clarification question: %q", q)
		}
	}

	// Tool context. Detail follow-ups are served from the row cache before
	// any endpoint round-trip.
	kgResult := ""
	if detailFollowUp {
		kgResult = kg.TryAnswerFromCache(userText, st.LastKGRows)
	}
	if kgResult == "" && effectiveIntent.KGBacked() && r.KG != nil {
		kgResult = r.KG.AnswerWithKG(ctx, userText, merged, st)
	}

	dbResult := ""
	if effectiveIntent.DBBacked() && st.DBEnabled && r.DB != nil {
		dbResult = r.DB.AnswerWithDB(ctx, userText, st, "")
	}

	sysMsgs := []llm.Message{{Role: "system", Content: sysHint}}
	if kgResult != "" {
		if effectiveIntent == speech.IntentFoodSearch {
			sysMsgs = append(sysMsgs, llm.Message{Role: "system", Content: foodPolicyHint(st.Profile.PriceBand)})
		}
		sysMsgs = append(sysMsgs, llm.Message{Role: "system", Content: "Knowledge graph context:\n" + kgResult})
	}
	if dbResult != "" {
		sysMsgs = append(sysMsgs, llm.Message{Role: "system", Content: "Database context:\n" + dbResult})
	}

	enriched := p
	enriched.Messages = append(sysMsgs, stripSystem(p.Messages)...)

	stream, err := r.Gen.StreamChat(ctx, enriched)
	if err != nil {
		log.Printf("[ROUTE] generator unreachable: %v", err)
		return llm.TextStream(unavailableReply), nil
	}
	return stream, nil
}

// #endregion route
