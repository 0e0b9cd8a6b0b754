package kg

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"concierge/internal/dialogue"
	"concierge/internal/llm"
	"concierge/internal/speech"
)

// #region fixtures

type fakeGen struct {
	out string
	err error
}

func (f *fakeGen) CompleteSPARQL(ctx context.Context, messages []llm.Message) (string, error) {
	return f.out, f.err
}

// sparqlHandler serves canned bindings and records every query it receives.
type sparqlHandler struct {
	mu      sync.Mutex
	queries []string
	rows    []map[string]string
}

func (h *sparqlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.queries = append(h.queries, r.URL.Query().Get("query"))
	h.mu.Unlock()

	type cell struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}
	bindings := make([]map[string]cell, 0, len(h.rows))
	for _, row := range h.rows {
		b := make(map[string]cell, len(row))
		for k, v := range row {
			b[k] = cell{Type: "literal", Value: v}
		}
		bindings = append(bindings, b)
	}
	resp := map[string]any{"results": map[string]any{"bindings": bindings}}
	w.Header().Set("Content-Type", "application/sparql-results+json")
	json.NewEncoder(w).Encode(resp)
}

func (h *sparqlHandler) calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.queries...)
}

// #endregion fixtures

// #region exec

func TestExecQuery(t *testing.T) {
	h := &sparqlHandler{rows: []map[string]string{
		{"label": "Ergon House", "price": "22", "rating": "4.6"},
	}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := NewClient(srv.URL, &fakeGen{}, 5*time.Second)
	st := dialogue.NewState()

	rows, err := c.ExecQuery(context.Background(), "SELECT ?label WHERE { ?x rdfs:label ?label } LIMIT 1", st)
	if err != nil {
		t.Fatalf("ExecQuery: %v", err)
	}
	if len(rows) != 1 || rows[0]["label"] != "Ergon House" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if len(st.LastKGRows) != 1 {
		t.Fatalf("result not cached on state: %v", st.LastKGRows)
	}
}

func TestExecQueryEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, &fakeGen{}, 5*time.Second)
	st := dialogue.NewState()

	if _, err := c.ExecQuery(context.Background(), "SELECT ?x WHERE { ?x a ex:T }", st); err == nil {
		t.Fatal("want error on endpoint 500")
	}
}

// #endregion exec

// #region verbalize

func TestVerbalize(t *testing.T) {
	if got := Verbalize(nil, 10); got != "No results." {
		t.Fatalf("empty rows: %q", got)
	}

	rows := []map[string]string{
		{"label": "Ergon House", "address": "Mitropoleos 23", "price": "22", "rating": "4.6", "cuisine": "greek"},
		{"label": "Seychelles"},
	}
	got := Verbalize(rows, 10)
	if !strings.HasPrefix(got, "Results:") {
		t.Fatalf("missing header: %q", got)
	}
	if !strings.Contains(got, "• Ergon House — Mitropoleos 23 — €22 — rating 4.6 — cuisine greek") {
		t.Fatalf("full row misrendered: %q", got)
	}
	if !strings.Contains(got, "• Seychelles") {
		t.Fatalf("sparse row missing: %q", got)
	}

	if got := Verbalize(rows, 1); strings.Contains(got, "Seychelles") {
		t.Fatalf("display limit ignored: %q", got)
	}
}

func TestVerbalizeSingle(t *testing.T) {
	got := VerbalizeSingle(map[string]string{"label": "Seychelles", "rating": "4.7", "price": "18"})
	if !strings.HasPrefix(got, "Seychelles: ") {
		t.Fatalf("missing label lead: %q", got)
	}
	if !strings.Contains(got, "rating 4.7") || !strings.Contains(got, "~€18 per person") {
		t.Fatalf("attributes missing: %q", got)
	}

	got = VerbalizeSingle(map[string]string{"label": "Seychelles"})
	if !strings.Contains(got, "Details are limited") {
		t.Fatalf("sparse row fallback missing: %q", got)
	}
}

// #endregion verbalize

// #region cache-answer

func TestTryAnswerFromCache(t *testing.T) {
	rows := []map[string]string{
		{"label": "Cafe One", "address": "Skoufa 10"},
		{"label": "Cafe 2", "address": "Normanou 3", "price": "9"},
		{"label": "Ergon House", "address": "Mitropoleos 23"},
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"numeric label match", "tell me about number 2", "• Cafe 2"},
		{"token containment", "ergon house", "• Ergon House"},
		{"detail cue falls back to first row", "more info please", "• Cafe One"},
		{"no match", "something unrelated entirely", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TryAnswerFromCache(tc.text, rows)
			if tc.want == "" {
				if got != "" {
					t.Errorf("want miss, got %q", got)
				}
				return
			}
			if !strings.Contains(got, tc.want) {
				t.Errorf("TryAnswerFromCache(%q) = %q, want substring %q", tc.text, got, tc.want)
			}
		})
	}

	if got := TryAnswerFromCache("details", nil); got != "" {
		t.Fatalf("empty cache must miss: %q", got)
	}
}

func TestHasDetailCue(t *testing.T) {
	for _, s := range []string{"tell me more", "more info?", "what about the second one", "details please"} {
		if !HasDetailCue(s) {
			t.Errorf("HasDetailCue(%q) = false", s)
		}
	}
	if HasDetailCue("find me a cafe in Kolonaki") {
		t.Error("plain search flagged as detail cue")
	}
}

// #endregion cache-answer

// #region answer-flow

func TestAnswerWithKGGeneratedQuery(t *testing.T) {
	h := &sparqlHandler{rows: []map[string]string{
		{"label": "Ohh Boy", "address": "Pangrati", "price": "12", "rating": "4.4"},
	}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	gen := &fakeGen{out: "```sparql\n" + PrefixBlock +
		"SELECT ?place ?label WHERE {\n" +
		"  ?place a schema:Restaurant ;\n" +
		"         ex:locatedIn ex:Athens ;\n" +
		"         rdfs:label ?label .\n" +
		"}\nLIMIT 5\n```"}
	c := NewClient(srv.URL, gen, 5*time.Second)
	st := dialogue.NewState()

	got := c.AnswerWithKG(context.Background(), "find a good restaurant in Kolonaki",
		speech.Slots{Type: "restaurant", Neighborhood: "Kolonaki"}, st)
	if !strings.HasPrefix(got, "Results:") || !strings.Contains(got, "Ohh Boy") {
		t.Fatalf("unexpected answer: %q", got)
	}

	calls := h.calls()
	if len(calls) != 1 {
		t.Fatalf("want one endpoint call, got %d", len(calls))
	}
	q := calls[0]
	if !strings.Contains(q, "<http://example.org/hood/Kolonaki>") {
		t.Errorf("neighborhood not injected: %q", q)
	}
	if !strings.Contains(q, "ORDER BY") || !strings.Contains(q, "LIMIT 10") {
		t.Errorf("policy tail missing: %q", q)
	}
	if len(st.LastKGRows) != 1 {
		t.Errorf("state cache not updated: %v", st.LastKGRows)
	}
}

func TestAnswerWithKGFallsBackToTemplate(t *testing.T) {
	h := &sparqlHandler{rows: []map[string]string{
		{"label": "Seychelles", "address": "Keramikou 49"},
	}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	// Generation fails outright; the templated query must still answer.
	c := NewClient(srv.URL, &fakeGen{err: context.DeadlineExceeded}, 5*time.Second)
	st := dialogue.NewState()

	got := c.AnswerWithKG(context.Background(), "any tavernas around",
		speech.Slots{Type: "restaurant", Neighborhood: "Keramikos"}, st)
	if !strings.Contains(got, "Seychelles") {
		t.Fatalf("template fallback failed: %q", got)
	}

	calls := h.calls()
	if len(calls) != 1 {
		t.Fatalf("want one endpoint call, got %d", len(calls))
	}
	if !strings.Contains(calls[0], "schema:Restaurant") {
		t.Errorf("template query malformed: %q", calls[0])
	}
}

func TestAnswerWithKGRetriesTemplateOnZeroRows(t *testing.T) {
	h := &sparqlHandler{} // no rows for any query
	srv := httptest.NewServer(h)
	defer srv.Close()

	gen := &fakeGen{out: PrefixBlock +
		"SELECT ?place ?label WHERE { ?place a schema:Restaurant ; rdfs:label ?label }\nLIMIT 5"}
	c := NewClient(srv.URL, gen, 5*time.Second)
	st := dialogue.NewState()

	got := c.AnswerWithKG(context.Background(), "italian places in Psyrri",
		speech.Slots{Neighborhood: "Psyrri", Cuisine: "italian"}, st)
	if got != "No results." {
		t.Fatalf("unexpected answer: %q", got)
	}
	if calls := h.calls(); len(calls) != 2 {
		t.Fatalf("want generated plus template call, got %d", len(calls))
	}
}

func TestAnswerWithKGDetailFollowUp(t *testing.T) {
	h := &sparqlHandler{rows: []map[string]string{
		{"label": "Ergon House", "phone": "+30 210 0109090"},
	}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := NewClient(srv.URL, &fakeGen{}, 5*time.Second)
	st := dialogue.NewState()
	st.LastKGRows = []map[string]string{
		{"place": "http://example.org/place/ergon-house", "label": "Ergon House", "address": "Mitropoleos 23"},
		{"place": "http://example.org/place/seychelles", "label": "Seychelles"},
	}

	got := c.AnswerWithKG(context.Background(), `what about "Ergon House"?`, speech.Slots{}, st)
	if !strings.HasPrefix(got, "Ergon House") {
		t.Fatalf("wrong place answered: %q", got)
	}
	if !strings.Contains(got, "+30 210 0109090") {
		t.Fatalf("detail facts missing: %q", got)
	}
	if _, ok := st.KGDetailCache["http://example.org/place/ergon-house"]; !ok {
		t.Fatal("detail row not cached")
	}

	// A second fetch for the same place is served from the detail cache.
	before := len(h.calls())
	if row := c.fetchDetail(context.Background(), "http://example.org/place/ergon-house", st); row == nil {
		t.Fatal("cached fetch returned nil")
	}
	if after := len(h.calls()); after != before {
		t.Fatalf("cached fetch hit the endpoint: %d -> %d", before, after)
	}
}

// #endregion answer-flow
