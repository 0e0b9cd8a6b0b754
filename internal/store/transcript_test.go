package store

import (
	"path/filepath"
	"testing"
	"time"

	"concierge/internal/dialogue"
)

func openTestTranscript(t *testing.T) *Transcript {
	t.Helper()
	tr, err := OpenTranscript(filepath.Join(t.TempDir(), "transcript.db"))
	if err != nil {
		t.Fatalf("open transcript: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestTranscriptLogAndRecent(t *testing.T) {
	tr := openTestTranscript(t)

	plain := dialogue.Turn{
		ID:   "01ARZ3NDEKTSV4RRFFQ69G5FAA",
		Role: "user",
		Text: "hello there",
		At:   time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := tr.LogTurn("sess-1", plain); err != nil {
		t.Fatalf("log plain turn: %v", err)
	}

	withTools := dialogue.Turn{
		ID:   "01ARZ3NDEKTSV4RRFFQ69G5FAB",
		Role: "user",
		Text: "list IT staff",
		ToolEvents: []dialogue.ToolEvent{
			{Source: "db", Subtype: "select", Request: "SELECT id, name, role FROM staff", Count: 3, ElapsedMS: 12},
			{Source: "kg", Subtype: "sparql", Request: "SELECT ?place WHERE { }", Count: 0, Err: "endpoint status 500"},
		},
		At: time.Date(2026, 8, 1, 10, 1, 0, 0, time.UTC),
	}
	if err := tr.LogTurn("sess-1", withTools); err != nil {
		t.Fatalf("log tool turn: %v", err)
	}

	entries, err := tr.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("want 3 rows (1 plain + 2 events), got %d", len(entries))
	}

	// Newest first: the kg event was inserted last.
	if entries[0].ToolSource != "kg" || entries[0].ToolError == "" {
		t.Fatalf("unexpected head entry: %+v", entries[0])
	}
	if entries[1].ToolSource != "db" || entries[1].ToolCount != 3 {
		t.Fatalf("unexpected db entry: %+v", entries[1])
	}
	if entries[2].Text != "hello there" || entries[2].ToolSource != "" {
		t.Fatalf("unexpected plain entry: %+v", entries[2])
	}
	if entries[2].CreatedAt.IsZero() {
		t.Fatal("created_at not parsed")
	}
}

func TestTranscriptRecentDefaultLimit(t *testing.T) {
	tr := openTestTranscript(t)
	if entries, err := tr.Recent(0); err != nil || len(entries) != 0 {
		t.Fatalf("empty log: %v %v", entries, err)
	}
}
