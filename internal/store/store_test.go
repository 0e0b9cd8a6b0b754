package store

import (
	"context"
	"strings"
	"sync"
	"testing"

	"concierge/internal/llm"
)

// #region fixtures

// fakeSQLGen replays queued completions and records every call.
type fakeSQLGen struct {
	mu    sync.Mutex
	queue []string
	calls [][]llm.Message
}

func (f *fakeSQLGen) CompleteSQL(ctx context.Context, messages []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	if len(f.queue) == 0 {
		return "", nil
	}
	out := f.queue[0]
	f.queue = f.queue[1:]
	return out, nil
}

func (f *fakeSQLGen) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestStore(t *testing.T, gen SQLGenerator) *Store {
	t.Helper()
	s, err := Open(":memory:", gen)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	seed := `
	INSERT INTO staff (id, name, role, role_level, department) VALUES
		(1, 'Danielle Smith', 'HR Coordinator', 2, 'HR'),
		(2, 'Derek Smithson', 'Support Engineer', 5, 'IT'),
		(3, 'Mark Ronson', 'Sales Associate', 4, 'Sales'),
		(4, 'Alice Mark', 'Operations Lead', 3, 'Operations');
	INSERT INTO tasks (id, title, status, starts_at, assignee) VALUES
		(1, 'Quarterly report', 'open', '2099-01-02T09:00:00Z', 'Alice Mark');
	INSERT INTO appointments (id, subject, person, room, starts_at) VALUES
		(1, 'Vendor sync', 'Alice Mark', 'A3', '2099-01-03T10:00:00Z');
	`
	if _, err := s.db.Exec(seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

// #endregion fixtures

// #region open

func TestOpenDetectsDriver(t *testing.T) {
	s := newTestStore(t, &fakeSQLGen{})
	if s.driver != "sqlite" {
		t.Fatalf("driver = %q, want sqlite", s.driver)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	for _, dsn := range []string{
		"postgres://user:pw@localhost:5432/corp",
		"host=localhost port=5432 dbname=corp",
	} {
		if !isPostgresDSN(dsn) {
			t.Errorf("isPostgresDSN(%q) = false", dsn)
		}
	}
	if isPostgresDSN("concierge_log.db") {
		t.Error("file path misdetected as postgres")
	}
}

// #endregion open

// #region directory

func TestLookupStaffExact(t *testing.T) {
	s := newTestStore(t, &fakeSQLGen{})
	ctx := context.Background()

	t.Run("exact match", func(t *testing.T) {
		rec, err := s.LookupStaffExact(ctx, "Danielle Smith")
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
		if rec == nil || rec.ID != 1 || rec.Department != "HR" {
			t.Fatalf("unexpected record: %+v", rec)
		}
	})

	t.Run("partial match prefers seniority", func(t *testing.T) {
		// "Smith" matches both Danielle Smith (level 2) and Derek Smithson
		// (level 5); the lower level wins.
		rec, err := s.LookupStaffExact(ctx, "Smith")
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
		if rec == nil || rec.Name != "Danielle Smith" {
			t.Fatalf("unexpected record: %+v", rec)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		rec, err := s.LookupStaffExact(ctx, "Nobody Here")
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
		if rec != nil {
			t.Fatalf("want nil, got %+v", rec)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		rec, err := s.LookupStaffExact(ctx, "")
		if err != nil || rec != nil {
			t.Fatalf("want nil, nil; got %+v, %v", rec, err)
		}
	})
}

// #endregion directory

// #region sql-adaptation

func TestAdaptForSQLite(t *testing.T) {
	in := "SELECT id FROM appointments WHERE person ILIKE '%Ann%' AND starts_at >= NOW() " +
		"AND DATE(starts_at) = CURRENT_DATE + INTERVAL '1 day'"
	got := adaptForSQLite(in)
	for _, want := range []string{"LIKE '%Ann%'", "DATETIME('now')", "DATE('now', '+1 day')"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
	for _, gone := range []string{"ILIKE", "NOW()", "INTERVAL"} {
		if strings.Contains(got, gone) {
			t.Errorf("%q survived in %q", gone, got)
		}
	}
}

func TestRunSQLFlattensRows(t *testing.T) {
	s := newTestStore(t, &fakeSQLGen{})
	rows, cols, err := s.runSQL(context.Background(),
		"SELECT id, name, role FROM staff WHERE department ILIKE '%HR%' ORDER BY name ASC")
	if err != nil {
		t.Fatalf("runSQL: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Danielle Smith" || rows[0]["id"] != "1" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if len(cols) != 3 || cols[0] != "id" {
		t.Fatalf("unexpected column order: %v", cols)
	}
}

// #endregion sql-adaptation

// #region verbalize

func TestVerbalizeRows(t *testing.T) {
	if got := verbalizeRows(nil, nil); got != "No results found." {
		t.Fatalf("empty rows: %q", got)
	}

	rows := []map[string]string{{"id": "1", "name": "Danielle Smith", "role": "HR Coordinator"}}
	got := verbalizeRows(rows, []string{"id", "name", "role"})
	want := "• id: 1; name: Danielle Smith; role: HR Coordinator"
	if got != want {
		t.Fatalf("verbalizeRows = %q, want %q", got, want)
	}

	var many []map[string]string
	for i := 0; i < 15; i++ {
		many = append(many, map[string]string{"id": "x"})
	}
	if got := verbalizeRows(many, []string{"id"}); strings.Count(got, "•") != 10 {
		t.Fatalf("row cap not applied: %q", got)
	}
}

// #endregion verbalize
