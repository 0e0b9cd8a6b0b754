package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"concierge/internal/dialogue"
)

// #region transcript-schema

const transcriptSchema = `
CREATE TABLE IF NOT EXISTS turn_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	turn_id      TEXT NOT NULL,
	role         TEXT NOT NULL,
	text         TEXT NOT NULL,
	intent       TEXT,
	mood         TEXT,
	tool_source  TEXT,
	tool_request TEXT,
	tool_count   INTEGER,
	tool_error   TEXT,
	elapsed_ms   INTEGER,
	created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turn_log_session ON turn_log(session_id, id);
`

// #endregion transcript-schema

// #region transcript

// Transcript is the append-only provenance log of turns and the collaborator
// calls they triggered, kept in a local SQLite file for inspection.
type Transcript struct {
	db *sql.DB
}

// OpenTranscript opens (and migrates) the transcript database.
func OpenTranscript(path string) (*Transcript, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(transcriptSchema); err != nil {
		return nil, fmt.Errorf("migrate transcript: %w", err)
	}
	return &Transcript{db: db}, nil
}

// Close closes the underlying database.
func (t *Transcript) Close() error {
	return t.db.Close()
}

// LogTurn appends one turn. Turns with tool events produce one row per event
// so the issued SQL/SPARQL stays inspectable; plain turns produce one row.
func (t *Transcript) LogTurn(sessionID string, turn dialogue.Turn) error {
	at := turn.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	created := at.UTC().Format(time.RFC3339Nano)

	if len(turn.ToolEvents) == 0 {
		_, err := t.db.Exec(
			`INSERT INTO turn_log (session_id, turn_id, role, text, intent, mood, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sessionID, turn.ID, turn.Role, turn.Text, string(turn.Intent), string(turn.Mood), created,
		)
		if err != nil {
			return fmt.Errorf("log turn: %w", err)
		}
		return nil
	}

	for _, ev := range turn.ToolEvents {
		_, err := t.db.Exec(
			`INSERT INTO turn_log (session_id, turn_id, role, text, intent, mood,
			                       tool_source, tool_request, tool_count, tool_error, elapsed_ms, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID, turn.ID, turn.Role, turn.Text, string(turn.Intent), string(turn.Mood),
			ev.Source, ev.Request, ev.Count, ev.Err, ev.ElapsedMS, created,
		)
		if err != nil {
			return fmt.Errorf("log turn event: %w", err)
		}
	}
	return nil
}

// TranscriptEntry is one row of the turn log.
type TranscriptEntry struct {
	ID          int64
	SessionID   string
	TurnID      string
	Role        string
	Text        string
	Intent      string
	Mood        string
	ToolSource  string
	ToolRequest string
	ToolCount   int
	ToolError   string
	ElapsedMS   int64
	CreatedAt   time.Time
}

// Recent returns the most recent entries, newest first.
func (t *Transcript) Recent(limit int) ([]TranscriptEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := t.db.Query(
		`SELECT id, session_id, turn_id, role, text,
		        COALESCE(intent, ''), COALESCE(mood, ''),
		        COALESCE(tool_source, ''), COALESCE(tool_request, ''),
		        COALESCE(tool_count, 0), COALESCE(tool_error, ''),
		        COALESCE(elapsed_ms, 0), created_at
		 FROM turn_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	defer rows.Close()

	var out []TranscriptEntry
	for rows.Next() {
		var e TranscriptEntry
		var createdStr string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.TurnID, &e.Role, &e.Text,
			&e.Intent, &e.Mood, &e.ToolSource, &e.ToolRequest,
			&e.ToolCount, &e.ToolError, &e.ElapsedMS, &createdStr); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion transcript
