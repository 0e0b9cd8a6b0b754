package store

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"concierge/internal/llm"
)

// #region schema

// sqliteSchema bootstraps the embedded fallback database so a dev setup
// works without a Postgres instance.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS staff (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	role        TEXT NOT NULL,
	role_level  INTEGER NOT NULL,
	department  TEXT NOT NULL,
	email       TEXT,
	phone       TEXT,
	manager_id  INTEGER
);

CREATE TABLE IF NOT EXISTS tasks (
	id         INTEGER PRIMARY KEY,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL,
	starts_at  TEXT NOT NULL,
	assignee   TEXT
);

CREATE TABLE IF NOT EXISTS appointments (
	id         INTEGER PRIMARY KEY,
	subject    TEXT NOT NULL,
	person     TEXT,
	room       TEXT,
	starts_at  TEXT NOT NULL,
	ends_at    TEXT
);
`

// #endregion schema

// #region store

// SQLGenerator produces one SQL statement from a prompt exchange.
type SQLGenerator interface {
	CompleteSQL(ctx context.Context, messages []llm.Message) (string, error)
}

// Store answers workplace questions (staff, tasks, appointments) against a
// relational database, generating read-only SQL with an LLM.
type Store struct {
	db     *sqlx.DB
	driver string // "postgres" | "sqlite"
	Gen    SQLGenerator
}

// Open connects to the database named by dsn. Postgres DSNs (URL or keyword
// form) use the pq driver; anything else is treated as an embedded SQLite
// path and migrated on open.
func Open(dsn string, gen SQLGenerator) (*Store, error) {
	driver := "sqlite"
	if isPostgresDSN(dsn) {
		driver = "postgres"
	}

	db, err := sqlx.Open(driverName(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == "postgres" {
		db.SetMaxOpenConns(8)
		db.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// One connection keeps :memory: databases coherent and serializes
		// SQLite writes.
		db.SetMaxOpenConns(1)
	}

	if driver == "sqlite" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return nil, fmt.Errorf("pragma: %w", err)
		}
		if _, err := db.Exec(sqliteSchema); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	log.Printf("[DB] opened %s store", driver)
	return &Store{db: db, driver: driver, Gen: gen}, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

func driverName(driver string) string {
	if driver == "postgres" {
		return "postgres"
	}
	return "sqlite"
}

// Ping checks database reachability, for /health and boot.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store

// #region run-sql

var (
	ilikeRe      = regexp.MustCompile(`(?i)\bILIKE\b`)
	nowCallRe    = regexp.MustCompile(`(?i)\bNOW\(\)`)
	tomorrowRe   = regexp.MustCompile(`(?i)CURRENT_DATE\s*\+\s*INTERVAL\s*'1 day'`)
	currentDayRe = regexp.MustCompile(`(?i)\bCURRENT_DATE\b`)
)

// adaptForSQLite rewrites the handful of Postgres idioms the generator emits
// so the embedded fallback can run them. Order matters: the tomorrow rewrite
// must run before the bare CURRENT_DATE one.
func adaptForSQLite(sql string) string {
	sql = ilikeRe.ReplaceAllString(sql, "LIKE")
	sql = nowCallRe.ReplaceAllString(sql, "DATETIME('now')")
	sql = tomorrowRe.ReplaceAllString(sql, "DATE('now', '+1 day')")
	sql = currentDayRe.ReplaceAllString(sql, "DATE('now')")
	return sql
}

// runSQL executes a read-only statement and flattens the result to string
// maps plus the column order for stable rendering.
func (s *Store) runSQL(ctx context.Context, query string) ([]map[string]string, []string, error) {
	if s.driver == "sqlite" {
		query = adaptForSQLite(query)
	}

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("run sql: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("columns: %w", err)
	}

	var out []map[string]string
	for rows.Next() {
		raw := make(map[string]interface{}, len(cols))
		if err := rows.MapScan(raw); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]string, len(raw))
		for k, v := range raw {
			row[k] = cellString(v)
		}
		out = append(out, row)
	}
	return out, cols, rows.Err()
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// #endregion run-sql
