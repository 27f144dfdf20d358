package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS changes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	operation   TEXT NOT NULL,
	query       TEXT NOT NULL,
	theme       TEXT,
	outcome     TEXT NOT NULL,
	detail      TEXT,
	executed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	duration_ms INTEGER,
	is_error    BOOLEAN DEFAULT FALSE
)`

// Entry is one recorded theme change attempt.
type Entry struct {
	ID         int64
	Operation  string // set, install, remove, bg-next
	Query      string // what the user asked for
	Theme      string // the resolved theme, if any
	Outcome    string
	Detail     string
	ExecutedAt time.Time
	DurationMS int64
	IsError    bool
}

// History provides SQLite-backed storage of theme changes.
type History struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and ensures the
// schema exists.
func Open(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}

	return &History{db: db}, nil
}

// Add inserts a new history entry. A zero ExecutedAt is stored as now.
func (h *History) Add(entry Entry) error {
	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = time.Now().UTC()
	}
	_, err := h.db.Exec(
		`INSERT INTO changes (operation, query, theme, outcome, detail, executed_at, duration_ms, is_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Operation,
		entry.Query,
		entry.Theme,
		entry.Outcome,
		entry.Detail,
		entry.ExecutedAt,
		entry.DurationMS,
		entry.IsError,
	)
	if err != nil {
		return fmt.Errorf("history add: %w", err)
	}
	return nil
}

// Search returns entries whose theme or query matches the given pattern using
// SQL LIKE. Results are ordered by most recent first, limited to limit rows.
func (h *History) Search(pattern string, limit int) ([]Entry, error) {
	rows, err := h.db.Query(
		`SELECT id, operation, query, theme, outcome, detail, executed_at, duration_ms, is_error
		 FROM changes
		 WHERE theme LIKE ? OR query LIKE ?
		 ORDER BY executed_at DESC, id DESC
		 LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history search: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Recent returns the most recent entries, limited to limit rows.
func (h *History) Recent(limit int) ([]Entry, error) {
	rows, err := h.db.Query(
		`SELECT id, operation, query, theme, outcome, detail, executed_at, duration_ms, is_error
		 FROM changes
		 ORDER BY executed_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Clear deletes all history entries.
func (h *History) Clear() error {
	if _, err := h.db.Exec(`DELETE FROM changes`); err != nil {
		return fmt.Errorf("history clear: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	return h.db.Close()
}

// scanEntries reads all rows from the result set into a slice of Entry.
func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var theme, detail sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.Operation,
			&e.Query,
			&theme,
			&e.Outcome,
			&detail,
			&e.ExecutedAt,
			&e.DurationMS,
			&e.IsError,
		); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		e.Theme, e.Detail = theme.String, detail.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return entries, nil
}
