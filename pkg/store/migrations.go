package store

import (
	"database/sql"
	"strings"
)

// Timestamps are stored as Unix milliseconds so exported snapshots stay
// byte-stable across drivers and locales.
const migrationsSQL = `
CREATE TABLE IF NOT EXISTS word_status (
	book_id TEXT NOT NULL,
	word_id TEXT NOT NULL,
	status TEXT NOT NULL,
	last_review INTEGER NOT NULL,
	review_count INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (book_id, word_id)
);

CREATE TABLE IF NOT EXISTS review_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	book_id TEXT NOT NULL,
	word_id TEXT NOT NULL,
	word TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS statistics (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	doc TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS wordbooks (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	kind TEXT NOT NULL DEFAULT 'local',
	source_url TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	total INTEGER NOT NULL DEFAULT 0,
	known INTEGER NOT NULL DEFAULT 0,
	fuzzy INTEGER NOT NULL DEFAULT 0,
	unknown INTEGER NOT NULL DEFAULT 0,
	not_reviewed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS wordbook_words (
	book_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	word_id TEXT NOT NULL,
	word TEXT NOT NULL,
	phonetic TEXT NOT NULL DEFAULT '',
	translation TEXT NOT NULL DEFAULT '',
	example TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (book_id, position)
);

CREATE INDEX IF NOT EXISTS idx_word_status_book ON word_status(book_id);
CREATE INDEX IF NOT EXISTS idx_review_log_book ON review_log(book_id)
`

// migrate runs the schema statements on the given connection.
func migrate(db *sql.DB) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
