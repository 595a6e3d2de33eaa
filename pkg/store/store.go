// Package store persists the trainer's learning state in a local SQLite
// database. The in-memory state is the source of truth: every mutation
// updates memory first, then writes through to disk in one transaction.
// Write failures are recovered by truncating the review log and retrying
// once; a second failure is logged and swallowed so the process stays
// usable with memory-only durability.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/moriyama/kioku/pkg/review"

	_ "github.com/mattn/go-sqlite3"
)

// maxLogEntries caps the review log; the oldest entries are evicted first.
const maxLogEntries = 1000

// statusKey scopes a word status to its wordbook, so the same word id in
// two books tracks independent progress.
type statusKey struct {
	BookID string
	WordID string
}

// LogEntry is one row of the durable review log.
type LogEntry struct {
	BookID    string        `json:"bookId"`
	WordID    string        `json:"wordId"`
	Word      string        `json:"word"`
	Status    review.Status `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Store owns all durable state. A single Store instance is shared by the
// session, the statistics aggregator and the wordbook manager.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	logger *zap.Logger

	statuses map[statusKey]review.WordStatus
	log      []LogEntry
	settings map[string]string
	statsDoc []byte

	now func() time.Time
}

// Open opens (or creates) the database at path, runs migrations and loads
// the persisted state into memory. Use ":memory:" for tests.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Single connection: avoids separate in-memory DBs per connection and
	// matches the single-user access model.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s := &Store{
		db:       db,
		logger:   logger,
		statuses: make(map[statusKey]review.WordStatus),
		settings: make(map[string]string),
		now:      time.Now,
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// load populates the in-memory mirror from disk.
func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT book_id, word_id, status, last_review, review_count FROM word_status`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key statusKey
		var statusText string
		var lastReview int64
		var count int
		if err := rows.Scan(&key.BookID, &key.WordID, &statusText, &lastReview, &count); err != nil {
			return err
		}
		st, err := review.ParseStatus(statusText)
		if err != nil {
			s.logger.Warn("skipping word status with unknown value",
				zap.String("wordId", key.WordID), zap.String("status", statusText))
			continue
		}
		s.statuses[key] = review.WordStatus{
			Status:      st,
			LastReview:  time.UnixMilli(lastReview),
			ReviewCount: count,
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	logRows, err := s.db.Query(`SELECT book_id, word_id, word, status, created_at FROM review_log ORDER BY id`)
	if err != nil {
		return err
	}
	defer logRows.Close()
	for logRows.Next() {
		var e LogEntry
		var statusText string
		var createdAt int64
		if err := logRows.Scan(&e.BookID, &e.WordID, &e.Word, &statusText, &createdAt); err != nil {
			return err
		}
		st, err := review.ParseStatus(statusText)
		if err != nil {
			continue
		}
		e.Status = st
		e.CreatedAt = time.UnixMilli(createdAt)
		s.log = append(s.log, e)
	}
	if err := logRows.Err(); err != nil {
		return err
	}
	if len(s.log) > maxLogEntries {
		s.log = append([]LogEntry(nil), s.log[len(s.log)-maxLogEntries:]...)
	}

	settingRows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return err
	}
	defer settingRows.Close()
	for settingRows.Next() {
		var k, v string
		if err := settingRows.Scan(&k, &v); err != nil {
			return err
		}
		s.settings[k] = v
	}
	if err := settingRows.Err(); err != nil {
		return err
	}

	var doc string
	err = s.db.QueryRow(`SELECT doc FROM statistics WHERE id = 1`).Scan(&doc)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return err
	default:
		s.statsDoc = []byte(doc)
	}
	return nil
}

// GetWordStatus returns the durable record for a word, if any.
func (s *Store) GetWordStatus(bookID, wordID string) (review.WordStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[statusKey{bookID, wordID}]
	return st, ok
}

// BookStatuses returns a copy of all word statuses in a wordbook, keyed by
// word id. The copy feeds the priority engine without exposing internals.
func (s *Store) BookStatuses(bookID string) map[string]review.WordStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]review.WordStatus)
	for key, st := range s.statuses {
		if key.BookID == bookID {
			out[key.WordID] = st
		}
	}
	return out
}

// UpdateWordStatus upserts a word's durable record: first review creates it
// with count 1, later reviews overwrite the status, refresh the timestamp
// and increment the count. The write is immediate.
func (s *Store) UpdateWordStatus(bookID, wordID string, status review.Status) {
	s.mu.Lock()
	key := statusKey{bookID, wordID}
	rec, ok := s.statuses[key]
	if !ok {
		rec = review.WordStatus{Status: status, LastReview: s.now(), ReviewCount: 1}
	} else {
		rec.Status = status
		rec.LastReview = s.now()
		rec.ReviewCount++
	}
	s.statuses[key] = rec
	s.mu.Unlock()

	s.writeThrough(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO word_status (book_id, word_id, status, last_review, review_count)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(book_id, word_id) DO UPDATE SET
				status = excluded.status,
				last_review = excluded.last_review,
				review_count = excluded.review_count`,
			bookID, wordID, rec.Status.String(), rec.LastReview.UnixMilli(), rec.ReviewCount)
		return err
	})
}

// AppendReviewLog appends an entry to the capped review log, evicting the
// oldest entries beyond the cap.
func (s *Store) AppendReviewLog(bookID, wordID, word string, status review.Status) {
	entry := LogEntry{
		BookID:    bookID,
		WordID:    wordID,
		Word:      word,
		Status:    status,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.log = append(s.log, entry)
	if len(s.log) > maxLogEntries {
		s.log = append([]LogEntry(nil), s.log[len(s.log)-maxLogEntries:]...)
	}
	s.mu.Unlock()

	s.writeThrough(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO review_log (book_id, word_id, word, status, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			bookID, wordID, word, entry.Status.String(), entry.CreatedAt.UnixMilli()); err != nil {
			return err
		}
		return pruneLog(tx)
	})
}

// ReviewLog returns a copy of the in-memory review log, oldest first.
func (s *Store) ReviewLog() []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]LogEntry(nil), s.log...)
}

// ClearReviewLog drops the whole log.
func (s *Store) ClearReviewLog() {
	s.mu.Lock()
	s.log = nil
	s.mu.Unlock()
	s.writeThrough(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM review_log`)
		return err
	})
}

// ResetBookStatuses removes every word status of a wordbook. This is the
// only deletion path for status records.
func (s *Store) ResetBookStatuses(bookID string) {
	s.mu.Lock()
	for key := range s.statuses {
		if key.BookID == bookID {
			delete(s.statuses, key)
		}
	}
	s.mu.Unlock()
	s.writeThrough(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM word_status WHERE book_id = ?`, bookID)
		return err
	})
}

// Setting returns a stored scalar setting.
func (s *Store) Setting(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	return v, ok
}

// SetSetting stores a scalar setting.
func (s *Store) SetSetting(key, value string) {
	s.mu.Lock()
	s.settings[key] = value
	s.mu.Unlock()
	s.writeThrough(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
		return err
	})
}

// StatisticsDoc returns the serialized statistics object, or nil when none
// has been saved yet.
func (s *Store) StatisticsDoc() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.statsDoc == nil {
		return nil
	}
	return append([]byte(nil), s.statsDoc...)
}

// SaveStatisticsDoc persists the serialized statistics object.
func (s *Store) SaveStatisticsDoc(doc []byte) {
	s.mu.Lock()
	s.statsDoc = append([]byte(nil), doc...)
	s.mu.Unlock()
	s.writeThrough(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO statistics (id, doc) VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`, string(doc))
		return err
	})
}

// Recorder binds the store to one wordbook and satisfies
// review.StatusRecorder: each mark updates the word's status and appends
// to the review log.
func (s *Store) Recorder(bookID string) review.StatusRecorder {
	return &boundRecorder{store: s, bookID: bookID}
}

type boundRecorder struct {
	store  *Store
	bookID string
}

func (r *boundRecorder) RecordReview(wordID, word string, status review.Status) {
	r.store.UpdateWordStatus(r.bookID, wordID, status)
	r.store.AppendReviewLog(r.bookID, wordID, word, status)
}

// writeThrough runs op in a transaction. On failure the review log is
// truncated to the newest entries and the transaction retried once; if the
// retry fails too the error is logged and swallowed, leaving the in-memory
// state authoritative for the rest of the process lifetime.
func (s *Store) writeThrough(op func(tx *sql.Tx) error) {
	if err := s.runTx(op); err == nil {
		return
	} else {
		s.logger.Warn("storage write failed, truncating review log and retrying", zap.Error(err))
	}

	err := s.runTx(func(tx *sql.Tx) error {
		if err := pruneLog(tx); err != nil {
			return err
		}
		return op(tx)
	})
	if err != nil {
		s.logger.Error("storage write failed after retry, durability lost for this write", zap.Error(err))
	}
}

func (s *Store) runTx(op func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() // ignored if committed
	if err := op(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// pruneLog deletes review log rows beyond the newest maxLogEntries.
func pruneLog(tx *sql.Tx) error {
	_, err := tx.Exec(`DELETE FROM review_log WHERE id NOT IN (
		SELECT id FROM review_log ORDER BY id DESC LIMIT ?)`, maxLogEntries)
	return err
}
