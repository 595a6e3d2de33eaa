package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/moriyama/kioku/pkg/review"
)

// snapshot is the serialized form of the full store state.
type snapshot struct {
	Words      map[string]map[string]review.WordStatus `json:"words"`
	ReviewLog  []LogEntry                              `json:"reviewHistory"`
	Settings   map[string]string                       `json:"settings"`
	Statistics json.RawMessage                         `json:"statistics,omitempty"`
	Wordbooks  []WordbookRecord                        `json:"wordbooks,omitempty"`
}

// ExportJSON serializes the full state for backup. Wordbooks are included
// with their words (external books metadata-only, like on disk).
func (s *Store) ExportJSON() ([]byte, error) {
	books, err := s.LoadWordbooks()
	if err != nil {
		return nil, fmt.Errorf("export wordbooks: %w", err)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })

	s.mu.RLock()
	snap := snapshot{
		Words:     make(map[string]map[string]review.WordStatus),
		ReviewLog: append([]LogEntry(nil), s.log...),
		Settings:  make(map[string]string, len(s.settings)),
		Wordbooks: books,
	}
	for key, st := range s.statuses {
		book := snap.Words[key.BookID]
		if book == nil {
			book = make(map[string]review.WordStatus)
			snap.Words[key.BookID] = book
		}
		book[key.WordID] = st
	}
	for k, v := range s.settings {
		snap.Settings[k] = v
	}
	if s.statsDoc != nil {
		snap.Statistics = append(json.RawMessage(nil), s.statsDoc...)
	}
	s.mu.RUnlock()

	return json.MarshalIndent(snap, "", "  ")
}

// ImportJSON replaces the full state with a previously exported snapshot.
// Unlike routine mutations this is an explicit user action, so failures are
// returned instead of swallowed and the previous state is kept on error.
func (s *Store) ImportJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}

	err := s.runTx(func(tx *sql.Tx) error {
		for _, table := range []string{"word_status", "review_log", "settings", "statistics", "wordbook_words", "wordbooks"} {
			if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
				return err
			}
		}
		for bookID, words := range snap.Words {
			for wordID, st := range words {
				if _, err := tx.Exec(`INSERT INTO word_status (book_id, word_id, status, last_review, review_count)
					VALUES (?, ?, ?, ?, ?)`,
					bookID, wordID, st.Status.String(), st.LastReview.UnixMilli(), st.ReviewCount); err != nil {
					return err
				}
			}
		}
		for _, e := range snap.ReviewLog {
			if _, err := tx.Exec(`INSERT INTO review_log (book_id, word_id, word, status, created_at)
				VALUES (?, ?, ?, ?, ?)`,
				e.BookID, e.WordID, e.Word, e.Status.String(), e.CreatedAt.UnixMilli()); err != nil {
				return err
			}
		}
		for k, v := range snap.Settings {
			if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, k, v); err != nil {
				return err
			}
		}
		if snap.Statistics != nil {
			if _, err := tx.Exec(`INSERT INTO statistics (id, doc) VALUES (1, ?)`, string(snap.Statistics)); err != nil {
				return err
			}
		}
		for _, rec := range snap.Wordbooks {
			if _, err := tx.Exec(`INSERT INTO wordbooks
				(id, name, kind, source_url, created_at, updated_at, total, known, fuzzy, unknown, not_reviewed)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, rec.Name, rec.Kind, rec.SourceURL,
				rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli(),
				rec.Stats.Total, rec.Stats.Known, rec.Stats.Fuzzy, rec.Stats.Unknown, rec.Stats.NotReviewed); err != nil {
				return err
			}
			if rec.Kind != "local" {
				continue
			}
			for i, w := range rec.Words {
				if _, err := tx.Exec(`INSERT INTO wordbook_words
					(book_id, position, word_id, word, phonetic, translation, example)
					VALUES (?, ?, ?, ?, ?, ?, ?)`,
					rec.ID, i, w.ID, w.Word, w.Phonetic, w.Translation, w.Example); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	s.mu.Lock()
	s.statuses = make(map[statusKey]review.WordStatus)
	for bookID, words := range snap.Words {
		for wordID, st := range words {
			s.statuses[statusKey{bookID, wordID}] = st
		}
	}
	s.log = snap.ReviewLog
	if len(s.log) > maxLogEntries {
		s.log = append([]LogEntry(nil), s.log[len(s.log)-maxLogEntries:]...)
	}
	s.settings = snap.Settings
	if s.settings == nil {
		s.settings = make(map[string]string)
	}
	s.statsDoc = snap.Statistics
	s.mu.Unlock()
	return nil
}
