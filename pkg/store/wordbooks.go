package store

import (
	"database/sql"
	"time"

	"github.com/moriyama/kioku/pkg/review"
)

// BookStats mirrors the per-wordbook progress counters kept on the
// wordbooks row.
type BookStats struct {
	Total       int `json:"total"`
	Known       int `json:"known"`
	Fuzzy       int `json:"fuzzy"`
	Unknown     int `json:"unknown"`
	NotReviewed int `json:"notReviewed"`
}

// WordbookRecord is the persisted form of a wordbook. External books keep
// metadata only: their Words slice is never written to disk.
type WordbookRecord struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Kind      string        `json:"kind"` // "local" or "external"
	SourceURL string        `json:"sourceUrl,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Stats     BookStats     `json:"stats"`
	Words     []review.Word `json:"words,omitempty"`
}

// SaveWordbook upserts a wordbook row and, for local books, replaces its
// word rows in the same transaction.
func (s *Store) SaveWordbook(rec WordbookRecord) {
	s.writeThrough(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO wordbooks
			(id, name, kind, source_url, created_at, updated_at, total, known, fuzzy, unknown, not_reviewed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				kind = excluded.kind,
				source_url = excluded.source_url,
				updated_at = excluded.updated_at,
				total = excluded.total,
				known = excluded.known,
				fuzzy = excluded.fuzzy,
				unknown = excluded.unknown,
				not_reviewed = excluded.not_reviewed`,
			rec.ID, rec.Name, rec.Kind, rec.SourceURL,
			rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli(),
			rec.Stats.Total, rec.Stats.Known, rec.Stats.Fuzzy, rec.Stats.Unknown, rec.Stats.NotReviewed)
		if err != nil {
			return err
		}
		if rec.Kind != "local" {
			return nil
		}
		if _, err := tx.Exec(`DELETE FROM wordbook_words WHERE book_id = ?`, rec.ID); err != nil {
			return err
		}
		for i, w := range rec.Words {
			if _, err := tx.Exec(`INSERT INTO wordbook_words
				(book_id, position, word_id, word, phonetic, translation, example)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, i, w.ID, w.Word, w.Phonetic, w.Translation, w.Example); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteWordbook removes a wordbook, its words and its word statuses.
func (s *Store) DeleteWordbook(id string) {
	s.mu.Lock()
	for key := range s.statuses {
		if key.BookID == id {
			delete(s.statuses, key)
		}
	}
	s.mu.Unlock()
	s.writeThrough(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM wordbook_words WHERE book_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM word_status WHERE book_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM wordbooks WHERE id = ?`, id)
		return err
	})
}

// LoadWordbooks reads every persisted wordbook with its words (local books
// only; external books come back with an empty word list).
func (s *Store) LoadWordbooks() ([]WordbookRecord, error) {
	rows, err := s.db.Query(`SELECT id, name, kind, source_url, created_at, updated_at,
		total, known, fuzzy, unknown, not_reviewed FROM wordbooks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []WordbookRecord
	for rows.Next() {
		var rec WordbookRecord
		var createdAt, updatedAt int64
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Kind, &rec.SourceURL,
			&createdAt, &updatedAt,
			&rec.Stats.Total, &rec.Stats.Known, &rec.Stats.Fuzzy,
			&rec.Stats.Unknown, &rec.Stats.NotReviewed); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.UnixMilli(createdAt)
		rec.UpdatedAt = time.UnixMilli(updatedAt)
		books = append(books, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range books {
		if books[i].Kind != "local" {
			continue
		}
		words, err := s.loadBookWords(books[i].ID)
		if err != nil {
			return nil, err
		}
		books[i].Words = words
	}
	return books, nil
}

func (s *Store) loadBookWords(bookID string) ([]review.Word, error) {
	rows, err := s.db.Query(`SELECT word_id, word, phonetic, translation, example
		FROM wordbook_words WHERE book_id = ? ORDER BY position`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []review.Word
	for rows.Next() {
		var w review.Word
		if err := rows.Scan(&w.ID, &w.Word, &w.Phonetic, &w.Translation, &w.Example); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}
