package review

import "time"

// StatusRecorder receives the durable outcome of each mark. Implemented by
// the store bound to the active wordbook; tests inject their own.
type StatusRecorder interface {
	RecordReview(wordID, word string, status Status)
}

// HistoryEntry is one session-scoped review outcome. A session holds at
// most one entry per word ID; marking a word again replaces its entry.
type HistoryEntry struct {
	WordID    string
	Word      string
	Status    Status
	Timestamp time.Time
}

// SessionStats is derived from the session history, not from the cursor
// position: an undo can make the two diverge.
type SessionStats struct {
	Known     int
	Fuzzy     int
	Unknown   int
	Total     int
	Reviewed  int
	Remaining int
	Progress  float64
}

// Session walks a word list, records one decision per word, and supports
// undo. It owns its history and cursor; the words and their durable status
// records are shared with the wordbook manager and the store and outlive
// the session.
type Session struct {
	words    []Word
	index    int
	history  []HistoryEntry
	recorder StatusRecorder

	// now is swappable in tests.
	now func() time.Time
}

// NewSession starts a session over words. An empty list is complete
// immediately. recorder may be nil, in which case marks are session-only.
func NewSession(words []Word, recorder StatusRecorder) *Session {
	return &Session{
		words:    words,
		recorder: recorder,
		now:      time.Now,
	}
}

// Words returns the session's word list.
func (s *Session) Words() []Word { return s.words }

// Index returns the cursor position. Equal to len(Words()) once complete.
func (s *Session) Index() int { return s.index }

// IsComplete reports whether the cursor has moved past the last word.
func (s *Session) IsComplete() bool { return s.index >= len(s.words) }

// CurrentWord returns the word under the cursor, or false when the session
// is complete or empty.
func (s *Session) CurrentWord() (Word, bool) {
	if s.index >= 0 && s.index < len(s.words) {
		return s.words[s.index], true
	}
	return Word{}, false
}

// History returns the session history in insertion order.
func (s *Session) History() []HistoryEntry { return s.history }

// MarkStatus records status for the current word and advances the cursor.
// If the word was already marked this session its history entry is replaced
// rather than duplicated. Returns false without side effects when the
// session is complete.
func (s *Session) MarkStatus(status Status) bool {
	word, ok := s.CurrentWord()
	if !ok {
		return false
	}

	entry := HistoryEntry{
		WordID:    word.ID,
		Word:      word.Word,
		Status:    status,
		Timestamp: s.now(),
	}
	if i := s.historyIndex(word.ID); i >= 0 {
		s.history[i] = entry
	} else {
		s.history = append(s.history, entry)
	}

	if s.recorder != nil {
		s.recorder.RecordReview(word.ID, word.Word, status)
	}

	s.Next()
	return true
}

func (s *Session) historyIndex(wordID string) int {
	for i, h := range s.history {
		if h.WordID == wordID {
			return i
		}
	}
	return -1
}

// Next advances the cursor, saturating at len(words).
func (s *Session) Next() {
	if s.index < len(s.words) {
		s.index++
	}
}

// Prev moves the cursor back, saturating at 0.
func (s *Session) Prev() {
	if s.index > 0 {
		s.index--
	}
}

// Undo removes the most recent history entry and steps the cursor back.
// It does not reverse the durable status write already made through the
// recorder; the stored record keeps the undone value. No-op on an empty
// history.
func (s *Session) Undo() {
	if len(s.history) == 0 {
		return
	}
	s.history = s.history[:len(s.history)-1]
	if s.index > 0 {
		s.index--
	}
}

// Reset clears the session history and rewinds the cursor. The word list
// is unchanged.
func (s *Session) Reset() {
	s.index = 0
	s.history = nil
}

// SetWords replaces the word list and resets the session.
func (s *Session) SetWords(words []Word) {
	s.words = words
	s.Reset()
}

// Stats derives the session counters from the history.
func (s *Session) Stats() SessionStats {
	stats := SessionStats{
		Total:    len(s.words),
		Reviewed: len(s.history),
	}
	for _, h := range s.history {
		switch h.Status {
		case Known:
			stats.Known++
		case Fuzzy:
			stats.Fuzzy++
		case Unknown:
			stats.Unknown++
		}
	}
	stats.Remaining = stats.Total - stats.Reviewed
	if stats.Total > 0 {
		stats.Progress = float64(stats.Reviewed) / float64(stats.Total) * 100
	}
	return stats
}
