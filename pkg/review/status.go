package review

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidStatus is returned when parsing or marshalling an unknown status value.
var ErrInvalidStatus = errors.New("review: invalid status")

// Status is the learner's self-assessed mastery of a word at its last review.
type Status int

const (
	// Unknown means the learner could not recall the word. Words that have
	// never been reviewed are treated as Unknown as well.
	Unknown Status = iota
	// Fuzzy means the learner recognized the word but not confidently.
	Fuzzy
	// Known means the learner recalled the word without trouble.
	Known
)

var statusNames = [...]string{Unknown: "unknown", Fuzzy: "fuzzy", Known: "known"}

var statusByName = map[string]Status{
	"unknown": Unknown,
	"fuzzy":   Fuzzy,
	"known":   Known,
}

var (
	_ fmt.Stringer             = Status(0)
	_ encoding.TextMarshaler   = Status(0)
	_ encoding.TextUnmarshaler = (*Status)(nil)
)

// IsValid reports whether s is one of the three defined statuses.
func (s Status) IsValid() bool {
	return s >= Unknown && s <= Known
}

// String returns "unknown", "fuzzy" or "known". Invalid values render as "Status(n)".
func (s Status) String() string {
	if s.IsValid() {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus converts a stored string back into a Status.
func ParseStatus(text string) (Status, error) {
	s, ok := statusByName[text]
	if !ok {
		return Unknown, fmt.Errorf("%w: %q", ErrInvalidStatus, text)
	}
	return s, nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalJSON serializes the status as a JSON string.
func (s Status) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON expects a JSON string.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, data)
	}
	return s.UnmarshalText([]byte(str))
}

// Word is an immutable flashcard entry. Identity is the ID; two words with
// the same ID are the same entity even if their content differs.
type Word struct {
	ID          string `json:"id"`
	Word        string `json:"word"`
	Phonetic    string `json:"phonetic"`
	Translation string `json:"translation"`
	Example     string `json:"example,omitempty"`
}

// WordStatus is the durable per-word learning record. Only the latest
// outcome is kept; each review overwrites the previous one.
type WordStatus struct {
	Status      Status    `json:"status"`
	LastReview  time.Time `json:"lastReview"`
	ReviewCount int       `json:"reviewCount"`
}
