package review

import (
	"math/rand"
	"sort"
	"time"
)

// Priority constants. Unreviewed and forgotten words always come first;
// known words decay toward a cap that stays below fuzzy.
const (
	priorityUnknown  = 100
	priorityFuzzy    = 50
	priorityKnownCap = 30
	priorityPerDay   = 5
)

// ScoredWord is a word annotated with its computed review priority.
type ScoredWord struct {
	Word
	Priority float64 `json:"priority"`
}

// Prioritize orders words for review, most urgent first. statuses maps word
// ID to its durable record; words without a record count as unknown. Ties
// keep their input order. now anchors the staleness computation for known
// words.
func Prioritize(words []Word, statuses map[string]WordStatus, now time.Time) []ScoredWord {
	scored := make([]ScoredWord, len(words))
	for i, w := range words {
		scored[i] = ScoredWord{Word: w, Priority: priorityFor(statuses, w.ID, now)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Priority > scored[j].Priority
	})
	return scored
}

func priorityFor(statuses map[string]WordStatus, wordID string, now time.Time) float64 {
	st, ok := statuses[wordID]
	if !ok || st.Status == Unknown {
		return priorityUnknown
	}
	if st.Status == Fuzzy {
		return priorityFuzzy
	}
	// Known: grow with days since the last review, capped.
	days := now.Sub(st.LastReview).Hours() / 24
	if days < 0 {
		days = 0
	}
	p := days * priorityPerDay
	if p > priorityKnownCap {
		p = priorityKnownCap
	}
	return p
}

// FilterByStatus returns the words whose durable status equals status.
// Words with no record at all are included when filtering for Unknown.
func FilterByStatus(words []Word, statuses map[string]WordStatus, status Status) []Word {
	var out []Word
	for _, w := range words {
		st, ok := statuses[w.ID]
		if !ok {
			if status == Unknown {
				out = append(out, w)
			}
			continue
		}
		if st.Status == status {
			out = append(out, w)
		}
	}
	return out
}

// Shuffle returns a uniformly random permutation of words. The input slice
// is left untouched; each call reshuffles independently.
func Shuffle(words []Word) []Word {
	shuffled := make([]Word, len(words))
	copy(shuffled, words)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// DeckStats summarizes the durable progress of a word list.
type DeckStats struct {
	Total         int `json:"total"`
	Known         int `json:"known"`
	Fuzzy         int `json:"fuzzy"`
	Unknown       int `json:"unknown"`
	NeverReviewed int `json:"neverReviewed"`
}

// Summarize counts words per durable status. Words without a record count
// both as unknown and as never reviewed.
func Summarize(words []Word, statuses map[string]WordStatus) DeckStats {
	stats := DeckStats{Total: len(words)}
	for _, w := range words {
		st, ok := statuses[w.ID]
		if !ok {
			stats.NeverReviewed++
			stats.Unknown++
			continue
		}
		switch st.Status {
		case Known:
			stats.Known++
		case Fuzzy:
			stats.Fuzzy++
		default:
			stats.Unknown++
		}
	}
	return stats
}
