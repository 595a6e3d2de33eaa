package importer

import (
	"fmt"
	"regexp"

	"github.com/moriyama/kioku/pkg/review"
)

var asciiOnly = regexp.MustCompile(`^[a-zA-Z0-9\s[:punct:]]+$`)

// skipToken filters out tokens that make no sense as flashcards:
// punctuation, particles, auxiliary verbs, numbers and pure ASCII runs.
func skipToken(t Token) bool {
	switch t.PrimaryPOS {
	case "記号", "補助記号", "助詞", "助動詞":
		return true
	}
	if len(t.Features) > 1 && t.Features[1] == "数" {
		return true
	}
	return asciiOnly.MatchString(t.Surface)
}

// lemma returns the canonical form to store for a token.
func lemma(t Token) string {
	if t.BaseForm != "" && t.BaseForm != "*" {
		return t.BaseForm
	}
	return t.Surface
}

// sentenceWords extracts the content words of one sentence, deduplicated
// in order of first appearance. The sentence text becomes each word's
// example.
func sentenceWords(s Sentence) []review.Word {
	seen := make(map[string]int)
	var words []review.Word

	for _, t := range s.Tokens {
		if skipToken(t) {
			continue
		}
		word := lemma(t)
		if i, ok := seen[word]; ok {
			// Keep the first reading seen, fill it in if it was empty.
			if words[i].Phonetic == "" && t.Reading != "" {
				words[i].Phonetic = ToHiragana(t.Reading)
			}
			continue
		}
		seen[word] = len(words)
		words = append(words, review.Word{
			Word:     word,
			Phonetic: ToHiragana(t.Reading),
			Example:  s.Text,
		})
	}
	return words
}

// mergeWords flattens per-sentence word lists into one deduplicated list,
// preserving first-appearance order and assigning stable ids.
func mergeWords(perSentence [][]review.Word) []review.Word {
	seen := make(map[string]int)
	var words []review.Word

	for _, batch := range perSentence {
		for _, w := range batch {
			if i, ok := seen[w.Word]; ok {
				if words[i].Phonetic == "" && w.Phonetic != "" {
					words[i].Phonetic = w.Phonetic
				}
				continue
			}
			seen[w.Word] = len(words)
			words = append(words, w)
		}
	}
	for i := range words {
		words[i].ID = fmt.Sprintf("%s-%d", words[i].Word, i)
	}
	return words
}
