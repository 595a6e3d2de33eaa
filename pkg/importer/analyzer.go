// Package importer turns external material into word lists: CSV files,
// web articles and raw text. Japanese text is tokenized with kagome so
// that imported words carry readings and an example sentence.
package importer

import (
	"regexp"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/moriyama/kioku/pkg/review"
)

// Token is a single analyzed unit of text.
type Token struct {
	Surface  string   // text as it appears (e.g. "行っ")
	BaseForm string   // dictionary form (e.g. "行く")
	Reading  string   // pronunciation in katakana (e.g. "イッ")
	Features []string // raw IPA feature vector
	// PrimaryPOS holds the first part-of-speech label if available.
	PrimaryPOS string
}

// Sentence is a sentence together with its tokens.
type Sentence struct {
	Text   string
	Tokens []Token
}

// Analyzer segments Japanese text. Safe for concurrent use.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer creates a tokenizer backed by the bundled IPA dictionary.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

// Analyze breaks text into tokens with readings and base forms.
func (a *Analyzer) Analyze(text string) []Token {
	var result []Token
	for _, token := range a.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}

		// IPA features: 0 POS, 1-3 sub-POS, 4-5 conjugation, 6 base form,
		// 7 reading, 8 pronunciation.
		features := token.Features()

		base := token.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}
		primaryPOS := ""
		if len(features) > 0 {
			primaryPOS = features[0]
		}

		result = append(result, Token{
			Surface:    token.Surface,
			BaseForm:   base,
			Reading:    reading,
			Features:   features,
			PrimaryPOS: primaryPOS,
		})
	}
	return result
}

// AnalyzeDocument splits the text into sentences and tokenizes each one.
func (a *Analyzer) AnalyzeDocument(text string) []Sentence {
	var result []Sentence
	for _, s := range splitSentences(text) {
		if strings.TrimSpace(s) == "" {
			continue
		}
		result = append(result, Sentence{Text: s, Tokens: a.Analyze(s)})
	}
	return result
}

// AnnotateReadings fills in missing phonetics by tokenizing the word
// itself. Words that already carry a phonetic are left untouched.
func (a *Analyzer) AnnotateReadings(words []review.Word) []review.Word {
	out := make([]review.Word, len(words))
	copy(out, words)
	for i := range out {
		if out[i].Phonetic != "" {
			continue
		}
		var sb strings.Builder
		for _, t := range a.Analyze(out[i].Word) {
			sb.WriteString(ToHiragana(t.Reading))
		}
		out[i].Phonetic = sb.String()
	}
	return out
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		// Split on common Japanese sentence delimiters and newlines.
		if r == '。' || r == '！' || r == '？' || r == '\n' {
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

// ToHiragana converts katakana runes to their hiragana equivalents.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

var (
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby strips ruby annotations (<rt>, <rp>) from HTML so that
// extracted text does not duplicate furigana after the base word
// (e.g. "漢字" turning into "漢字かんじ").
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	return reRP.ReplaceAll(cleaned, []byte{})
}
