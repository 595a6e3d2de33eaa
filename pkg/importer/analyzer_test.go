package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/moriyama/kioku/pkg/review"
)

func TestAnalyzeSimpleSentence(t *testing.T) {
	analyzer, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}

	tokens := analyzer.Analyze("私は猫が好きです。")
	if len(tokens) == 0 {
		t.Fatal("No tokens found")
	}

	found := false
	for _, tok := range tokens {
		if tok.Surface == "猫" {
			found = true
			if tok.PrimaryPOS == "" {
				t.Error("expected PrimaryPOS to be set")
			}
			if ToHiragana(tok.Reading) != "ねこ" {
				t.Errorf("expected reading ねこ, got %q", tok.Reading)
			}
		}
	}
	if !found {
		t.Error("expected to find token 猫")
	}
}

func TestAnalyzeDocumentSplitsSentences(t *testing.T) {
	analyzer, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}

	sentences := analyzer.AnalyzeDocument("猫が好き。犬も好き！鳥は？")
	if len(sentences) != 3 {
		t.Fatalf("expected 3 sentences, got %d", len(sentences))
	}
	for _, s := range sentences {
		if len(s.Tokens) == 0 {
			t.Errorf("sentence has no tokens: %q", s.Text)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("一文目。二文目！\n三文目")
	want := []string{"一文目。", "二文目！", "\n", "三文目"}
	if len(got) != len(want) {
		t.Fatalf("expected %d parts, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("part %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestToHiragana(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ネコ", "ねこ"},
		{"イッ", "いっ"},
		{"すでに", "すでに"},
		{"ABCカタカナ", "ABCかたかな"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ToHiragana(tt.in); got != tt.want {
			t.Errorf("ToHiragana(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeRuby(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple Ruby",
			input:    "<ruby>漢字<rt>かんじ</rt></ruby>",
			expected: "<ruby>漢字</ruby>",
		},
		{
			name:     "Ruby with RP",
			input:    "<ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby>",
			expected: "<ruby>漢字</ruby>",
		},
		{
			name:     "Attributes in tags",
			input:    "<ruby class='test'>漢字<rt class='reading'>かんじ</rt></ruby>",
			expected: "<ruby class='test'>漢字</ruby>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(SanitizeRuby([]byte(tt.input))); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAnnotateReadings(t *testing.T) {
	analyzer, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}

	words := analyzer.AnnotateReadings([]review.Word{
		{Word: "猫"},
		{Word: "犬", Phonetic: "custom"},
	})
	if words[0].Phonetic != "ねこ" {
		t.Errorf("expected ねこ, got %q", words[0].Phonetic)
	}
	if words[1].Phonetic != "custom" {
		t.Errorf("existing phonetic must be preserved, got %q", words[1].Phonetic)
	}
}

func TestWordsFromText(t *testing.T) {
	analyzer, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}

	words, err := analyzer.WordsFromText(context.Background(), "私は猫が好きです。犬も好きです。")
	if err != nil {
		t.Fatalf("WordsFromText failed: %v", err)
	}

	byWord := make(map[string]review.Word)
	for _, w := range words {
		byWord[w.Word] = w
	}
	for _, want := range []string{"猫", "犬"} {
		if _, ok := byWord[want]; !ok {
			t.Errorf("expected word %q in result, got %v", want, wordList(words))
		}
	}
	// Particles and copulas are not flashcard material.
	for _, banned := range []string{"は", "が", "です"} {
		if _, ok := byWord[banned]; ok {
			t.Errorf("did not expect %q in result", banned)
		}
	}

	cat := byWord["猫"]
	if cat.ID == "" || !strings.Contains(cat.ID, "猫") {
		t.Errorf("expected stable id containing the word, got %q", cat.ID)
	}
	if !strings.Contains(cat.Example, "猫") {
		t.Errorf("expected example sentence containing the word, got %q", cat.Example)
	}
}

func TestWordsFromTextEmpty(t *testing.T) {
	analyzer, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	if _, err := analyzer.WordsFromText(context.Background(), "   "); err == nil {
		t.Error("expected error for blank text")
	}
}

func wordList(words []review.Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Word
	}
	return out
}

func TestMergeWordsDedupes(t *testing.T) {
	merged := mergeWords([][]review.Word{
		{{Word: "猫", Example: "一"}, {Word: "犬"}},
		{{Word: "猫", Phonetic: "ねこ", Example: "二"}},
	})
	if len(merged) != 2 {
		t.Fatalf("expected 2 words, got %d", len(merged))
	}
	if merged[0].Word != "猫" || merged[1].Word != "犬" {
		t.Errorf("first-appearance order not preserved: %v", wordList(merged))
	}
	if merged[0].Example != "一" {
		t.Errorf("first example must win, got %q", merged[0].Example)
	}
	if merged[0].Phonetic != "ねこ" {
		t.Errorf("later reading should fill an empty phonetic, got %q", merged[0].Phonetic)
	}
	if merged[0].ID != "猫-0" || merged[1].ID != "犬-1" {
		t.Errorf("unexpected ids: %q, %q", merged[0].ID, merged[1].ID)
	}
}
