package importer

import (
	"strings"
	"testing"
)

func TestReadCSVCanonicalHeader(t *testing.T) {
	words, err := ReadCSV(strings.NewReader(
		"word,phonetic,translation,example\n" +
			"犬,いぬ,dog,犬が好き\n" +
			"猫,ねこ,cat,\n"))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if words[0].ID != "犬-0" || words[1].ID != "猫-1" {
		t.Errorf("unexpected ids: %q, %q", words[0].ID, words[1].ID)
	}
	if words[0].Phonetic != "いぬ" || words[0].Translation != "dog" || words[0].Example != "犬が好き" {
		t.Errorf("row not mapped: %+v", words[0])
	}
}

func TestReadCSVHeaderAliases(t *testing.T) {
	words, err := ReadCSV(strings.NewReader(
		"Term,Reading,Meaning,Sentence\n" +
			"食べる,たべる,to eat,パンを食べる\n"))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	w := words[0]
	if w.Word != "食べる" || w.Phonetic != "たべる" || w.Translation != "to eat" || w.Example != "パンを食べる" {
		t.Errorf("aliases not mapped: %+v", w)
	}
}

func TestReadCSVSkipsInvalidRows(t *testing.T) {
	words, err := ReadCSV(strings.NewReader(
		"word,translation\n" +
			",orphan\n" + // no word
			"鳥\n" + // no translation
			"犬,dog\n"))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(words) != 1 || words[0].Word != "犬" {
		t.Fatalf("expected only the valid row, got %+v", words)
	}
	// Ids track the source row, not the surviving index.
	if words[0].ID != "犬-2" {
		t.Errorf("expected id 犬-2, got %q", words[0].ID)
	}
}

func TestReadCSVLongRows(t *testing.T) {
	words, err := ReadCSV(strings.NewReader(
		"word,phonetic,translation\n" +
			"猫,ねこ,cat,extra,columns\n"))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(words) != 1 {
		t.Fatalf("expected 1 word, got %d", len(words))
	}
	if words[0].Translation != "cat" {
		t.Errorf("long row mis-mapped: %+v", words[0])
	}
}

func TestReadCSVErrors(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("phonetic,translation\nいぬ,dog\n")); err == nil {
		t.Error("expected error for header without a word column")
	}
	if _, err := ReadCSV(strings.NewReader("word,phonetic\n犬,いぬ\n")); err == nil {
		t.Error("expected error for header without a translation column")
	}
	if _, err := ReadCSV(strings.NewReader("word,translation\n")); err == nil {
		t.Error("expected error for csv with no data rows")
	}
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
}
