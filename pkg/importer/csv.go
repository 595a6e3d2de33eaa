package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/moriyama/kioku/pkg/review"
)

// Header aliases accepted in import files. First matching column wins,
// comparison is case-insensitive.
var (
	csvWordAliases        = []string{"word", "term", "text"}
	csvPhoneticAliases    = []string{"phonetic", "reading", "pinyin", "pronunciation"}
	csvTranslationAliases = []string{"translation", "chinese", "definition", "meaning"}
	csvExampleAliases     = []string{"example", "sentence"}
)

// ReadCSV parses a word list from CSV. The first row must be a header
// naming word and translation columns; rows missing either value are
// skipped. Word ids are derived from the word and its row position so
// re-importing the same file yields the same ids.
func ReadCSV(r io.Reader) ([]review.Word, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := headerColumns(header)
	wordCol, ok := cols.pick(csvWordAliases)
	if !ok {
		return nil, fmt.Errorf("csv header has no word column (expected one of %s)",
			strings.Join(csvWordAliases, ", "))
	}
	translationCol, ok := cols.pick(csvTranslationAliases)
	if !ok {
		return nil, fmt.Errorf("csv header has no translation column (expected one of %s)",
			strings.Join(csvTranslationAliases, ", "))
	}
	phoneticCol, _ := cols.pick(csvPhoneticAliases)
	exampleCol, _ := cols.pick(csvExampleAliases)

	var words []review.Word
	for row := 0; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row+1, err)
		}

		word := field(record, wordCol)
		translation := field(record, translationCol)
		if word == "" || translation == "" {
			continue
		}
		words = append(words, review.Word{
			ID:          fmt.Sprintf("%s-%d", word, row),
			Word:        word,
			Phonetic:    field(record, phoneticCol),
			Translation: translation,
			Example:     field(record, exampleCol),
		})
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("no usable words in csv")
	}
	return words, nil
}

// ReadCSVFile is ReadCSV over a file on disk.
func ReadCSVFile(path string) ([]review.Word, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

type columns map[string]int

func headerColumns(header []string) columns {
	cols := make(columns, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, exists := cols[name]; !exists {
			cols[name] = i
		}
	}
	return cols
}

// pick returns the index of the first alias present in the header.
func (c columns) pick(aliases []string) (int, bool) {
	for _, a := range aliases {
		if i, ok := c[a]; ok {
			return i, true
		}
	}
	return -1, false
}

func field(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}
