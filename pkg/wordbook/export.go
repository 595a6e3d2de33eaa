package wordbook

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// ExportCSV renders a wordbook as CSV with the canonical header. External
// books export whatever is currently cached in memory.
func (m *Manager) ExportCSV(id string) (string, error) {
	book, err := m.Get(id)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write([]string{"word", "phonetic", "translation", "example"}); err != nil {
		return "", err
	}
	for _, word := range book.Words {
		if err := w.Write([]string{word.Word, word.Phonetic, word.Translation, word.Example}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return sb.String(), nil
}
