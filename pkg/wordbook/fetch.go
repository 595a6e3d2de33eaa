package wordbook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/moriyama/kioku/pkg/review"
)

// maxFetchBody bounds external wordbook downloads.
const maxFetchBody = 10 * 1024 * 1024

// Field aliases accepted from heterogeneous external sources. First match
// wins, keys are compared case-insensitively.
var (
	wordAliases        = []string{"word", "term", "text"}
	phoneticAliases    = []string{"phonetic", "reading", "pinyin", "pronunciation"}
	translationAliases = []string{"translation", "chinese", "definition", "meaning"}
	exampleAliases     = []string{"example", "sentence"}
)

// HTTPFetcher loads external wordbook content as JSON: either a bare array
// of word objects or an object wrapping one under "words".
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher with a sensible timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: 30 * time.Second}}
}

// FetchWords implements Fetcher.
func (f *HTTPFetcher) FetchWords(ctx context.Context, url string) ([]review.Word, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody))
	if err != nil {
		return nil, err
	}
	return decodeWords(body)
}

// decodeWords parses either of the accepted JSON shapes and normalizes the
// field names across source schemas.
func decodeWords(data []byte) ([]review.Word, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		var wrapper struct {
			Words []map[string]any `json:"words"`
		}
		if err2 := json.Unmarshal(data, &wrapper); err2 != nil || wrapper.Words == nil {
			return nil, fmt.Errorf("parse word list: %w", err)
		}
		rows = wrapper.Words
	}

	var words []review.Word
	for i, row := range rows {
		w := normalizeRow(row, i)
		if w.Word == "" {
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("no usable words in source")
	}
	return words, nil
}

func normalizeRow(row map[string]any, index int) review.Word {
	lowered := make(map[string]string, len(row))
	for k, v := range row {
		if s, ok := v.(string); ok {
			lowered[strings.ToLower(k)] = strings.TrimSpace(s)
		}
	}
	pick := func(aliases []string) string {
		for _, a := range aliases {
			if v := lowered[a]; v != "" {
				return v
			}
		}
		return ""
	}

	w := review.Word{
		Word:        pick(wordAliases),
		Phonetic:    pick(phoneticAliases),
		Translation: pick(translationAliases),
		Example:     pick(exampleAliases),
	}
	if id := lowered["id"]; id != "" {
		w.ID = id
	} else if w.Word != "" {
		w.ID = fmt.Sprintf("%s-%d", w.Word, index)
	}
	return w
}
