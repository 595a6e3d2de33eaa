package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/moriyama/kioku/pkg/review"
)

// maxBodySize bounds article downloads from untrusted URLs.
const maxBodySize = 10 * 1024 * 1024

// Article is an extracted web page ready for word extraction.
type Article struct {
	Title string
	Text  string
}

// FetchArticle downloads a page and extracts its readable content. Ruby
// annotations are stripped before extraction so furigana is not
// duplicated into the text.
func FetchArticle(ctx context.Context, rawURL string) (*Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	// A browser-ish User-Agent avoids 403s from news sites.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ja;q=0.8")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) >= int64(maxBodySize) {
		return nil, fmt.Errorf("response body exceeded %d bytes", maxBodySize)
	}

	body = SanitizeRuby(body)
	parsedURL, _ := url.Parse(rawURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("extract article: %w", err)
	}
	return &Article{Title: article.Title, Text: article.TextContent}, nil
}

// WordsFromText tokenizes text and extracts a deduplicated word list.
// Sentence extraction runs on a worker pool; results keep document
// order regardless of which worker finished first.
func (a *Analyzer) WordsFromText(ctx context.Context, text string) ([]review.Word, error) {
	sentences := a.AnalyzeDocument(text)
	if len(sentences) == 0 {
		return nil, fmt.Errorf("no sentences found")
	}

	workers := runtime.NumCPU()
	pool := NewWorkerPool(workers, workers*2)
	pool.Start(ctx)

	perSentence := make([][]review.Word, len(sentences))
	for i, s := range sentences {
		i, s := i, s
		if err := pool.Submit(ctx, func(context.Context) {
			perSentence[i] = sentenceWords(s)
		}); err != nil {
			pool.Close()
			return nil, err
		}
	}
	pool.Close()

	words := mergeWords(perSentence)
	if len(words) == 0 {
		return nil, fmt.Errorf("no usable words in text")
	}
	return words, nil
}

// WordsFromURL is the full article import pipeline: fetch, extract,
// tokenize, dedupe.
func (a *Analyzer) WordsFromURL(ctx context.Context, rawURL string) (string, []review.Word, error) {
	article, err := FetchArticle(ctx, rawURL)
	if err != nil {
		return "", nil, err
	}
	words, err := a.WordsFromText(ctx, article.Text)
	if err != nil {
		return "", nil, err
	}
	return article.Title, words, nil
}
