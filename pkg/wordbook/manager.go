// Package wordbook manages named word collections: creation, switching,
// renaming, deletion and import, with per-book progress counters. Word
// status persistence is delegated to pkg/store. A wordbook is either local
// (word content persisted in full) or external (content fetched on demand
// and cached in memory only).
package wordbook

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moriyama/kioku/pkg/review"
	"github.com/moriyama/kioku/pkg/store"
)

// Kind distinguishes how a wordbook's content is sourced.
type Kind string

const (
	KindLocal    Kind = "local"
	KindExternal Kind = "external"
)

const activeBookKey = "active_wordbook"

// DefaultLimits apply when a Manager is built with zero limits.
var DefaultLimits = Limits{MaxWordbooks: 20, MaxWordsPerBook: 5000}

// Limits are enforced at creation and import time.
type Limits struct {
	MaxWordbooks    int
	MaxWordsPerBook int
}

// Fetcher loads an external wordbook's words from its source URL.
type Fetcher interface {
	FetchWords(ctx context.Context, url string) ([]review.Word, error)
}

// Wordbook is one named word collection.
type Wordbook struct {
	ID        string
	Name      string
	Kind      Kind
	SourceURL string
	CreatedAt time.Time
	UpdatedAt time.Time
	Stats     store.BookStats
	Words     []review.Word

	// fetchToken marks the newest outstanding fetch for this book; results
	// carrying an older token are discarded.
	fetchToken uint64
	loading    bool
}

// Manager owns all wordbooks and tracks which one is active.
type Manager struct {
	mu      sync.Mutex
	store   *store.Store
	fetcher Fetcher
	logger  *zap.Logger
	limits  Limits

	books    map[string]*Wordbook
	activeID string
	fetchSeq uint64

	now func() time.Time
}

// NewManager loads persisted wordbooks. When none exist a default local
// book is created so that at least one wordbook always exists.
func NewManager(st *store.Store, fetcher Fetcher, limits Limits, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.MaxWordbooks <= 0 {
		limits.MaxWordbooks = DefaultLimits.MaxWordbooks
	}
	if limits.MaxWordsPerBook <= 0 {
		limits.MaxWordsPerBook = DefaultLimits.MaxWordsPerBook
	}
	m := &Manager{
		store:   st,
		fetcher: fetcher,
		logger:  logger,
		limits:  limits,
		books:   make(map[string]*Wordbook),
		now:     time.Now,
	}

	records, err := st.LoadWordbooks()
	if err != nil {
		return nil, fmt.Errorf("load wordbooks: %w", err)
	}
	for _, rec := range records {
		m.books[rec.ID] = &Wordbook{
			ID:        rec.ID,
			Name:      rec.Name,
			Kind:      Kind(rec.Kind),
			SourceURL: rec.SourceURL,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
			Stats:     rec.Stats,
			Words:     rec.Words,
		}
	}

	if len(m.books) == 0 {
		if _, err := m.Create("My Words", nil); err != nil {
			return nil, err
		}
	}

	if id, ok := st.Setting(activeBookKey); ok {
		if _, exists := m.books[id]; exists {
			m.activeID = id
		}
	}
	if m.activeID == "" {
		m.activeID = m.anyBookID()
		st.SetSetting(activeBookKey, m.activeID)
	}
	return m, nil
}

func (m *Manager) anyBookID() string {
	for id := range m.books {
		return id
	}
	return ""
}

// Create adds a local wordbook holding words. The first book ever created
// becomes active.
func (m *Manager) Create(name string, words []review.Word) (*Wordbook, error) {
	return m.create(name, KindLocal, "", words)
}

// CreateExternal adds an external wordbook whose words are fetched from
// sourceURL when the book is switched to. Only metadata is persisted.
func (m *Manager) CreateExternal(name, sourceURL string) (*Wordbook, error) {
	return m.create(name, KindExternal, sourceURL, nil)
}

func (m *Manager) create(name string, kind Kind, sourceURL string, words []review.Word) (*Wordbook, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.books) >= m.limits.MaxWordbooks {
		return nil, fmt.Errorf("%w: maximum is %d", ErrWordbookLimit, m.limits.MaxWordbooks)
	}
	if len(words) > m.limits.MaxWordsPerBook {
		return nil, fmt.Errorf("%w: %d exceeds maximum %d", ErrTooManyWords, len(words), m.limits.MaxWordsPerBook)
	}

	now := m.now()
	book := &Wordbook{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		SourceURL: sourceURL,
		CreatedAt: now,
		UpdatedAt: now,
		Stats:     store.BookStats{Total: len(words), NotReviewed: len(words)},
		Words:     words,
	}
	m.books[book.ID] = book
	if len(m.books) == 1 {
		m.activeID = book.ID
		m.store.SetSetting(activeBookKey, book.ID)
	}
	m.persist(book)
	return book, nil
}

// Get returns a wordbook by id. The returned Wordbook stays owned by the
// manager: treat it as read-only and re-fetch after mutating calls.
func (m *Manager) Get(id string) (*Wordbook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return book, nil
}

// List returns all wordbooks, most recently updated first. The books stay
// owned by the manager; see Get.
func (m *Manager) List() []*Wordbook {
	m.mu.Lock()
	defer m.mu.Unlock()
	books := make([]*Wordbook, 0, len(m.books))
	for _, b := range m.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool {
		return books[i].UpdatedAt.After(books[j].UpdatedAt)
	})
	return books
}

// Active returns the currently active wordbook. The book stays owned by
// the manager; see Get.
func (m *Manager) Active() *Wordbook {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books[m.activeID]
}

// ActiveID returns the active wordbook's id.
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// IsLoading reports whether an external fetch for the book is outstanding.
// While true the book's word list is not yet available and review
// operations against it should be deferred.
func (m *Manager) IsLoading(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[id]
	return ok && book.loading
}

// Switch makes the wordbook active. For an external book without cached
// words the content is fetched and normalized first; a fetch failure
// leaves any previous cache untouched and is surfaced to the caller.
// Overlapping switches are safe: each fetch carries a token and a result
// that is no longer the newest is discarded.
func (m *Manager) Switch(ctx context.Context, id string) error {
	m.mu.Lock()
	book, ok := m.books[id]
	if !ok {
		m.mu.Unlock()
		m.logger.Warn("switch to unknown wordbook", zap.String("id", id))
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.activeID = id
	m.store.SetSetting(activeBookKey, id)

	if book.Kind != KindExternal || len(book.Words) > 0 {
		m.mu.Unlock()
		return nil
	}
	if m.fetcher == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: no fetcher configured", ErrFetchFailed)
	}

	m.fetchSeq++
	token := m.fetchSeq
	book.fetchToken = token
	book.loading = true
	url := book.SourceURL
	m.mu.Unlock()

	words, err := m.fetcher.FetchWords(ctx, url)

	m.mu.Lock()
	defer m.mu.Unlock()
	if book.fetchToken != token {
		// A newer switch superseded this fetch; drop the result.
		m.logger.Info("discarding stale wordbook fetch", zap.String("id", id))
		return nil
	}
	book.loading = false
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if len(words) > m.limits.MaxWordsPerBook {
		words = words[:m.limits.MaxWordsPerBook]
	}
	book.Words = words
	book.Stats.Total = len(words)
	book.Stats.NotReviewed = len(words) - book.Stats.Known - book.Stats.Fuzzy - book.Stats.Unknown
	book.UpdatedAt = m.now()
	m.persist(book)
	return nil
}

// Rename changes a wordbook's name. Empty names are rejected with no
// mutation.
func (m *Manager) Rename(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[id]
	if !ok {
		m.logger.Warn("rename unknown wordbook", zap.String("id", id))
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	book.Name = name
	book.UpdatedAt = m.now()
	m.persist(book)
	return nil
}

// Delete removes a wordbook together with its word statuses. Deleting the
// sole remaining wordbook is rejected; deleting the active one reassigns
// active status to an arbitrary remaining book.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		m.logger.Warn("delete unknown wordbook", zap.String("id", id))
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if len(m.books) == 1 {
		return ErrLastWordbook
	}
	delete(m.books, id)
	m.store.DeleteWordbook(id)
	if m.activeID == id {
		m.activeID = m.anyBookID()
		m.store.SetSetting(activeBookKey, m.activeID)
	}
	return nil
}

// AddWords appends words to a local wordbook, enforcing the per-book
// limit against the resulting size.
func (m *Manager) AddWords(id string, words []review.Word) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if len(book.Words)+len(words) > m.limits.MaxWordsPerBook {
		return fmt.Errorf("%w: %d exceeds maximum %d", ErrTooManyWords,
			len(book.Words)+len(words), m.limits.MaxWordsPerBook)
	}
	book.Words = append(book.Words, words...)
	book.Stats.Total = len(book.Words)
	book.Stats.NotReviewed += len(words)
	book.UpdatedAt = m.now()
	m.persist(book)
	return nil
}

// RefreshStats recomputes a book's progress counters from the durable
// word statuses.
func (m *Manager) RefreshStats(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	summary := review.Summarize(book.Words, m.store.BookStatuses(id))
	book.Stats = store.BookStats{
		Total:       summary.Total,
		Known:       summary.Known,
		Fuzzy:       summary.Fuzzy,
		Unknown:     summary.Unknown - summary.NeverReviewed,
		NotReviewed: summary.NeverReviewed,
	}
	book.UpdatedAt = m.now()
	m.persist(book)
	return nil
}

// ClearAllStats resets learning progress for every wordbook: counters go
// back to not-reviewed and the durable word statuses are dropped.
func (m *Manager) ClearAllStats() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, book := range m.books {
		m.store.ResetBookStatuses(id)
		book.Stats = store.BookStats{Total: len(book.Words), NotReviewed: len(book.Words)}
		book.UpdatedAt = m.now()
		m.persist(book)
	}
}

// persist writes the book through to the store. Callers hold m.mu.
func (m *Manager) persist(book *Wordbook) {
	m.store.SaveWordbook(store.WordbookRecord{
		ID:        book.ID,
		Name:      book.Name,
		Kind:      string(book.Kind),
		SourceURL: book.SourceURL,
		CreatedAt: book.CreatedAt,
		UpdatedAt: book.UpdatedAt,
		Stats:     book.Stats,
		Words:     book.Words,
	})
}
