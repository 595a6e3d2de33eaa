package wordbook

import "errors"

// Sentinel errors, checked with errors.Is.
var (
	// ErrNotFound means the wordbook id does not exist.
	ErrNotFound = errors.New("wordbook: not found")
	// ErrLastWordbook rejects deleting the sole remaining wordbook.
	ErrLastWordbook = errors.New("wordbook: cannot delete the last wordbook")
	// ErrEmptyName rejects blank names on create and rename.
	ErrEmptyName = errors.New("wordbook: name cannot be empty")
	// ErrWordbookLimit rejects creation beyond the configured maximum.
	ErrWordbookLimit = errors.New("wordbook: wordbook limit reached")
	// ErrTooManyWords rejects word lists beyond the per-book maximum.
	ErrTooManyWords = errors.New("wordbook: too many words for one wordbook")
	// ErrFetchFailed wraps failures loading an external wordbook's words.
	ErrFetchFailed = errors.New("wordbook: external fetch failed")
)
