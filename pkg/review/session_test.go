package review

import "testing"

type recordedReview struct {
	wordID string
	status Status
}

type fakeRecorder struct {
	reviews []recordedReview
}

func (f *fakeRecorder) RecordReview(wordID, word string, status Status) {
	f.reviews = append(f.reviews, recordedReview{wordID, status})
}

func TestNewSessionInitialState(t *testing.T) {
	s := NewSession(deck("a", "b"), nil)
	if s.Index() != 0 {
		t.Fatalf("expected index 0, got %d", s.Index())
	}
	if s.IsComplete() {
		t.Fatal("fresh session must not be complete")
	}
	if w, ok := s.CurrentWord(); !ok || w.ID != "a" {
		t.Fatalf("expected current word a, got %v ok=%v", w, ok)
	}
}

func TestEmptySessionIsCompleteImmediately(t *testing.T) {
	s := NewSession(nil, nil)
	if !s.IsComplete() {
		t.Fatal("empty session must be complete")
	}
	if _, ok := s.CurrentWord(); ok {
		t.Fatal("empty session must have no current word")
	}
	// Marking must be a no-op and must not panic.
	if s.MarkStatus(Known) {
		t.Fatal("mark on empty session must report false")
	}
	if got := s.Stats().Progress; got != 0 {
		t.Fatalf("expected progress 0 for empty session, got %v", got)
	}
}

func TestMarkStatusAdvancesAndRecords(t *testing.T) {
	rec := &fakeRecorder{}
	s := NewSession(deck("a", "b", "c"), rec)

	if !s.MarkStatus(Known) {
		t.Fatal("mark should succeed")
	}
	if s.Index() != 1 {
		t.Fatalf("expected index 1, got %d", s.Index())
	}
	if len(rec.reviews) != 1 || rec.reviews[0] != (recordedReview{"a", Known}) {
		t.Fatalf("unexpected recorded reviews: %v", rec.reviews)
	}
}

func TestMarkSameWordReplacesHistoryEntry(t *testing.T) {
	s := NewSession(deck("a", "b"), nil)
	s.MarkStatus(Unknown)
	s.Prev() // back to a
	s.MarkStatus(Known)

	if len(s.History()) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(s.History()))
	}
	if h := s.History()[0]; h.WordID != "a" || h.Status != Known {
		t.Fatalf("expected replaced entry for a/known, got %+v", h)
	}
}

func TestHistoryNeverExceedsWordCount(t *testing.T) {
	s := NewSession(deck("a", "b", "c"), nil)
	for i := 0; i < 10; i++ {
		s.MarkStatus(Fuzzy)
		s.Prev()
	}
	if len(s.History()) > len(s.Words()) {
		t.Fatalf("history %d exceeds word count %d", len(s.History()), len(s.Words()))
	}
}

func TestCompletionScenario(t *testing.T) {
	s := NewSession(deck("a", "b", "c"), nil)
	s.MarkStatus(Known)
	s.MarkStatus(Fuzzy)
	s.MarkStatus(Unknown)

	if !s.IsComplete() {
		t.Fatal("session should be complete")
	}
	got := s.Stats()
	want := SessionStats{Known: 1, Fuzzy: 1, Unknown: 1, Total: 3, Reviewed: 3, Remaining: 0, Progress: 100}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	// Marking past the end is a no-op.
	if s.MarkStatus(Known) {
		t.Fatal("mark after completion must report false")
	}
}

func TestUndoRestoresCursorAndHistory(t *testing.T) {
	rec := &fakeRecorder{}
	s := NewSession(deck("a", "b"), rec)
	s.MarkStatus(Known)

	s.Undo()
	if s.Index() != 0 {
		t.Fatalf("expected index 0 after undo, got %d", s.Index())
	}
	if len(s.History()) != 0 {
		t.Fatalf("expected empty history after undo, got %d entries", len(s.History()))
	}
	// The durable write is not reversed.
	if len(rec.reviews) != 1 {
		t.Fatalf("undo must not touch the recorder, got %v", rec.reviews)
	}
}

func TestUndoOnEmptyHistoryIsNoOp(t *testing.T) {
	s := NewSession(deck("a", "b"), nil)
	s.Next()
	s.Undo() // nothing marked yet: must not move the cursor
	if s.Index() != 1 {
		t.Fatalf("expected index 1, got %d", s.Index())
	}
}

func TestStatsDivergeFromCursorAfterUndo(t *testing.T) {
	s := NewSession(deck("a", "b", "c"), nil)
	s.MarkStatus(Known)
	s.MarkStatus(Fuzzy)
	s.Undo()

	stats := s.Stats()
	if stats.Reviewed != 1 {
		t.Fatalf("expected reviewed=1 from history, got %d", stats.Reviewed)
	}
	if s.Index() != 1 {
		t.Fatalf("expected index 1, got %d", s.Index())
	}
}

func TestNavigationSaturates(t *testing.T) {
	s := NewSession(deck("a", "b"), nil)
	s.Prev()
	if s.Index() != 0 {
		t.Fatalf("prev below 0: index %d", s.Index())
	}
	s.Next()
	s.Next()
	s.Next()
	if s.Index() != 2 {
		t.Fatalf("next above n: index %d", s.Index())
	}
}

func TestResetKeepsWords(t *testing.T) {
	s := NewSession(deck("a", "b"), nil)
	s.MarkStatus(Known)
	s.Reset()

	if s.Index() != 0 || len(s.History()) != 0 {
		t.Fatalf("reset left index=%d history=%d", s.Index(), len(s.History()))
	}
	if len(s.Words()) != 2 {
		t.Fatal("reset must not change the word list")
	}
}

func TestSetWordsResets(t *testing.T) {
	s := NewSession(deck("a"), nil)
	s.MarkStatus(Known)
	s.SetWords(deck("x", "y", "z"))

	if s.Index() != 0 || len(s.History()) != 0 {
		t.Fatal("setWords must reset the session")
	}
	if s.Stats().Total != 3 {
		t.Fatalf("expected total 3, got %d", s.Stats().Total)
	}
}

func TestProgressFraction(t *testing.T) {
	s := NewSession(deck("a", "b", "c", "d"), nil)
	s.MarkStatus(Known)
	if got := s.Stats().Progress; got != 25 {
		t.Fatalf("expected progress 25, got %v", got)
	}
}
