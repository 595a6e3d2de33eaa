// Package stats aggregates review outcomes into durable, day-bucketed
// learning statistics. Session records live in memory; totals and daily
// buckets are persisted through the store on every session end.
package stats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moriyama/kioku/pkg/review"
)

// DocStore persists the serialized statistics object. Implemented by
// *store.Store.
type DocStore interface {
	StatisticsDoc() []byte
	SaveStatisticsDoc(doc []byte)
}

// DailyStats is one calendar day's cumulative counters. Days are bucketed
// in local time and never pruned.
type DailyStats struct {
	Sessions int           `json:"sessions"`
	Words    int           `json:"words"`
	Time     time.Duration `json:"time"`
	Known    int           `json:"known"`
	Fuzzy    int           `json:"fuzzy"`
	Unknown  int           `json:"unknown"`
}

// Statistics is the durable statistics document.
type Statistics struct {
	TotalSessions      int                   `json:"totalSessions"`
	TotalWordsReviewed int                   `json:"totalWordsReviewed"`
	TotalStudyTime     time.Duration         `json:"totalStudyTime"`
	DailyStats         map[string]DailyStats `json:"dailyStats"`
	LastSessionDate    string                `json:"lastSessionDate,omitempty"`
}

// SessionRecord tracks one in-flight review session. At most one is active
// per aggregator.
type SessionRecord struct {
	ID            string    `json:"id"`
	StartTime     time.Time `json:"startTime"`
	WordsReviewed int       `json:"wordsReviewed"`
	KnownCount    int       `json:"knownCount"`
	FuzzyCount    int       `json:"fuzzyCount"`
	UnknownCount  int       `json:"unknownCount"`
}

// SessionSummary is returned by EndSession.
type SessionSummary struct {
	SessionRecord
	Duration time.Duration `json:"duration"`
}

// DayStats pairs a date key with its counters, for recent-history views.
type DayStats struct {
	Date  string     `json:"date"`
	Stats DailyStats `json:"stats"`
}

// AverageDaily holds per-day averages over days that have any data.
type AverageDaily struct {
	Words    int           `json:"words"`
	Time     time.Duration `json:"time"`
	Sessions int           `json:"sessions"`
}

// Aggregator owns the statistics document and the active session.
type Aggregator struct {
	store  DocStore
	logger *zap.Logger

	statistics Statistics
	current    *SessionRecord

	// now is swappable in tests.
	now func() time.Time
}

// New loads the persisted statistics (starting fresh when none exist or
// the document is unreadable) and returns an aggregator.
func New(store DocStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	a.statistics.DailyStats = make(map[string]DailyStats)
	if doc := store.StatisticsDoc(); doc != nil {
		if err := json.Unmarshal(doc, &a.statistics); err != nil {
			logger.Warn("statistics document unreadable, starting fresh", zap.Error(err))
			a.statistics = Statistics{DailyStats: make(map[string]DailyStats)}
		} else if a.statistics.DailyStats == nil {
			a.statistics.DailyStats = make(map[string]DailyStats)
		}
	}
	return a
}

// dayKey formats t as a local-time YYYY-MM-DD bucket key.
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Statistics returns a copy of the durable totals and buckets.
func (a *Aggregator) Statistics() Statistics {
	out := a.statistics
	out.DailyStats = make(map[string]DailyStats, len(a.statistics.DailyStats))
	for k, v := range a.statistics.DailyStats {
		out.DailyStats[k] = v
	}
	return out
}

// ActiveSession returns the in-flight session record, if any.
func (a *Aggregator) ActiveSession() (SessionRecord, bool) {
	if a.current == nil {
		return SessionRecord{}, false
	}
	return *a.current, true
}

// StartSession begins a new session and returns its id. Starting while a
// session is already active silently replaces it: the discarded session's
// counts never reach the durable totals. Historical behavior, kept as is.
func (a *Aggregator) StartSession() string {
	id := uuid.NewString()
	a.current = &SessionRecord{ID: id, StartTime: a.now()}
	return id
}

// RecordWordReview counts one review outcome against the active session.
// Without an active session it warns and does nothing.
func (a *Aggregator) RecordWordReview(status review.Status) {
	if a.current == nil {
		a.logger.Warn("no active session when recording word review",
			zap.String("status", status.String()))
		return
	}
	a.current.WordsReviewed++
	switch status {
	case review.Known:
		a.current.KnownCount++
	case review.Fuzzy:
		a.current.FuzzyCount++
	case review.Unknown:
		a.current.UnknownCount++
	}
}

// EndSession folds the active session into the global totals and the
// current day's bucket, persists the document and clears the session.
// Returns false (and warns) when no session is active; durable state is
// untouched in that case.
func (a *Aggregator) EndSession() (SessionSummary, bool) {
	if a.current == nil {
		a.logger.Warn("no active session to end")
		return SessionSummary{}, false
	}

	now := a.now()
	duration := now.Sub(a.current.StartTime)
	today := dayKey(now)

	a.statistics.TotalSessions++
	a.statistics.TotalWordsReviewed += a.current.WordsReviewed
	a.statistics.TotalStudyTime += duration
	a.statistics.LastSessionDate = today

	day := a.statistics.DailyStats[today]
	day.Sessions++
	day.Words += a.current.WordsReviewed
	day.Time += duration
	day.Known += a.current.KnownCount
	day.Fuzzy += a.current.FuzzyCount
	day.Unknown += a.current.UnknownCount
	a.statistics.DailyStats[today] = day

	a.save()

	summary := SessionSummary{SessionRecord: *a.current, Duration: duration}
	a.current = nil
	return summary, true
}

func (a *Aggregator) save() {
	doc, err := json.Marshal(a.statistics)
	if err != nil {
		a.logger.Error("marshal statistics", zap.Error(err))
		return
	}
	a.store.SaveStatisticsDoc(doc)
}

// TodayStats returns the current day's bucket, zero-valued when the day
// has no data yet.
func (a *Aggregator) TodayStats() DailyStats {
	return a.statistics.DailyStats[dayKey(a.now())]
}

// RecentStats returns exactly days consecutive calendar days ending today,
// oldest first, synthesizing zero-valued entries for days without data.
func (a *Aggregator) RecentStats(days int) []DayStats {
	out := make([]DayStats, 0, days)
	today := a.now()
	for i := days - 1; i >= 0; i-- {
		key := dayKey(today.AddDate(0, 0, -i))
		out = append(out, DayStats{Date: key, Stats: a.statistics.DailyStats[key]})
	}
	return out
}

// AverageDaily divides the global totals by the number of distinct days
// that have any recorded entry. All zero when no day has data.
func (a *Aggregator) AverageDaily() AverageDaily {
	days := len(a.statistics.DailyStats)
	if days == 0 {
		return AverageDaily{}
	}
	return AverageDaily{
		Words:    (a.statistics.TotalWordsReviewed + days/2) / days,
		Time:     a.statistics.TotalStudyTime / time.Duration(days),
		Sessions: (a.statistics.TotalSessions + days/2) / days,
	}
}

// Clear resets all durable statistics and drops any active session.
func (a *Aggregator) Clear() {
	a.statistics = Statistics{DailyStats: make(map[string]DailyStats)}
	a.current = nil
	a.save()
}

// FormatDuration renders a study duration for display: "2h05m", "3m12s"
// or "45s" depending on magnitude.
func FormatDuration(d time.Duration) string {
	seconds := int(d.Seconds())
	minutes := seconds / 60
	hours := minutes / 60
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh%02dm", hours, minutes%60)
	case minutes > 0:
		return fmt.Sprintf("%dm%02ds", minutes, seconds%60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
