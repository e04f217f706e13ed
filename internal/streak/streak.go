// Package streak computes journaling streaks and missed days from the entry store.
package streak

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/starford/dagaz/internal/models"
)

// Reader is the slice of the repository the engine needs.
type Reader interface {
	AllEntries(ctx context.Context) ([]models.JournalEntry, error)
	EntriesByDateRange(ctx context.Context, start, end time.Time) ([]models.JournalEntry, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock that decides what "today" is.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine derives streak statistics. It holds no state between calls.
type Engine struct {
	entries Reader
	now     func() time.Time
}

// New creates an Engine over r.
func New(r Reader, opts ...Option) *Engine {
	e := &Engine{entries: r, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summary bundles the streak figures shown on dashboards.
type Summary struct {
	Current      int `json:"current_streak"`
	Longest      int `json:"longest_streak"`
	TotalEntries int `json:"total_entries"`
}

func (e *Engine) today() time.Time {
	return models.Day(e.now())
}

// days returns the set of calendar days that have an entry.
func (e *Engine) days(ctx context.Context) (map[time.Time]struct{}, error) {
	entries, err := e.entries.AllEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("streak: read entries: %w", err)
	}
	return daySet(entries), nil
}

func daySet(entries []models.JournalEntry) map[time.Time]struct{} {
	set := make(map[time.Time]struct{}, len(entries))
	for _, en := range entries {
		set[models.Day(en.Date)] = struct{}{}
	}
	return set
}

// Current returns the number of consecutive days ending today, or ending
// yesterday when today has no entry yet.
func (e *Engine) Current(ctx context.Context) (int, error) {
	set, err := e.days(ctx)
	if err != nil {
		return 0, err
	}
	return current(set, e.today()), nil
}

func current(set map[time.Time]struct{}, today time.Time) int {
	anchor := today
	if _, ok := set[anchor]; !ok {
		anchor = models.AddDays(today, -1)
		if _, ok := set[anchor]; !ok {
			return 0
		}
	}
	n := 0
	for d := anchor; ; d = models.AddDays(d, -1) {
		if _, ok := set[d]; !ok {
			return n
		}
		n++
	}
}

// Longest returns the longest run of consecutive days with entries.
func (e *Engine) Longest(ctx context.Context) (int, error) {
	set, err := e.days(ctx)
	if err != nil {
		return 0, err
	}
	return longest(set), nil
}

func longest(set map[time.Time]struct{}) int {
	if len(set) == 0 {
		return 0
	}
	days := make([]time.Time, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if models.AddDays(days[i-1], 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
	}
	return best
}

// MissedDays lists every day in [start, end] without an entry, ascending.
// A nil start defaults to one month before today and a nil end to today.
func (e *Engine) MissedDays(ctx context.Context, start, end *time.Time) ([]time.Time, error) {
	today := e.today()
	from := models.AddMonths(today, -1)
	if start != nil {
		from = models.Day(*start)
	}
	to := today
	if end != nil {
		to = models.Day(*end)
	}
	if from.After(to) {
		return []time.Time{}, nil
	}

	entries, err := e.entries.EntriesByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("streak: read range: %w", err)
	}
	set := daySet(entries)

	missed := []time.Time{}
	for d := from; !d.After(to); d = models.AddDays(d, 1) {
		if _, ok := set[d]; !ok {
			missed = append(missed, d)
		}
	}
	return missed, nil
}

// TotalEntries returns the number of stored entries.
func (e *Engine) TotalEntries(ctx context.Context) (int, error) {
	entries, err := e.entries.AllEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("streak: read entries: %w", err)
	}
	return len(entries), nil
}

// Summary computes current, longest and total from a single read.
func (e *Engine) Summary(ctx context.Context) (Summary, error) {
	entries, err := e.entries.AllEntries(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("streak: read entries: %w", err)
	}
	set := daySet(entries)
	return Summary{
		Current:      current(set, e.today()),
		Longest:      longest(set),
		TotalEntries: len(entries),
	}, nil
}
