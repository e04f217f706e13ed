// Package analytics derives mood, tag and word-count statistics over a period.
package analytics

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/starford/dagaz/internal/models"
)

const (
	defaultTopTags = 10
	// UnknownMood labels entries whose primary mood could not be resolved.
	UnknownMood = "Unknown"
)

var (
	minDay = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	maxDay = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Reader is the slice of the repository the engine needs.
type Reader interface {
	AllEntries(ctx context.Context) ([]models.JournalEntry, error)
	EntriesByDateRange(ctx context.Context, start, end time.Time) ([]models.JournalEntry, error)
}

// Period bounds a computation. The zero Period covers every entry; a zero From or
// To leaves that side open.
type Period struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether p has neither bound.
func (p Period) IsZero() bool {
	return p.From.IsZero() && p.To.IsZero()
}

// MoodCount is a mood name with its number of entries.
type MoodCount struct {
	Mood  string `json:"mood"`
	Emoji string `json:"emoji,omitempty"`
	Count int    `json:"count"`
}

// TagCount is a tag name with its number of associations.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// MonthlyWordCount is the average entry length of one calendar month.
type MonthlyWordCount struct {
	Month   string  `json:"month"`
	Average float64 `json:"average"`
	Entries int     `json:"entries"`
}

// Report bundles every statistic for one period.
type Report struct {
	Period           Period                          `json:"period"`
	TotalEntries     int                             `json:"total_entries"`
	MoodDistribution map[models.MoodCategory]float64 `json:"mood_distribution"`
	MostFrequentMood *MoodCount                      `json:"most_frequent_mood,omitempty"`
	MoodCounts       map[string]int                  `json:"mood_counts"`
	TopTags          []TagCount                      `json:"top_tags"`
	TagBreakdown     map[string]float64              `json:"tag_breakdown"`
	WordCountTrends  []MonthlyWordCount              `json:"word_count_trends"`
	AverageWordCount float64                         `json:"average_word_count"`
	TotalWordCount   int                             `json:"total_word_count"`
}

// Engine computes statistics straight from the repository on every call.
type Engine struct {
	entries Reader
}

// New creates an Engine over r.
func New(r Reader) *Engine {
	return &Engine{entries: r}
}

func (e *Engine) load(ctx context.Context, p Period) ([]models.JournalEntry, error) {
	var (
		entries []models.JournalEntry
		err     error
	)
	if p.IsZero() {
		entries, err = e.entries.AllEntries(ctx)
	} else {
		from, to := p.From, p.To
		if from.IsZero() {
			from = minDay
		}
		if to.IsZero() {
			to = maxDay
		}
		entries, err = e.entries.EntriesByDateRange(ctx, from, to)
	}
	if err != nil {
		return nil, fmt.Errorf("analytics: read entries: %w", err)
	}
	return entries, nil
}

// MoodDistribution returns the share of entries per primary mood category, in percent.
// Every category is present; entries without a resolved mood only add to the total.
func (e *Engine) MoodDistribution(ctx context.Context, p Period) (map[models.MoodCategory]float64, error) {
	entries, err := e.load(ctx, p)
	if err != nil {
		return nil, err
	}
	return moodDistribution(entries), nil
}

func moodDistribution(entries []models.JournalEntry) map[models.MoodCategory]float64 {
	out := make(map[models.MoodCategory]float64, len(models.MoodCategories))
	for _, c := range models.MoodCategories {
		out[c] = 0
	}
	if len(entries) == 0 {
		return out
	}
	counts := make(map[models.MoodCategory]int)
	for _, en := range entries {
		if en.PrimaryMood != nil {
			counts[en.PrimaryMood.Category]++
		}
	}
	total := float64(len(entries))
	for _, c := range models.MoodCategories {
		out[c] = float64(counts[c]) / total * 100
	}
	return out
}

// MostFrequentMood returns the most common primary mood, counted the same way as
// AllMoodCounts: entries whose mood cannot be resolved count as UnknownMood.
// Ties go to the alphabetically first name. ok is false for an empty period.
func (e *Engine) MostFrequentMood(ctx context.Context, p Period) (MoodCount, bool, error) {
	entries, err := e.load(ctx, p)
	if err != nil {
		return MoodCount{}, false, err
	}
	mc, ok := mostFrequentMood(entries)
	return mc, ok, nil
}

func mostFrequentMood(entries []models.JournalEntry) (MoodCount, bool) {
	byName := make(map[string]*MoodCount)
	for _, en := range entries {
		name, emoji := UnknownMood, ""
		if m := en.PrimaryMood; m != nil {
			name, emoji = m.Name, m.Emoji
		}
		mc, ok := byName[name]
		if !ok {
			mc = &MoodCount{Mood: name, Emoji: emoji}
			byName[name] = mc
		}
		mc.Count++
	}

	var best *MoodCount
	for _, mc := range byName {
		if best == nil || mc.Count > best.Count || (mc.Count == best.Count && mc.Mood < best.Mood) {
			best = mc
		}
	}
	if best == nil {
		return MoodCount{}, false
	}
	return *best, true
}

// MostUsedTags returns the topN tags by association count, highest first, with
// ties ordered by name. topN <= 0 means 10.
func (e *Engine) MostUsedTags(ctx context.Context, p Period, topN int) ([]TagCount, error) {
	entries, err := e.load(ctx, p)
	if err != nil {
		return nil, err
	}
	return mostUsedTags(entries, topN), nil
}

func tagCounts(entries []models.JournalEntry) map[string]int {
	counts := make(map[string]int)
	for _, en := range entries {
		for _, t := range en.Tags {
			counts[t.Name]++
		}
	}
	return counts
}

func mostUsedTags(entries []models.JournalEntry, topN int) []TagCount {
	if topN <= 0 {
		topN = defaultTopTags
	}
	counts := tagCounts(entries)
	out := make([]TagCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, TagCount{Tag: name, Count: n})
	}
	slices.SortFunc(out, func(a, b TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag, b.Tag)
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// TagBreakdown returns, per tag, the percentage of entries that carry it.
func (e *Engine) TagBreakdown(ctx context.Context, p Period) (map[string]float64, error) {
	entries, err := e.load(ctx, p)
	if err != nil {
		return nil, err
	}
	return tagBreakdown(entries), nil
}

func tagBreakdown(entries []models.JournalEntry) map[string]float64 {
	out := make(map[string]float64)
	if len(entries) == 0 {
		return out
	}
	total := float64(len(entries))
	for name, n := range tagCounts(entries) {
		out[name] = float64(n) / total * 100
	}
	return out
}

// WordCountTrends groups entries by calendar month and averages their word counts.
func (e *Engine) WordCountTrends(ctx context.Context, p Period) ([]MonthlyWordCount, error) {
	entries, err := e.load(ctx, p)
	if err != nil {
		return nil, err
	}
	return wordCountTrends(entries), nil
}

func wordCountTrends(entries []models.JournalEntry) []MonthlyWordCount {
	type acc struct{ words, n int }
	months := make(map[string]*acc)
	for _, en := range entries {
		key := en.Date.Format("2006-01")
		a, ok := months[key]
		if !ok {
			a = &acc{}
			months[key] = a
		}
		a.words += en.WordCount
		a.n++
	}
	out := make([]MonthlyWordCount, 0, len(months))
	for key, a := range months {
		out = append(out, MonthlyWordCount{Month: key, Average: float64(a.words) / float64(a.n), Entries: a.n})
	}
	slices.SortFunc(out, func(a, b MonthlyWordCount) int { return cmp.Compare(a.Month, b.Month) })
	return out
}

// AverageWordCount returns the mean word count, or 0 for an empty period.
func (e *Engine) AverageWordCount(ctx context.Context, p Period) (float64, error) {
	entries, err := e.load(ctx, p)
	if err != nil {
		return 0, err
	}
	return averageWordCount(entries), nil
}

func averageWordCount(entries []models.JournalEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	return float64(totalWordCount(entries)) / float64(len(entries))
}

// TotalWordCount sums the word counts in the period.
func (e *Engine) TotalWordCount(ctx context.Context, p Period) (int, error) {
	entries, err := e.load(ctx, p)
	if err != nil {
		return 0, err
	}
	return totalWordCount(entries), nil
}

func totalWordCount(entries []models.JournalEntry) int {
	total := 0
	for _, en := range entries {
		total += en.WordCount
	}
	return total
}

// AllMoodCounts maps each primary mood name to its number of entries.
func (e *Engine) AllMoodCounts(ctx context.Context, p Period) (map[string]int, error) {
	entries, err := e.load(ctx, p)
	if err != nil {
		return nil, err
	}
	return moodCounts(entries), nil
}

func moodCounts(entries []models.JournalEntry) map[string]int {
	out := make(map[string]int)
	for _, en := range entries {
		name := UnknownMood
		if en.PrimaryMood != nil {
			name = en.PrimaryMood.Name
		}
		out[name]++
	}
	return out
}

// Summarize computes the full Report from a single read.
func (e *Engine) Summarize(ctx context.Context, p Period, topN int) (*Report, error) {
	entries, err := e.load(ctx, p)
	if err != nil {
		return nil, err
	}
	r := &Report{
		Period:           p,
		TotalEntries:     len(entries),
		MoodDistribution: moodDistribution(entries),
		MoodCounts:       moodCounts(entries),
		TopTags:          mostUsedTags(entries, topN),
		TagBreakdown:     tagBreakdown(entries),
		WordCountTrends:  wordCountTrends(entries),
		AverageWordCount: averageWordCount(entries),
		TotalWordCount:   totalWordCount(entries),
	}
	if mc, ok := mostFrequentMood(entries); ok {
		r.MostFrequentMood = &mc
	}
	return r, nil
}
