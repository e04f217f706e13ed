package streak

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dagaz/internal/models"
)

type fakeReader struct {
	entries []models.JournalEntry
	err     error
}

func (f *fakeReader) AllEntries(context.Context) ([]models.JournalEntry, error) {
	return f.entries, f.err
}

func (f *fakeReader) EntriesByDateRange(_ context.Context, start, end time.Time) ([]models.JournalEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.JournalEntry
	for _, e := range f.entries {
		if !e.Date.Before(start) && !e.Date.After(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

var base = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func entriesOn(offsets ...int) *fakeReader {
	r := &fakeReader{}
	for i, off := range offsets {
		r.entries = append(r.entries, models.JournalEntry{ID: int64(i + 1), Date: models.AddDays(base, off)})
	}
	return r
}

func at(day time.Time, hour int) func() time.Time {
	return func() time.Time { return day.Add(time.Duration(hour) * time.Hour) }
}

func TestCurrentEmpty(t *testing.T) {
	e := New(entriesOn(), WithClock(at(base, 9)))
	n, err := e.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCurrentEndingToday(t *testing.T) {
	e := New(entriesOn(-2, -1, 0), WithClock(at(base, 20)))
	n, err := e.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCurrentEndingYesterday(t *testing.T) {
	e := New(entriesOn(-3, -2, -1), WithClock(at(base, 8)))
	n, err := e.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCurrentBrokenByGap(t *testing.T) {
	e := New(entriesOn(-5, -4, -3, -2), WithClock(at(base, 8)))
	n, err := e.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	e = New(entriesOn(-4, -2, -1, 0), WithClock(at(base, 8)))
	n, err = e.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestLongest(t *testing.T) {
	cases := []struct {
		name    string
		offsets []int
		want    int
	}{
		{"empty", nil, 0},
		{"single", []int{0}, 1},
		{"two runs", []int{0, 1, 2, 5, 6}, 3},
		{"unordered", []int{6, 0, 5, 2, 1}, 3},
		{"no adjacent", []int{0, 2, 4}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := New(entriesOn(tc.offsets...), WithClock(at(base, 0)))
			n, err := e.Longest(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		})
	}
}

func TestMissedDays(t *testing.T) {
	e := New(entriesOn(0, 2, 4), WithClock(at(base, 0)))
	start, end := base, models.AddDays(base, 4)

	missed, err := e.MissedDays(context.Background(), &start, &end)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{models.AddDays(base, 1), models.AddDays(base, 3)}, missed)
}

func TestMissedDaysDefaultWindow(t *testing.T) {
	e := New(entriesOn(), WithClock(at(base, 15)))
	missed, err := e.MissedDays(context.Background(), nil, nil)
	require.NoError(t, err)
	// 2024-02-10 through 2024-03-10 inclusive.
	require.Len(t, missed, 30)
	assert.Equal(t, base.AddDate(0, -1, 0), missed[0])
	assert.Equal(t, base, missed[len(missed)-1])
}

func TestMissedDaysDefaultWindowAtMonthEnd(t *testing.T) {
	tests := []struct {
		today string
		first string
		days  int
	}{
		{"2026-03-31", "2026-02-28", 32},
		{"2024-03-31", "2024-02-29", 32},
		{"2026-05-31", "2026-04-30", 32},
		{"2026-01-31", "2025-12-31", 32},
		{"2026-03-15", "2026-02-15", 29},
	}
	for _, tt := range tests {
		t.Run(tt.today, func(t *testing.T) {
			today, err := models.ParseDay(tt.today)
			require.NoError(t, err)
			e := New(entriesOn(), WithClock(at(today, 10)))

			missed, err := e.MissedDays(context.Background(), nil, nil)
			require.NoError(t, err)
			require.Len(t, missed, tt.days)
			assert.Equal(t, tt.first, models.FormatDay(missed[0]))
			assert.Equal(t, today, missed[len(missed)-1])
		})
	}
}

func TestMissedDaysInvertedRange(t *testing.T) {
	e := New(entriesOn(), WithClock(at(base, 0)))
	start, end := models.AddDays(base, 3), base
	missed, err := e.MissedDays(context.Background(), &start, &end)
	require.NoError(t, err)
	assert.Empty(t, missed)
}

func TestSummary(t *testing.T) {
	e := New(entriesOn(-6, -5, -4, -1, 0), WithClock(at(base, 12)))
	s, err := e.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Current: 2, Longest: 3, TotalEntries: 5}, s)

	total, err := e.TotalEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, total)
}

func TestStorageFaultPropagates(t *testing.T) {
	boom := errors.New("disk gone")
	e := New(&fakeReader{err: boom})
	_, err := e.Current(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = e.Summary(context.Background())
	assert.ErrorIs(t, err, boom)
}
