package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/testutil"
)

func TestConcurrentCreateSameDay(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	day := testutil.Day(t, "2024-05-01")
	mood := testutil.MoodID(t, db, "Happy")

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		unique    int
		other     []error
	)
	start := make(chan struct{})
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := db.CreateEntry(ctx, models.JournalEntry{
				Date:          day,
				Title:         "writer",
				Content:       "racing for the same day",
				PrimaryMoodID: mood,
				Tags:          []models.Tag{{Name: "race-" + string(rune('a'+i))}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperr.ErrUniqueViolation):
				unique++
			default:
				other = append(other, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, writers-1, unique)

	all, err := db.AllEntries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Len(t, all[0].Tags, 1)

	// Losing writers must not leave their new tags behind.
	tags, err := db.AllTags(ctx)
	require.NoError(t, err)
	var userTags int
	for _, tg := range tags {
		if !tg.IsPrebuilt {
			userTags++
		}
	}
	assert.Equal(t, 1, userTags)
}
