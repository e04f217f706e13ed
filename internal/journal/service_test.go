package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/sse"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/testutil"
)

type recorder struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recorder) PublishEntryEvent(kind string, _ *models.JournalEntry) {
	r.mu.Lock()
	r.kinds = append(r.kinds, kind)
	r.mu.Unlock()
}

func newService(t *testing.T) (*Service, *store.DB, *recorder) {
	t.Helper()
	db := testutil.TestDB(t)
	rec := &recorder{}
	return NewService(db, WithNotifier(rec)), db, rec
}

func validInput(t *testing.T, db *store.DB, day string) EntryInput {
	return EntryInput{
		Date:          testutil.Day(t, day),
		Title:         "A day",
		Content:       "wrote some words",
		PrimaryMoodID: testutil.MoodID(t, db, "Happy"),
	}
}

func TestCreateEntry(t *testing.T) {
	svc, db, rec := newService(t)
	ctx := context.Background()

	in := validInput(t, db, "2024-04-01")
	in.TagNames = []string{"work", "Gardening", "Work"}
	e, err := svc.CreateEntry(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, 3, e.WordCount)
	assert.Equal(t, []string{"Work", "Gardening"}, e.TagNames())
	assert.Equal(t, []string{sse.EntryCreated}, rec.kinds)

	g, err := db.TagByName(ctx, "gardening")
	require.NoError(t, err)
	assert.False(t, g.IsPrebuilt)
}

func TestCreateEntryDuplicateDay(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateEntry(ctx, validInput(t, db, "2024-04-02"))
	require.NoError(t, err)
	_, err = svc.CreateEntry(ctx, validInput(t, db, "2024-04-02"))
	assert.ErrorIs(t, err, apperr.ErrUniqueViolation)
}

func TestCreateEntryValidation(t *testing.T) {
	svc, db, rec := newService(t)
	ctx := context.Background()

	cases := map[string]func(in *EntryInput){
		"blank title":     func(in *EntryInput) { in.Title = "   " },
		"blank content":   func(in *EntryInput) { in.Content = "\n\t" },
		"no mood":         func(in *EntryInput) { in.PrimaryMoodID = 0 },
		"no date":         func(in *EntryInput) { in.Date = time.Time{} },
		"three secondary": func(in *EntryInput) { in.SecondaryMoodIDs = []int64{1, 2, 3} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput(t, db, "2024-04-03")
			mutate(&in)
			_, err := svc.CreateEntry(ctx, in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	in := validInput(t, db, "2024-04-03")
	in.Title = ""
	_, err := svc.CreateEntry(ctx, in)
	fields := FieldErrors(err)
	assert.Contains(t, fields, "title")
	assert.Empty(t, rec.kinds)
}

func TestCreateEntryUnknownTagID(t *testing.T) {
	svc, db, _ := newService(t)
	in := validInput(t, db, "2024-04-04")
	in.TagIDs = []int64{99999}
	_, err := svc.CreateEntry(context.Background(), in)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestFailedWriteCreatesNoTags(t *testing.T) {
	svc, db, rec := newService(t)
	ctx := context.Background()

	in := validInput(t, db, "2024-04-04")
	in.PrimaryMoodID = 9999
	in.TagNames = []string{"Gardening"}
	_, err := svc.CreateEntry(ctx, in)
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = db.TagByName(ctx, "Gardening")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	e, err := svc.CreateEntry(ctx, validInput(t, db, "2024-04-05"))
	require.NoError(t, err)
	upd := InputFromEntry(e)
	upd.SecondaryMoodIDs = []int64{9999}
	upd.TagNames = []string{"Pottery"}
	_, err = svc.UpdateEntry(ctx, e.ID, upd, "")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = db.TagByName(ctx, "Pottery")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, []string{sse.EntryCreated}, rec.kinds)
}

func TestUpdateEntryETag(t *testing.T) {
	svc, db, rec := newService(t)
	ctx := context.Background()

	e, err := svc.CreateEntry(ctx, validInput(t, db, "2024-04-05"))
	require.NoError(t, err)
	etag := ETag(e)

	in := InputFromEntry(e)
	in.Content = "changed content here"
	updated, err := svc.UpdateEntry(ctx, e.ID, in, etag)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.WordCount)
	assert.True(t, updated.UpdatedAt.After(e.UpdatedAt))

	_, err = svc.UpdateEntry(ctx, e.ID, in, etag)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.UpdateEntry(ctx, e.ID, in, `"`+ETag(updated)+`"`)
	require.NoError(t, err)

	assert.Equal(t, []string{sse.EntryCreated, sse.EntryUpdated, sse.EntryUpdated}, rec.kinds)
}

func TestUpdateEntryMoveToTakenDay(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateEntry(ctx, validInput(t, db, "2024-04-06"))
	require.NoError(t, err)
	e, err := svc.CreateEntry(ctx, validInput(t, db, "2024-04-07"))
	require.NoError(t, err)

	in := InputFromEntry(e)
	in.Date = testutil.Day(t, "2024-04-06")
	_, err = svc.UpdateEntry(ctx, e.ID, in, "")
	assert.ErrorIs(t, err, apperr.ErrUniqueViolation)

	_, err = svc.UpdateEntry(ctx, 4242, in, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteEntry(t *testing.T) {
	svc, db, rec := newService(t)
	ctx := context.Background()

	e, err := svc.CreateEntry(ctx, validInput(t, db, "2024-04-08"))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteEntry(ctx, e.ID))
	require.NoError(t, svc.DeleteEntry(ctx, e.ID))

	_, err = svc.Entry(ctx, e.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, []string{sse.EntryCreated, sse.EntryDeleted}, rec.kinds)
}

func TestFind(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()

	a := validInput(t, db, "2024-04-10")
	a.Content = "ran along the river"
	a.TagNames = []string{"Fitness"}
	b := validInput(t, db, "2024-04-11")
	b.Content = "ran to the office"
	b.TagNames = []string{"Work"}
	for _, in := range []EntryInput{a, b} {
		_, err := svc.CreateEntry(ctx, in)
		require.NoError(t, err)
	}
	fitness, err := db.TagByName(ctx, "Fitness")
	require.NoError(t, err)

	got, err := svc.Find(ctx, Query{Text: "RAN"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.Find(ctx, Query{Text: "ran", Filter: store.EntryFilter{TagIDs: []int64{fitness.ID}}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-04-10", models.FormatDay(got[0].Date))
}

func TestListEntries(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()
	for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		_, err := svc.CreateEntry(ctx, validInput(t, db, d))
		require.NoError(t, err)
	}
	p, err := svc.ListEntries(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 3, p.Total)
	assert.Len(t, p.Entries, 2)
}

func TestImportDraft(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	d := parser.Draft{
		Date:           testutil.Day(t, "2024-05-01"),
		Mood:           "grateful",
		SecondaryMoods: []string{"Calm"},
		Tags:           []string{"Family"},
		Body:           "Dinner with everyone.",
	}
	e, err := svc.ImportDraft(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "Wednesday, May 1, 2024", e.Title)
	require.NotNil(t, e.PrimaryMood)
	assert.Equal(t, "Grateful", e.PrimaryMood.Name)
	require.NotNil(t, e.SecondaryMood1)
	assert.Equal(t, "Calm", e.SecondaryMood1.Name)

	d.Date = testutil.Day(t, "2024-05-02")
	d.Mood = "Ecstatic"
	_, err = svc.ImportDraft(ctx, d)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	d.Mood = ""
	_, err = svc.ImportDraft(ctx, d)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestTagsAndSettings(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, "Pottery")
	require.NoError(t, err)
	_, err = svc.CreateTag(ctx, "pottery")
	assert.ErrorIs(t, err, apperr.ErrUniqueViolation)
	_, err = svc.CreateTag(ctx, " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, svc.DeleteTag(ctx, tag.ID))
	work, err := db.TagByName(ctx, "Work")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteTag(ctx, work.ID), apperr.ErrValidation)

	s, err := svc.SetTheme(ctx, models.ThemeDark)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, s.Theme)
	s, err = svc.SetTheme(ctx, " light ")
	require.NoError(t, err)
	assert.Equal(t, models.ThemeLight, s.Theme)
	_, err = svc.SetTheme(ctx, "Sepia")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
