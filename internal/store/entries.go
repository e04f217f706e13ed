package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
)

const (
	defaultPageSize = 20
	tagBatchSize    = 500
)

// entrySelect resolves all three mood references in one pass. LEFT JOINs keep an
// entry visible even if a mood row is missing; the mood pointer is then nil.
const entrySelect = `
SELECT e.id, e.entry_date, e.title, e.content, e.created_at, e.updated_at,
       e.word_count, e.category,
       e.primary_mood_id, e.secondary_mood1_id, e.secondary_mood2_id,
       pm.id, pm.name, pm.category, pm.emoji,
       s1.id, s1.name, s1.category, s1.emoji,
       s2.id, s2.name, s2.category, s2.emoji
FROM journal_entries e
LEFT JOIN moods pm ON pm.id = e.primary_mood_id
LEFT JOIN moods s1 ON s1.id = e.secondary_mood1_id
LEFT JOIN moods s2 ON s2.id = e.secondary_mood2_id`

const newestFirst = ` ORDER BY e.entry_date DESC`

type moodCols struct {
	id       sql.NullInt64
	name     sql.NullString
	category sql.NullString
	emoji    sql.NullString
}

func (m *moodCols) dest() []any {
	return []any{&m.id, &m.name, &m.category, &m.emoji}
}

func (m *moodCols) mood() *models.Mood {
	if !m.id.Valid {
		return nil
	}
	return &models.Mood{
		ID:       m.id.Int64,
		Name:     m.name.String,
		Category: models.MoodCategory(m.category.String),
		Emoji:    m.emoji.String,
	}
}

func scanEntry(rows *sql.Rows) (models.JournalEntry, error) {
	var (
		e          models.JournalEntry
		day        string
		s1, s2     sql.NullInt64
		pm, m1, m2 moodCols
	)
	dest := []any{
		&e.ID, &day, &e.Title, &e.Content, &e.CreatedAt, &e.UpdatedAt,
		&e.WordCount, &e.Category,
		&e.PrimaryMoodID, &s1, &s2,
	}
	dest = append(dest, pm.dest()...)
	dest = append(dest, m1.dest()...)
	dest = append(dest, m2.dest()...)
	if err := rows.Scan(dest...); err != nil {
		return e, err
	}
	date, err := models.ParseDay(day)
	if err != nil {
		return e, fmt.Errorf("parse entry date %q: %w", day, err)
	}
	e.Date = date
	e.SecondaryMood1ID = idPtr(s1)
	e.SecondaryMood2ID = idPtr(s2)
	e.PrimaryMood = pm.mood()
	e.SecondaryMood1 = m1.mood()
	e.SecondaryMood2 = m2.mood()
	e.Tags = []models.Tag{}
	return e, nil
}

// queryEntries runs entrySelect with an optional WHERE clause and tail, then
// attaches tags so callers never see a partially populated entry.
func (db *DB) queryEntries(ctx context.Context, where, tail string, args ...any) ([]models.JournalEntry, error) {
	q := entrySelect
	if where != "" {
		q += " WHERE " + where
	}
	q += tail

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query entries: %w", err)
	}
	defer rows.Close()

	out := []models.JournalEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate entries: %w", err)
	}
	if err := db.attachTags(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachTags loads the tag associations of entries with batched IN queries.
func (db *DB) attachTags(ctx context.Context, entries []models.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	index := make(map[int64]int, len(entries))
	ids := make([]int64, 0, len(entries))
	for i, e := range entries {
		index[e.ID] = i
		ids = append(ids, e.ID)
	}

	for start := 0; start < len(ids); start += tagBatchSize {
		end := min(start+tagBatchSize, len(ids))
		batch := ids[start:end]
		rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
			SELECT et.entry_id, t.id, t.name, t.is_prebuilt
			FROM entry_tags et
			JOIN tags t ON t.id = et.tag_id
			WHERE et.entry_id IN (%s)
			ORDER BY et.rowid`, placeholders(len(batch))), int64Args(batch)...)
		if err != nil {
			return fmt.Errorf("store: query entry tags: %w", err)
		}
		for rows.Next() {
			var entryID int64
			var t models.Tag
			if err := rows.Scan(&entryID, &t.ID, &t.Name, &t.IsPrebuilt); err != nil {
				rows.Close()
				return fmt.Errorf("store: scan entry tag: %w", err)
			}
			i := index[entryID]
			entries[i].Tags = append(entries[i].Tags, t)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return fmt.Errorf("store: iterate entry tags: %w", err)
		}
	}
	return nil
}

func (db *DB) oneEntry(ctx context.Context, where string, args ...any) (*models.JournalEntry, error) {
	entries, err := db.queryEntries(ctx, where, " LIMIT 1", args...)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperr.ErrNotFound
	}
	return &entries[0], nil
}

// EntryByDate returns the entry recorded for the calendar day of date.
func (db *DB) EntryByDate(ctx context.Context, date time.Time) (*models.JournalEntry, error) {
	return db.oneEntry(ctx, "e.entry_date = ?", models.FormatDay(date))
}

// EntryByID returns the entry with the given id.
func (db *DB) EntryByID(ctx context.Context, id int64) (*models.JournalEntry, error) {
	return db.oneEntry(ctx, "e.id = ?", id)
}

// AllEntries returns every entry, newest day first.
func (db *DB) AllEntries(ctx context.Context) ([]models.JournalEntry, error) {
	return db.queryEntries(ctx, "", newestFirst)
}

// EntriesByDateRange returns entries whose day falls in [start, end], newest first.
func (db *DB) EntriesByDateRange(ctx context.Context, start, end time.Time) ([]models.JournalEntry, error) {
	return db.queryEntries(ctx, "e.entry_date BETWEEN ? AND ?", newestFirst,
		models.FormatDay(start), models.FormatDay(end))
}

// SearchEntries matches term case-insensitively against title or content.
// A blank term returns every entry.
func (db *DB) SearchEntries(ctx context.Context, term string) ([]models.JournalEntry, error) {
	if strings.TrimSpace(term) == "" {
		return db.AllEntries(ctx)
	}
	needle := strings.ToLower(term)
	return db.queryEntries(ctx, "instr(fold(e.title), ?) > 0 OR instr(fold(e.content), ?) > 0", newestFirst,
		needle, needle)
}

// FilterEntries applies the conjunction of the filters set in f.
func (db *DB) FilterEntries(ctx context.Context, f EntryFilter) ([]models.JournalEntry, error) {
	var (
		conds []string
		args  []any
	)
	if f.Start != nil {
		conds = append(conds, "e.entry_date >= ?")
		args = append(args, models.FormatDay(*f.Start))
	}
	if f.End != nil {
		conds = append(conds, "e.entry_date <= ?")
		args = append(args, models.FormatDay(*f.End))
	}
	if len(f.MoodIDs) > 0 {
		ph := placeholders(len(f.MoodIDs))
		conds = append(conds, fmt.Sprintf(
			"(e.primary_mood_id IN (%[1]s) OR e.secondary_mood1_id IN (%[1]s) OR e.secondary_mood2_id IN (%[1]s))", ph))
		moodArgs := int64Args(f.MoodIDs)
		args = append(args, moodArgs...)
		args = append(args, moodArgs...)
		args = append(args, moodArgs...)
	}
	if len(f.TagIDs) > 0 {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM entry_tags et WHERE et.entry_id = e.id AND et.tag_id IN (%s))",
			placeholders(len(f.TagIDs))))
		args = append(args, int64Args(f.TagIDs)...)
	}
	return db.queryEntries(ctx, strings.Join(conds, " AND "), newestFirst, args...)
}

// EntryExistsForDate reports whether an entry is recorded for the day of date.
func (db *DB) EntryExistsForDate(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM journal_entries WHERE entry_date = ?)`, models.FormatDay(date)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: entry exists: %w", err)
	}
	return exists, nil
}

// EntriesPaginated returns one 1-indexed page of entries, newest first, together
// with the total number of entries.
func (db *DB) EntriesPaginated(ctx context.Context, page, size int) ([]models.JournalEntry, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal_entries`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count entries: %w", err)
	}

	entries, err := db.queryEntries(ctx, "", newestFirst+" LIMIT ? OFFSET ?", size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// CreateEntry stamps timestamps, truncates the date to its day, recomputes the
// word count and inserts the entry with its tag associations atomically.
// A second entry for the same day fails with apperr.ErrUniqueViolation.
func (db *DB) CreateEntry(ctx context.Context, e models.JournalEntry) (*models.JournalEntry, error) {
	now := db.now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
		INSERT INTO journal_entries (
			entry_date, title, content, created_at, updated_at, word_count, category,
			primary_mood_id, secondary_mood1_id, secondary_mood2_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		models.FormatDay(e.Date), e.Title, e.Content, now, now, models.CountWords(e.Content), e.Category,
		e.PrimaryMoodID, nullID(e.SecondaryMood1ID), nullID(e.SecondaryMood2ID))
	if err != nil {
		return nil, mapErr("create entry", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: create entry id: %w", err)
	}
	if err := insertEntryTags(ctx, tx, id, e.Tags); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr("commit create entry", err)
	}
	return db.EntryByID(ctx, id)
}

// UpdateEntry persists e by id. CreatedAt is preserved, UpdatedAt is refreshed and
// always moves forward, and the tag associations are replaced.
func (db *DB) UpdateEntry(ctx context.Context, e models.JournalEntry) (*models.JournalEntry, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var prev time.Time
	err = tx.QueryRowContext(ctx, `SELECT updated_at FROM journal_entries WHERE id = ?`, e.ID).Scan(&prev)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load entry %d: %w", e.ID, err)
	}

	now := db.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE journal_entries SET
			entry_date = ?, title = ?, content = ?, updated_at = ?, word_count = ?, category = ?,
			primary_mood_id = ?, secondary_mood1_id = ?, secondary_mood2_id = ?
		WHERE id = ?`,
		models.FormatDay(e.Date), e.Title, e.Content, now, models.CountWords(e.Content), e.Category,
		e.PrimaryMoodID, nullID(e.SecondaryMood1ID), nullID(e.SecondaryMood2ID), e.ID)
	if err != nil {
		return nil, mapErr("update entry", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags WHERE entry_id = ?`, e.ID); err != nil {
		return nil, fmt.Errorf("store: clear entry tags: %w", err)
	}
	if err := insertEntryTags(ctx, tx, e.ID, e.Tags); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr("commit update entry", err)
	}
	return db.EntryByID(ctx, e.ID)
}

// DeleteEntry removes an entry and, by cascade, its tag associations.
// Deleting a missing entry is a no-op.
func (db *DB) DeleteEntry(ctx context.Context, id int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete entry: %w", err)
	}
	return nil
}

// insertEntryTags associates tags with an entry. Tags without an id are user
// tags looked up or created by name in the same transaction, so a failed write
// never leaves new tags behind.
func insertEntryTags(ctx context.Context, q querier, entryID int64, tags []models.Tag) error {
	for _, t := range tags {
		tagID := t.ID
		if tagID == 0 {
			id, err := ensureTag(ctx, q, t.Name)
			if err != nil {
				return err
			}
			tagID = id
		}
		// OR IGNORE drops duplicate tag ids; foreign key failures still surface.
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO entry_tags (entry_id, tag_id) VALUES (?, ?)`, entryID, tagID); err != nil {
			return mapErr("insert entry tag", err)
		}
	}
	return nil
}

func ensureTag(ctx context.Context, q querier, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO tags (name, is_prebuilt) VALUES (?, 0)`, name); err != nil {
		return 0, mapErr("create tag", err)
	}
	var id int64
	if err := q.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("store: load tag %q: %w", name, err)
	}
	return id, nil
}
