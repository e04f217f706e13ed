package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
)

// AllMoods returns the mood catalog ordered by category, then name.
func (db *DB) AllMoods(ctx context.Context) ([]models.Mood, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, category, emoji FROM moods ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("store: list moods: %w", err)
	}
	defer rows.Close()

	out := []models.Mood{}
	for rows.Next() {
		var m models.Mood
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.Emoji); err != nil {
			return nil, fmt.Errorf("store: scan mood: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MoodByID returns a single mood.
func (db *DB) MoodByID(ctx context.Context, id int64) (*models.Mood, error) {
	return db.oneMood(ctx, `SELECT id, name, category, emoji FROM moods WHERE id = ?`, id)
}

// MoodByName looks a mood up by name, ignoring case.
func (db *DB) MoodByName(ctx context.Context, name string) (*models.Mood, error) {
	return db.oneMood(ctx, `SELECT id, name, category, emoji FROM moods WHERE fold(name) = ? ORDER BY id LIMIT 1`,
		strings.ToLower(strings.TrimSpace(name)))
}

func (db *DB) oneMood(ctx context.Context, q string, args ...any) (*models.Mood, error) {
	var m models.Mood
	err := db.conn.QueryRowContext(ctx, q, args...).Scan(&m.ID, &m.Name, &m.Category, &m.Emoji)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get mood: %w", err)
	}
	return &m, nil
}

// AllTags returns every tag ordered by name.
func (db *DB) AllTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, is_prebuilt FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list tags: %w", err)
	}
	defer rows.Close()

	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.IsPrebuilt); err != nil {
			return nil, fmt.Errorf("store: scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TagByID returns a single tag.
func (db *DB) TagByID(ctx context.Context, id int64) (*models.Tag, error) {
	return db.oneTag(ctx, `SELECT id, name, is_prebuilt FROM tags WHERE id = ?`, id)
}

// TagByName returns the tag whose name matches exactly, ignoring case.
func (db *DB) TagByName(ctx context.Context, name string) (*models.Tag, error) {
	return db.oneTag(ctx, `SELECT id, name, is_prebuilt FROM tags WHERE fold(name) = ? LIMIT 1`,
		strings.ToLower(strings.TrimSpace(name)))
}

func (db *DB) oneTag(ctx context.Context, q string, args ...any) (*models.Tag, error) {
	var t models.Tag
	err := db.conn.QueryRowContext(ctx, q, args...).Scan(&t.ID, &t.Name, &t.IsPrebuilt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get tag: %w", err)
	}
	return &t, nil
}

// CreateTag inserts a tag. A name already taken (in any case) fails with
// apperr.ErrUniqueViolation.
func (db *DB) CreateTag(ctx context.Context, t models.Tag) (*models.Tag, error) {
	res, err := db.conn.ExecContext(ctx, `INSERT INTO tags (name, is_prebuilt) VALUES (?, ?)`,
		strings.TrimSpace(t.Name), t.IsPrebuilt)
	if err != nil {
		return nil, mapErr("create tag", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: create tag id: %w", err)
	}
	return db.TagByID(ctx, id)
}

// DeleteTag removes a user tag and its associations. Prebuilt and missing tags
// are left alone.
func (db *DB) DeleteTag(ctx context.Context, id int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM tags WHERE id = ? AND is_prebuilt = 0`, id); err != nil {
		return fmt.Errorf("store: delete tag: %w", err)
	}
	return nil
}
