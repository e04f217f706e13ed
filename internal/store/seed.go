package store

import (
	"context"
	"fmt"

	"github.com/starford/dagaz/internal/models"
)

// SeedMoods is the fixed mood catalog loaded on first run.
var SeedMoods = []models.Mood{
	{Name: "Happy", Category: models.MoodPositive, Emoji: "😊"},
	{Name: "Excited", Category: models.MoodPositive, Emoji: "🤩"},
	{Name: "Relaxed", Category: models.MoodPositive, Emoji: "😌"},
	{Name: "Grateful", Category: models.MoodPositive, Emoji: "🙏"},
	{Name: "Confident", Category: models.MoodPositive, Emoji: "😎"},

	{Name: "Calm", Category: models.MoodNeutral, Emoji: "😐"},
	{Name: "Thoughtful", Category: models.MoodNeutral, Emoji: "🤔"},
	{Name: "Curious", Category: models.MoodNeutral, Emoji: "🧐"},
	{Name: "Nostalgic", Category: models.MoodNeutral, Emoji: "🥲"},
	{Name: "Bored", Category: models.MoodNeutral, Emoji: "😑"},

	{Name: "Sad", Category: models.MoodNegative, Emoji: "😢"},
	{Name: "Angry", Category: models.MoodNegative, Emoji: "😠"},
	{Name: "Stressed", Category: models.MoodNegative, Emoji: "😰"},
	{Name: "Lonely", Category: models.MoodNegative, Emoji: "😔"},
	{Name: "Anxious", Category: models.MoodNegative, Emoji: "😟"},
}

// SeedTags lists the prebuilt tag names.
var SeedTags = []string{
	"Work", "Career", "Studies", "Family", "Friends", "Relationships",
	"Health", "Fitness", "Personal Growth", "Self-care", "Hobbies", "Travel",
	"Nature", "Finance", "Spirituality", "Birthday", "Holiday", "Vacation",
	"Celebration", "Exercise", "Reading", "Writing", "Cooking", "Meditation",
	"Yoga", "Music", "Shopping", "Parenting", "Projects", "Planning", "Reflection",
}

// Seed loads the mood catalog, the prebuilt tags and the default settings row.
// Each table is only seeded while it is empty, so Seed is safe to call on every start.
func (db *DB) Seed(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin seed tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	empty, err := tableEmpty(ctx, tx, "moods")
	if err != nil {
		return err
	}
	if empty {
		for _, m := range SeedMoods {
			if _, err := tx.ExecContext(ctx, `INSERT INTO moods (name, category, emoji) VALUES (?, ?, ?)`,
				m.Name, m.Category, m.Emoji); err != nil {
				return mapErr("seed mood", err)
			}
		}
	}

	empty, err = tableEmpty(ctx, tx, "tags")
	if err != nil {
		return err
	}
	if empty {
		for _, name := range SeedTags {
			if _, err := tx.ExecContext(ctx, `INSERT INTO tags (name, is_prebuilt) VALUES (?, 1)`, name); err != nil {
				return mapErr("seed tag", err)
			}
		}
	}

	def := models.DefaultSettings()
	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO app_settings (id, theme, is_locked, credential_hash) VALUES (?, ?, ?, ?)`,
		settingsID, def.Theme, def.IsLocked, def.CredentialHash); err != nil {
		return mapErr("seed settings", err)
	}

	return tx.Commit()
}

func tableEmpty(ctx context.Context, q querier, table string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return false, fmt.Errorf("store: count %s: %w", table, err)
	}
	return n == 0, nil
}
