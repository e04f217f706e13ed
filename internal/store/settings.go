package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/dagaz/internal/models"
)

const settingsID = 1

// Settings returns the singleton settings row, creating the default row on first use.
func (db *DB) Settings(ctx context.Context) (*models.AppSettings, error) {
	s, err := db.readSettings(ctx)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: get settings: %w", err)
	}

	def := models.DefaultSettings()
	if _, err := db.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO app_settings (id, theme, is_locked, credential_hash) VALUES (?, ?, ?, ?)`,
		settingsID, def.Theme, def.IsLocked, def.CredentialHash); err != nil {
		return nil, mapErr("create settings", err)
	}
	s, err = db.readSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: get settings: %w", err)
	}
	return s, nil
}

// UpdateSettings overwrites the singleton settings row.
func (db *DB) UpdateSettings(ctx context.Context, s models.AppSettings) (*models.AppSettings, error) {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO app_settings (id, theme, is_locked, credential_hash) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			theme           = excluded.theme,
			is_locked       = excluded.is_locked,
			credential_hash = excluded.credential_hash`,
		settingsID, s.Theme, s.IsLocked, s.CredentialHash)
	if err != nil {
		return nil, mapErr("update settings", err)
	}
	return db.Settings(ctx)
}

func (db *DB) readSettings(ctx context.Context) (*models.AppSettings, error) {
	var s models.AppSettings
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, theme, is_locked, credential_hash FROM app_settings WHERE id = ?`, settingsID).
		Scan(&s.ID, &s.Theme, &s.IsLocked, &s.CredentialHash)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
