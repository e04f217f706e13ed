// Package testutil provides shared test helpers for databases and document directories.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/store"
)

// TestDB creates a temporary, seeded SQLite database that is automatically cleaned up.
func TestDB(t *testing.T, opts ...store.Option) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "dagaz-test-*.db")
	require.NoError(t, err)
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Seed(context.Background()))
	return db
}

// TestDir creates a temporary directory with a storage.Provider.
func TestDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	require.NoError(t, err)
	return dir, fs
}

// Day parses a YYYY-MM-DD string or fails the test.
func Day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDay(s)
	require.NoError(t, err)
	return d
}

// MoodID returns the id of the seeded mood called name.
func MoodID(t *testing.T, db store.Repository, name string) int64 {
	t.Helper()
	m, err := db.MoodByName(context.Background(), name)
	require.NoError(t, err, "mood %q", name)
	return m.ID
}
