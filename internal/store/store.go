package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
)

// Repository is the query and mutation contract over the entry store.
// Consumers should depend on this interface (or a narrower slice of it) rather
// than the concrete *DB type.
type Repository interface {
	EntryByDate(ctx context.Context, date time.Time) (*models.JournalEntry, error)
	EntryByID(ctx context.Context, id int64) (*models.JournalEntry, error)
	AllEntries(ctx context.Context) ([]models.JournalEntry, error)
	EntriesByDateRange(ctx context.Context, start, end time.Time) ([]models.JournalEntry, error)
	SearchEntries(ctx context.Context, term string) ([]models.JournalEntry, error)
	FilterEntries(ctx context.Context, f EntryFilter) ([]models.JournalEntry, error)
	CreateEntry(ctx context.Context, e models.JournalEntry) (*models.JournalEntry, error)
	UpdateEntry(ctx context.Context, e models.JournalEntry) (*models.JournalEntry, error)
	DeleteEntry(ctx context.Context, id int64) error
	EntryExistsForDate(ctx context.Context, date time.Time) (bool, error)
	EntriesPaginated(ctx context.Context, page, size int) ([]models.JournalEntry, int, error)

	AllMoods(ctx context.Context) ([]models.Mood, error)
	MoodByID(ctx context.Context, id int64) (*models.Mood, error)
	MoodByName(ctx context.Context, name string) (*models.Mood, error)

	AllTags(ctx context.Context) ([]models.Tag, error)
	TagByID(ctx context.Context, id int64) (*models.Tag, error)
	TagByName(ctx context.Context, name string) (*models.Tag, error)
	CreateTag(ctx context.Context, t models.Tag) (*models.Tag, error)
	DeleteTag(ctx context.Context, id int64) error

	Settings(ctx context.Context) (*models.AppSettings, error)
	UpdateSettings(ctx context.Context, s models.AppSettings) (*models.AppSettings, error)
}

// Verify *DB satisfies Repository at compile time.
var _ Repository = (*DB)(nil)

// EntryFilter narrows FilterEntries. Nil or empty fields are ignored; the rest are
// combined with AND.
type EntryFilter struct {
	Start   *time.Time
	End     *time.Time
	MoodIDs []int64
	TagIDs  []int64
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// mapErr translates SQLite constraint failures into the apperr taxonomy.
func mapErr(op string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("store: %s: %w", op, apperr.ErrUniqueViolation)
		default:
			return fmt.Errorf("store: %s: %w: %s", op, apperr.ErrValidation, se.Error())
		}
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func int64Args(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
