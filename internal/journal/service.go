// Package journal is the application service over the entry store. It validates
// input, resolves tags, enforces optimistic concurrency and emits change events.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/checksum"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/sse"
	"github.com/starford/dagaz/internal/store"
)

// Notifier receives entry change notifications.
type Notifier interface {
	PublishEntryEvent(kind string, e *models.JournalEntry)
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the change notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.events = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// Service coordinates the repository, validation and notifications.
type Service struct {
	repo   store.Repository
	events Notifier
	log    *slog.Logger
}

// NewService creates a new journal service.
func NewService(repo store.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Page is one page of entries.
type Page struct {
	Entries []models.JournalEntry `json:"entries"`
	Total   int                   `json:"total"`
	Page    int                   `json:"page"`
	Size    int                   `json:"size"`
}

// Query combines free-text search with structured filters.
type Query struct {
	Text   string
	Filter store.EntryFilter
}

func (q Query) hasFilter() bool {
	f := q.Filter
	return f.Start != nil || f.End != nil || len(f.MoodIDs) > 0 || len(f.TagIDs) > 0
}

// ETag returns the concurrency token of e.
func ETag(e *models.JournalEntry) string {
	return checksum.Entry(e)
}

// Entry returns a single entry by id.
func (s *Service) Entry(ctx context.Context, id int64) (*models.JournalEntry, error) {
	return s.repo.EntryByID(ctx, id)
}

// EntryForDay returns the entry recorded on day.
func (s *Service) EntryForDay(ctx context.Context, day time.Time) (*models.JournalEntry, error) {
	return s.repo.EntryByDate(ctx, day)
}

// ListEntries returns one page of entries, newest first.
func (s *Service) ListEntries(ctx context.Context, page, size int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	entries, total, err := s.repo.EntriesPaginated(ctx, page, size)
	if err != nil {
		return nil, err
	}
	return &Page{Entries: entries, Total: total, Page: page, Size: size}, nil
}

// EntriesInRange returns entries between from and to inclusive, newest first.
func (s *Service) EntriesInRange(ctx context.Context, from, to time.Time) ([]models.JournalEntry, error) {
	return s.repo.EntriesByDateRange(ctx, from, to)
}

// Find runs a search and/or filter. Text and filters are combined with AND.
func (s *Service) Find(ctx context.Context, q Query) ([]models.JournalEntry, error) {
	text := strings.TrimSpace(q.Text)
	switch {
	case text == "":
		return s.repo.FilterEntries(ctx, q.Filter)
	case !q.hasFilter():
		return s.repo.SearchEntries(ctx, text)
	}

	found, err := s.repo.SearchEntries(ctx, text)
	if err != nil {
		return nil, err
	}
	filtered, err := s.repo.FilterEntries(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	keep := make(map[int64]struct{}, len(filtered))
	for _, e := range filtered {
		keep[e.ID] = struct{}{}
	}
	out := []models.JournalEntry{}
	for _, e := range found {
		if _, ok := keep[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// CreateEntry validates in and stores a new entry for its day.
func (s *Service) CreateEntry(ctx context.Context, in EntryInput) (*models.JournalEntry, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return nil, validationErr(err)
	}
	exists, err := s.repo.EntryExistsForDate(ctx, in.Date)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("journal: entry for %s: %w", models.FormatDay(in.Date), apperr.ErrUniqueViolation)
	}
	tags, err := s.resolveTags(ctx, in)
	if err != nil {
		return nil, err
	}

	e, err := s.repo.CreateEntry(ctx, in.entry(tags))
	if err != nil {
		return nil, err
	}
	s.log.Info("entry created", slog.Int64("id", e.ID), slog.String("date", models.FormatDay(e.Date)))
	s.publish(sse.EntryCreated, e)
	return e, nil
}

// UpdateEntry replaces the editable fields of entry id. A non-empty ifMatch must
// equal the entry's current ETag or apperr.ErrConflict is returned.
func (s *Service) UpdateEntry(ctx context.Context, id int64, in EntryInput, ifMatch string) (*models.JournalEntry, error) {
	current, err := s.repo.EntryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && strings.Trim(ifMatch, `"`) != ETag(current) {
		return nil, apperr.ErrConflict
	}

	in = in.normalize()
	if err := in.Validate(); err != nil {
		return nil, validationErr(err)
	}
	if !in.Date.Equal(models.Day(current.Date)) {
		exists, err := s.repo.EntryExistsForDate(ctx, in.Date)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("journal: entry for %s: %w", models.FormatDay(in.Date), apperr.ErrUniqueViolation)
		}
	}
	tags, err := s.resolveTags(ctx, in)
	if err != nil {
		return nil, err
	}

	next := in.entry(tags)
	next.ID = id
	e, err := s.repo.UpdateEntry(ctx, next)
	if err != nil {
		return nil, err
	}
	s.publish(sse.EntryUpdated, e)
	return e, nil
}

// DeleteEntry removes entry id. Deleting a missing entry is not an error.
func (s *Service) DeleteEntry(ctx context.Context, id int64) error {
	current, err := s.repo.EntryByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.repo.DeleteEntry(ctx, id); err != nil {
		return err
	}
	s.log.Info("entry deleted", slog.Int64("id", id), slog.String("date", models.FormatDay(current.Date)))
	s.publish(sse.EntryDeleted, current)
	return nil
}

// ImportDraft creates an entry from a parsed Markdown document.
func (s *Service) ImportDraft(ctx context.Context, d parser.Draft) (*models.JournalEntry, error) {
	if strings.TrimSpace(d.Mood) == "" {
		return nil, validationErr(validation.Errors{"mood": errors.New("cannot be blank")})
	}
	primary, err := s.moodByName(ctx, d.Mood)
	if err != nil {
		return nil, err
	}
	in := EntryInput{
		Date:          d.Date,
		Title:         d.Title,
		Content:       d.Body,
		Category:      d.Category,
		PrimaryMoodID: primary.ID,
		TagNames:      d.Tags,
	}
	for _, name := range d.SecondaryMoods {
		m, err := s.moodByName(ctx, name)
		if err != nil {
			return nil, err
		}
		in.SecondaryMoodIDs = append(in.SecondaryMoodIDs, m.ID)
	}
	if in.Title == "" && !in.Date.IsZero() {
		in.Title = in.Date.Format("Monday, January 2, 2006")
	}
	return s.CreateEntry(ctx, in)
}

func (s *Service) moodByName(ctx context.Context, name string) (*models.Mood, error) {
	m, err := s.repo.MoodByName(ctx, name)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("journal: %w: unknown mood %q", apperr.ErrValidation, name)
	}
	return m, err
}

// resolveTags turns tag ids and names into tags. Names that do not exist yet
// come back without an id; the store creates them in the same transaction as
// the entry. Order is preserved and duplicates are dropped.
func (s *Service) resolveTags(ctx context.Context, in EntryInput) ([]models.Tag, error) {
	seenIDs := make(map[int64]struct{})
	seenNames := make(map[string]struct{})
	out := []models.Tag{}
	add := func(t models.Tag) {
		if t.ID != 0 {
			if _, ok := seenIDs[t.ID]; ok {
				return
			}
			seenIDs[t.ID] = struct{}{}
		}
		key := strings.ToLower(t.Name)
		if _, ok := seenNames[key]; ok {
			return
		}
		seenNames[key] = struct{}{}
		out = append(out, t)
	}

	for _, id := range in.TagIDs {
		t, err := s.repo.TagByID(ctx, id)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("journal: %w: unknown tag %d", apperr.ErrValidation, id)
		}
		if err != nil {
			return nil, err
		}
		add(*t)
	}
	for _, name := range in.TagNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t, err := s.repo.TagByName(ctx, name)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			add(models.Tag{Name: name})
		case err != nil:
			return nil, err
		default:
			add(*t)
		}
	}
	return out, nil
}

// Moods returns the mood catalog.
func (s *Service) Moods(ctx context.Context) ([]models.Mood, error) {
	return s.repo.AllMoods(ctx)
}

// Tags returns every tag.
func (s *Service) Tags(ctx context.Context) ([]models.Tag, error) {
	return s.repo.AllTags(ctx)
}

// CreateTag adds a user tag.
func (s *Service) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	err := validation.Validate(name, validation.Required, validation.RuneLength(1, MaxTagNameLength))
	if err != nil {
		return nil, validationErr(validation.Errors{"name": err})
	}
	return s.repo.CreateTag(ctx, models.Tag{Name: name})
}

// DeleteTag removes a user tag. Prebuilt tags are refused with apperr.ErrValidation.
func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	t, err := s.repo.TagByID(ctx, id)
	if err != nil {
		return err
	}
	if t.IsPrebuilt {
		return fmt.Errorf("journal: %w: tag %q is prebuilt", apperr.ErrValidation, t.Name)
	}
	return s.repo.DeleteTag(ctx, id)
}

// Settings returns the application settings.
func (s *Service) Settings(ctx context.Context) (*models.AppSettings, error) {
	return s.repo.Settings(ctx)
}

// SetTheme changes the UI theme. Names are matched case-insensitively and
// stored as ThemeLight or ThemeDark.
func (s *Service) SetTheme(ctx context.Context, theme string) (*models.AppSettings, error) {
	if canonical, ok := models.CanonicalTheme(theme); ok {
		theme = canonical
	}
	err := validation.Validate(theme, validation.Required, validation.In(models.ThemeLight, models.ThemeDark))
	if err != nil {
		return nil, validationErr(validation.Errors{"theme": err})
	}
	cur, err := s.repo.Settings(ctx)
	if err != nil {
		return nil, err
	}
	cur.Theme = theme
	return s.repo.UpdateSettings(ctx, *cur)
}

func (s *Service) publish(kind string, e *models.JournalEntry) {
	if s.events != nil {
		s.events.PublishEntryEvent(kind, e)
	}
}
