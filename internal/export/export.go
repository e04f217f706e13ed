// Package export renders journal entries for a date range into a Markdown document.
package export

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/storage"
)

// ErrNoEntries is returned when the requested range holds no entries.
var ErrNoEntries = errors.New("no entries in range")

const (
	headerDate  = "January 2, 2006"
	sectionDate = "Monday, January 2, 2006"
	createdAt   = "Jan 2, 2006 3:04 PM"
)

// RangeReader is the slice of the repository the exporter needs.
type RangeReader interface {
	EntriesByDateRange(ctx context.Context, start, end time.Time) ([]models.JournalEntry, error)
}

// SuggestedFileName returns the default document name for a range.
func SuggestedFileName(start, end time.Time) string {
	return fmt.Sprintf("Journal_%s_to_%s.md", models.FormatDay(start), models.FormatDay(end))
}

// Render writes the Markdown document for entries to w. Entries are emitted in
// ascending date order regardless of input order.
func Render(w io.Writer, start, end time.Time, entries []models.JournalEntry) error {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b models.JournalEntry) int { return a.Date.Compare(b.Date) })

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Journal Entries: %s - %s\n\n", start.Format(headerDate), end.Format(headerDate))
	fmt.Fprintf(bw, "%d entries\n", len(sorted))

	for _, e := range sorted {
		fmt.Fprintf(bw, "\n---\n\n## %s\n\n", e.Date.Format(sectionDate))
		fmt.Fprintf(bw, "### %s\n\n", e.Title)
		if moods := e.Moods(); len(moods) > 0 {
			labels := make([]string, 0, len(moods))
			for _, m := range moods {
				labels = append(labels, strings.TrimSpace(m.Emoji+" "+m.Name))
			}
			fmt.Fprintf(bw, "**Mood:** %s  \n", strings.Join(labels, ", "))
		}
		if len(e.Tags) > 0 {
			fmt.Fprintf(bw, "**Tags:** %s  \n", strings.Join(e.TagNames(), ", "))
		}
		if e.Category != "" {
			fmt.Fprintf(bw, "**Category:** %s  \n", e.Category)
		}
		fmt.Fprintf(bw, "\n%s\n\n", strings.TrimSpace(e.Content))
		fmt.Fprintf(bw, "_Word Count: %d | Created: %s_\n", e.WordCount, e.CreatedAt.Format(createdAt))
	}
	return bw.Flush()
}

// Result describes a written export.
type Result struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
}

// Exporter writes range exports into a document directory.
type Exporter struct {
	entries RangeReader
	files   storage.Provider
	log     *slog.Logger
}

// NewExporter creates an Exporter writing into files.
func NewExporter(entries RangeReader, files storage.Provider, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{entries: entries, files: files, log: log}
}

// Export renders [start, end] and writes it under its suggested file name.
func (x *Exporter) Export(ctx context.Context, start, end time.Time) (*Result, error) {
	start, end = models.Day(start), models.Day(end)
	if start.After(end) {
		return nil, fmt.Errorf("export: %w: start %s is after end %s", apperr.ErrValidation,
			models.FormatDay(start), models.FormatDay(end))
	}
	entries, err := x.entries.EntriesByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("export: read entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	var buf bytes.Buffer
	if err := Render(&buf, start, end, entries); err != nil {
		return nil, fmt.Errorf("export: render: %w", err)
	}
	name := SuggestedFileName(start, end)
	if err := x.files.Write(name, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("export: write: %w", err)
	}

	path := filepath.Join(x.files.Root(), name)
	x.log.Info("export written", slog.String("path", path), slog.Int("entries", len(entries)))
	return &Result{Path: path, Entries: len(entries)}, nil
}
