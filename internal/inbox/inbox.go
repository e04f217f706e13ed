// Package inbox imports Markdown documents dropped into a directory as journal
// entries. Imported files move to processed/, rejected ones to rejected/.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/storage"
)

// Subdirectories that receive handled files.
const (
	ProcessedDir = "processed"
	RejectedDir  = "rejected"
)

// ErrRejected marks a file that can never be imported as it stands.
var ErrRejected = errors.New("rejected")

// Importer creates an entry from a parsed document.
type Importer interface {
	ImportDraft(ctx context.Context, d parser.Draft) (*models.JournalEntry, error)
}

// Report summarises a Sync pass.
type Report struct {
	Imported int `json:"imported"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`
}

// Inbox watches one directory for new documents.
type Inbox struct {
	files    storage.Provider
	importer Importer
	log      *slog.Logger
	debounce time.Duration
	now      func() time.Time
}

// New creates an Inbox over files.
func New(files storage.Provider, importer Importer, log *slog.Logger) *Inbox {
	if log == nil {
		log = slog.Default()
	}
	return &Inbox{
		files:    files,
		importer: importer,
		log:      log,
		debounce: 200 * time.Millisecond,
		now:      time.Now,
	}
}

// Sync imports every document currently waiting in the inbox.
func (in *Inbox) Sync(ctx context.Context) (Report, error) {
	var rep Report
	pending, err := in.files.List("")
	if err != nil {
		return rep, fmt.Errorf("inbox: list: %w", err)
	}
	for _, f := range pending {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		_, err := in.ImportFile(ctx, f.Path)
		switch {
		case err == nil:
			rep.Imported++
		case errors.Is(err, ErrRejected):
			rep.Rejected++
		default:
			rep.Failed++
		}
	}
	if len(pending) > 0 {
		in.log.Info("inbox: sync done",
			slog.Int("imported", rep.Imported),
			slog.Int("rejected", rep.Rejected),
			slog.Int("failed", rep.Failed))
	}
	return rep, nil
}

// ImportFile imports the document at rel (relative to the inbox root). A file
// that fails validation or targets a day that already has an entry is moved to
// rejected/ and the returned error wraps ErrRejected. Storage faults leave the
// file in place for a later attempt.
func (in *Inbox) ImportFile(ctx context.Context, rel string) (*models.JournalEntry, error) {
	data, err := in.files.Read(rel)
	if err != nil {
		return nil, fmt.Errorf("inbox: %w", err)
	}

	draft, err := parser.Parse(data)
	if err != nil {
		return nil, in.reject(rel, err)
	}
	if draft.Date.IsZero() {
		if d, ok := dateFromName(rel); ok {
			draft.Date = d
		}
	}

	e, err := in.importer.ImportDraft(ctx, *draft)
	if errors.Is(err, apperr.ErrValidation) || errors.Is(err, apperr.ErrUniqueViolation) {
		return nil, in.reject(rel, err)
	}
	if err != nil {
		in.log.Warn("inbox: import failed", slog.String("path", rel), slog.String("error", err.Error()))
		return nil, fmt.Errorf("inbox: import %s: %w", rel, err)
	}

	if err := in.files.Move(rel, in.target(ProcessedDir, rel)); err != nil {
		in.log.Warn("inbox: move to processed failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
	in.log.Info("inbox: imported", slog.String("path", rel), slog.Int64("entry_id", e.ID))
	return e, nil
}

func (in *Inbox) reject(rel string, cause error) error {
	in.log.Warn("inbox: rejected", slog.String("path", rel), slog.String("error", cause.Error()))
	if err := in.files.Move(rel, in.target(RejectedDir, rel)); err != nil {
		in.log.Warn("inbox: move to rejected failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
	return fmt.Errorf("inbox: %s: %w: %w", rel, ErrRejected, cause)
}

// target picks a free name for rel inside dir.
func (in *Inbox) target(dir, rel string) string {
	name := path.Base(rel)
	dst := path.Join(dir, name)
	if _, err := in.files.Read(dst); err != nil {
		return dst
	}
	ext := path.Ext(name)
	return path.Join(dir, fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), in.now().UnixNano(), ext))
}

// dateFromName reads a leading YYYY-MM-DD from a file name.
func dateFromName(rel string) (time.Time, bool) {
	name := path.Base(rel)
	if len(name) < len(models.DayLayout) {
		return time.Time{}, false
	}
	d, err := models.ParseDay(name[:len(models.DayLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
