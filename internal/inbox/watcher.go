package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/storage"
)

// EventCallback is called after a watcher-driven import.
type EventCallback func(e *models.JournalEntry)

// Watch imports documents as they appear in the inbox root until ctx is
// cancelled. Events are debounced so a file is read once its writer is done.
// Only the root is watched; processed/ and rejected/ are ignored.
func (in *Inbox) Watch(ctx context.Context, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox: new watcher: %w", err)
	}
	defer w.Close()

	root := in.files.Root()
	if err := w.Add(root); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", root, err)
	}
	in.log.Info("inbox: watching", slog.String("root", root))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(in.debounce)
			timerCh = timer.C
		} else {
			timer.Reset(in.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			in.log.Info("inbox: watcher stopped")
			return nil

		case <-timerCh:
			for rel := range pending {
				delete(pending, rel)
				e, err := in.ImportFile(ctx, rel)
				if err == nil && cb != nil {
					cb(e)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !storage.IsMarkdown(ev.Name) {
				continue
			}
			if filepath.Dir(ev.Name) != root {
				continue
			}
			pending[filepath.Base(ev.Name)] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.log.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
