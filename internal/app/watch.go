package app

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wayfare/learnctl/internal/links"
	"github.com/wayfare/learnctl/internal/parser"
	"github.com/wayfare/learnctl/internal/slug"
	"github.com/wayfare/learnctl/internal/vault"
)

var wordRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

// tokenizeBody lower-cases and splits body into word tokens, the same
// normalised form the Link Engine's KeywordMatch expects.
func tokenizeBody(body string) []string {
	return wordRe.FindAllString(strings.ToLower(body), -1)
}

// watchVault mirrors kenaz's internal/index.Watch: an fsnotify watcher that
// keeps the Link Engine's in-memory indexes in sync with the vault on disk,
// with the same debounced reconciliation pass for rename storms.
func watchVault(ctx context.Context, provider vault.Provider, engine *links.Engine, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := provider.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	logger.Info("vault watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("vault watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcileVault(provider, engine, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if err := w.Add(absPath); err == nil {
					continue
				}
			}
			if !strings.HasSuffix(absPath, ".md") {
				continue
			}
			rel, err := filepath.Rel(root, absPath)
			if err != nil {
				continue
			}
			noteSlug := slug.FromPath(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := provider.Read(rel)
				if readErr != nil {
					logger.Warn("vault watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				reindexNote(engine, noteSlug, data)
				logger.Debug("vault watcher: reindexed", slog.String("slug", noteSlug))

			case ev.Op&fsnotify.Remove != 0:
				engine.Remove(noteSlug)
				logger.Debug("vault watcher: removed", slog.String("slug", noteSlug))

			case ev.Op&fsnotify.Rename != 0:
				engine.Remove(noteSlug)
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("vault watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcileVault re-derives the full Link Engine state from disk. It is
// the fallback path after a rename, where fsnotify's old/new path pairing
// cannot be trusted.
func reconcileVault(provider vault.Provider, engine *links.Engine, logger *slog.Logger) {
	notes, err := scanVault(provider)
	if err != nil {
		logger.Warn("vault watcher: reconcile scan failed", slog.String("error", err.Error()))
		return
	}
	engine.Rebuild(notes)
	logger.Debug("vault watcher: reconciled", slog.Int("notes", len(notes)))
}

// scanVault reads every markdown file under the vault and converts it to
// links.NoteLinks, the Link Engine's Rebuild input.
func scanVault(provider vault.Provider) ([]links.NoteLinks, error) {
	paths, err := provider.List()
	if err != nil {
		return nil, err
	}
	out := make([]links.NoteLinks, 0, len(paths))
	for _, p := range paths {
		data, err := provider.Read(p)
		if err != nil {
			continue
		}
		out = append(out, noteLinksFor(slug.FromPath(p), data))
	}
	return out, nil
}

func reindexNote(engine *links.Engine, noteSlug string, data []byte) {
	engine.Update(noteLinksFor(noteSlug, data))
}

func noteLinksFor(noteSlug string, data []byte) links.NoteLinks {
	res, err := parser.Parse(data)
	if err != nil || res == nil {
		return links.NoteLinks{Slug: noteSlug}
	}
	targets := make([]links.LinkTarget, len(res.Links))
	for i, l := range res.Links {
		targets[i] = links.LinkTarget{Slug: l.Slug, Display: l.Display}
	}
	return links.NoteLinks{
		Slug:       noteSlug,
		Title:      res.Title,
		Tags:       res.Tags,
		Targets:    targets,
		BodyTokens: tokenizeBody(res.Body),
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
