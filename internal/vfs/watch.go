package vfs

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventCallback receives coalesced vault change events.
type EventCallback func(Event)

// Watch starts an fsnotify watcher rooted at p and dispatches coalesced
// Events to cb until ctx is cancelled. It mirrors the teacher's
// index.Watch: directories created at runtime are added automatically, and
// renames (which fsnotify only reports on the old path) trigger a short
// debounced reconciliation pass that diffs the watched tree against what
// a prior full List reported.
func Watch(ctx context.Context, p *Physical, exts []string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, p.root); err != nil {
		return err
	}
	logger.Info("vfs: watch started", slog.String("root", p.root))

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
			logger.Info("vfs: watch stopped")
			return nil

		case <-reconcileCh:
			reconcileTree(p, exts, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("vfs: watch new dir failed", slog.String("path", absPath), slog.String("error", addErr.Error()))
					}
					indexNewDir(p, absPath, exts, cb)
					continue
				}
			}

			if !hasExt(filepath.Base(absPath), exts) {
				continue
			}
			rel, relErr := filepath.Rel(p.root, absPath)
			if relErr != nil {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				kind := EventModified
				if ev.Op&fsnotify.Create != 0 {
					kind = EventCreated
				}
				cb(Event{Kind: kind, Path: rel})

			case ev.Op&fsnotify.Remove != 0:
				cb(Event{Kind: EventDeleted, Path: rel})

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify only fires Rename on the old path; the new path
				// arrives as a separate Create. Report the deletion now and
				// let the reconciliation pass pick up anything it missed.
				cb(Event{Kind: EventDeleted, Path: rel})
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("vfs: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

func indexNewDir(p *Physical, dirPath string, exts []string, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(fp string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !hasExt(d.Name(), exts) {
			return nil
		}
		rel, relErr := filepath.Rel(p.root, fp)
		if relErr != nil {
			return nil
		}
		cb(Event{Kind: EventCreated, Path: rel})
		return nil
	})
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(fp string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(fp)
		}
		return nil
	})
}

// reconcileTree re-lists the tree and reports it as a flat sequence of
// EventModified entries; the indexer's digest tier will no-op any file
// whose content has not actually changed, so over-reporting here is safe.
func reconcileTree(p *Physical, exts []string, logger *slog.Logger, cb EventCallback) {
	metas, err := p.List("", exts)
	if err != nil {
		logger.Warn("vfs: reconcile list failed", slog.String("error", err.Error()))
		return
	}
	for _, m := range metas {
		cb(Event{Kind: EventModified, Path: m.Path})
	}
}
