package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultQuietInterval is how long the tree must stay still before a batch is emitted.
const DefaultQuietInterval = 500 * time.Millisecond

// IgnoreFileName is the per-root rules file whose edits are reported.
const IgnoreFileName = ".gitignore"

// IgnoreChecker is used by the watcher to check if a path should be ignored.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

// Reloader is implemented by checkers that read their rules from the root's
// ignore file. The watcher calls Reload whenever that file changes.
type Reloader interface {
	Reload()
}

// Root is one watched directory tree with its own exclusions.
type Root struct {
	Dir    string
	Ignore IgnoreChecker
}

// Watcher watches the directory trees of a group recursively and reports name-level
// changes (files created, removed or renamed) in debounced batches, along with any
// change to a root's ignore file.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	roots     []Root
	logger    *slog.Logger
	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher registers every non-excluded directory below each root. Roots that
// can't be read are logged and skipped.
func NewWatcher(roots []Root, quiet time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if quiet <= 0 {
		quiet = DefaultQuietInterval
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		debouncer: NewDebouncer(quiet),
		roots:     roots,
		logger:    logger,
		done:      make(chan struct{}),
	}

	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			logger.Warn("failed to watch project root", "root", root.Dir, "error", err)
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root Root) error {
	return filepath.WalkDir(root.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root.Dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root.Dir && root.Ignore.ShouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if watchErr := w.fsWatcher.Add(path); watchErr != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", watchErr)
		}
		return nil
	})
}

// Events returns the channel that receives debounced file system events.
func (w *Watcher) Events() <-chan []DebouncedEvent {
	return w.debouncer.Output()
}

// Done is closed when the watcher is closed.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Start begins listening for file system events. Call this in a goroutine.
// It runs until the watcher is closed.
func (w *Watcher) Start() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// rootFor returns the innermost root containing path.
func (w *Watcher) rootFor(path string) (Root, bool) {
	var best Root
	found := false
	for _, root := range w.roots {
		if path != root.Dir && !strings.HasPrefix(path, root.Dir+string(filepath.Separator)) {
			continue
		}
		if !found || len(root.Dir) > len(best.Dir) {
			best = root
			found = true
		}
	}
	return best, found
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	root, ok := w.rootFor(path)
	if !ok {
		return
	}

	if filepath.Base(path) == IgnoreFileName && filepath.Dir(path) == root.Dir {
		w.ignoreFileChanged(root, event)
		return
	}

	if event.Has(fsnotify.Create) {
		info, err := os.Lstat(path)
		if err == nil && info.IsDir() {
			if root.Ignore.ShouldIgnoreDir(path) {
				return
			}
			// Files may already exist below a directory moved into the tree
			if err := w.addTree(Root{Dir: path, Ignore: root.Ignore}); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			w.debouncer.Add(path, OpCreate)
			return
		}
	}

	if root.Ignore.ShouldIgnore(path) {
		return
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Remove):
		op = OpRemove
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(path, op)
}

// ignoreFileChanged reloads the root's rules and watches any directory they no
// longer exclude.
func (w *Watcher) ignoreFileChanged(root Root, event fsnotify.Event) {
	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Remove):
		op = OpRemove
	case event.Has(fsnotify.Rename):
		op = OpRename
	case event.Has(fsnotify.Write):
		op = OpWrite
	default:
		return
	}

	if reloader, ok := root.Ignore.(Reloader); ok {
		reloader.Reload()
	}
	if err := w.addTree(root); err != nil {
		w.logger.Warn("failed to rescan project root", "root", root.Dir, "error", err)
	}
	w.debouncer.Add(event.Name, op)
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	return w.fsWatcher.Close()
}
