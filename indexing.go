package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/samber/lo"

	"github.com/lexandro/filesearch-mcp/engine"
	"github.com/lexandro/filesearch-mcp/index"
	"github.com/lexandro/filesearch-mcp/tools"
	"github.com/lexandro/filesearch-mcp/watcher"
	"github.com/lexandro/filesearch-mcp/workspace"
)

// runIndexCommand builds the index of one group, or of every group when groupName
// is empty, on the calling goroutine and prints a summary per group.
func runIndexCommand(ctx context.Context, e *engine.Engine, groupName string, out io.Writer) error {
	names := []string{groupName}
	if groupName == "" {
		names = e.Workspace().GroupNames()
	}
	if len(names) == 0 {
		return workspace.ErrNoGroups
	}

	var failed []string
	for _, name := range names {
		stats, err := e.Build(ctx, name)
		if err != nil {
			fmt.Fprintf(out, "Indexing %s failed: %v\n", name, err)
			failed = append(failed, name)
			continue
		}
		fmt.Fprint(out, tools.FormatBuildStats(stats))
	}
	if len(failed) > 0 {
		return fmt.Errorf("indexing failed for %d of %d groups: %v", len(failed), len(names), failed)
	}
	return nil
}

// groupWatchers keeps one file watcher per group and rebuilds a group's index
// whenever files appear or disappear under its projects.
type groupWatchers struct {
	mu       sync.Mutex
	engine   *engine.Engine
	logger   *slog.Logger
	watchers map[string]*watcher.Watcher
}

func newGroupWatchers(e *engine.Engine, logger *slog.Logger) *groupWatchers {
	return &groupWatchers{
		engine:   e,
		logger:   logger,
		watchers: make(map[string]*watcher.Watcher),
	}
}

// Reset replaces all watchers with watchers over the groups of ws.
func (g *groupWatchers) Reset(ws *workspace.Workspace) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closeLocked()
	for _, group := range ws.Groups {
		if len(group.Projects) == 0 {
			continue
		}
		roots := lo.Map(group.Projects, func(project workspace.Project, _ int) watcher.Root {
			return watcher.Root{Dir: project.RootDir, Ignore: index.ProjectMatcher(group, project)}
		})
		w, err := watcher.NewWatcher(roots, watcher.DefaultQuietInterval, g.logger)
		if err != nil {
			g.logger.Warn("failed to start file watcher, continuing without live updates", "group", group.Name, "error", err)
			continue
		}
		go w.Start()
		go handleWatcherEvents(w, group, g.engine, g.logger)
		g.watchers[group.Name] = w
	}
}

// Close stops all watchers.
func (g *groupWatchers) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeLocked()
}

func (g *groupWatchers) closeLocked() {
	for name, w := range g.watchers {
		if err := w.Close(); err != nil {
			g.logger.Debug("closing watcher", "group", name, "error", err)
		}
	}
	g.watchers = make(map[string]*watcher.Watcher)
}

// handleWatcherEvents turns each debounced batch into one background rebuild of
// the group. It returns when the watcher is closed.
func handleWatcherEvents(fileWatcher *watcher.Watcher, group workspace.Group, e *engine.Engine, logger *slog.Logger) {
	for {
		select {
		case <-fileWatcher.Done():
			return
		case events := <-fileWatcher.Events():
			if projects := ignoreRulesChanged(group, events); len(projects) > 0 {
				logger.Info("ignore rules changed", "group", group.Name, "projects", projects)
			}
			logger.Debug("files changed, reindexing", "group", group.Name, "events", len(events))
			if err := e.IndexFiles(group.Name); err != nil {
				logger.Warn("reindex after file change failed", "group", group.Name, "error", err)
			}
		}
	}
}

// ignoreRulesChanged returns the keys of the projects whose root ignore file
// appears in events.
func ignoreRulesChanged(group workspace.Group, events []watcher.DebouncedEvent) []string {
	return lo.Uniq(lo.FilterMap(events, func(event watcher.DebouncedEvent, _ int) (string, bool) {
		if filepath.Base(event.Path) != watcher.IgnoreFileName {
			return "", false
		}
		project, ok := group.ProjectForPath(event.Path)
		if !ok || filepath.Dir(event.Path) != filepath.Clean(project.RootDir) {
			return "", false
		}
		return project.Key, true
	}))
}
