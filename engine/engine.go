// Package engine ties the workspace, the index builder and the query layer together
// behind the two operations a host needs: IndexFiles and Search.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/lexandro/filesearch-mcp/index"
	"github.com/lexandro/filesearch-mcp/query"
	"github.com/lexandro/filesearch-mcp/session"
	"github.com/lexandro/filesearch-mcp/workspace"
)

// Engine serves searches from each group's index file and rebuilds those files in
// the background. Loaded indexes are cached in memory until the file changes.
type Engine struct {
	mu      sync.RWMutex
	ws      *workspace.Workspace
	builder *index.Builder
	cache   map[string]*cachedIndex
	logger  *slog.Logger
}

type cachedIndex struct {
	records []index.Record
	modTime time.Time
	size    int64
}

// GroupStatus describes the index of one group.
type GroupStatus struct {
	Group     string
	IndexPath string
	Indexed   bool
	Building  bool
	Records   int // -1 when the index hasn't been loaded yet
	Projects  int
	Size      int64
	ModTime   time.Time
}

// New creates an engine over ws. Completed builds drop the cached index of their group.
func New(ws *workspace.Workspace, builder *index.Builder, logger *slog.Logger) *Engine {
	e := &Engine{
		ws:      ws,
		builder: builder,
		cache:   make(map[string]*cachedIndex),
		logger:  logger,
	}
	builder.OnComplete(func(group workspace.Group, stats *index.BuildStats, err error) {
		e.invalidate(group.Name)
	})
	return e
}

// Workspace returns the workspace currently in effect.
func (e *Engine) Workspace() *workspace.Workspace {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ws
}

// SetWorkspace replaces the workspace and starts a rebuild for every group that is
// new or whose projects or exclude preferences changed. It returns those groups.
func (e *Engine) SetWorkspace(ws *workspace.Workspace) []string {
	e.mu.Lock()
	old := e.ws
	e.ws = ws
	e.mu.Unlock()

	var changed []string
	for _, group := range ws.Groups {
		if old != nil {
			previous, err := old.Group(group.Name)
			if err == nil && sameGroup(previous, group) {
				continue
			}
		}
		changed = append(changed, group.Name)
		e.invalidate(group.Name)
		e.builder.IndexFiles(group)
	}
	if len(changed) > 0 {
		e.logger.Info("project set changed, reindexing", "groups", changed)
	}
	return changed
}

// IndexFiles starts a background rebuild of the named group's index.
func (e *Engine) IndexFiles(groupName string) error {
	group, err := e.Workspace().Group(groupName)
	if err != nil {
		return err
	}
	e.builder.IndexFiles(group)
	return nil
}

// Build rebuilds the named group's index on the calling goroutine.
func (e *Engine) Build(ctx context.Context, groupName string) (*index.BuildStats, error) {
	group, err := e.Workspace().Group(groupName)
	if err != nil {
		return nil, err
	}
	stats, err := e.builder.Build(ctx, group)
	e.invalidate(group.Name)
	return stats, err
}

// Search returns the records of the named group whose file name matches input,
// ordered by file name. It returns index.ErrNotIndexed when the group has no index.
// Any other failure to read the index is logged and yields no results.
func (e *Engine) Search(groupName string, input string, caseSensitive bool) ([]index.Record, error) {
	group, err := e.Workspace().Group(groupName)
	if err != nil {
		return nil, err
	}
	pattern := query.Compile(input, caseSensitive)
	if pattern.Empty() {
		return nil, nil
	}
	records, err := e.load(group)
	if errors.Is(err, index.ErrNotIndexed) {
		return nil, err
	}
	if err != nil {
		e.logger.Warn("index unreadable, returning no results", "group", group.Name, "error", err)
		return nil, nil
	}
	return query.Query(records, pattern), nil
}

// Load returns every record of the named group's index, from memory when the index
// file is unchanged since it was last read.
func (e *Engine) Load(groupName string) ([]index.Record, error) {
	group, err := e.Workspace().Group(groupName)
	if err != nil {
		return nil, err
	}
	return e.load(group)
}

func (e *Engine) load(group workspace.Group) ([]index.Record, error) {
	store := index.NewStore(group.ConfigDir)

	info, err := os.Stat(store.Path)
	if err != nil {
		e.invalidate(group.Name)
		if errors.Is(err, os.ErrNotExist) {
			return nil, index.ErrNotIndexed
		}
		return nil, fmt.Errorf("checking index %s: %w", store.Path, err)
	}

	e.mu.RLock()
	cached, ok := e.cache[group.Name]
	e.mu.RUnlock()
	if ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.records, nil
	}

	result, err := store.Read()
	if err != nil {
		if result == nil {
			return nil, err
		}
		// Partial records are served but not cached; the next load reads again.
		e.logger.Warn("index read stopped early", "group", group.Name, "records", len(result.Records), "error", err)
		return result.Records, nil
	}
	if result.Malformed > 0 {
		e.logger.Warn("skipped malformed index lines", "group", group.Name, "lines", result.Malformed)
	}

	e.mu.Lock()
	e.cache[group.Name] = &cachedIndex{records: result.Records, modTime: info.ModTime(), size: info.Size()}
	e.mu.Unlock()
	return result.Records, nil
}

// Loader returns a session loader reading the named group's index.
func (e *Engine) Loader(groupName string) session.Loader {
	return session.LoaderFunc(func() ([]index.Record, error) {
		return e.Load(groupName)
	})
}

// Status describes the index of the named group.
func (e *Engine) Status(groupName string) (GroupStatus, error) {
	group, err := e.Workspace().Group(groupName)
	if err != nil {
		return GroupStatus{}, err
	}
	store := index.NewStore(group.ConfigDir)
	status := GroupStatus{
		Group:     group.Name,
		IndexPath: store.Path,
		Building:  e.builder.Building(group.Name),
		Records:   -1,
		Projects:  len(group.Projects),
	}
	if info, err := os.Stat(store.Path); err == nil {
		status.Indexed = true
		status.ModTime = info.ModTime()
		status.Size = info.Size()
	}

	e.mu.RLock()
	if cached, ok := e.cache[group.Name]; ok {
		status.Records = len(cached.records)
	}
	e.mu.RUnlock()
	return status, nil
}

func (e *Engine) invalidate(groupName string) {
	e.mu.Lock()
	delete(e.cache, groupName)
	e.mu.Unlock()
}

func sameGroup(a, b workspace.Group) bool {
	return a.ConfigDir == b.ConfigDir &&
		slices.Equal(a.Projects, b.Projects) &&
		slices.Equal(a.ExcludeSuffixes, b.ExcludeSuffixes) &&
		slices.Equal(a.ExcludeDirs, b.ExcludeDirs)
}
