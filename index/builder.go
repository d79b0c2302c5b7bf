package index

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexandro/filesearch-mcp/ignore"
	"github.com/lexandro/filesearch-mcp/workspace"
)

// BuildStats summarizes one indexing run over a group.
type BuildStats struct {
	Group          string
	Projects       int
	Records        int
	Rejected       int // records with a tab or line break in a field
	SkippedFiles   int
	SkippedDirs    int
	UnreadableDirs int
	Duration       time.Duration
}

// CompleteFunc is called after every build, successful or not.
type CompleteFunc func(group workspace.Group, stats *BuildStats, err error)

// Builder walks every project of a group and replaces the group's index file.
// Builds for the same group never overlap: a trigger arriving while one is running
// makes the running build go around once more with the latest group definition.
type Builder struct {
	progress   Progress
	logger     *slog.Logger
	onComplete CompleteFunc
	workers    int

	mu     sync.Mutex
	locks  map[string]*BuildLock
	latest map[string]workspace.Group
	wg     sync.WaitGroup
}

// NewBuilder creates a builder reporting to progress.
func NewBuilder(progress Progress, logger *slog.Logger) *Builder {
	return &Builder{
		progress: progress,
		logger:   logger,
		workers:  runtime.NumCPU(),
		locks:    make(map[string]*BuildLock),
		latest:   make(map[string]workspace.Group),
	}
}

// OnComplete registers a hook run after every build.
func (b *Builder) OnComplete(fn CompleteFunc) {
	b.onComplete = fn
}

// IndexFiles starts a background rebuild of the group's index and returns immediately.
func (b *Builder) IndexFiles(group workspace.Group) {
	b.mu.Lock()
	b.latest[group.Name] = group
	lock := b.lockFor(group.Name)
	b.mu.Unlock()

	if !lock.TryAcquire() {
		b.logger.Debug("build already running, queued another pass", "group", group.Name)
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			lock.TakeDirty()

			b.mu.Lock()
			current := b.latest[group.Name]
			b.mu.Unlock()

			stats, err := b.Build(context.Background(), current)
			if err != nil {
				b.logger.Error("indexing failed", "group", current.Name, "error", err)
			}
			if b.onComplete != nil {
				b.onComplete(current, stats, err)
			}
			if lock.Release() {
				return
			}
		}
	}()
}

// Building reports whether a background build for the named group is running.
func (b *Builder) Building(groupName string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.locks[groupName]
	return ok && lock.Building()
}

// Wait blocks until all background builds have finished.
func (b *Builder) Wait() {
	b.wg.Wait()
}

// Build indexes every project of group and writes the result to the group's index
// file. It runs on the calling goroutine.
func (b *Builder) Build(ctx context.Context, group workspace.Group) (stats *BuildStats, err error) {
	token := b.progress.Begin("Indexing files: " + group.Name)
	defer func() { b.progress.End(token, err) }()

	start := time.Now()
	stats = &BuildStats{Group: group.Name, Projects: len(group.Projects)}

	perProject := make([][]Record, len(group.Projects))
	walkStats := make([]WalkStats, len(group.Projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, project := range group.Projects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perProject[i], walkStats[i] = WalkProject(group, project, b.logger)
			b.logger.Debug("project walked",
				"group", group.Name,
				"project", project.Key,
				"files", walkStats[i].Files,
				"unreadableDirs", walkStats[i].UnreadableDirs,
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		stats.Duration = time.Since(start)
		return stats, fmt.Errorf("walking projects of %s: %w", group.Name, err)
	}

	var records []Record
	for i := range group.Projects {
		records = append(records, perProject[i]...)
		stats.SkippedFiles += walkStats[i].SkippedFiles
		stats.SkippedDirs += walkStats[i].SkippedDirs
		stats.UnreadableDirs += walkStats[i].UnreadableDirs
	}

	store := NewStore(group.ConfigDir)
	written, err := store.Write(records)
	stats.Records = written.Written
	stats.Rejected = written.Rejected
	stats.Duration = time.Since(start)
	if err != nil {
		return stats, err
	}

	if stats.Rejected > 0 {
		b.logger.Warn("file names with tabs or line breaks left out of the index",
			"group", group.Name, "count", stats.Rejected)
	}
	b.logger.Info("indexing complete",
		"group", group.Name,
		"projects", stats.Projects,
		"files", stats.Records,
		"unreadableDirs", stats.UnreadableDirs,
		"duration", stats.Duration,
	)
	return stats, nil
}

// ProjectMatcher returns the exclusion rules of one project of group.
func ProjectMatcher(group workspace.Group, project workspace.Project) *ignore.Matcher {
	return ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:          project.RootDir,
		ExcludeDirs:      group.ExcludeDirs,
		ExcludeSuffixes:  group.ExcludeSuffixes,
		RespectGitignore: project.RespectGitignore,
	})
}

// WalkProject lists the files of one project of group.
func WalkProject(group workspace.Group, project workspace.Project, logger *slog.Logger) ([]Record, WalkStats) {
	return Walk(project.RootDir, project.Key, ProjectMatcher(group, project), logger)
}

// lockFor returns the build lock of a group. Callers hold b.mu.
func (b *Builder) lockFor(groupName string) *BuildLock {
	lock, ok := b.locks[groupName]
	if !ok {
		lock = &BuildLock{}
		b.locks[groupName] = lock
	}
	return lock
}
