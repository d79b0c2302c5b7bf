package main

import (
	"errors"
	"log/slog"
	"time"

	"github.com/lexandro/filesearch-mcp/engine"
	"github.com/lexandro/filesearch-mcp/index"
	"github.com/lexandro/filesearch-mcp/workspace"
)

// SyncResult holds the outcome of a single sync verification run for one group.
type SyncResult struct {
	Group        string
	NotIndexed   bool
	MissingFiles int // files on disk but not in the index file
	StaleFiles   int // files in the index file but not on disk
	Duration     time.Duration
}

// OutOfSync reports whether the index file no longer matches the disk.
func (r SyncResult) OutOfSync() bool {
	return r.MissingFiles+r.StaleFiles > 0
}

// runPeriodicSync verifies every indexed group at the given interval and starts a
// full rebuild of each group whose index file has drifted from the disk.
// It runs until the provided stop channel is closed.
func runPeriodicSync(
	interval time.Duration,
	e *engine.Engine,
	logger *slog.Logger,
	stop <-chan struct{},
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("periodic sync started", "interval", interval)

	for {
		select {
		case <-stop:
			logger.Info("periodic sync stopped")
			return
		case <-ticker.C:
			syncWorkspace(e, logger)
		}
	}
}

// syncWorkspace verifies each group once and returns the groups it reindexed.
func syncWorkspace(e *engine.Engine, logger *slog.Logger) []string {
	var reindexed []string
	for _, group := range e.Workspace().Groups {
		if status, err := e.Status(group.Name); err == nil && status.Building {
			continue
		}
		result, err := performSyncVerification(group, logger)
		if err != nil {
			logger.Warn("sync verification failed", "group", group.Name, "error", err)
			continue
		}
		if result.NotIndexed {
			continue
		}
		if !result.OutOfSync() {
			logger.Debug("sync verification complete, index is in sync", "group", group.Name, "duration", result.Duration)
			continue
		}

		logger.Info("sync verification found drift, reindexing",
			"group", group.Name,
			"missing", result.MissingFiles,
			"stale", result.StaleFiles,
			"duration", result.Duration,
		)
		if err := e.IndexFiles(group.Name); err != nil {
			logger.Warn("sync reindex failed", "group", group.Name, "error", err)
			continue
		}
		reindexed = append(reindexed, group.Name)
	}
	return reindexed
}

// performSyncVerification compares the files on disk with the group's index file.
// A group without an index file is reported as NotIndexed; it is never built here.
func performSyncVerification(group workspace.Group, logger *slog.Logger) (SyncResult, error) {
	start := time.Now()
	result := SyncResult{Group: group.Name}

	stored, err := index.NewStore(group.ConfigDir).Read()
	if errors.Is(err, index.ErrNotIndexed) {
		result.NotIndexed = true
		result.Duration = time.Since(start)
		return result, nil
	}
	if err != nil {
		return result, err
	}

	indexed := make(map[index.Record]bool, len(stored.Records))
	for _, record := range stored.Records {
		indexed[record] = true
	}

	onDisk := make(map[index.Record]bool, len(indexed))
	for _, project := range group.Projects {
		records, _ := index.WalkProject(group, project, logger)
		for _, record := range records {
			if !record.Storable() {
				continue
			}
			onDisk[record] = true
			if !indexed[record] {
				result.MissingFiles++
			}
		}
	}

	for record := range indexed {
		if !onDisk[record] {
			result.StaleFiles++
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}
