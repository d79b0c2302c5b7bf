package index

import (
	"io/fs"
	"log/slog"
	"path/filepath"
)

// PathMatcher decides which entries a walk skips. *ignore.Matcher implements it.
type PathMatcher interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

// WalkStats summarizes one project walk.
type WalkStats struct {
	Files          int
	SkippedFiles   int
	SkippedDirs    int
	UnreadableDirs int
}

// Walk enumerates every file under rootDir and returns one record per file, tagged
// with projectKey. Directories rejected by matcher are not entered and files it
// rejects are skipped. Symbolic links are never followed: a link is recorded by its
// own name and never descended into. A directory that cannot be read contributes no
// records and the walk continues with its siblings.
// The order of the returned records is unspecified.
func Walk(rootDir string, projectKey string, matcher PathMatcher, logger *slog.Logger) ([]Record, WalkStats) {
	var records []Record
	var stats WalkStats

	filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Either the root could not be stat'ed or a directory could not be listed.
			stats.UnreadableDirs++
			logger.Debug("skipping unreadable directory", "path", path, "error", err)
			if d != nil && d.IsDir() && path != rootDir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != rootDir && matcher.ShouldIgnoreDir(path) {
				stats.SkippedDirs++
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			// sockets, devices, named pipes
			return nil
		}
		if matcher.ShouldIgnore(path) {
			stats.SkippedFiles++
			return nil
		}
		absolutePath, err := filepath.Abs(path)
		if err != nil {
			absolutePath = path
		}
		records = append(records, NewRecord(absolutePath, projectKey))
		stats.Files++
		return nil
	})

	return records, stats
}
