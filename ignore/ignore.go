package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	gitignore "github.com/denormal/go-gitignore"
)

// Matcher decides which entries of a project tree are left out of the file index.
// Directories are excluded by exact name, files by name suffix. When enabled, the
// project's root .gitignore is consulted as well.
// Thread-safe: Reload() acquires a write lock, ShouldIgnore()/ShouldIgnoreDir() acquire a read lock.
type Matcher struct {
	mu               sync.RWMutex
	rootDir          string
	excludeDirs      map[string]struct{}
	excludeSuffixes  []string
	respectGitignore bool
	gitIgnore        gitignore.GitIgnore
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir          string
	ExcludeDirs      []string // directory names, matched exactly
	ExcludeSuffixes  []string // file name suffixes, e.g. ".class"
	RespectGitignore bool
}

// NewMatcher creates an ignore matcher for one project root.
func NewMatcher(options MatcherOptions) *Matcher {
	matcher := &Matcher{
		rootDir:          options.RootDir,
		excludeDirs:      make(map[string]struct{}, len(options.ExcludeDirs)),
		respectGitignore: options.RespectGitignore,
	}
	for _, name := range options.ExcludeDirs {
		if name != "" {
			matcher.excludeDirs[name] = struct{}{}
		}
	}
	for _, suffix := range options.ExcludeSuffixes {
		if suffix != "" {
			matcher.excludeSuffixes = append(matcher.excludeSuffixes, suffix)
		}
	}

	if matcher.respectGitignore {
		matcher.gitIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".gitignore"), options.RootDir)
	}

	return matcher
}

// ShouldIgnore returns true if the file at absolutePath should be left out of the index.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	if m.HasExcludedSuffix(filepath.Base(absolutePath)) {
		return true
	}
	return m.gitignored(absolutePath, false)
}

// ShouldIgnoreDir returns true if a directory should be skipped entirely during traversal.
// The project root itself is never ignored.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	if filepath.Clean(absolutePath) == filepath.Clean(m.rootDir) {
		return false
	}
	if _, excluded := m.excludeDirs[filepath.Base(absolutePath)]; excluded {
		return true
	}
	return m.gitignored(absolutePath, true)
}

// HasExcludedSuffix reports whether fileName ends with one of the excluded suffixes.
func (m *Matcher) HasExcludedSuffix(fileName string) bool {
	for _, suffix := range m.excludeSuffixes {
		if strings.HasSuffix(fileName, suffix) {
			return true
		}
	}
	return false
}

// gitignored checks the project's .gitignore, if one was loaded.
func (m *Matcher) gitignored(absolutePath string, isDir bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.gitIgnore == nil {
		return false
	}

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		return false
	}
	// Relative() doesn't require the file to exist on disk
	match := m.gitIgnore.Relative(filepath.ToSlash(relativePath), isDir)
	return match != nil && match.Ignore()
}

// Reload re-reads the project's .gitignore from disk.
// Used when the watcher detects a change to it.
func (m *Matcher) Reload() {
	if !m.respectGitignore {
		return
	}
	newGitIgnore := loadIgnoreFile(filepath.Join(m.rootDir, ".gitignore"), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gitIgnore = newGitIgnore
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses io.Reader approach to ensure the file handle is properly closed on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
