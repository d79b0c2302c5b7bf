package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

var (
	ErrNoGroups     = errors.New("workspace defines no groups")
	ErrUnknownGroup = errors.New("unknown group")
)

// Project is a single directory tree belonging to a group.
type Project struct {
	Key              string // unique within the group
	RootDir          string // absolute
	RespectGitignore bool
}

// Group is a set of projects searched together. It owns one index file.
type Group struct {
	Name            string
	ConfigDir       string // folder holding the group's index file
	Projects        []Project
	ExcludeSuffixes []string
	ExcludeDirs     []string
}

// ProjectForPath returns the project whose root contains filePath.
func (g Group) ProjectForPath(filePath string) (Project, bool) {
	return lo.Find(g.Projects, func(p Project) bool {
		rel, err := filepath.Rel(p.RootDir, filePath)
		return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
	})
}

// Workspace is the full set of configured groups.
type Workspace struct {
	Groups       []Group
	DefaultGroup string
	Editor       string
}

// Group looks up a group by name. An empty name selects the default group.
func (w *Workspace) Group(name string) (Group, error) {
	if len(w.Groups) == 0 {
		return Group{}, ErrNoGroups
	}
	if name == "" {
		name = w.DefaultGroup
	}
	if name == "" {
		return w.Groups[0], nil
	}
	group, ok := lo.Find(w.Groups, func(g Group) bool { return g.Name == name })
	if !ok {
		return Group{}, fmt.Errorf("%w: %s", ErrUnknownGroup, name)
	}
	return group, nil
}

// GroupNames returns the names of all groups in configuration order.
func (w *Workspace) GroupNames() []string {
	return lo.Map(w.Groups, func(g Group, _ int) string { return g.Name })
}

// ParseList splits a delimited preference value into a set of entries.
// Entries are separated by commas or semicolons; blanks and duplicates are dropped.
func ParseList(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' })
	parts = lo.Map(parts, func(part string, _ int) string { return strings.TrimSpace(part) })
	parts = lo.Filter(parts, func(part string, _ int) bool { return part != "" })
	return lo.Uniq(parts)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
