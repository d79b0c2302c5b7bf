package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/lexandro/filesearch-mcp/ignore"
)

// DefaultConfigName is the workspace file looked up when none is given.
const DefaultConfigName = "filesearch.yaml"

type fileConfig struct {
	ConfigDir             string        `mapstructure:"config_dir"`
	Editor                string        `mapstructure:"editor"`
	DefaultGroup          string        `mapstructure:"default_group"`
	ExcludeFileSuffixes   string        `mapstructure:"exclude-file-suffixes"`
	ExcludeDirectoryNames string        `mapstructure:"exclude-directory-names"`
	Groups                []groupConfig `mapstructure:"groups"`
}

type groupConfig struct {
	Name                  string          `mapstructure:"name"`
	ConfigDir             string          `mapstructure:"config_dir"`
	ExcludeFileSuffixes   *string         `mapstructure:"exclude-file-suffixes"`
	ExcludeDirectoryNames *string         `mapstructure:"exclude-directory-names"`
	Projects              []projectConfig `mapstructure:"projects"`
}

type projectConfig struct {
	Key              string `mapstructure:"key"`
	Root             string `mapstructure:"root"`
	RespectGitignore bool   `mapstructure:"respect_gitignore"`
}

// Loader reads a workspace file and optionally watches it for changes.
type Loader struct {
	v      *viper.Viper
	path   string
	logger *slog.Logger
}

// NewLoader creates a loader for the workspace file at path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("exclude-file-suffixes", strings.Join(ignore.DefaultExcludeSuffixes, ","))
	v.SetDefault("exclude-directory-names", strings.Join(ignore.DefaultExcludeDirs, ","))
	v.SetDefault("editor", os.Getenv("EDITOR"))
	v.SetEnvPrefix("FILESEARCH")
	v.AutomaticEnv()

	return &Loader{v: v, path: path, logger: logger}
}

// Path returns the workspace file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and validates the workspace file.
func (l *Loader) Load() (*Workspace, error) {
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading workspace %s: %w", l.path, err)
	}
	return l.decode()
}

// Watch calls onChange with the reloaded workspace every time the file changes.
// A change that fails to load is logged and the previous workspace stays in effect.
func (l *Loader) Watch(onChange func(*Workspace)) {
	l.v.OnConfigChange(func(event fsnotify.Event) {
		ws, err := l.decode()
		if err != nil {
			l.logger.Warn("ignoring invalid workspace change", "path", event.Name, "error", err)
			return
		}
		l.logger.Info("workspace changed", "path", event.Name, "groups", len(ws.Groups))
		onChange(ws)
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Workspace, error) {
	var cfg fileConfig
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing workspace %s: %w", l.path, err)
	}
	return build(cfg, filepath.Dir(l.path))
}

// build turns the raw file configuration into a validated workspace.
// Relative paths are resolved against baseDir, the folder of the workspace file.
func build(cfg fileConfig, baseDir string) (*Workspace, error) {
	configDir := cfg.ConfigDir
	if configDir == "" {
		configDir = filepath.Join(baseDir, ".filesearch")
	}
	configDir = resolve(configDir, baseDir)

	ws := &Workspace{DefaultGroup: cfg.DefaultGroup, Editor: cfg.Editor}
	seenGroups := make(map[string]bool)

	for _, gc := range cfg.Groups {
		if gc.Name == "" {
			return nil, fmt.Errorf("group without a name")
		}
		if seenGroups[gc.Name] {
			return nil, fmt.Errorf("duplicate group %q", gc.Name)
		}
		seenGroups[gc.Name] = true

		group := Group{
			Name:            gc.Name,
			ConfigDir:       filepath.Join(configDir, gc.Name),
			ExcludeSuffixes: ParseList(cfg.ExcludeFileSuffixes),
			ExcludeDirs:     ParseList(cfg.ExcludeDirectoryNames),
		}
		if gc.ConfigDir != "" {
			group.ConfigDir = resolve(gc.ConfigDir, baseDir)
		}
		if gc.ExcludeFileSuffixes != nil {
			group.ExcludeSuffixes = ParseList(*gc.ExcludeFileSuffixes)
		}
		if gc.ExcludeDirectoryNames != nil {
			group.ExcludeDirs = ParseList(*gc.ExcludeDirectoryNames)
		}

		seenKeys := make(map[string]bool)
		for _, pc := range gc.Projects {
			if pc.Root == "" {
				return nil, fmt.Errorf("group %q: project without a root", gc.Name)
			}
			root := resolve(pc.Root, baseDir)
			key := pc.Key
			if key == "" {
				key = filepath.Base(root)
			}
			if seenKeys[key] {
				return nil, fmt.Errorf("group %q: duplicate project key %q", gc.Name, key)
			}
			seenKeys[key] = true
			group.Projects = append(group.Projects, Project{
				Key:              key,
				RootDir:          root,
				RespectGitignore: pc.RespectGitignore,
			})
		}
		ws.Groups = append(ws.Groups, group)
	}

	if ws.DefaultGroup != "" && !seenGroups[ws.DefaultGroup] {
		return nil, fmt.Errorf("%w: default group %s", ErrUnknownGroup, ws.DefaultGroup)
	}
	return ws, nil
}

func resolve(path string, baseDir string) string {
	path = expandHome(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
