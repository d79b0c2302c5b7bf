// Package editor opens selected files in the user's editor.
package editor

import (
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// ErrNoEditor is returned when no editor command is configured.
var ErrNoEditor = errors.New("no editor configured (set editor in the workspace or $EDITOR)")

// Command builds the editor invocation for a file: the configured command line
// with the file path appended.
type Command struct {
	name   string
	args   []string
	logger *slog.Logger
}

// NewCommand parses an editor command line such as "code --wait". An empty line
// falls back to $VISUAL, then $EDITOR.
func NewCommand(commandLine string, logger *slog.Logger) *Command {
	if strings.TrimSpace(commandLine) == "" {
		commandLine = os.Getenv("VISUAL")
	}
	if strings.TrimSpace(commandLine) == "" {
		commandLine = os.Getenv("EDITOR")
	}
	c := &Command{logger: logger}
	if fields := strings.Fields(commandLine); len(fields) > 0 {
		c.name = fields[0]
		c.args = fields[1:]
	}
	return c
}

// Cmd returns the command that opens filePath, without starting it.
func (c *Command) Cmd(filePath string) (*exec.Cmd, error) {
	if c.name == "" {
		return nil, ErrNoEditor
	}
	args := append(append([]string{}, c.args...), filePath)
	c.logger.Debug("editor command", "editor", c.name, "path", filePath)
	return exec.Command(c.name, args...), nil
}
