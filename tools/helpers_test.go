package tools

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/lexandro/filesearch-mcp/engine"
	"github.com/lexandro/filesearch-mcp/index"
	"github.com/lexandro/filesearch-mcp/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine creates a one-group workspace "work" with two small projects.
func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	base := t.TempDir()
	files := map[string]string{
		"p1/src/Main.java":    "class Main {}",
		"p1/build/Main.class": "",
		"p2/main.py":          "print()",
		"p2/util.py":          "",
	}
	for rel, content := range files {
		path := filepath.Join(base, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	ws := &workspace.Workspace{Groups: []workspace.Group{{
		Name:      "work",
		ConfigDir: filepath.Join(base, ".filesearch", "work"),
		Projects: []workspace.Project{
			{Key: "P1", RootDir: filepath.Join(base, "p1")},
			{Key: "P2", RootDir: filepath.Join(base, "p2")},
		},
		ExcludeSuffixes: []string{".class"},
		ExcludeDirs:     []string{"build"},
	}}}

	builder := index.NewBuilder(index.NewLogProgress(testLogger()), testLogger())
	return engine.New(ws, builder, testLogger())
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content in result")
	}
	return result.Content[0].(*mcp.TextContent).Text
}
