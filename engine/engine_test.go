package engine

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/filesearch-mcp/index"
	"github.com/lexandro/filesearch-mcp/session"
	"github.com/lexandro/filesearch-mcp/workspace"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
}

// scenarioWorkspace: P1 holds Main.java, Util.java and build.class; P2 holds main.py.
func scenarioWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	base := t.TempDir()
	p1 := filepath.Join(base, "p1")
	p2 := filepath.Join(base, "p2")
	writeFiles(t, p1, "Main.java", "Util.java", "build.class", ".git/HEAD")
	writeFiles(t, p2, "main.py")

	return &workspace.Workspace{Groups: []workspace.Group{
		{
			Name:            "work",
			ConfigDir:       filepath.Join(base, "config", "work"),
			Projects:        []workspace.Project{{Key: "P1", RootDir: p1}, {Key: "P2", RootDir: p2}},
			ExcludeSuffixes: []string{".class"},
			ExcludeDirs:     []string{".git"},
		},
		{
			Name:      "empty",
			ConfigDir: filepath.Join(base, "config", "empty"),
		},
	}}
}

func newTestEngine(t *testing.T, ws *workspace.Workspace) (*Engine, *index.Builder) {
	t.Helper()
	builder := index.NewBuilder(index.NewLogProgress(testLogger()), testLogger())
	return New(ws, builder, testLogger()), builder
}

func Test_Engine_SearchScenario(t *testing.T) {
	e, builder := newTestEngine(t, scenarioWorkspace(t))

	require.NoError(t, e.IndexFiles("work"))
	builder.Wait()

	results, err := e.Search("work", "main", false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Main.java", results[0].FileName)
	assert.Equal(t, "P1", results[0].ProjectKey)
	assert.Equal(t, "main.py", results[1].FileName)
	assert.Equal(t, "P2", results[1].ProjectKey)

	results, err = e.Search("work", "build", false)
	require.NoError(t, err)
	assert.Empty(t, results, "excluded suffixes never reach the index")
}

func Test_Engine_SearchBeforeIndexing(t *testing.T) {
	e, _ := newTestEngine(t, scenarioWorkspace(t))

	_, err := e.Search("work", "main", false)
	assert.ErrorIs(t, err, index.ErrNotIndexed)
}

func Test_Engine_EmptyInput(t *testing.T) {
	e, _ := newTestEngine(t, scenarioWorkspace(t))
	_, err := e.Build(context.Background(), "work")
	require.NoError(t, err)

	results, err := e.Search("work", "", false)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func Test_Engine_GroupWithoutProjects(t *testing.T) {
	e, _ := newTestEngine(t, scenarioWorkspace(t))
	_, err := e.Build(context.Background(), "empty")
	require.NoError(t, err)

	results, err := e.Search("empty", "main", false)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func Test_Engine_CacheFollowsRebuilds(t *testing.T) {
	ws := scenarioWorkspace(t)
	e, _ := newTestEngine(t, ws)
	_, err := e.Build(context.Background(), "work")
	require.NoError(t, err)

	results, err := e.Search("work", "notes", false)
	require.NoError(t, err)
	assert.Empty(t, results)

	writeFiles(t, ws.Groups[0].Projects[1].RootDir, "notes.md")
	_, err = e.Build(context.Background(), "work")
	require.NoError(t, err)

	results, err = e.Search("work", "notes", false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "P2", results[0].ProjectKey)
}

func Test_Engine_SetWorkspaceReindexesChangedGroups(t *testing.T) {
	ws := scenarioWorkspace(t)
	e, builder := newTestEngine(t, &workspace.Workspace{})

	changed := e.SetWorkspace(ws)
	builder.Wait()
	assert.ElementsMatch(t, []string{"work", "empty"}, changed, "first workspace indexes every group")

	updated := &workspace.Workspace{Groups: append([]workspace.Group(nil), ws.Groups...)}
	extra := t.TempDir()
	writeFiles(t, extra, "extra.txt")
	updated.Groups[0].Projects = append(append([]workspace.Project(nil), ws.Groups[0].Projects...),
		workspace.Project{Key: "P3", RootDir: extra})

	changed = e.SetWorkspace(updated)
	builder.Wait()
	assert.Equal(t, []string{"work"}, changed)

	results, err := e.Search("work", "extra", false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "P3", results[0].ProjectKey)
}

func Test_Engine_StatusAndSession(t *testing.T) {
	e, _ := newTestEngine(t, scenarioWorkspace(t))

	status, err := e.Status("work")
	require.NoError(t, err)
	assert.False(t, status.Indexed)

	_, err = e.Build(context.Background(), "work")
	require.NoError(t, err)

	s := session.New(e.Loader("work"), nil, session.Options{}, testLogger())
	require.NoError(t, s.SetInput("Ut"))
	require.Len(t, s.Results(), 1)
	assert.Equal(t, "Util.java", s.Results()[0].FileName)

	status, err = e.Status("work")
	require.NoError(t, err)
	assert.True(t, status.Indexed)
	assert.Equal(t, 3, status.Records)
	assert.Equal(t, 2, status.Projects)
}

func Test_Engine_UnknownGroup(t *testing.T) {
	e, _ := newTestEngine(t, scenarioWorkspace(t))

	assert.ErrorIs(t, e.IndexFiles("nope"), workspace.ErrUnknownGroup)
}

func Test_Engine_SearchSkipsOverlongIndexLines(t *testing.T) {
	ws := scenarioWorkspace(t)
	e, _ := newTestEngine(t, ws)

	configDir := ws.Groups[0].ConfigDir
	require.NoError(t, os.MkdirAll(configDir, 0755))
	content := "main.go\t/p/main.go\tP\n" + strings.Repeat("x", 2*1024*1024) + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, index.FileName), []byte(content), 0644))

	results, err := e.Search("work", "main", false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "main.go", results[0].FileName)
}

func Test_Engine_UnreadableIndexYieldsNoResults(t *testing.T) {
	ws := scenarioWorkspace(t)
	e, _ := newTestEngine(t, ws)

	// A directory in place of the index file fails to read but exists.
	require.NoError(t, os.MkdirAll(filepath.Join(ws.Groups[0].ConfigDir, index.FileName), 0755))

	results, err := e.Search("work", "main", false)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = e.Search("nope", "main", false)
	assert.ErrorIs(t, err, workspace.ErrUnknownGroup)
}
