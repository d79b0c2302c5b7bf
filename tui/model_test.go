package tui

import (
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/filesearch-mcp/index"
	"github.com/lexandro/filesearch-mcp/session"
)

type fakeIndexer struct {
	groups []string
	err    error
}

func (f *fakeIndexer) IndexFiles(groupName string) error {
	f.groups = append(f.groups, groupName)
	return f.err
}

type fakeEditor struct {
	paths []string
	err   error
}

func (f *fakeEditor) Cmd(filePath string) (*exec.Cmd, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.paths = append(f.paths, filePath)
	return exec.Command("true", filePath), nil
}

type testEnv struct {
	model   *Model
	records []index.Record
	loadErr error
	indexer *fakeIndexer
	editor  *fakeEditor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		records: []index.Record{
			{FileName: "Main.java", FilePath: "/p1/Main.java", ProjectKey: "P1"},
			{FileName: "main.py", FilePath: "/p2/main.py", ProjectKey: "P2"},
			{FileName: "map.go", FilePath: "/p2/map.go", ProjectKey: "P2"},
		},
		indexer: &fakeIndexer{},
		editor:  &fakeEditor{},
	}
	env.model = New(Config{
		Group: "work",
		Loader: session.LoaderFunc(func() ([]index.Record, error) {
			return env.records, env.loadErr
		}),
		Indexer: env.indexer,
		Editor:  env.editor,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	env.model.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	return env
}

func (e *testEnv) typeText(text string) {
	for _, r := range text {
		e.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (e *testEnv) press(keyType tea.KeyType) tea.Cmd {
	_, cmd := e.model.Update(tea.KeyMsg{Type: keyType})
	return cmd
}

func Test_Model_TypingDrivesSession(t *testing.T) {
	env := newTestEnv(t)

	env.typeText("m")
	assert.Equal(t, session.StateTyping, env.model.Session().State())

	env.typeText("a")
	assert.Equal(t, session.StateRebuilding, env.model.Session().State())
	assert.Len(t, env.model.Session().Results(), 3)

	env.typeText("i")
	assert.Equal(t, session.StateRefining, env.model.Session().State())
	assert.Len(t, env.model.Session().Results(), 2)

	view := env.model.View()
	assert.Contains(t, view, "Main.java")
	assert.Contains(t, view, "[P2] /p2/main.py")
	assert.NotContains(t, view, "map.go")
}

func Test_Model_Backspace(t *testing.T) {
	env := newTestEnv(t)
	env.typeText("mai")

	env.press(tea.KeyBackspace)

	assert.Equal(t, "ma", env.model.Session().Input())
	assert.Len(t, env.model.Session().Results(), 3)
}

func Test_Model_CursorKeys(t *testing.T) {
	env := newTestEnv(t)
	env.typeText("ma")

	env.press(tea.KeyDown)
	env.press(tea.KeyCtrlN)
	env.press(tea.KeyDown)
	assert.Equal(t, 2, env.model.Session().Cursor())

	env.press(tea.KeyUp)
	env.press(tea.KeyCtrlP)
	env.press(tea.KeyCtrlP)
	assert.Equal(t, 0, env.model.Session().Cursor())
}

func Test_Model_EnterOpensSelection(t *testing.T) {
	env := newTestEnv(t)
	env.typeText("ma")
	env.press(tea.KeyDown)

	cmd := env.press(tea.KeyEnter)

	require.NotNil(t, cmd)
	assert.Equal(t, []string{"/p2/main.py"}, env.editor.paths)
	assert.False(t, env.model.Session().Visible())

	env.model.Update(editorFinishedMsg{path: "/p2/main.py"})
	assert.True(t, env.model.Session().Visible())
	assert.Equal(t, "ma", env.model.Session().Input())
}

func Test_Model_EnterWithoutResults(t *testing.T) {
	env := newTestEnv(t)

	cmd := env.press(tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Empty(t, env.editor.paths)
}

func Test_Model_EditorMissing(t *testing.T) {
	env := newTestEnv(t)
	env.editor.err = errors.New("no editor configured")
	env.typeText("ma")

	cmd := env.press(tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.True(t, env.model.Session().Visible())
	assert.Contains(t, env.model.View(), "no editor configured")
}

func Test_Model_DoubleClickOpens(t *testing.T) {
	env := newTestEnv(t)
	env.typeText("ma")
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env.model.now = func() time.Time { return clock }

	row := listTop + 1
	_, cmd := env.model.Update(tea.MouseMsg{X: 4, Y: row, Type: tea.MouseLeft})
	assert.Nil(t, cmd, "single click only selects")
	assert.Equal(t, 1, env.model.Session().Cursor())

	clock = clock.Add(100 * time.Millisecond)
	_, cmd = env.model.Update(tea.MouseMsg{X: 4, Y: row, Type: tea.MouseLeft})

	require.NotNil(t, cmd)
	assert.Equal(t, []string{"/p2/main.py"}, env.editor.paths)
}

func Test_Model_SlowClicksDoNotOpen(t *testing.T) {
	env := newTestEnv(t)
	env.typeText("ma")
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env.model.now = func() time.Time { return clock }

	env.model.Update(tea.MouseMsg{X: 4, Y: listTop, Type: tea.MouseLeft})
	clock = clock.Add(time.Second)
	_, cmd := env.model.Update(tea.MouseMsg{X: 4, Y: listTop, Type: tea.MouseLeft})

	assert.Nil(t, cmd)
	assert.Empty(t, env.editor.paths)
}

func Test_Model_ClickOutsideResults(t *testing.T) {
	env := newTestEnv(t)
	env.typeText("ma")

	env.model.Update(tea.MouseMsg{X: 4, Y: 0, Type: tea.MouseLeft})
	env.model.Update(tea.MouseMsg{X: 4, Y: listTop + 5, Type: tea.MouseLeft})

	assert.Equal(t, 0, env.model.Session().Cursor())
}

func Test_Model_NotIndexedNotice(t *testing.T) {
	env := newTestEnv(t)
	env.loadErr = index.ErrNotIndexed

	env.typeText("ma")

	assert.Contains(t, env.model.View(), `Group "work" has not been indexed yet`)
}

func Test_Model_IndexKeyAndProgress(t *testing.T) {
	env := newTestEnv(t)
	env.loadErr = index.ErrNotIndexed
	env.typeText("ma")

	env.press(tea.KeyCtrlR)
	assert.Equal(t, []string{"work"}, env.indexer.groups)

	env.model.Update(ProgressMsg{Label: "Indexing files: work", Running: true})
	assert.Contains(t, env.model.View(), "Indexing files: work")

	env.loadErr = nil
	env.model.Update(ProgressMsg{Label: "Indexing files: work", Running: false})

	view := env.model.View()
	assert.NotContains(t, view, "has not been indexed")
	assert.Contains(t, view, "Index updated")
	assert.Len(t, env.model.Session().Results(), 3)
}

func Test_Model_FailedIndexShowsError(t *testing.T) {
	env := newTestEnv(t)
	env.typeText("ma")
	before := len(env.model.Session().Results())

	env.model.Update(ProgressMsg{Label: "Indexing files: work", Running: true})
	env.model.Update(ProgressMsg{Label: "Indexing files: work", Err: index.ErrIndexWriteFailed})

	view := env.model.View()
	assert.Contains(t, view, "Index failed: index write failed")
	assert.NotContains(t, view, "Index updated")
	assert.Len(t, env.model.Session().Results(), before)
}

func Test_Model_Quit(t *testing.T) {
	for _, keyType := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		env := newTestEnv(t)

		cmd := env.press(keyType)

		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.False(t, env.model.Session().Visible())
	}
}

func Test_Model_ScrollsToCursor(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 20; i++ {
		env.records = append(env.records, index.Record{
			FileName:   "mod" + strings.Repeat("x", i) + ".go",
			FilePath:   "/p/mod.go",
			ProjectKey: "P",
		})
	}
	env.typeText("m")
	env.typeText("o")
	require.Len(t, env.model.Session().Results(), 20)

	for i := 0; i < 10; i++ {
		env.press(tea.KeyDown)
	}

	assert.Equal(t, 10, env.model.Session().Cursor())
	assert.Equal(t, 10-env.model.listHeight()+1, env.model.offset)
	assert.Contains(t, env.model.View(), "mod"+strings.Repeat("x", 10)+".go")
}
