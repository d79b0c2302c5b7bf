package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lexandro/filesearch-mcp/engine"
	"github.com/lexandro/filesearch-mcp/index"
	"github.com/lexandro/filesearch-mcp/workspace"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGroup(t *testing.T) workspace.Group {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "p1")
	if err := os.MkdirAll(filepath.Join(root, "node_modules"), 0755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0644)
	os.WriteFile(filepath.Join(root, "node_modules", "index.js"), nil, 0644)
	return workspace.Group{
		Name:        "work",
		ConfigDir:   filepath.Join(base, ".filesearch", "work"),
		Projects:    []workspace.Project{{Key: "P1", RootDir: root}},
		ExcludeDirs: []string{"node_modules"},
	}
}

func testEngine(group workspace.Group) (*engine.Engine, *index.Builder) {
	builder := index.NewBuilder(index.NewLogProgress(testLogger()), testLogger())
	ws := &workspace.Workspace{Groups: []workspace.Group{group}}
	return engine.New(ws, builder, testLogger()), builder
}

func Test_performSyncVerification_NotIndexed(t *testing.T) {
	group := testGroup(t)

	result, err := performSyncVerification(group, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if !result.NotIndexed {
		t.Error("expected NotIndexed for a group without an index file")
	}
	if result.OutOfSync() {
		t.Error("a missing index is not drift")
	}
}

func Test_performSyncVerification_InSyncReturnsZeros(t *testing.T) {
	group := testGroup(t)
	e, _ := testEngine(group)
	if _, err := e.Build(context.Background(), "work"); err != nil {
		t.Fatal(err)
	}

	result, err := performSyncVerification(group, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if result.MissingFiles != 0 || result.StaleFiles != 0 {
		t.Errorf("expected in sync, got missing=%d stale=%d", result.MissingFiles, result.StaleFiles)
	}
	if result.Duration == 0 {
		t.Error("expected Duration to be set")
	}
}

func Test_performSyncVerification_DetectsMissingFiles(t *testing.T) {
	group := testGroup(t)
	e, _ := testEngine(group)
	if _, err := e.Build(context.Background(), "work"); err != nil {
		t.Fatal(err)
	}

	os.WriteFile(filepath.Join(group.Projects[0].RootDir, "util.go"), nil, 0644)
	// Excluded directories never count as drift
	os.WriteFile(filepath.Join(group.Projects[0].RootDir, "node_modules", "more.js"), nil, 0644)

	result, err := performSyncVerification(group, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if result.MissingFiles != 1 {
		t.Errorf("expected 1 missing file, got %d", result.MissingFiles)
	}
	if result.StaleFiles != 0 {
		t.Errorf("expected 0 stale files, got %d", result.StaleFiles)
	}
}

func Test_performSyncVerification_DetectsStaleFiles(t *testing.T) {
	group := testGroup(t)
	e, _ := testEngine(group)
	if _, err := e.Build(context.Background(), "work"); err != nil {
		t.Fatal(err)
	}

	os.Remove(filepath.Join(group.Projects[0].RootDir, "main.go"))

	result, err := performSyncVerification(group, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if result.StaleFiles != 1 {
		t.Errorf("expected 1 stale file, got %d", result.StaleFiles)
	}
	if result.MissingFiles != 0 {
		t.Errorf("expected 0 missing files, got %d", result.MissingFiles)
	}
}

func Test_syncWorkspace_ReindexesDriftedGroups(t *testing.T) {
	group := testGroup(t)
	e, builder := testEngine(group)
	if _, err := e.Build(context.Background(), "work"); err != nil {
		t.Fatal(err)
	}

	if got := syncWorkspace(e, testLogger()); len(got) != 0 {
		t.Fatalf("expected no reindex while in sync, got %v", got)
	}

	os.WriteFile(filepath.Join(group.Projects[0].RootDir, "util.go"), nil, 0644)

	got := syncWorkspace(e, testLogger())
	builder.Wait()
	if len(got) != 1 || got[0] != "work" {
		t.Fatalf("expected work to be reindexed, got %v", got)
	}

	results, err := e.Search("work", "util", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("expected util.go in the rebuilt index, got %d results", len(results))
	}
}

func Test_runPeriodicSync_StopsOnChannelClose(t *testing.T) {
	e, _ := testEngine(testGroup(t))

	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		runPeriodicSync(time.Second, e, testLogger(), stop)
		close(done)
	}()

	close(stop)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("runPeriodicSync did not stop within 3 seconds after closing stop channel")
	}
}
