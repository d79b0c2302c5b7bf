package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/filesearch-mcp/editor"
	"github.com/lexandro/filesearch-mcp/engine"
	"github.com/lexandro/filesearch-mcp/index"
	"github.com/lexandro/filesearch-mcp/server"
	"github.com/lexandro/filesearch-mcp/tools"
	"github.com/lexandro/filesearch-mcp/tui"
	"github.com/lexandro/filesearch-mcp/workspace"
)

const usage = `Usage: filesearch-mcp [flags] [command]

Commands:
  serve   run the MCP server on stdio (default)
  index   build the index of -group, or of every group, and exit
  tui     open the interactive file search

Flags:
`

func main() {
	// Parse CLI flags
	var workspacePath string
	var groupName string
	var logLevel string
	var logFile string
	var caseSensitive bool
	var watch bool
	var syncInterval time.Duration

	flag.StringVar(&workspacePath, "workspace", "", "Workspace file (default: ./"+workspace.DefaultConfigName+")")
	flag.StringVar(&groupName, "group", "", "Project group (default: the workspace's default group)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (default: filesearch-mcp.log next to the workspace file)")
	flag.BoolVar(&caseSensitive, "case-sensitive", false, "Match file names case-sensitively in the tui")
	flag.BoolVar(&watch, "watch", false, "Rebuild a group's index when files under its projects are added or removed")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Verify indexes against the disk at this interval and rebuild on drift (0 disables)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "serve"
	}
	if command != "serve" && command != "index" && command != "tui" {
		flag.Usage()
		os.Exit(2)
	}

	// Resolve workspace file
	if workspacePath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
			os.Exit(1)
		}
		workspacePath = filepath.Join(cwd, workspace.DefaultConfigName)
	}
	workspacePath, err := filepath.Abs(workspacePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving workspace path: %v\n", err)
		os.Exit(1)
	}

	// Default log file: filesearch-mcp.log next to the workspace file
	if logFile == "" {
		logFile = filepath.Join(filepath.Dir(workspacePath), "filesearch-mcp.log")
	}

	// Setup logger (always to file or stderr, never to stdout - stdout is for MCP stdio and the tui)
	logger := setupLogger(logLevel, logFile)

	loader := workspace.NewLoader(workspacePath, logger)
	ws, err := loader.Load()
	if err != nil {
		logger.Error("failed to load workspace", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting filesearch-mcp",
		"command", command,
		"workspace", workspacePath,
		"groups", ws.GroupNames(),
	)

	logProgress := index.NewLogProgress(logger)
	var progress index.Progress = logProgress
	var tuiProgress *tui.Progress
	if command == "tui" {
		tuiProgress = tui.NewProgress(logProgress)
		progress = tuiProgress
	}
	builder := index.NewBuilder(progress, logger)
	searchEngine := engine.New(ws, builder, logger)

	if command == "index" {
		if err := runIndexCommand(context.Background(), searchEngine, groupName, os.Stdout); err != nil {
			logger.Error("index command failed", "error", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Background upkeep: workspace reloads, file watching and periodic sync
	var watchers *groupWatchers
	if watch {
		watchers = newGroupWatchers(searchEngine, logger)
		watchers.Reset(ws)
		defer watchers.Close()
	}
	loader.Watch(func(updated *workspace.Workspace) {
		searchEngine.SetWorkspace(updated)
		if watchers != nil {
			watchers.Reset(updated)
		}
	})
	if syncInterval > 0 {
		stop := make(chan struct{})
		defer close(stop)
		go runPeriodicSync(syncInterval, searchEngine, logger, stop)
	}

	if command == "tui" {
		err = runTUI(searchEngine, tuiProgress, groupName, caseSensitive, logger)
	} else {
		err = runServer(searchEngine, logger)
	}

	builder.Wait()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runServer serves the MCP tools on stdio until the client disconnects.
func runServer(e *engine.Engine, logger *slog.Logger) error {
	searchHandler := &tools.SearchHandler{Engine: e, Logger: logger}
	indexHandler := &tools.IndexHandler{Engine: e, Logger: logger}
	statusHandler := &tools.StatusHandler{Engine: e, StartTime: time.Now(), Logger: logger}

	mcpServer := server.Setup(searchHandler, indexHandler, statusHandler)

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Error("MCP server error", "error", err)
		return err
	}
	return nil
}

// runTUI runs the interactive search over one group until the user quits.
func runTUI(e *engine.Engine, progress *tui.Progress, groupName string, caseSensitive bool, logger *slog.Logger) error {
	group, err := e.Workspace().Group(groupName)
	if err != nil {
		return err
	}

	model := tui.New(tui.Config{
		Group:         group.Name,
		Loader:        e.Loader(group.Name),
		Indexer:       e,
		Editor:        editor.NewCommand(e.Workspace().Editor, logger),
		CaseSensitive: caseSensitive,
		Logger:        logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	progress.Attach(program)

	if _, err := program.Run(); err != nil {
		logger.Error("tui error", "error", err)
		return err
	}
	return nil
}

// setupLogger creates an slog.Logger writing to stderr or a file.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
