package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/lexandro/filesearch-mcp/engine"
	"github.com/lexandro/filesearch-mcp/index"
)

// FormatFileResults lists matching files as "name  [project]  path", at most
// maxResults of them.
func FormatFileResults(results []index.Record, maxResults int) string {
	if len(results) == 0 {
		return "No files matched."
	}

	shown := results
	if maxResults > 0 && len(shown) > maxResults {
		shown = shown[:maxResults]
	}

	var builder strings.Builder
	if len(shown) < len(results) {
		builder.WriteString(fmt.Sprintf("Found %d files (showing first %d):\n\n", len(results), len(shown)))
	} else {
		builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(results)))
	}

	nameWidth := 0
	for _, record := range shown {
		nameWidth = max(nameWidth, len(record.FileName))
	}
	for _, record := range shown {
		builder.WriteString(fmt.Sprintf("  %-*s  [%s]  %s\n", nameWidth, record.FileName, record.ProjectKey, record.FilePath))
	}

	return builder.String()
}

// FormatBuildStats summarizes a finished indexing run.
func FormatBuildStats(stats *index.BuildStats) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Indexed group %q: %d files from %d projects in %s\n",
		stats.Group, stats.Records, stats.Projects, stats.Duration.Round(time.Millisecond)))
	if stats.SkippedFiles > 0 || stats.SkippedDirs > 0 {
		builder.WriteString(fmt.Sprintf("Excluded: %d files, %d directories\n", stats.SkippedFiles, stats.SkippedDirs))
	}
	if stats.UnreadableDirs > 0 {
		builder.WriteString(fmt.Sprintf("Unreadable directories skipped: %d\n", stats.UnreadableDirs))
	}
	if stats.Rejected > 0 {
		builder.WriteString(fmt.Sprintf("Files with unsupported names left out: %d\n", stats.Rejected))
	}
	return builder.String()
}

// FormatGroupStatus describes one group's index.
func FormatGroupStatus(status engine.GroupStatus) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Group: %s\n", status.Group))
	builder.WriteString(fmt.Sprintf("  Projects: %d\n", status.Projects))
	builder.WriteString(fmt.Sprintf("  Index file: %s\n", status.IndexPath))

	switch {
	case !status.Indexed:
		builder.WriteString("  Indexed: no\n")
	default:
		builder.WriteString(fmt.Sprintf("  Indexed: %s (%s)\n",
			status.ModTime.Format(time.DateTime), formatFileSize(status.Size)))
	}
	if status.Records >= 0 {
		builder.WriteString(fmt.Sprintf("  Files: %d\n", status.Records))
	}
	if status.Building {
		builder.WriteString("  Indexing in progress\n")
	}
	return builder.String()
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
