package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lexandro/filesearch-mcp/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the filesearch_status tool.
type StatusArgs struct {
	Group string `json:"group,omitempty" jsonschema:"Only report this group (all groups when omitted)"`
}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	Engine    *engine.Engine
	StartTime time.Time
	Logger    *slog.Logger
}

// Handle processes a filesearch_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	names := h.Engine.Workspace().GroupNames()
	if args.Group != "" {
		names = []string{args.Group}
	}

	var builder strings.Builder
	builder.WriteString("=== filesearch-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(time.Since(h.StartTime))))
	if len(names) == 0 {
		builder.WriteString("No groups configured.\n")
	}

	for _, name := range names {
		status, err := h.Engine.Status(name)
		if err != nil {
			h.Logger.Warn("filesearch_status failed", "group", name, "error", err)
			return errorResult(fmt.Sprintf("Status error: %v", err)), nil, nil
		}
		builder.WriteString("\n")
		builder.WriteString(FormatGroupStatus(status))
	}

	h.Logger.Info("filesearch_status", "groups", len(names))
	return textResult(builder.String()), nil, nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
