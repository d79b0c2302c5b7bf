package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexandro/filesearch-mcp/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// IndexArgs defines the input parameters for the filesearch_index tool.
type IndexArgs struct {
	Group string `json:"group,omitempty" jsonschema:"Project group to index (default group when omitted)"`
	Wait  bool   `json:"wait,omitempty" jsonschema:"Block until the index file has been written and report its statistics"`
}

// IndexHandler holds the dependencies for the index tool.
type IndexHandler struct {
	Engine *engine.Engine
	Logger *slog.Logger
}

// Handle processes a filesearch_index request.
func (h *IndexHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args IndexArgs) (*mcp.CallToolResult, any, error) {
	if !args.Wait {
		if err := h.Engine.IndexFiles(args.Group); err != nil {
			h.Logger.Error("filesearch_index failed", "group", args.Group, "error", err)
			return errorResult(fmt.Sprintf("Index error: %v", err)), nil, nil
		}
		h.Logger.Info("filesearch_index started", "group", args.Group)
		return textResult(fmt.Sprintf("Indexing of group %s started in the background.", groupLabel(args.Group))), nil, nil
	}

	h.Logger.Info("filesearch_index started", "group", args.Group, "wait", true)
	stats, err := h.Engine.Build(ctx, args.Group)
	if err != nil {
		h.Logger.Error("filesearch_index failed", "group", args.Group, "error", err)
		return errorResult(fmt.Sprintf("Index error: %v", err)), nil, nil
	}

	return textResult(FormatBuildStats(stats)), nil, nil
}
