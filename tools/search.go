package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/filesearch-mcp/engine"
	"github.com/lexandro/filesearch-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultMaxResults caps the files listed by filesearch_search.
const DefaultMaxResults = 50

// SearchArgs defines the input parameters for the filesearch_search tool.
type SearchArgs struct {
	Query         string `json:"query" jsonschema:"File name prefix or glob (e.g. Main, *Util, m?in, *.{go,py}). Matched against the file name only"`
	Group         string `json:"group,omitempty" jsonschema:"Project group to search (default group when omitted)"`
	CaseSensitive bool   `json:"caseSensitive,omitempty" jsonschema:"Match letter case exactly (default false)"`
	MaxResults    int    `json:"maxResults,omitempty" jsonschema:"Maximum number of files to return (default 50)"`
}

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	Engine *engine.Engine
	Logger *slog.Logger
}

// Handle processes a filesearch_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Query == "" {
		h.Logger.Warn("filesearch_search called with empty query")
		return errorResult("Error: query parameter is required"), nil, nil
	}

	results, err := h.Engine.Search(args.Group, args.Query, args.CaseSensitive)
	if errors.Is(err, index.ErrNotIndexed) {
		h.Logger.Info("filesearch_search on unindexed group", "group", args.Group)
		return errorResult(fmt.Sprintf("Group %s has not been indexed yet. Run filesearch_index first.", groupLabel(args.Group))), nil, nil
	}
	if err != nil {
		h.Logger.Error("filesearch_search failed", "query", args.Query, "group", args.Group, "error", err)
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	h.Logger.Info("filesearch_search",
		"query", args.Query,
		"group", args.Group,
		"results", len(results),
		"elapsed", time.Since(start),
	)

	return textResult(FormatFileResults(results, maxResults)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func groupLabel(name string) string {
	if name == "" {
		return "(default)"
	}
	return fmt.Sprintf("%q", name)
}
