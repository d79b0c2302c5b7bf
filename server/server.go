package server

import (
	"github.com/lexandro/filesearch-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Setup creates and configures the MCP server with all tool registrations.
func Setup(
	searchHandler *tools.SearchHandler,
	indexHandler *tools.IndexHandler,
	statusHandler *tools.StatusHandler,
) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "filesearch-mcp",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server finds files by name across groups of projects. Each group keeps a flat index file of every file name, so lookups never walk the filesystem.

- Use filesearch_search to find files by name prefix or glob
- Use filesearch_index once per group before searching, and again when many files were added or removed
- Use filesearch_status to see which groups are indexed`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "filesearch_search",
		Description: `Find files by name across all projects of a group. The query matches the beginning of the file name; directories are not part of the match.

Query examples:
  - "Main" - files whose name starts with Main (case-insensitive by default)
  - "*Util" - names containing Util anywhere
  - "m?in" - ? matches a single character
  - "*.{go,py}" - Go or Python files

Results are ordered by file name and include the project key and absolute path.`,
	}, searchHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "filesearch_index",
		Description: "Rebuild the file index of a group by walking all of its projects. Runs in the background unless wait is true.",
	}, indexHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "filesearch_status",
		Description: "Show each group's projects, index file location, last index time and whether indexing is in progress.",
	}, statusHandler.Handle)

	return mcpServer
}
