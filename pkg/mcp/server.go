// Package mcp exposes test script tooling over the Model Context Protocol
// so AI agents can inspect and edit scripts through file-path based tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server with mast tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"mast",
		version,
		server.WithToolCapabilities(true),
	)

	// Register tools
	s.AddTool(
		mcp.NewTool("script_validate",
			mcp.WithDescription("Validate a test script JSON file (structural, semantic and domain checks)"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the script JSON file")),
			mcp.WithString("strict", mcp.Description("Set to 'true' to apply the stricter compatibility profile")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("script_migrate",
			mcp.WithDescription("Migrate a legacy flat recording to the step-based format"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the legacy recording JSON file")),
			mcp.WithString("out", mcp.Description("Output path (defaults to <name>.script.json next to the input)")),
		),
		HandleMigrate,
	)

	s.AddTool(
		mcp.NewTool("script_merge",
			mcp.WithDescription("Merge two or more steps into one, actions ordered by pool timestamp"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the script JSON file")),
			mcp.WithString("step_ids", mcp.Required(), mcp.Description("Comma-separated step ids to merge")),
			mcp.WithString("description", mcp.Description("Description for the merged step (optional)")),
			mcp.WithString("expected_result", mcp.Description("Expected result for the merged step (optional)")),
			mcp.WithString("out", mcp.Description("Output path (defaults to in-place)")),
			mcp.WithString("dry_run", mcp.Description("Set to 'true' to preview without writing")),
		),
		HandleMerge,
	)

	s.AddTool(
		mcp.NewTool("script_split",
			mcp.WithDescription("Split one step into several, each split listing its actions explicitly"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the script JSON file")),
			mcp.WithString("step_id", mcp.Required(), mcp.Description("Id of the step to split")),
			mcp.WithString("splits", mcp.Required(), mcp.Description(`JSON array of splits: [{"description":"...","action_ids":["..."]}]`)),
			mcp.WithString("out", mcp.Description("Output path (defaults to in-place)")),
			mcp.WithString("dry_run", mcp.Description("Set to 'true' to preview without writing")),
		),
		HandleSplit,
	)

	s.AddTool(
		mcp.NewTool("script_split_suggest",
			mcp.WithDescription("Suggest how to split a step into k parts at its largest idle gaps"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the script JSON file")),
			mcp.WithString("step_id", mcp.Required(), mcp.Description("Id of the step to analyze")),
			mcp.WithString("parts", mcp.Description("Number of parts (default 2)")),
		),
		HandleSplitSuggest,
	)

	s.AddTool(
		mcp.NewTool("script_update_action",
			mcp.WithDescription("Replace one action in the shared pool; every referencing step sees the change"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the script JSON file")),
			mcp.WithString("action_id", mcp.Required(), mcp.Description("Id of the pool action to update")),
			mcp.WithString("action", mcp.Required(), mcp.Description("Replacement action as JSON")),
			mcp.WithString("out", mcp.Description("Output path (defaults to in-place)")),
		),
		HandleUpdateAction,
	)

	s.AddTool(
		mcp.NewTool("script_info",
			mcp.WithDescription("Summarize a script: metadata, steps, pool statistics"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the script JSON file")),
		),
		HandleInfo,
	)

	s.AddTool(
		mcp.NewTool("script_autofix",
			mcp.WithDescription("Apply automatic repairs (ids, bounds, ordering, counters) and report them"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the script JSON file")),
			mcp.WithString("out", mcp.Description("Output path (defaults to in-place)")),
		),
		HandleAutoFix,
	)

	return s
}
