package mcp

import "github.com/mark3labs/mcp-go/mcp"

const rangeHelp = "RFC3339, YYYY-MM-DD, unix seconds, or a lookback such as -6h. "

var countsGetToolDef = mcp.NewTool("counts_get",
	mcp.WithDescription("Reconstruct per-minute player counts for a time range from the tracker's sparse hour records. "+
		"Untracked minutes are null. Returns the dense series keyed by smoothing window and category."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("from", mcp.Description("Range start. "+rangeHelp+"Default: 24h before to.")),
	mcp.WithString("to", mcp.Description("Range end. "+rangeHelp+"Default: now.")),
	mcp.WithArray("categories", mcp.Description("Restrict output to these categories (\"all\" is always included)."), mcp.WithStringItems()),
	mcp.WithArray("smoothing", mcp.Description("Extra client-side smoothing windows: minutes (60, 720, 1440, 10080) or labels (\"1 day\")."), mcp.WithStringItems()),
)

var countsRollingToolDef = mcp.NewTool("counts_rolling",
	mcp.WithDescription("Fetch server-side rolling averages of player counts for one or more windows, merged into one series."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("from", mcp.Description("Range start. "+rangeHelp)),
	mcp.WithString("to", mcp.Description("Range end. "+rangeHelp)),
	mcp.WithArray("windows", mcp.Description("Windows in minutes or labels. Default: raw (0)."), mcp.WithStringItems()),
	mcp.WithArray("categories", mcp.Description("Restrict output to these categories."), mcp.WithStringItems()),
)

var countsSummaryToolDef = mcp.NewTool("counts_summary",
	mcp.WithDescription("Summarize player counts over a range: min, max, mean, latest and peak time per category, plus a markdown table."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("from", mcp.Description("Range start. "+rangeHelp)),
	mcp.WithString("to", mcp.Description("Range end. "+rangeHelp)),
	mcp.WithArray("categories", mcp.Description("Restrict output to these categories."), mcp.WithStringItems()),
)

var playerSessionsToolDef = mcp.NewTool("player_sessions",
	mcp.WithDescription("List the intervals during which a player was online. An unknown player yields an empty list with a diagnostic."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("name", mcp.Required(), mcp.Description("Player display name.")),
	mcp.WithString("from", mcp.Description("Range start. "+rangeHelp)),
	mcp.WithString("to", mcp.Description("Range end. "+rangeHelp)),
	mcp.WithBoolean("server_side", mcp.Description("Let the tracker server compute the intervals (default: false).")),
)

var playerUUIDToolDef = mcp.NewTool("player_uuid",
	mcp.WithDescription("Resolve a player display name to its UUID and name map index."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("name", mcp.Required(), mcp.Description("Player display name.")),
)

var namesListToolDef = mcp.NewTool("names_list",
	mcp.WithDescription("List every tracked entity UUID with its index in the tracker's name map."),
	mcp.WithReadOnlyHintAnnotation(true),
)
