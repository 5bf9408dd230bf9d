package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchLibraryTool defines the search_library MCP tool.
var searchLibraryTool = mcp.NewTool("search_library",
	mcp.WithDescription("Search the media library semantically. Returns annotated media contexts and chunks relevant to the query."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
	mcp.WithString("type_filter",
		mcp.Description("Filter results by document type"),
		mcp.Enum("context", "chunk"),
	),
	mcp.WithString("kind_filter",
		mcp.Description("Filter results by media kind"),
		mcp.Enum("text", "image", "video", "document"),
	),
)

// getContextTool defines the get_context MCP tool.
var getContextTool = mcp.NewTool("get_context",
	mcp.WithDescription("Get a media context by ID, including its annotation fields."),
	mcp.WithString("context_id",
		mcp.Required(),
		mcp.Description("ID of the media context"),
	),
)

// listChunksTool defines the list_chunks MCP tool.
var listChunksTool = mcp.NewTool("list_chunks",
	mcp.WithDescription("List the annotated chunks of a media context in order. Chunk indices may have gaps where annotation failed."),
	mcp.WithString("context_id",
		mcp.Required(),
		mcp.Description("ID of the media context"),
	),
)
