package mcp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/contextdeck/contextdeck/internal/media"
	"github.com/contextdeck/contextdeck/internal/vectordb"
)

// handleSearchLibrary performs semantic search over the library vector store.
func (s *Server) handleSearchLibrary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	var filter *vectordb.SearchFilter
	if typeStr := request.GetString("type_filter", ""); typeStr != "" {
		docType := vectordb.DocumentType(typeStr)
		filter = &vectordb.SearchFilter{Type: &docType}
	}
	if kindStr := request.GetString("kind_filter", ""); kindStr != "" {
		if filter == nil {
			filter = &vectordb.SearchFilter{}
		}
		filter.Kind = &kindStr
	}

	results, err := s.store.Search(ctx, query, limit, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The library may be empty; upload media first."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// handleGetContext returns a media context with its annotation.
func (s *Server) handleGetContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contextID, err := request.RequireString("context_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: context_id"), nil
	}

	mc, err := s.media.GetContext(ctx, contextID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mcp.NewToolResultError(fmt.Sprintf("no media context with ID %q", contextID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("loading context: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", mc.Name))
	sb.WriteString(fmt.Sprintf("ID: %s\nKind: %s\nSize: %d bytes\nUploaded: %s\n",
		mc.ID, mc.Kind, mc.Size, mc.CreatedAt.Format("2006-01-02 15:04:05")))
	if mc.FileURL != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n", mc.FileURL))
	}
	if mc.UserTags != "" {
		sb.WriteString(fmt.Sprintf("User tags: %s\n", mc.UserTags))
	}
	sb.WriteString("\n")
	writeAnnotation(&sb, mc.Annotation)

	return mcp.NewToolResultText(sb.String()), nil
}

// handleListChunks returns a context's chunk annotations in index order.
func (s *Server) handleListChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contextID, err := request.RequireString("context_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: context_id"), nil
	}

	chunks, err := s.media.ListChunks(ctx, contextID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing chunks: %v", err)), nil
	}

	if len(chunks) == 0 {
		return mcp.NewToolResultText("This context has no chunks. Short content is annotated in a single pass; check get_context instead."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d chunk(s):\n", len(chunks)))
	for _, ch := range chunks {
		sb.WriteString(fmt.Sprintf("\n--- Chunk %d ---\n", ch.Index))
		if ch.Preview != "" {
			sb.WriteString(fmt.Sprintf("Preview: %s\n", ch.Preview))
		}
		writeAnnotation(&sb, ch.Annotation)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func writeAnnotation(sb *strings.Builder, a media.Annotation) {
	if a.IsEmpty() {
		sb.WriteString("Not annotated yet.\n")
		return
	}
	if a.Summary != "" {
		sb.WriteString(fmt.Sprintf("Summary: %s\n", a.Summary))
	}
	if a.KeyInsights != "" {
		sb.WriteString(fmt.Sprintf("Key insights: %s\n", a.KeyInsights))
	}
	if a.SuggestedTags != "" {
		sb.WriteString(fmt.Sprintf("Tags: %s\n", a.SuggestedTags))
	}
	if a.NotableFeatures != "" {
		sb.WriteString(fmt.Sprintf("Notable features: %s\n", a.NotableFeatures))
	}
}

// formatSearchResults converts search results into a rich text format
// optimized for AI agent consumption.
func formatSearchResults(results []vectordb.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n--- Result %d ---\n", i+1))

		if r.Document.Metadata.Name != "" {
			sb.WriteString(fmt.Sprintf("Name: %s\n", r.Document.Metadata.Name))
		}
		sb.WriteString(fmt.Sprintf("Context ID: %s\n", r.Document.Metadata.ContextID))
		if r.Document.Metadata.Kind != "" {
			sb.WriteString(fmt.Sprintf("Kind: %s\n", r.Document.Metadata.Kind))
		}
		sb.WriteString(fmt.Sprintf("Type: %s\n", r.Document.Metadata.Type))
		if r.Document.Metadata.Type == vectordb.DocTypeChunk {
			sb.WriteString(fmt.Sprintf("Chunk: %d\n", r.Document.Metadata.ChunkIndex))
		}
		sb.WriteString(fmt.Sprintf("Similarity: %.1f%%\n", r.Similarity*100))

		sb.WriteString("\n")
		sb.WriteString(r.Document.Content)
		sb.WriteString("\n")
	}

	return sb.String()
}
