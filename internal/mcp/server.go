// Package mcp exposes the media library to AI agents over the Model
// Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/contextdeck/contextdeck/internal/media"
	"github.com/contextdeck/contextdeck/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes library search tools.
type Server struct {
	store vectordb.VectorStore
	media *media.Store
	mcp   *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(store vectordb.VectorStore, mediaStore *media.Store) *Server {
	s := &Server{
		store: store,
		media: mediaStore,
	}

	s.mcp = server.NewMCPServer(
		"contextdeck",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchLibraryTool, s.handleSearchLibrary)
	s.mcp.AddTool(getContextTool, s.handleGetContext)
	s.mcp.AddTool(listChunksTool, s.handleListChunks)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
