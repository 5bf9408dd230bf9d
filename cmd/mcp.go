package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contextdeck/contextdeck/internal/db"
	mcpserver "github.com/contextdeck/contextdeck/internal/mcp"
	"github.com/contextdeck/contextdeck/internal/media"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing library search tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		store, err := openVectorStore(cfg, embedder)
		if err != nil {
			return err
		}

		database, err := db.Open(dbPath(cfg))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "contextdeck MCP server started on stdio (documents=%d)\n", store.Count())

		srv := mcpserver.NewServer(store, media.NewStore(database))
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
