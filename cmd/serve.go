package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contextdeck/contextdeck/internal/db"
	"github.com/contextdeck/contextdeck/internal/server"
	"github.com/contextdeck/contextdeck/internal/vectordb"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the contextdeck API server",
	Long:  `Starts the HTTP API server: media uploads with chunked annotation, chat search, page generation, web scraping, and the live event stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Port
		}

		database, err := db.Open(dbPath(cfg))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		// The server degrades without a provider or embedder; annotation
		// and semantic search just stay off.
		deps := server.Deps{
			DB:            database,
			Model:         cfg.Model,
			ScrapeBaseURL: cfg.Scrape.BaseURL,
			Annotation:    annotationOptions(cfg),
		}

		if provider, err := createLLMProviderFromConfig(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: annotation disabled: %v\n", err)
		} else {
			deps.Provider = provider
		}

		var store vectordb.VectorStore
		if embedder, err := createEmbedderFromConfig(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: semantic search disabled: %v\n", err)
		} else {
			store, err = openVectorStore(cfg, embedder)
			if err != nil {
				return err
			}
			deps.Vector = store
		}

		srv := server.New(server.Config{
			Port:     port,
			DataDir:  cfg.DataDir,
			AllowAll: true,
		}, deps)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			if store != nil {
				if err := store.Persist(context.Background(), vectorDir(cfg)); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: persisting vector store: %v\n", err)
				}
			}
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "contextdeck server v%s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath(cfg))
		if store != nil {
			fmt.Fprintf(os.Stderr, "  Documents indexed: %d\n", store.Count())
		}

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
