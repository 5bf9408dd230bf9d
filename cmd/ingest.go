package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/contextdeck/contextdeck/internal/activity"
	"github.com/contextdeck/contextdeck/internal/annotate"
	"github.com/contextdeck/contextdeck/internal/db"
	"github.com/contextdeck/contextdeck/internal/ingest"
	"github.com/contextdeck/contextdeck/internal/media"
	"github.com/contextdeck/contextdeck/internal/progress"
	"github.com/contextdeck/contextdeck/internal/vectordb"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Import a directory of files into the media library",
	Long: `Walks a directory tree, imports every file that passes the configured
include/exclude patterns, and runs text files through the chunked
annotation pipeline. Non-text files are registered with a reference to
their on-disk location.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("no-annotate", false, "register files without calling the annotation model")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rootDir := "."
	if len(args) > 0 {
		rootDir = args[0]
	}

	database, err := db.Open(dbPath(cfg))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	mediaStore := media.NewStore(database)
	activityStore := activity.NewStore(database)

	noAnnotate, _ := cmd.Flags().GetBool("no-annotate")

	var (
		pipeline *annotate.Pipeline
		store    vectordb.VectorStore
	)
	if !noAnnotate {
		provider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}

		pipeline = annotate.NewPipeline(provider, mediaStore, annotationOptions(cfg))
		pipeline.SetRecorder(activityStore)

		if embedder, err := createEmbedderFromConfig(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: semantic indexing disabled: %v\n", err)
		} else {
			store, err = openVectorStore(cfg, embedder)
			if err != nil {
				return err
			}
			pipeline.SetIndexer(vectordb.NewIndexer(store))
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning files in %s...\n", rootDir)
	}

	files, err := ingest.Walk(ingest.WalkConfig{
		RootDir: rootDir,
		Include: cfg.Include,
		Exclude: cfg.Exclude,
	})
	if err != nil {
		return fmt.Errorf("walking directory: %w", err)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No files matched the configured patterns.")
		return nil
	}

	reporter := progress.NewReporter()
	reporter.Start(len(files))

	ingester := ingest.NewIngester(pipeline, mediaStore)
	ingester.SetProgressFunc(func(done, total int, relPath string) {
		reporter.Update(done, relPath)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := ingester.Run(ctx, files)
	reporter.Finish()

	if store != nil {
		if err := store.Persist(context.Background(), vectorDir(cfg)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: persisting vector store: %v\n", err)
		}
	}

	fmt.Printf("Ingested %d file(s) (%s) in %s\n",
		result.FilesIngested,
		humanize.Bytes(uint64(result.TotalBytes)),
		result.Duration.Round(time.Millisecond))
	if result.FilesAnnotated > 0 {
		fmt.Printf("  Annotated: %d file(s), %s input / %s output tokens\n",
			result.FilesAnnotated,
			humanize.Comma(int64(result.InputTokens)),
			humanize.Comma(int64(result.OutputTokens)))
	}
	if result.FilesFailed > 0 {
		fmt.Printf("  Failed: %d file(s)\n", result.FilesFailed)
		if verbose {
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "  %v\n", e)
			}
		}
	}
	if result.ChunksFailed > 0 {
		fmt.Printf("  Chunks skipped after errors: %d\n", result.ChunksFailed)
	}

	return runErr
}
