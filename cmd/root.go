package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "contextdeck",
	Short: "AI-annotated media library with chunked analysis and semantic search",
	Long: `Contextdeck builds a searchable library out of your documents, images,
and scraped web content. Text is split into chunks and annotated by an
AI model; annotations power keyword and semantic search, chat-style
question answering, and generated HTML summary pages.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".contextdeck.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
