package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/contextdeck/contextdeck/internal/annotate"
	"github.com/contextdeck/contextdeck/internal/config"
	"github.com/contextdeck/contextdeck/internal/embeddings"
	"github.com/contextdeck/contextdeck/internal/llm"
	"github.com/contextdeck/contextdeck/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `contextdeck init` to create a config file", err)
	}
	return cfg, nil
}

// createLLMProviderFromConfig creates an LLM provider based on config
// settings, wrapped in a rate limiter when one is configured.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if rpm := cfg.Annotation.RequestsPerMinute; rpm > 0 {
		provider = llm.NewRateLimitedProvider(provider, rpm)
	}
	return provider, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.DefaultEmbeddingModel(provider)
	}

	switch provider {
	case config.ProviderGoogle:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderGoogle))
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is required for Google embeddings")
		}
		return embeddings.NewGoogleEmbedder(apiKey, model), nil
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, model), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(model, 768, ""), nil
	default:
		// For providers without native embeddings, fall back to OpenAI.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required (used for embeddings when provider is %s)", provider)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, config.DefaultEmbeddingModel(config.ProviderOpenAI)), nil
	}
}

// openVectorStore creates the chromem store and loads its snapshot from the
// data directory. A missing snapshot is not an error; the store starts empty.
func openVectorStore(cfg *config.Config, embedder embeddings.Embedder) (vectordb.VectorStore, error) {
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	dir := vectorDir(cfg)
	if err := store.Load(context.Background(), dir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load vector store from %s: %v\n", dir, err)
	}
	return store, nil
}

// vectorDir is where the chromem snapshot lives.
func vectorDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "vectordb")
}

// dbPath is where the SQLite database lives.
func dbPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "contextdeck.db")
}

// annotationOptions converts the config's annotation section into pipeline
// options.
func annotationOptions(cfg *config.Config) annotate.Options {
	return annotate.Options{
		Model:         cfg.Model,
		MaxChunkSize:  cfg.Annotation.MaxChunkSize,
		ChunkDelay:    time.Duration(cfg.Annotation.ChunkDelayMS) * time.Millisecond,
		PreviewLength: cfg.Annotation.PreviewLength,
	}
}
