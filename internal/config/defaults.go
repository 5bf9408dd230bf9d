package config

// defaultModels maps each provider to its default annotation model.
var defaultModels = map[ProviderType]string{
	ProviderGoogle: "gemini-2.0-flash",
	ProviderOpenAI: "gpt-4o-mini",
	ProviderOllama: "llama3",
}

// defaultEmbeddingModels maps each provider to its default embedding model.
var defaultEmbeddingModels = map[ProviderType]string{
	ProviderGoogle: "gemini-embedding-001",
	ProviderOpenAI: "text-embedding-3-small",
}

// DefaultExcludes are glob patterns excluded from directory ingestion by default.
var DefaultExcludes = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
	"dist/**",
	"build/**",
	"*.lock",
	"*.min.js",
	"*.min.css",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGoogle,
		Model:             defaultModels[ProviderGoogle],
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    defaultEmbeddingModels[ProviderOpenAI],
		DataDir:           ".contextdeck",
		Port:              8420,
		Annotation: AnnotationConfig{
			MaxChunkSize:      10000,
			ChunkDelayMS:      1000,
			RequestsPerMinute: 0,
			PreviewLength:     1000,
		},
		Scrape: ScrapeConfig{
			BaseURL: "https://api.firecrawl.dev/v1",
		},
		Include: []string{"**"},
		Exclude: DefaultExcludes,
	}
}

// DefaultModel returns the default annotation model for the given provider.
func DefaultModel(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels[ProviderGoogle]
}

// DefaultEmbeddingModel returns the default embedding model for the given provider.
func DefaultEmbeddingModel(provider ProviderType) string {
	if m, ok := defaultEmbeddingModels[provider]; ok {
		return m
	}
	return defaultEmbeddingModels[ProviderOpenAI]
}
