package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderGoogle ProviderType = "google"
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level contextdeck configuration, corresponding to .contextdeck.yml.
type Config struct {
	Provider          ProviderType     `yaml:"provider" koanf:"provider"`
	Model             string           `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType     `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string           `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir           string           `yaml:"data_dir" koanf:"data_dir"`
	Port              int              `yaml:"port" koanf:"port"`
	Annotation        AnnotationConfig `yaml:"annotation" koanf:"annotation"`
	Scrape            ScrapeConfig     `yaml:"scrape" koanf:"scrape"`
	Include           []string         `yaml:"include" koanf:"include"`
	Exclude           []string         `yaml:"exclude" koanf:"exclude"`
}

// AnnotationConfig controls the chunked annotation pipeline.
type AnnotationConfig struct {
	// MaxChunkSize is the chunk budget in bytes for long-text splitting.
	MaxChunkSize int `yaml:"max_chunk_size" koanf:"max_chunk_size"`
	// ChunkDelayMS is the pause between consecutive chunk requests.
	ChunkDelayMS int `yaml:"chunk_delay_ms" koanf:"chunk_delay_ms"`
	// RequestsPerMinute, when > 0, additionally wraps the provider in a
	// token-bucket rate limiter.
	RequestsPerMinute int `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	// PreviewLength is how many bytes of raw chunk text are stored as preview.
	PreviewLength int `yaml:"preview_length" koanf:"preview_length"`
}

// ScrapeConfig holds settings for the external crawling service.
type ScrapeConfig struct {
	BaseURL string `yaml:"base_url" koanf:"base_url"`
}
