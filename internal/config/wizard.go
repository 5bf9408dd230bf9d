package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .contextdeck.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to contextdeck! Let's configure your library.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select annotation provider",
		Items: []string{"google", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Annotation model",
		Default: DefaultModel(provider),
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory (database + vector index)",
		Default: ".contextdeck",
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 4. Semantic search.
	semanticPrompt := promptui.Select{
		Label: "Enable semantic search over annotations (requires an embedding API key)",
		Items: []string{"yes", "no"},
	}
	semanticIdx, _, err := semanticPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("semantic selection: %w", err)
	}

	// 5. Extra exclude patterns for directory ingestion.
	excludePrompt := promptui.Prompt{
		Label:   "Extra ingest exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	exclude := DefaultExcludes
	if excludeStr != "" {
		exclude = append(exclude, splitAndTrim(excludeStr)...)
	}

	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = model
	cfg.DataDir = dataDir
	cfg.Exclude = exclude

	if semanticIdx == 0 {
		cfg.EmbeddingProvider = embeddingProviderFor(provider)
		cfg.EmbeddingModel = DefaultEmbeddingModel(cfg.EmbeddingProvider)
	} else {
		cfg.EmbeddingProvider = ""
		cfg.EmbeddingModel = ""
	}

	// Check for API key.
	envVar := APIKeyEnvVar(provider)
	if envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running contextdeck serve.\n", envVar)
	}

	configPath := ".contextdeck.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// annotation provider. OpenAI embeddings are used for cloud providers that
// lack an embedding endpoint wired here.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderOpenAI {
		return ProviderOpenAI
	}
	if p == ProviderGoogle {
		return ProviderGoogle
	}
	return ProviderOpenAI
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
