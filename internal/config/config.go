// Package config loads toolkit configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingCredentials indicates a requested provider has no API key
// configured. Surfaced before any network call.
var ErrMissingCredentials = errors.New("missing provider credentials")

// Provider identifies an LLM completion backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// AllProviders lists every supported provider in dispatch order.
var AllProviders = []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini}

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderAnthropic:
		return ProviderAnthropic, nil
	case ProviderGemini:
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("unknown provider: %q (options: openai, anthropic, gemini)", s)
	}
}

// ParseProviderList parses a comma-separated provider list.
// An empty string selects all providers.
func ParseProviderList(s string) ([]Provider, error) {
	if strings.TrimSpace(s) == "" {
		return append([]Provider(nil), AllProviders...), nil
	}
	var providers []Provider
	for _, part := range strings.Split(s, ",") {
		p, err := ParseProvider(part)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// EmbedProvider identifies the embedding backend.
type EmbedProvider string

const (
	EmbedOllama EmbedProvider = "ollama"
	EmbedOpenAI EmbedProvider = "openai"
)

// Config holds all configuration values.
type Config struct {
	// Provider credentials and models
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string

	// Embedding backend
	EmbedProvider  EmbedProvider
	EmbedModel     string
	EmbedDimension int
	OllamaHost     string

	// Vector store
	StorePath      string
	ChatCollection string
	DocsCollection string

	// Chunking bounds
	MinChunkSize int
	MaxChunkSize int

	// Analysis
	TopK            int
	MaxTokens       int
	MaxInputTokens  int
	ProviderTimeout time.Duration
	Temperature     float64

	// Output
	OutputDir string

	// Logging
	LogDir   string
	LogLevel slog.Level
}

// Load reads configuration from environment variables, falling back to
// defaults for everything except the API keys.
func Load() Config {
	return Config{
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-opus-20240229"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-pro"),

		EmbedProvider:  EmbedProvider(getEnv("EMBEDDING_PROVIDER", string(EmbedOllama))),
		EmbedModel:     getEnv("EMBEDDING_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("EMBEDDING_DIMENSION", 384),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),

		StorePath:      getEnv("VECTOR_DB_PATH", "./vector_db"),
		ChatCollection: getEnv("CHAT_COLLECTION_NAME", "chat_messages"),
		DocsCollection: getEnv("DOCS_COLLECTION_NAME", "documentation"),

		MinChunkSize: getEnvInt("MIN_CHUNK_SIZE", 150),
		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1500),

		TopK:            getEnvInt("TOP_K", 30),
		MaxTokens:       getEnvInt("MAX_TOKENS", 4000),
		MaxInputTokens:  getEnvInt("MAX_INPUT_TOKENS", 12000),
		ProviderTimeout: time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 120)) * time.Second,
		Temperature:     getEnvFloat("PROVIDER_TEMPERATURE", 0.3),

		OutputDir: getEnv("OUTPUT_DIR", "outputs"),

		LogDir:   getEnv("LOG_DIR", "logs"),
		LogLevel: parseLogLevel(getEnv("LOG_LEVEL", "INFO")),
	}
}

// APIKey returns the credential for a provider, empty if unset.
func (c Config) APIKey(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	}
	return ""
}

// Model returns the configured model identifier for a provider.
func (c Config) Model(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return c.OpenAIModel
	case ProviderAnthropic:
		return c.AnthropicModel
	case ProviderGemini:
		return c.GeminiModel
	}
	return ""
}

// AvailableProviders returns the providers with a non-placeholder credential.
func (c Config) AvailableProviders() []Provider {
	var available []Provider
	for _, p := range AllProviders {
		if key := c.APIKey(p); key != "" && !strings.Contains(key, "your_") {
			available = append(available, p)
		}
	}
	return available
}

// ValidateProviders checks that every requested provider has a credential.
// Runs before any network call.
func (c Config) ValidateProviders(providers []Provider) error {
	var missing []string
	for _, p := range providers {
		if c.APIKey(p) == "" {
			missing = append(missing, string(p))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateChunkBounds checks the chunk size configuration.
func (c Config) ValidateChunkBounds() error {
	if c.MinChunkSize <= 0 || c.MaxChunkSize <= 0 || c.MinChunkSize >= c.MaxChunkSize {
		return fmt.Errorf("invalid chunk bounds: min=%d max=%d", c.MinChunkSize, c.MaxChunkSize)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
