package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/multisource/trillm/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Client wraps one completion provider behind a uniform contract:
// prompt in, text out. Provider differences stay inside this package.
type Client struct {
	provider    config.Provider
	llm         llms.Model
	modelName   string
	maxTokens   int
	temperature float64
}

// NewClient creates a completion client for the given provider.
func NewClient(ctx context.Context, cfg config.Config, provider config.Provider) (*Client, error) {
	if cfg.APIKey(provider) == "" {
		return nil, fmt.Errorf("%s: %w", provider, config.ErrMissingCredentials)
	}

	var model llms.Model
	var err error

	switch provider {
	case config.ProviderOpenAI:
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.OpenAIModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.AnthropicModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderGemini:
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.GeminiAPIKey),
			googleai.WithDefaultModel(cfg.GeminiModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create gemini model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	return &Client{
		provider:    provider,
		llm:         model,
		modelName:   cfg.Model(provider),
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// NewClients creates one client per requested provider, in order.
func NewClients(ctx context.Context, cfg config.Config, providers []config.Provider) ([]*Client, error) {
	clients := make([]*Client, 0, len(providers))
	for _, p := range providers {
		c, err := NewClient(ctx, cfg, p)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return string(c.provider)
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.modelName
}

// Generate sends a system+user prompt pair and returns the completion text.
// A transient network error is retried once before being reported.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	response, err := c.generateOnce(ctx, systemPrompt, userPrompt)
	if err != nil && ctx.Err() == nil && isTransient(err) {
		slog.Warn("provider call failed, retrying once", "provider", c.provider, "error", err)
		response, err = c.generateOnce(ctx, systemPrompt, userPrompt)
	}
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", c.provider, err)
	}
	return response, nil
}

func (c *Client) generateOnce(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	start := time.Now()
	response, err := c.llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTemperature(c.temperature),
	)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	slog.Debug("provider response", "provider", c.provider, "model", c.modelName,
		"duration_ms", time.Since(start).Milliseconds())
	return response.Choices[0].Content, nil
}

// isTransient reports whether an error looks like a recoverable network
// failure rather than an API rejection.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
