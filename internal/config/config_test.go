package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{"openai", ProviderOpenAI, false},
		{"Anthropic", ProviderAnthropic, false},
		{" gemini ", ProviderGemini, false},
		{"claude", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseProvider(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseProviderList(t *testing.T) {
	all, err := ParseProviderList("")
	require.NoError(t, err)
	assert.Equal(t, AllProviders, all)

	two, err := ParseProviderList("gemini,openai")
	require.NoError(t, err)
	assert.Equal(t, []Provider{ProviderGemini, ProviderOpenAI}, two)

	_, err = ParseProviderList("openai,bogus")
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "chat_messages", cfg.ChatCollection)
	assert.Equal(t, "documentation", cfg.DocsCollection)
	assert.Equal(t, 150, cfg.MinChunkSize)
	assert.Equal(t, 1500, cfg.MaxChunkSize)
	assert.Equal(t, 30, cfg.TopK)
	assert.Equal(t, 120*time.Second, cfg.ProviderTimeout)
	require.NoError(t, cfg.ValidateChunkBounds())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TOP_K", "7")
	t.Setenv("CHAT_COLLECTION_NAME", "support")
	t.Setenv("MAX_CHUNK_SIZE", "not-a-number")

	cfg := Load()
	assert.Equal(t, 7, cfg.TopK)
	assert.Equal(t, "support", cfg.ChatCollection)
	assert.Equal(t, 1500, cfg.MaxChunkSize, "malformed int falls back to default")
}

func TestAvailableProviders(t *testing.T) {
	cfg := Config{
		OpenAIAPIKey:    "sk-real",
		AnthropicAPIKey: "your_anthropic_key_here",
		GeminiAPIKey:    "",
	}
	assert.Equal(t, []Provider{ProviderOpenAI}, cfg.AvailableProviders())
}

func TestValidateProviders(t *testing.T) {
	cfg := Config{OpenAIAPIKey: "sk-real"}

	require.NoError(t, cfg.ValidateProviders([]Provider{ProviderOpenAI}))

	err := cfg.ValidateProviders([]Provider{ProviderOpenAI, ProviderGemini})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Contains(t, err.Error(), "gemini")
}

func TestValidateChunkBounds(t *testing.T) {
	tests := []struct {
		name    string
		min     int
		max     int
		wantErr bool
	}{
		{"valid", 150, 1500, false},
		{"min above max", 1500, 150, true},
		{"equal", 100, 100, true},
		{"zero min", 0, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{MinChunkSize: tt.min, MaxChunkSize: tt.max}
			err := cfg.ValidateChunkBounds()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
