package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/abhisek/diagz/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: "first reply", Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Text: "second reply"},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	require.NoError(t, err)
	assert.Equal(t, "first reply", resp1.Text)
	assert.Equal(t, 10, resp1.Usage.InputTokens)
	assert.Equal(t, "end", resp1.StopReason)

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	require.NoError(t, err)
	assert.Equal(t, "second reply", resp2.Text)

	last, ok := mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, "second", last.Messages[0].Content)
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})

	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
	assert.Equal(t, "LLM provider unavailable", err.Error())
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{}})

	_, err := mock.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	assert.ErrorAs(t, err, &rl)
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", PurposeFrom(ctx))
	assert.Equal(t, PurposeChat, PurposeFrom(WithPurpose(ctx, PurposeChat)))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"openrouter uses openai key", Config{Provider: "openrouter", OpenAI: OpenAIConfig{APIKey: "sk-or"}}, false},
		{"gemini without key", Config{Provider: "gemini"}, true},
		{"mock needs no key", Config{Provider: "mock"}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DIAGZ_LLM_PROVIDER", "DIAGZ_ANTHROPIC_API_KEY", "DIAGZ_OPENAI_API_KEY",
		"DIAGZ_OPENAI_BASE_URL", "DIAGZ_GEMINI_API_KEY", "DIAGZ_OPENROUTER_API_KEY",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestResolve(t *testing.T) {
	t.Run("nothing configured", func(t *testing.T) {
		clearLLMEnv(t)
		_, ok := Resolve()
		assert.False(t, ok)
	})

	t.Run("default provider key", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("DIAGZ_ANTHROPIC_API_KEY", "sk-ant")
		cfg, ok := Resolve()
		require.True(t, ok)
		assert.Equal(t, "anthropic", cfg.Provider)
		assert.Equal(t, "sk-ant", cfg.Anthropic.APIKey)
	})

	t.Run("explicit openrouter", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("DIAGZ_LLM_PROVIDER", "openrouter")
		t.Setenv("DIAGZ_OPENROUTER_API_KEY", "sk-or")
		cfg, ok := Resolve()
		require.True(t, ok)
		assert.Equal(t, "sk-or", cfg.OpenAI.APIKey)
		assert.Equal(t, defaultOpenRouterBaseURL, cfg.OpenAI.BaseURL)
	})

	t.Run("discovered standard key", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("OPENAI_API_KEY", "sk-oai")
		cfg, ok := Resolve()
		require.True(t, ok)
		assert.Equal(t, "openai", cfg.Provider)
		assert.Equal(t, "sk-oai", cfg.OpenAI.APIKey)
	})
}

func openTestRepo(t *testing.T) store.EventRepo {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	repo := openTestRepo(t)
	mock := NewMockProvider(
		MockResponse{Text: "hi", Usage: Usage{InputTokens: 12, OutputTokens: 3}},
		MockResponse{Err: errors.New("boom")},
	)
	p := WithLogging(mock, "mock", repo)
	ctx := WithPurpose(context.Background(), PurposeChat)

	_, err := p.Generate(ctx, Request{})
	require.NoError(t, err)
	_, err = p.Generate(ctx, Request{})
	require.Error(t, err)

	events, err := repo.QueryLLMEvents(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first.
	assert.False(t, events[0].Success)
	assert.Equal(t, "boom", events[0].ErrorMessage)
	assert.True(t, events[1].Success)
	assert.Equal(t, "mock", events[1].Provider)
	assert.Equal(t, PurposeChat, events[1].Purpose)
	assert.Equal(t, 12, events[1].InputTokens)

	usage, err := repo.LLMUsageByPurpose(context.Background())
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, PurposeChat, usage[0].Purpose)
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock", Retry: retryConfig()}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	_, err = NewProvider(context.Background(), Config{Provider: "anthropic"}, nil)
	assert.Error(t, err)
}
