package chat

import (
	"context"
	"errors"

	"github.com/abhisek/diagz/internal/llm"
)

// ErrNoAgent means neither a chat agent URL nor an LLM provider is
// configured.
var ErrNoAgent = errors.New("chat is not configured: set DIAGZ_CHAT_URL or an LLM API key")

// Agent answers chat turns. Send returns immediately; the reply arrives on
// the returned channel, which is closed when the reply ends. Failures after
// Send returns are delivered as an Event with Err set.
type Agent interface {
	Send(ctx context.Context, turn Turn) (<-chan Event, error)
}

// NewAgent picks the remote agent when url is set and falls back to the
// LLM provider otherwise.
func NewAgent(url, token string, provider llm.Provider, cfg llm.Config) (Agent, error) {
	switch {
	case url != "":
		return NewWSAgent(url, token), nil
	case provider != nil:
		return NewLLMAgent(provider, cfg.Timeout), nil
	default:
		return nil, ErrNoAgent
	}
}
