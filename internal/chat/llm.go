package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/diagz/internal/llm"
)

const systemPrompt = `You are a patient tutor helping a learner prepare for technical assessments.
Answer concisely. Use short code snippets where they help. If a question is
ambiguous, ask one clarifying question before answering.`

const chatMaxTokens = 1024

// LLMAgent answers turns with an LLM provider. Conversation history is kept
// in memory per response id, so continuation behaves like the remote agent.
// The full reply arrives as a single delta.
type LLMAgent struct {
	provider llm.Provider
	timeout  time.Duration

	mu      sync.Mutex
	history map[string][]llm.Message
}

// NewLLMAgent creates an agent backed by provider. A zero timeout means no
// per-turn deadline.
func NewLLMAgent(provider llm.Provider, timeout time.Duration) *LLMAgent {
	return &LLMAgent{
		provider: provider,
		timeout:  timeout,
		history:  make(map[string][]llm.Message),
	}
}

func (a *LLMAgent) Send(ctx context.Context, turn Turn) (<-chan Event, error) {
	msgs := append(a.historyFor(turn.PreviousResponseID), llm.Message{Role: llm.RoleUser, Content: turn.Input})

	events := make(chan Event, 3)
	go func() {
		defer close(events)

		ctx := llm.WithPurpose(ctx, llm.PurposeChat)
		if a.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}

		resp, err := a.provider.Generate(ctx, llm.Request{
			System:    systemPrompt,
			Messages:  msgs,
			MaxTokens: chatMaxTokens,
		})
		if err != nil {
			events <- Event{Err: err}
			return
		}

		id := uuid.NewString()
		a.remember(id, append(msgs, llm.Message{Role: llm.RoleAssistant, Content: resp.Text}))

		events <- Event{ResponseID: id}
		events <- Event{Delta: resp.Text}
		events <- Event{Done: true}
	}()
	return events, nil
}

// historyFor returns a copy of the messages leading up to id.
func (a *LLMAgent) historyFor(id string) []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.history[id]
	out := make([]llm.Message, len(prev), len(prev)+2)
	copy(out, prev)
	return out
}

func (a *LLMAgent) remember(id string, msgs []llm.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history[id] = msgs
}
