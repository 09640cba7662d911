package chat

import (
	"context"

	tea "charm.land/bubbletea/v2"

	chatcore "github.com/abhisek/diagz/internal/chat"
	"github.com/abhisek/diagz/internal/screen"
	"github.com/abhisek/diagz/internal/ui/components"
	"github.com/abhisek/diagz/internal/ui/layout"
)

// streamStartedMsg is sent when the agent accepted a turn.
type streamStartedMsg struct {
	Events <-chan chatcore.Event
	Err    error
}

// streamEventMsg carries one reply frame. Closed is set once the stream
// has no more frames.
type streamEventMsg struct {
	Event  chatcore.Event
	Closed bool
}

// ChatScreen is a tutor conversation with streamed replies.
type ChatScreen struct {
	agent    chatcore.Agent
	agentErr error

	conv   chatcore.Conversation
	input  components.AnswerInput
	events <-chan chatcore.Event
	cancel context.CancelFunc
}

var _ screen.Screen = (*ChatScreen)(nil)
var _ screen.KeyHintProvider = (*ChatScreen)(nil)
var _ screen.Disposer = (*ChatScreen)(nil)

// New creates a chat screen. A nil agent shows agentErr instead of a prompt.
func New(agent chatcore.Agent, agentErr error) *ChatScreen {
	if agent == nil && agentErr == nil {
		agentErr = chatcore.ErrNoAgent
	}
	return &ChatScreen{
		agent:    agent,
		agentErr: agentErr,
		input:    components.NewAnswerInput("Ask the tutor anything...", ""),
	}
}

func (s *ChatScreen) Init() tea.Cmd {
	if s.agent == nil {
		return nil
	}
	return s.input.Init()
}

func (s *ChatScreen) Title() string {
	return "Tutor Chat"
}

func (s *ChatScreen) KeyHints() []layout.KeyHint {
	if s.agent == nil {
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Esc", Description: "Back"},
	}
}

// Dispose stops a reply that is still streaming.
func (s *ChatScreen) Dispose() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case streamStartedMsg:
		if msg.Err != nil {
			s.conv.Apply(chatcore.Event{Err: msg.Err})
			s.Dispose()
			return s, nil
		}
		s.events = msg.Events
		return s, waitForEvent(s.events)

	case streamEventMsg:
		if msg.Closed {
			s.conv.End()
			s.events = nil
			s.Dispose()
			return s, nil
		}
		s.conv.Apply(msg.Event)
		return s, waitForEvent(s.events)

	case tea.KeyMsg:
		if s.agent == nil {
			return s, nil
		}
		if msg.String() == "enter" {
			return s, s.send()
		}
	}

	if s.agent == nil {
		return s, nil
	}
	var cmd tea.Cmd
	s.input, cmd, _ = s.input.Update(msg)
	return s, cmd
}

// send starts a turn with the current input. Nothing is sent while a reply
// is still streaming.
func (s *ChatScreen) send() tea.Cmd {
	turn, ok := s.conv.Begin(s.input.Value())
	if !ok {
		return nil
	}
	s.input.Model.SetValue("")

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	agent := s.agent
	return func() tea.Msg {
		events, err := agent.Send(ctx, turn)
		return streamStartedMsg{Events: events, Err: err}
	}
}

// waitForEvent blocks on the next frame of a reply stream.
func waitForEvent(events <-chan chatcore.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamEventMsg{Closed: true}
		}
		return streamEventMsg{Event: ev}
	}
}
