package chat

import (
	"strings"
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one bubble of the conversation.
type Message struct {
	Sender Sender
	Text   string
}

// Turn is what gets sent to an agent for one user message.
type Turn struct {
	Input string

	// PreviousResponseID continues an earlier exchange. Empty on the first
	// turn.
	PreviousResponseID string
}

// Event is one streamed frame of an agent reply.
type Event struct {
	Delta      string
	ResponseID string
	Done       bool
	Err        error
}

// Conversation is the client-side state of a chat. It is not safe for
// concurrent use; the UI owns it.
type Conversation struct {
	Messages []Message

	// PreviousResponseID is the last response id seen from the agent.
	PreviousResponseID string

	// Streaming is true between Begin and the end of the reply.
	Streaming bool

	// Err is the failure of the last turn, if any.
	Err error
}

// Begin records a user message and an empty bot bubble for the reply. It
// returns false for blank input or while a reply is still streaming.
func (c *Conversation) Begin(input string) (Turn, bool) {
	text := strings.TrimSpace(input)
	if text == "" || c.Streaming {
		return Turn{}, false
	}

	c.Messages = append(c.Messages,
		Message{Sender: SenderUser, Text: text},
		Message{Sender: SenderBot},
	)
	c.Streaming = true
	c.Err = nil
	return Turn{Input: text, PreviousResponseID: c.PreviousResponseID}, true
}

// Apply folds one agent event into the conversation.
func (c *Conversation) Apply(ev Event) {
	if ev.ResponseID != "" {
		c.PreviousResponseID = ev.ResponseID
	}

	if ev.Delta != "" && len(c.Messages) > 0 {
		last := &c.Messages[len(c.Messages)-1]
		// Agents may resend the chunk they just sent.
		if last.Sender == SenderBot && !strings.HasSuffix(last.Text, ev.Delta) {
			last.Text += ev.Delta
		}
	}

	if ev.Err != nil {
		c.Err = ev.Err
		c.Streaming = false
	}
	if ev.Done {
		c.Streaming = false
	}
}

// End marks the reply stream as finished, e.g. when the agent closed the
// connection without a done frame.
func (c *Conversation) End() {
	c.Streaming = false
}

// Reply returns the text of the latest bot bubble.
func (c *Conversation) Reply() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Sender == SenderBot {
			return c.Messages[i].Text
		}
	}
	return ""
}
