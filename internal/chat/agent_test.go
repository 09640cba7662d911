package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/diagz/internal/llm"
)

func drain(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}
}

func newAgentServer(t *testing.T, handle func(conn *websocket.Conn, req map[string]any)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req map[string]any
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		req["authorization"] = r.Header.Get("Authorization")
		handle(conn, req)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSAgent_StreamsReply(t *testing.T) {
	got := make(chan map[string]any, 1)
	url := newAgentServer(t, func(conn *websocket.Conn, req map[string]any) {
		got <- req
		conn.WriteJSON(map[string]any{"last_response_id": "resp_9"})
		conn.WriteJSON(map[string]any{"delta": "Chan"})
		conn.WriteJSON(map[string]any{"delta": "nels"})
		conn.WriteJSON(map[string]any{"delta": "nels"})
		conn.WriteJSON(map[string]any{"done": true})
		conn.ReadMessage()
	})

	agent := NewWSAgent(url, "tok")
	var c Conversation
	turn, _ := c.Begin("explain channels")

	ch, err := agent.Send(context.Background(), turn)
	require.NoError(t, err)
	for _, ev := range drain(t, ch) {
		c.Apply(ev)
	}

	req := <-got
	assert.Equal(t, "explain channels", req["input"])
	assert.Nil(t, req["previous_response_id"])
	assert.Equal(t, "Bearer tok", req["authorization"])

	assert.Equal(t, "Channels", c.Reply())
	assert.Equal(t, "resp_9", c.PreviousResponseID)
	assert.False(t, c.Streaming)
	assert.NoError(t, c.Err)
}

func TestWSAgent_SendsPreviousResponseID(t *testing.T) {
	got := make(chan map[string]any, 1)
	url := newAgentServer(t, func(conn *websocket.Conn, req map[string]any) {
		got <- req
		conn.WriteJSON(map[string]any{"done": true})
	})

	ch, err := NewWSAgent(url, "").Send(context.Background(), Turn{Input: "more", PreviousResponseID: "resp_1"})
	require.NoError(t, err)
	drain(t, ch)

	req := <-got
	assert.Equal(t, "resp_1", req["previous_response_id"])
	assert.Equal(t, "", req["authorization"])
}

func TestWSAgent_ServerClosesWithoutDone(t *testing.T) {
	url := newAgentServer(t, func(conn *websocket.Conn, req map[string]any) {
		conn.WriteJSON(map[string]any{"delta": "partial"})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	})

	ch, err := NewWSAgent(url, "").Send(context.Background(), Turn{Input: "x"})
	require.NoError(t, err)

	events := drain(t, ch)
	require.Len(t, events, 1)
	assert.Equal(t, "partial", events[0].Delta)
}

func TestWSAgent_AbnormalClose(t *testing.T) {
	url := newAgentServer(t, func(conn *websocket.Conn, req map[string]any) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "crash"))
	})

	ch, err := NewWSAgent(url, "").Send(context.Background(), Turn{Input: "x"})
	require.NoError(t, err)

	events := drain(t, ch)
	require.Len(t, events, 1)
	assert.Error(t, events[0].Err)
}

func TestWSAgent_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	_, err := NewWSAgent(url, "").Send(context.Background(), Turn{Input: "x"})
	assert.Error(t, err)
}

func TestWSAgent_Cancel(t *testing.T) {
	release := make(chan struct{})
	url := newAgentServer(t, func(conn *websocket.Conn, req map[string]any) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := NewWSAgent(url, "").Send(ctx, Turn{Input: "x"})
	require.NoError(t, err)

	cancel()
	assert.Empty(t, drain(t, ch))
}

func TestLLMAgent_ContinuesHistory(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Text: "A goroutine is a lightweight thread."},
		llm.MockResponse{Text: "Use channels."},
	)
	agent := NewLLMAgent(mock, time.Second)

	var c Conversation
	turn, _ := c.Begin("what is a goroutine?")
	ch, err := agent.Send(context.Background(), turn)
	require.NoError(t, err)
	for _, ev := range drain(t, ch) {
		c.Apply(ev)
	}
	assert.Equal(t, "A goroutine is a lightweight thread.", c.Reply())
	require.NotEmpty(t, c.PreviousResponseID)
	assert.False(t, c.Streaming)

	turn, _ = c.Begin("how do they talk?")
	ch, err = agent.Send(context.Background(), turn)
	require.NoError(t, err)
	for _, ev := range drain(t, ch) {
		c.Apply(ev)
	}
	assert.Equal(t, "Use channels.", c.Reply())

	req, ok := mock.LastCall()
	require.True(t, ok)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, llm.RoleAssistant, req.Messages[1].Role)
	assert.Equal(t, "how do they talk?", req.Messages[2].Content)
	assert.NotEmpty(t, req.System)
}

func TestLLMAgent_Error(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: errors.New("quota")})
	ch, err := NewLLMAgent(mock, 0).Send(context.Background(), Turn{Input: "x"})
	require.NoError(t, err)

	events := drain(t, ch)
	require.Len(t, events, 1)
	assert.EqualError(t, events[0].Err, "quota")
}

func TestNewAgent(t *testing.T) {
	a, err := NewAgent("ws://agent.local/ws/agent", "", nil, llm.DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &WSAgent{}, a)

	a, err = NewAgent("", "", llm.NewMockProvider(), llm.DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &LLMAgent{}, a)

	_, err = NewAgent("", "", nil, llm.DefaultConfig())
	assert.ErrorIs(t, err, ErrNoAgent)
}
