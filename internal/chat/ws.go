package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// WSAgent streams replies from the tutor agent over a WebSocket. Each turn
// uses its own connection.
type WSAgent struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
}

// NewWSAgent creates an agent for the given ws:// or wss:// URL. A non-empty
// token is sent as a bearer Authorization header.
func NewWSAgent(url, token string) *WSAgent {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &WSAgent{url: url, header: header, dialer: websocket.DefaultDialer}
}

type wsRequest struct {
	Input              string  `json:"input"`
	PreviousResponseID *string `json:"previous_response_id"`
}

type wsFrame struct {
	Delta          string `json:"delta"`
	LastResponseID string `json:"last_response_id"`
	Done           bool   `json:"done"`
}

func (a *WSAgent) Send(ctx context.Context, turn Turn) (<-chan Event, error) {
	conn, _, err := a.dialer.DialContext(ctx, a.url, a.header)
	if err != nil {
		return nil, fmt.Errorf("dial chat agent: %w", err)
	}

	req := wsRequest{Input: turn.Input}
	if turn.PreviousResponseID != "" {
		req.PreviousResponseID = &turn.PreviousResponseID
	}
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send chat turn: %w", err)
	}

	events := make(chan Event, 16)
	go a.read(ctx, conn, events)
	return events, nil
}

// read pumps frames until done, close or cancellation.
func (a *WSAgent) read(ctx context.Context, conn *websocket.Conn, events chan<- Event) {
	defer close(events)
	defer conn.Close()

	// Unblock ReadJSON when the caller gives up.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var f wsFrame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				err = fmt.Errorf("chat agent closed the connection: %w", err)
			} else {
				err = fmt.Errorf("read chat reply: %w", err)
			}
			events <- Event{Err: err}
			return
		}

		ev := Event{Delta: f.Delta, ResponseID: f.LastResponseID, Done: f.Done}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
		if f.Done {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
