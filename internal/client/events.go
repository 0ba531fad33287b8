package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/knowbot/internal/api"
	"github.com/raphaelgruber/knowbot/internal/models"
)

var (
	// ErrReplyCancelled is returned by Ask when the reply was superseded or
	// its conversation deleted.
	ErrReplyCancelled = errors.New("reply cancelled")
	// ErrReplyFailed is returned by Ask when the responder failed.
	ErrReplyFailed = errors.New("reply failed")
)

// EventStream is a live subscription to workspace events.
type EventStream struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Events connects to the event stream and waits until the subscription is
// live. Cancelling ctx closes the stream.
func (c *Client) Events(ctx context.Context) (*EventStream, error) {
	// Convert HTTP endpoint to WebSocket endpoint
	wsEndpoint := c.endpoint
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint + "/api/events")
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "websocket connect refused"}
		}
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	s := &EventStream{conn: conn, done: make(chan struct{})}

	// Handle context cancellation in a separate goroutine
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()

	ready, err := s.Next()
	if err != nil {
		_ = s.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read ready: %w", err)
	}
	if ready.Type != api.EventReady {
		_ = s.Close()
		return nil, fmt.Errorf("expected ready, got %s", ready.Type)
	}
	return s, nil
}

// Next blocks until the next event arrives.
func (s *EventStream) Next() (models.Event, error) {
	var e models.Event
	if err := s.conn.ReadJSON(&e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// Close ends the subscription. It is safe to call more than once.
func (s *EventStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return s.conn.Close()
}

// AskResult is a sent message and the bot reply to it.
type AskResult struct {
	Sent  api.SendMessageResponse
	Reply models.Message
}

// Ask sends a message and waits for the bot reply. The subscription is
// opened before sending so the reply cannot be missed.
func (c *Client) Ask(ctx context.Context, req api.SendMessageRequest) (*AskResult, error) {
	events, err := c.Events(ctx)
	if err != nil {
		return nil, err
	}
	defer events.Close()

	sent, err := c.SendMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	convID := sent.Conversation.ID

	// Events for the conversation that precede our reply.pending belong to
	// an earlier reply.
	pending := false
	for {
		e, err := events.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read event: %w", err)
		}
		if e.ConversationID != convID {
			continue
		}

		if e.Type == models.EventConversationDeleted {
			return nil, ErrReplyCancelled
		}
		if e.Type == models.EventReplyPending {
			pending = true
			continue
		}
		if !pending {
			continue
		}

		switch e.Type {
		case models.EventMessageAppended:
			if e.Message != nil && e.Message.Sender == models.SenderBot {
				return &AskResult{Sent: sent, Reply: *e.Message}, nil
			}
		case models.EventReplyCancelled:
			return nil, ErrReplyCancelled
		case models.EventReplyFailed:
			return nil, ErrReplyFailed
		}
	}
}
