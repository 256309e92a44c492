package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

type WebSocketTransport struct {
	conn *websocket.Conn
}

func NewWebSocketTransport() *WebSocketTransport {
	return &WebSocketTransport{}
}

func (t *WebSocketTransport) Connect(addr string) error {
	u, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("invalid WebSocket URL: %w", err)
	}

	// If no scheme is provided, assume ws://
	if u.Scheme == "" {
		u.Scheme = "ws"
	}

	// Convert tcp addresses to WebSocket URLs
	if u.Scheme == "tcp" {
		u.Scheme = "ws"
		u.Path = "/"
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return &TransportError{Op: "connect", Err: err}
	}

	t.conn = conn
	return nil
}

func (t *WebSocketTransport) Send(frame string) error {
	if t.conn == nil {
		return &TransportError{Op: "send", Err: errors.New("transport is not connected")}
	}

	if err := t.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		return &TransportError{Op: "send", Err: err}
	}

	slog.Debug("Sent WebSocket frame", "size", len(frame))
	return nil
}

func (t *WebSocketTransport) Read(timeout time.Duration) (string, error) {
	if t.conn == nil {
		return "", &TransportError{Op: "read", Err: errors.New("transport is not connected")}
	}

	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return "", &TransportError{Op: "read", Err: err}
	}

	for {
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return "", &TransportError{Op: "read", Err: err, Timeout: true}
			}
			return "", &TransportError{Op: "read", Err: err}
		}

		// The protocol only speaks text frames.
		if messageType != websocket.TextMessage {
			slog.Debug("Ignoring non-text frame", "type", messageType, "size", len(data))
			continue
		}

		return string(data), nil
	}
}

func (t *WebSocketTransport) Close() error {
	if t.conn == nil {
		return nil
	}

	// Send close message
	err := t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		// Log error but don't return it - we still want to close the connection
		slog.Warn("Failed to send close message", "error", err)
	}

	return t.conn.Close()
}
