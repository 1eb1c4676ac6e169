package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport dials the websocket variant of the stream. Unlike
// EventSource, the handshake here can carry headers, so the token goes in
// the Authorization header instead of the URL.
type WebSocketTransport struct {
	baseURL string
	dialer  *websocket.Dialer
}

func NewWebSocketTransport(baseURL string, dialer *websocket.Dialer) *WebSocketTransport {
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	return &WebSocketTransport{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"), dialer: dialer}
}

func (t *WebSocketTransport) Dial(ctx context.Context, endpoint, token string) (Conn, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("websocket dial: missing token")
	}
	u, err := url.Parse(t.baseURL + "/" + strings.TrimLeft(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("websocket dial: invalid endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, res, err := t.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if res != nil {
			return nil, fmt.Errorf("websocket dial: status %d: %w", res.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Receive() ([]byte, error) {
	for {
		kind, raw, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		// Control frames are answered by gorilla's default handlers;
		// binary frames are not part of the protocol.
		if kind == websocket.TextMessage {
			return raw, nil
		}
	}
}

func (c *wsConn) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.conn.Close()
}
