package stream

import "context"

// Conn is one live server-push connection. Receive blocks until the next
// complete message payload arrives or the connection fails.
type Conn interface {
	Receive() ([]byte, error)
	Close() error
}

// Transport dials a server-push connection to a logical endpoint. The
// token handling is transport-specific: SSE appends it as a query
// parameter (EventSource cannot set handshake headers), the websocket
// transport sends a Bearer header. Neither dials without a token.
type Transport interface {
	Dial(ctx context.Context, endpoint, token string) (Conn, error)
}
