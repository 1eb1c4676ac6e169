package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// SSETransport dials text/event-stream endpoints. Auth travels as a
// "token" query parameter: the browser EventSource this mirrors cannot
// carry custom headers on the initial handshake, and the backend accepts
// the token there for exactly that reason.
type SSETransport struct {
	baseURL string
	client  *http.Client
}

// NewSSETransport builds the transport against the configured API origin.
// The supplied client must not enforce an overall request timeout, since
// the stream stays open indefinitely; pass nil for a suitable default.
func NewSSETransport(baseURL string, client *http.Client) *SSETransport {
	if client == nil {
		client = &http.Client{}
	}
	return &SSETransport{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"), client: client}
}

func (t *SSETransport) Dial(ctx context.Context, endpoint, token string) (Conn, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("sse dial: missing token")
	}
	u, err := url.Parse(t.baseURL + "/" + strings.TrimLeft(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("sse dial: invalid endpoint: %w", err)
	}
	query := u.Query()
	query.Set("token", token)
	u.RawQuery = query.Encode()

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("sse dial: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	res, err := t.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("sse dial: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		cancel()
		return nil, fmt.Errorf("sse dial: unexpected status %d", res.StatusCode)
	}

	return &sseConn{reader: bufio.NewReader(res.Body), body: res.Body, cancel: cancel}, nil
}

type sseConn struct {
	reader *bufio.Reader
	body   io.Closer
	cancel context.CancelFunc
}

// Receive reads one event from the stream. The backend frames every
// message as bare "data:" lines terminated by a blank line; event/id/retry
// fields and comment lines are skipped.
func (c *sseConn) Receive() ([]byte, error) {
	var data [][]byte
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		if line == "" {
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		if field == "data" {
			data = append(data, []byte(value))
		}
	}
}

func (c *sseConn) Close() error {
	c.cancel()
	return c.body.Close()
}
