// Package stream implements the client half of the role-updates pipeline:
// a reconnecting connection manager over a pluggable server-push transport,
// the envelope decoder, and the role-update reducer that keeps the local
// session in sync with server-pushed changes.
package stream

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateErroring
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateErroring:
		return "erroring"
	default:
		return "unknown"
	}
}

// Status is the observable connection state exposed to consumers.
type Status struct {
	State             State
	Connected         bool
	Err               string
	ReconnectAttempts int
}

// TokenSource supplies the current bearer token, or "" when nobody is
// authenticated. session.Store satisfies this.
type TokenSource interface {
	Token() string
}

// Callbacks receive connection lifecycle events. All fields are optional.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(raw []byte)
	OnError   func(err error)
	OnClose   func()
}

// Options tune the reconnection policy. Zero values select the defaults
// used by the panel: a fixed 3s interval and 5 consecutive attempts.
type Options struct {
	// Endpoint is the stream path to dial. Empty selects Endpoint, the
	// SSE route; the websocket route lives at WSEndpoint.
	Endpoint             string
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
	// TokenValid optionally vets the token beyond presence, e.g. an
	// unverified expiry check. auth.TokenUsable is the usual choice.
	TokenValid func(token string, now time.Time) bool
}

const (
	defaultReconnectInterval    = 3 * time.Second
	defaultMaxReconnectAttempts = 5
)

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Endpoint) == "" {
		o.Endpoint = Endpoint
	}
	if o.ReconnectInterval <= 0 {
		o.ReconnectInterval = defaultReconnectInterval
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	return o
}

// Client owns at most one live server-push connection to a single logical
// endpoint and transparently recovers from transient failures. Transport
// errors never escape its methods; they surface through Status and the
// OnError callback.
//
// A generation counter invalidates everything belonging to a superseded
// connection: every Connect/Disconnect bumps it, and read loops as well as
// scheduled retry timers re-check it before touching state, so a stale
// timer firing after teardown is a no-op rather than a resurrection.
type Client struct {
	transport Transport
	endpoint  string
	tokens    TokenSource
	callbacks Callbacks
	opts      Options
	now       func() time.Time

	mu         sync.Mutex
	state      State
	lastErr    string
	attempts   int
	generation uint64
	conn       Conn
	retry      *time.Timer
}

// NewClient builds a connection manager bound to one endpoint. Connect
// must be called to open the stream.
func NewClient(transport Transport, endpoint string, tokens TokenSource, callbacks Callbacks, opts Options) *Client {
	return &Client{
		transport: transport,
		endpoint:  endpoint,
		tokens:    tokens,
		callbacks: callbacks,
		opts:      opts.withDefaults(),
		now:       time.Now,
		state:     StateDisconnected,
	}
}

// Connect opens the stream. A missing or expired token makes the call a
// logged no-op: no connection, no retry, and the next Connect with a valid
// token proceeds normally.
func (c *Client) Connect() {
	token := ""
	if c.tokens != nil {
		token = strings.TrimSpace(c.tokens.Token())
	}
	if token == "" || (c.opts.TokenValid != nil && !c.opts.TokenValid(token, c.now())) {
		slog.Warn("stream connect skipped: no usable auth token", slog.String("endpoint", c.endpoint))
		return
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.stopRetryLocked()
	c.closeConnLocked()
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := c.transport.Dial(context.Background(), c.endpoint, token)
	if err != nil {
		c.handleError(gen, err)
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.state = StateConnected
	c.attempts = 0
	c.lastErr = ""
	c.mu.Unlock()

	slog.Info("stream connected", slog.String("endpoint", c.endpoint))
	if fn := c.callbacks.OnOpen; fn != nil {
		fn()
	}
	go c.readLoop(gen, conn)
}

// Disconnect closes any live connection and cancels any pending retry.
// Idempotent: calling it with nothing open is a no-op.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.generation++
	c.stopRetryLocked()
	hadConn := c.conn != nil
	c.closeConnLocked()
	c.state = StateDisconnected
	c.mu.Unlock()

	if hadConn {
		slog.Info("stream disconnected", slog.String("endpoint", c.endpoint))
		if fn := c.callbacks.OnClose; fn != nil {
			fn()
		}
	}
}

// Reconnect tears the connection down and dials again with the same
// parameters. Used for manual retry after exhaustion and by the automatic
// retry timer.
func (c *Client) Reconnect() {
	c.Disconnect()
	c.Connect()
}

// Status returns a snapshot of the observable connection state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:             c.state,
		Connected:         c.state == StateConnected,
		Err:               c.lastErr,
		ReconnectAttempts: c.attempts,
	}
}

func (c *Client) readLoop(gen uint64, conn Conn) {
	for {
		raw, err := conn.Receive()
		if err != nil {
			_ = conn.Close()
			c.handleError(gen, err)
			return
		}

		c.mu.Lock()
		stale := gen != c.generation
		c.mu.Unlock()
		if stale {
			_ = conn.Close()
			return
		}
		if fn := c.callbacks.OnMessage; fn != nil {
			fn(raw)
		}
	}
}

// handleError applies the retry policy: below the cap, schedule a
// reconnect after the fixed interval and count the attempt at schedule
// time; at the cap, go terminal until an explicit Reconnect.
func (c *Client) handleError(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateErroring
	c.lastErr = err.Error()

	if c.attempts < c.opts.MaxReconnectAttempts {
		c.attempts++
		attempt := c.attempts
		slog.Warn("stream error, retry scheduled",
			slog.String("endpoint", c.endpoint),
			slog.Int("attempt", attempt),
			slog.Int("maxAttempts", c.opts.MaxReconnectAttempts),
			slog.Any("error", err),
		)
		c.retry = time.AfterFunc(c.opts.ReconnectInterval, func() {
			c.mu.Lock()
			stale := gen != c.generation
			c.mu.Unlock()
			if stale {
				return
			}
			c.Connect()
		})
	} else {
		c.state = StateDisconnected
		c.lastErr = "max reconnect attempts reached"
		slog.Error("stream retry attempts exhausted",
			slog.String("endpoint", c.endpoint),
			slog.Int("attempts", c.attempts),
			slog.Any("error", err),
		)
	}
	c.mu.Unlock()

	if fn := c.callbacks.OnError; fn != nil {
		fn(err)
	}
}

func (c *Client) stopRetryLocked() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
}

func (c *Client) closeConnLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
