package gateway

import (
	"sync"

	"github.com/google/uuid"

	"spAdminEvents/internal/events"
)

const sendBuffer = 8

// Subscriber is one live stream connection, transport-agnostic: the SSE
// handler drains send inline, the websocket handler drives a write pump.
type Subscriber struct {
	streamID string
	userID   int64
	role     events.Role

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewSubscriber(userID int64, role events.Role) *Subscriber {
	return &Subscriber{
		streamID: uuid.NewString(),
		userID:   userID,
		role:     role,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
}

// deliver enqueues one frame without blocking. Returns false when the
// buffer is saturated or the subscriber is closed.
func (s *Subscriber) deliver(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// Send exposes queued frames to the transport loop.
func (s *Subscriber) Send() <-chan []byte { return s.send }

// Done closes when the subscriber is detached.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

func (s *Subscriber) close() {
	s.closeOnce.Do(func() { close(s.done) })
}
