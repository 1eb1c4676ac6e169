package stream

import (
	"fmt"
	"sync"
	"time"

	"spAdminEvents/internal/events"
	"spAdminEvents/internal/session"
)

// Endpoint is the SSE path of the role-updates stream; WSEndpoint is its
// websocket variant.
const (
	Endpoint   = "/api/v1/events/role-updates"
	WSEndpoint = Endpoint + "/ws"
)

// historyLimit caps the retained update history; inserting past it evicts
// the oldest entry.
const historyLimit = 50

// SessionStore is the narrow session surface the reducer needs: a
// synchronous read and a synchronous commit. session.Store satisfies it;
// tests inject fakes.
type SessionStore interface {
	Current() *session.Session
	Set(session.Session)
}

// Notifier shows a fire-and-forget message to the user. Invoked only for
// actual role transitions affecting the current session.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(string)

func (f NotifierFunc) Notify(message string) { f(message) }

// RoleUpdateWatcher composes the connection manager with the role-update
// reducer: it maintains a newest-first history of updates, a single-slot
// latch for the most recent one, and keeps the shared session synchronized
// when an update targets the locally authenticated account.
type RoleUpdateWatcher struct {
	client   *Client
	sessions SessionStore
	notify   Notifier
	now      func() time.Time

	mu      sync.Mutex
	last    *events.RoleUpdate
	history []events.RoleUpdate
}

// NewRoleUpdateWatcher wires the watcher to a transport. sessions is both
// the token source for connecting and the target of conditional merges;
// notify may be nil to suppress transition notices.
func NewRoleUpdateWatcher(transport Transport, tokens TokenSource, sessions SessionStore, notify Notifier, opts Options) *RoleUpdateWatcher {
	w := &RoleUpdateWatcher{
		sessions: sessions,
		notify:   notify,
		now:      time.Now,
	}
	decoder := &Decoder{OnRoleUpdate: w.Handle}
	opts = opts.withDefaults()
	w.client = NewClient(transport, opts.Endpoint, tokens, Callbacks{OnMessage: decoder.Decode}, opts)
	return w
}

// Handle applies one decoded role update: latch, history, then the
// conditional session merge. History insertion and the merge happen on the
// delivery goroutine, so two updates never interleave mid-handle;
// same-subject updates resolve last-write-wins.
func (w *RoleUpdateWatcher) Handle(update events.RoleUpdate) {
	w.mu.Lock()
	latched := update
	w.last = &latched
	if len(w.history) >= historyLimit {
		w.history = w.history[:historyLimit-1]
	}
	w.history = append([]events.RoleUpdate{update}, w.history...)
	w.mu.Unlock()

	// Authentication is re-checked at handling time: if the session was
	// torn down while the event was in flight, the update must not
	// resurrect it.
	current := w.sessions.Current()
	if current == nil || current.UserID != update.UserID {
		return
	}

	merged := *current
	merged.Role = update.NewRole
	merged.IsActive = update.UserData.IsActive
	merged.MinecraftUsername = update.UserData.MinecraftUsername
	merged.UpdatedAt = w.now()
	w.sessions.Set(merged)

	// Confirmations (old == new) still merge above but produce no notice.
	if update.Changed() && w.notify != nil {
		w.notify.Notify(fmt.Sprintf("your role has been changed from %s to %s", update.OldRole, update.NewRole))
	}
}

// LastUpdate returns the latched most recent update, or nil.
func (w *RoleUpdateWatcher) LastUpdate() *events.RoleUpdate {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last == nil {
		return nil
	}
	copied := *w.last
	return &copied
}

// History returns the retained updates, newest first.
func (w *RoleUpdateWatcher) History() []events.RoleUpdate {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]events.RoleUpdate(nil), w.history...)
}

// ClearHistory empties the buffer and the latch. The session record is
// untouched.
func (w *RoleUpdateWatcher) ClearHistory() {
	w.mu.Lock()
	w.last = nil
	w.history = nil
	w.mu.Unlock()
}

// Status exposes the underlying connection state.
func (w *RoleUpdateWatcher) Status() Status { return w.client.Status() }

// Connect opens the stream; a missing token makes it a logged no-op.
func (w *RoleUpdateWatcher) Connect() { w.client.Connect() }

// Disconnect closes the stream and cancels pending retries.
func (w *RoleUpdateWatcher) Disconnect() { w.client.Disconnect() }

// Reconnect forces a fresh connection, e.g. after retry exhaustion.
func (w *RoleUpdateWatcher) Reconnect() { w.client.Reconnect() }
