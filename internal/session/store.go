package session

import (
	"log/slog"
	"sync"
	"time"

	"spAdminEvents/internal/events"
)

// Session holds the locally authenticated account and its bearer token.
type Session struct {
	UserID            int64
	DiscordUsername   string
	MinecraftUsername string
	Role              events.Role
	IsActive          bool
	Token             string
	UpdatedAt         time.Time
}

// Store is the process-wide session state. Login/logout flows and the
// role-update reducer both write it; every protected consumer reads it.
type Store struct {
	mu        sync.RWMutex
	current   *Session
	listeners []func(Session)
}

func NewStore() *Store {
	return &Store{}
}

// Current returns a copy of the active session, or nil when nobody is
// authenticated.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// Set commits a new session state. Last committed write wins; updates are
// full snapshots, not deltas.
func (s *Store) Set(session Session) {
	s.mu.Lock()
	s.current = &session
	listeners := append([]func(Session){}, s.listeners...)
	s.mu.Unlock()

	slog.Debug("session updated",
		slog.Int64("userId", session.UserID),
		slog.String("role", string(session.Role)),
		slog.Bool("isActive", session.IsActive),
	)
	for _, fn := range listeners {
		fn(session)
	}
}

// Clear drops the session, e.g. on logout or token expiry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	slog.Debug("session cleared")
}

// Token returns the bearer token of the active session, if any. Satisfies
// the stream's token source.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// OnChange registers a callback invoked after every committed Set. Used by
// views that need to re-render when the session mutates underneath them.
func (s *Store) OnChange(fn func(Session)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}
