// Package gateway bridges role events from the broker onto the server-push
// stream the admin panel consumes: an SSE endpoint mirroring the original
// backend plus a websocket variant for header-capable clients.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"spAdminEvents/internal/events"
)

// Hub tracks connected stream subscribers and fans role updates out to
// them. A role update reaches the subject's own connections and every
// connected admin, matching the backend's notify semantics.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]*Subscriber
	byUser  map[int64]map[*Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{
		streams: make(map[string]*Subscriber),
		byUser:  make(map[int64]map[*Subscriber]struct{}),
	}
}

// Attach registers a subscriber for delivery.
func (h *Hub) Attach(s *Subscriber) {
	h.mu.Lock()
	h.streams[s.streamID] = s
	if h.byUser[s.userID] == nil {
		h.byUser[s.userID] = make(map[*Subscriber]struct{})
	}
	h.byUser[s.userID][s] = struct{}{}
	h.mu.Unlock()
	slog.Info("stream subscriber attached",
		slog.String("streamId", s.streamID),
		slog.Int64("userId", s.userID),
		slog.String("role", string(s.role)),
	)
}

// Detach unregisters and closes a subscriber. Idempotent.
func (h *Hub) Detach(s *Subscriber) {
	h.mu.Lock()
	if _, ok := h.streams[s.streamID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.streams, s.streamID)
	if subs, ok := h.byUser[s.userID]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.byUser, s.userID)
		}
	}
	h.mu.Unlock()
	s.close()
	slog.Info("stream subscriber detached",
		slog.String("streamId", s.streamID),
		slog.Int64("userId", s.userID),
	)
}

// BroadcastRoleUpdate delivers one role_update envelope to the subject's
// connections and to all admins. A subscriber with a saturated buffer is
// detached rather than allowed to stall the rest.
func (h *Hub) BroadcastRoleUpdate(_ context.Context, update events.RoleUpdate) {
	env, err := events.NewEnvelope(events.KindRoleUpdate, update)
	if err != nil {
		slog.Error("role update envelope marshal failed", slog.Any("error", err))
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("role update marshal failed", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	targets := make([]*Subscriber, 0, len(h.streams))
	seen := make(map[*Subscriber]struct{}, len(h.streams))
	for s := range h.byUser[update.UserID] {
		targets = append(targets, s)
		seen[s] = struct{}{}
	}
	for _, s := range h.streams {
		if s.role != events.RoleAdmin {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	slog.Info("role update broadcast",
		slog.Int64("subjectUserId", update.UserID),
		slog.String("oldRole", string(update.OldRole)),
		slog.String("newRole", string(update.NewRole)),
		slog.Int("targets", len(targets)),
	)

	for _, s := range targets {
		if !s.deliver(data) {
			slog.Warn("stream subscriber buffer full, detaching",
				slog.String("streamId", s.streamID),
				slog.Int64("userId", s.userID),
			)
			go h.Detach(s)
		}
	}
}

// ConnectedUsers returns the ids of users with at least one live stream.
func (h *Hub) ConnectedUsers() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]int64, 0, len(h.byUser))
	for id := range h.byUser {
		ids = append(ids, id)
	}
	return ids
}

// Len reports the number of live streams.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams)
}
