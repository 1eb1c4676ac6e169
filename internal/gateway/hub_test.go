package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"spAdminEvents/internal/events"
)

func sampleUpdate(userID int64) events.RoleUpdate {
	return events.RoleUpdate{
		UserID:    userID,
		OldRole:   events.RoleNone,
		NewRole:   events.RolePolice,
		Timestamp: 1700000000,
		UserData:  events.SubjectSnapshot{DiscordUsername: "Bob", IsActive: true},
	}
}

func drain(t *testing.T, s *Subscriber) *events.Envelope {
	t.Helper()
	select {
	case data := <-s.Send():
		var env events.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("broadcast frame is not an envelope: %v", err)
		}
		return &env
	default:
		return nil
	}
}

func TestHubBroadcastTargetsSubjectAndAdmins(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	subject := NewSubscriber(42, events.RolePolice)
	admin := NewSubscriber(1, events.RoleAdmin)
	other := NewSubscriber(7, events.RolePolice)
	hub.Attach(subject)
	hub.Attach(admin)
	hub.Attach(other)

	hub.BroadcastRoleUpdate(context.Background(), sampleUpdate(42))

	env := drain(t, subject)
	if env == nil || env.Event != events.KindRoleUpdate {
		t.Fatalf("subject did not receive the update: %+v", env)
	}
	if env := drain(t, admin); env == nil {
		t.Fatal("admin did not receive the update")
	}
	if env := drain(t, other); env != nil {
		t.Fatalf("unrelated subscriber received the update: %+v", env)
	}
}

func TestHubBroadcastDeduplicatesAdminSubject(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	adminSubject := NewSubscriber(1, events.RoleAdmin)
	hub.Attach(adminSubject)

	hub.BroadcastRoleUpdate(context.Background(), sampleUpdate(1))

	if env := drain(t, adminSubject); env == nil {
		t.Fatal("admin subject did not receive the update")
	}
	if env := drain(t, adminSubject); env != nil {
		t.Fatal("admin subject received the update twice")
	}
}

func TestHubDetachIdempotent(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	sub := NewSubscriber(42, events.RolePolice)
	hub.Attach(sub)

	hub.Detach(sub)
	hub.Detach(sub)

	if hub.Len() != 0 {
		t.Fatalf("expected empty hub, got %d", hub.Len())
	}
	select {
	case <-sub.Done():
	default:
		t.Fatal("expected subscriber closed after detach")
	}
}

func TestHubDetachesSaturatedSubscriber(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	sub := NewSubscriber(42, events.RolePolice)
	hub.Attach(sub)

	// Fill the buffer without draining, then one more broadcast must
	// trigger detach instead of blocking.
	for i := 0; i < sendBuffer+1; i++ {
		hub.BroadcastRoleUpdate(context.Background(), sampleUpdate(42))
	}

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("saturated subscriber was not detached")
	}
}

func TestSubscriberDeliverAfterClose(t *testing.T) {
	t.Parallel()

	sub := NewSubscriber(42, events.RolePolice)
	sub.close()
	if sub.deliver([]byte("late")) {
		t.Fatal("delivery to a closed subscriber must fail")
	}
}

func TestHubConnectedUsers(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	hub.Attach(NewSubscriber(1, events.RoleAdmin))
	hub.Attach(NewSubscriber(1, events.RoleAdmin))
	hub.Attach(NewSubscriber(2, events.RolePolice))

	ids := hub.ConnectedUsers()
	if len(ids) != 2 {
		t.Fatalf("expected 2 distinct users, got %v", ids)
	}
	if hub.Len() != 3 {
		t.Fatalf("expected 3 streams, got %d", hub.Len())
	}
}
