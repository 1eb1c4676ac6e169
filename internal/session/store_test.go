package session

import (
	"testing"
	"time"

	"spAdminEvents/internal/events"
)

func TestStoreCurrentReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Set(Session{UserID: 7, Role: events.RoleAdmin, Token: "tok"})

	first := store.Current()
	if first == nil {
		t.Fatal("expected a session")
	}
	first.Role = events.RoleNone

	second := store.Current()
	if second.Role != events.RoleAdmin {
		t.Fatalf("mutating the returned copy leaked into the store: %s", second.Role)
	}
}

func TestStoreClear(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Set(Session{UserID: 1, Token: "tok"})
	store.Clear()

	if store.Current() != nil {
		t.Fatal("expected nil session after clear")
	}
	if store.Token() != "" {
		t.Fatal("expected empty token after clear")
	}
}

func TestStoreToken(t *testing.T) {
	t.Parallel()

	store := NewStore()
	if store.Token() != "" {
		t.Fatal("expected empty token with no session")
	}
	store.Set(Session{UserID: 1, Token: "bearer-value"})
	if store.Token() != "bearer-value" {
		t.Fatalf("unexpected token: %s", store.Token())
	}
}

func TestStoreOnChange(t *testing.T) {
	t.Parallel()

	store := NewStore()
	var seen []Session
	store.OnChange(func(s Session) { seen = append(seen, s) })

	store.Set(Session{UserID: 3, Role: events.RolePolice, UpdatedAt: time.Now()})
	store.Clear()
	store.Set(Session{UserID: 4, Role: events.RoleAdmin})

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if seen[0].UserID != 3 || seen[1].UserID != 4 {
		t.Fatalf("unexpected notification order: %+v", seen)
	}
}
