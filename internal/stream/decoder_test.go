package stream

import (
	"testing"

	"spAdminEvents/internal/events"
)

func TestDecoderDispatchesRoleUpdate(t *testing.T) {
	t.Parallel()

	var got *events.RoleUpdate
	decoder := &Decoder{OnRoleUpdate: func(u events.RoleUpdate) { got = &u }}

	decoder.Decode([]byte(`{"event":"role_update","data":{"user_id":42,"old_role":"none","new_role":"police","timestamp":1700000000,"user_data":{"discord_username":"Bob","is_active":true}}}`))

	if got == nil {
		t.Fatal("expected role update dispatch")
	}
	if got.UserID != 42 || got.NewRole != events.RolePolice {
		t.Fatalf("unexpected update: %+v", got)
	}
}

func TestDecoderDropsMalformedPayload(t *testing.T) {
	t.Parallel()

	called := false
	decoder := &Decoder{OnRoleUpdate: func(events.RoleUpdate) { called = true }}

	decoder.Decode([]byte(`{not json`))
	decoder.Decode([]byte(`{"event":"role_update","data":"not-an-object"}`))

	if called {
		t.Fatal("malformed payloads must not reach the handler")
	}

	// A valid message after garbage still dispatches.
	decoder.Decode([]byte(`{"event":"role_update","data":{"user_id":1,"old_role":"admin","new_role":"admin","timestamp":1,"user_data":{"discord_username":"a","is_active":true}}}`))
	if !called {
		t.Fatal("valid message after malformed input was dropped")
	}
}

func TestDecoderIgnoresOtherKinds(t *testing.T) {
	t.Parallel()

	called := false
	decoder := &Decoder{OnRoleUpdate: func(events.RoleUpdate) { called = true }}

	decoder.Decode([]byte(`{"event":"connected","data":{"message":"hi"}}`))
	decoder.Decode([]byte(`{"event":"heartbeat","data":{"timestamp":12.5}}`))
	decoder.Decode([]byte(`{"event":"error","data":{"message":"boom"}}`))
	decoder.Decode([]byte(`{"event":"totally_new","data":{}}`))

	if called {
		t.Fatal("non role_update kinds must not dispatch")
	}
}

func TestDecoderNilHandler(t *testing.T) {
	t.Parallel()

	decoder := &Decoder{}
	// Must not panic without a registered handler.
	decoder.Decode([]byte(`{"event":"role_update","data":{"user_id":1,"old_role":"none","new_role":"admin","timestamp":1,"user_data":{"discord_username":"a","is_active":true}}}`))
}
