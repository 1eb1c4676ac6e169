package broker

import (
	"testing"

	"spAdminEvents/internal/events"
)

func TestDecodeRoleUpdateBarePayload(t *testing.T) {
	t.Parallel()

	update, err := decodeRoleUpdate([]byte(`{"user_id":42,"old_role":"none","new_role":"police","timestamp":1700000000,"user_data":{"discord_username":"Bob","is_active":true}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if update.UserID != 42 || update.NewRole != events.RolePolice {
		t.Fatalf("unexpected update: %+v", update)
	}
}

func TestDecodeRoleUpdateEnveloped(t *testing.T) {
	t.Parallel()

	update, err := decodeRoleUpdate([]byte(`{"event":"role_update","data":{"user_id":7,"old_role":"admin","new_role":"admin","timestamp":1,"user_data":{"discord_username":"Eve","is_active":false}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if update.UserID != 7 || update.Changed() {
		t.Fatalf("unexpected update: %+v", update)
	}
}

func TestDecodeRoleUpdateRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := decodeRoleUpdate([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if _, err := decodeRoleUpdate([]byte(`{"event":"role_update","data":"nope"}`)); err == nil {
		t.Fatal("expected error for malformed envelope payload")
	}
	if _, err := decodeRoleUpdate([]byte(`{"hello":"world"}`)); err == nil {
		t.Fatal("expected error for payload without user_id")
	}
}
