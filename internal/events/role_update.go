package events

import (
	"strings"
	"time"
)

// Role identifies the access level granted to a panel account.
type Role string

const (
	RoleAdmin  Role = "admin"
	RolePolice Role = "police"
	RoleNone   Role = "none"
)

// ParseRole normalizes a raw role string. Unknown or empty values map to
// RoleNone, mirroring how the panel treats revoked accounts.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin
	case "police":
		return RolePolice
	default:
		return RoleNone
	}
}

// SubjectSnapshot is a point-in-time copy of the subject's account fields
// taken by the producer at the moment the role changed.
type SubjectSnapshot struct {
	DiscordUsername   string `json:"discord_username"`
	MinecraftUsername string `json:"minecraft_username,omitempty"`
	IsActive          bool   `json:"is_active"`
}

// RoleUpdate is the payload of a "role_update" envelope.
type RoleUpdate struct {
	UserID    int64           `json:"user_id"`
	OldRole   Role            `json:"old_role"`
	NewRole   Role            `json:"new_role"`
	Timestamp int64           `json:"timestamp"`
	UserData  SubjectSnapshot `json:"user_data"`
}

// Changed reports whether the event describes an actual transition. Equal
// roles mean the producer re-confirmed an unchanged assignment.
func (u RoleUpdate) Changed() bool {
	return u.OldRole != u.NewRole
}

// ObservedAt converts the producer-assigned epoch timestamp.
func (u RoleUpdate) ObservedAt() time.Time {
	return time.Unix(u.Timestamp, 0).UTC()
}
