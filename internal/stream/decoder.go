package stream

import (
	"encoding/json"
	"log/slog"

	"spAdminEvents/internal/events"
)

// Decoder turns raw stream payloads into typed envelopes and routes them
// by kind. Parse failures are logged and dropped; they never reach the
// connection layer.
type Decoder struct {
	// OnRoleUpdate receives decoded role_update payloads.
	OnRoleUpdate func(events.RoleUpdate)
}

func (d *Decoder) Decode(raw []byte) {
	var env events.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Warn("stream message decode failed", slog.Int("bytes", len(raw)), slog.Any("error", err))
		return
	}

	switch env.Event {
	case events.KindConnected:
		slog.Info("stream greeting received")
	case events.KindRoleUpdate:
		var update events.RoleUpdate
		if err := json.Unmarshal(env.Data, &update); err != nil {
			slog.Warn("role update payload decode failed", slog.Any("error", err))
			return
		}
		if d.OnRoleUpdate != nil {
			d.OnRoleUpdate(update)
		}
	case events.KindHeartbeat:
		// Keepalive only.
	case events.KindError:
		var detail events.ErrorData
		_ = json.Unmarshal(env.Data, &detail)
		slog.Warn("stream error event", slog.String("message", detail.Message))
	default:
		slog.Debug("stream event unrecognized", slog.String("kind", env.Event))
	}
}
