package events

import "encoding/json"

// Event kinds carried on the role-updates stream.
const (
	KindConnected  = "connected"
	KindRoleUpdate = "role_update"
	KindHeartbeat  = "heartbeat"
	KindError      = "error"
)

// Envelope wraps every message on the stream. Data stays raw until the
// kind is known.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ErrorData is the payload of an "error" envelope.
type ErrorData struct {
	Message string `json:"message"`
}

// HeartbeatData is the payload of a "heartbeat" envelope.
type HeartbeatData struct {
	Timestamp float64 `json:"timestamp"`
}

// NewEnvelope marshals payload into a ready-to-send envelope.
func NewEnvelope(kind string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{Event: kind, Data: data}, nil
}
