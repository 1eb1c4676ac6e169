package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"spAdminEvents/internal/events"
	"spAdminEvents/internal/shared/auth"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler serves the role-updates stream over SSE and websocket.
type StreamHandler struct {
	hub       *Hub
	validator auth.TokenValidator
	heartbeat time.Duration
}

func NewStreamHandler(hub *Hub, validator auth.TokenValidator, heartbeat time.Duration) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &StreamHandler{hub: hub, validator: validator, heartbeat: heartbeat}
}

func (h *StreamHandler) authenticate(c echo.Context) (int64, events.Role, error) {
	token := auth.ExtractToken(c.Request(), "token")
	claims, err := h.validator.Validate(token)
	if err != nil {
		slog.Warn("stream auth failed", slog.String("ip", c.RealIP()), slog.Any("error", err))
		return 0, events.RoleNone, echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
	}
	userID, err := claims.UserID()
	if err != nil {
		slog.Warn("stream auth bad subject", slog.String("ip", c.RealIP()), slog.Any("error", err))
		return 0, events.RoleNone, echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
	}
	return userID, events.ParseRole(claims.Role), nil
}

// SSE handles GET /api/v1/events/role-updates. The token arrives as a
// query parameter because EventSource cannot set handshake headers.
func (h *StreamHandler) SSE(c echo.Context) error {
	userID, role, err := h.authenticate(c)
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	sub := NewSubscriber(userID, role)
	h.hub.Attach(sub)
	defer h.hub.Detach(sub)

	if err := writeSSEEvent(res, greetingFrame()); err != nil {
		return nil
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	ctx := c.Request().Context()

	for {
		select {
		case data := <-sub.Send():
			if err := writeSSEEvent(res, data); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := writeSSEEvent(res, heartbeatFrame()); err != nil {
				return nil
			}
		case <-sub.Done():
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// WebSocket handles GET /api/v1/events/role-updates/ws. Same stream, but
// the handshake can carry an Authorization header.
func (h *StreamHandler) WebSocket(c echo.Context) error {
	userID, role, err := h.authenticate(c)
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("stream upgrade failed", slog.String("ip", c.RealIP()), slog.Any("error", err))
		return err
	}

	sub := NewSubscriber(userID, role)
	h.hub.Attach(sub)

	go h.writePump(conn, sub)
	go h.readPump(conn, sub)
	return nil
}

func (h *StreamHandler) writePump(conn *websocket.Conn, sub *Subscriber) {
	ticker := time.NewTicker(h.heartbeat)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		h.hub.Detach(sub)
	}()

	if err := conn.WriteMessage(websocket.TextMessage, greetingFrame()); err != nil {
		return
	}
	for {
		select {
		case data := <-sub.Send():
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Warn("stream write error", slog.String("streamId", sub.streamID), slog.Any("error", err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.TextMessage, heartbeatFrame()); err != nil {
				return
			}
		case <-sub.Done():
			return
		}
	}
}

// readPump discards inbound frames; the stream is one-way. Reading is
// still required to notice closes and answer pings.
func (h *StreamHandler) readPump(conn *websocket.Conn, sub *Subscriber) {
	defer h.hub.Detach(sub)
	conn.SetReadLimit(1 << 12)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("stream read closed", slog.String("streamId", sub.streamID), slog.Any("error", err))
			}
			return
		}
	}
}

// Status handles GET /api/v1/events/role-updates/status, admin only.
func (h *StreamHandler) Status(c echo.Context) error {
	_, role, err := h.authenticate(c)
	if err != nil {
		return err
	}
	if role != events.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"connected_clients": h.hub.Len(),
		"client_ids":        h.hub.ConnectedUsers(),
	})
}

func writeSSEEvent(res *echo.Response, data []byte) error {
	if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

func greetingFrame() []byte {
	frame, _ := json.Marshal(events.Envelope{
		Event: events.KindConnected,
		Data:  json.RawMessage(`{"message":"Connected to role updates"}`),
	})
	return frame
}

func heartbeatFrame() []byte {
	env, _ := events.NewEnvelope(events.KindHeartbeat, events.HeartbeatData{
		Timestamp: float64(time.Now().Unix()),
	})
	frame, _ := json.Marshal(env)
	return frame
}
