// Package api is a typed client for the panel REST backend, covering the
// auth surface the stream consumers need: login, current user, and the
// role refresh trigger.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"spAdminEvents/internal/events"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// User mirrors the backend account schema.
type User struct {
	ID                int64       `json:"id"`
	DiscordID         string      `json:"discord_id"`
	DiscordUsername   string      `json:"discord_username"`
	MinecraftUsername string      `json:"minecraft_username,omitempty"`
	MinecraftUUID     string      `json:"minecraft_uuid,omitempty"`
	Role              events.Role `json:"role"`
	IsActive          bool        `json:"is_active"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// AuthResponse is returned by the login endpoints.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration, client *http.Client) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = "http://localhost:8000"
	}
	if client == nil {
		client = &http.Client{Timeout: timeoutOrDefault(timeout)}
	} else if timeout > 0 {
		client.Timeout = timeout
	}
	return &Client{baseURL: trimmed, client: client}
}

// Login exchanges credentials for a bearer token and the account record.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	payload := map[string]string{"username": username, "password": password}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login-json", "", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the account behind the token.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var out struct {
		User    User   `json:"user"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// RefreshUser asks the backend to re-check the account's roles against
// Discord and returns the refreshed record.
func (c *Client) RefreshUser(ctx context.Context, token string) (*User, error) {
	var out struct {
		User    User   `json:"user"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/refresh", token, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("api request marshal: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api request build: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if trimmed := strings.TrimSpace(token); trimmed != "" {
		req.Header.Set("Authorization", "Bearer "+trimmed)
	}

	res, err := c.client.Do(req)
	if err != nil {
		slog.Warn("api request failed", slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("api request: %w", err)
	}
	defer res.Body.Close()

	if err := mapStatus(res.StatusCode, path); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("api response decode: %w", err)
	}
	return nil
}

func mapStatus(status int, path string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, path)
	case status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, path)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	default:
		return fmt.Errorf("api request %s: unexpected status %d", path, status)
	}
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value <= 0 {
		return 10 * time.Second
	}
	return value
}
