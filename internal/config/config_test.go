package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8090" {
		t.Fatalf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Stream.Endpoint != "/api/v1/events/role-updates" {
		t.Fatalf("unexpected endpoint: %s", cfg.Stream.Endpoint)
	}
	if cfg.Stream.Transport != "sse" {
		t.Fatalf("unexpected transport: %s", cfg.Stream.Transport)
	}
	if cfg.Stream.ReconnectInterval != 3*time.Second {
		t.Fatalf("unexpected reconnect interval: %s", cfg.Stream.ReconnectInterval)
	}
	if cfg.Stream.MaxReconnectAttempts != 5 {
		t.Fatalf("unexpected max attempts: %d", cfg.Stream.MaxReconnectAttempts)
	}
	if cfg.Server.HeartbeatInterval != 30*time.Second {
		t.Fatalf("unexpected heartbeat interval: %s", cfg.Server.HeartbeatInterval)
	}
	if cfg.Kafka.GroupID != "sp-admin-events" {
		t.Fatalf("unexpected group id: %s", cfg.Kafka.GroupID)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-a:9092, broker-b:9092")
	t.Setenv("STREAM_TRANSPORT", "websocket")
	t.Setenv("RECONNECT_INTERVAL", "500ms")
	t.Setenv("MAX_RECONNECT_ATTEMPTS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "broker-b:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.Stream.Transport != "websocket" {
		t.Fatalf("unexpected transport: %s", cfg.Stream.Transport)
	}
	if cfg.Stream.ReconnectInterval != 500*time.Millisecond {
		t.Fatalf("unexpected reconnect interval: %s", cfg.Stream.ReconnectInterval)
	}
	if cfg.Stream.MaxReconnectAttempts != 2 {
		t.Fatalf("unexpected max attempts: %d", cfg.Stream.MaxReconnectAttempts)
	}
}

func TestLoadRejectsUnknownTransport(t *testing.T) {
	t.Setenv("STREAM_TRANSPORT", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported transport")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("RECONNECT_INTERVAL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
