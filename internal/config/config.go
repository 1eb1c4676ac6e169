package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Security SecurityConfig
	Kafka    KafkaConfig
	Stream   StreamConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port string
	// HeartbeatInterval paces keepalive frames on open streams.
	HeartbeatInterval time.Duration
}

type SecurityConfig struct {
	JWTSecret string
}

type KafkaConfig struct {
	Brokers []string
	GroupID string
	Topics  []string
}

// StreamConfig drives the client side: where the stream lives and how the
// connection manager retries.
type StreamConfig struct {
	APIBaseURL string
	Endpoint   string
	// Transport selects "sse" or "websocket".
	Transport            string
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
}

type LoggingConfig struct {
	Directory string
	Level     string
	Format    string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getenv("PORT", "8090"),
		},
		Security: SecurityConfig{
			JWTSecret: strings.TrimSpace(os.Getenv("JWT_SECRET")),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(firstEnv("KAFKA_BROKERS", "KAFKA_BROKER")),
			GroupID: getenv("KAFKA_GROUP_ID", "sp-admin-events"),
			Topics:  splitList(getenv("KAFKA_TOPICS", "roles.role_update")),
		},
		Stream: StreamConfig{
			APIBaseURL: getenv("API_URL", "http://localhost:8000"),
			Endpoint:   getenv("STREAM_ENDPOINT", "/api/v1/events/role-updates"),
			Transport:  strings.ToLower(getenv("STREAM_TRANSPORT", "sse")),
		},
		Logging: LoggingConfig{
			Directory: getenv("LOG_DIR", "./logs"),
			Level:     getenv("LOG_LEVEL", "info"),
			Format:    getenv("LOG_FORMAT", "text"),
		},
	}

	var err error
	cfg.Server.HeartbeatInterval, err = getenvDuration("HEARTBEAT_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.Stream.ReconnectInterval, err = getenvDuration("RECONNECT_INTERVAL", 3*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.Stream.MaxReconnectAttempts, err = getenvInt("MAX_RECONNECT_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}

	switch cfg.Stream.Transport {
	case "sse", "websocket":
	default:
		return nil, fmt.Errorf("config: unsupported STREAM_TRANSPORT %q", cfg.Stream.Transport)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, raw, err)
	}
	return parsed, nil
}

func getenvInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, raw, err)
	}
	return parsed, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
