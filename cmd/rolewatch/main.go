// Command rolewatch authenticates against the panel backend, follows the
// role-update stream, and prints transition notices until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spAdminEvents/internal/api"
	"spAdminEvents/internal/config"
	"spAdminEvents/internal/session"
	"spAdminEvents/internal/shared/auth"
	"spAdminEvents/internal/shared/logging"
	"spAdminEvents/internal/stream"
)

func main() {
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(logger)

	store := session.NewStore()
	client := api.NewClient(cfg.Stream.APIBaseURL, 10*time.Second, nil)
	if err := authenticate(context.Background(), client, store); err != nil {
		slog.Error("authentication failed", slog.Any("error", err))
		os.Exit(1)
	}
	current := store.Current()
	slog.Info("authenticated",
		slog.Int64("user_id", current.UserID),
		slog.String("discord_username", current.DiscordUsername),
		slog.String("role", string(current.Role)))

	endpoint := cfg.Stream.Endpoint
	var transport stream.Transport
	switch cfg.Stream.Transport {
	case "websocket":
		transport = stream.NewWebSocketTransport(cfg.Stream.APIBaseURL, nil)
		endpoint = strings.TrimRight(endpoint, "/") + "/ws"
	default:
		transport = stream.NewSSETransport(cfg.Stream.APIBaseURL, nil)
	}
	slog.Info("stream configured",
		slog.String("transport", cfg.Stream.Transport),
		slog.String("endpoint", endpoint),
		slog.Duration("reconnect_interval", cfg.Stream.ReconnectInterval),
		slog.Int("max_reconnect_attempts", cfg.Stream.MaxReconnectAttempts))

	avatars := api.NewAvatarCache()
	notify := stream.NotifierFunc(func(message string) {
		fmt.Println(message)
		if current := store.Current(); current != nil && current.MinecraftUsername != "" {
			slog.Info("subject avatar", slog.String("url", avatars.AvatarURL(current.MinecraftUsername, 64)))
		}
	})
	watcher := stream.NewRoleUpdateWatcher(transport, store, store, notify, stream.Options{
		Endpoint:             endpoint,
		ReconnectInterval:    cfg.Stream.ReconnectInterval,
		MaxReconnectAttempts: cfg.Stream.MaxReconnectAttempts,
		TokenValid:           auth.TokenUsable,
	})
	watcher.Connect()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	watcher.Disconnect()
	status := watcher.Status()
	slog.Info("stream closed",
		slog.String("state", status.State.String()),
		slog.Int("updates_seen", len(watcher.History())))
}

// authenticate resolves a session either from a pre-issued token or by
// logging in with credentials, and seeds the shared store with it.
func authenticate(ctx context.Context, client *api.Client, store *session.Store) error {
	if token := strings.TrimSpace(os.Getenv("ROLEWATCH_TOKEN")); token != "" {
		user, err := client.Me(ctx, token)
		if err != nil {
			return fmt.Errorf("resolve token user: %w", err)
		}
		store.Set(sessionFromUser(*user, token))
		return nil
	}

	username := strings.TrimSpace(os.Getenv("ROLEWATCH_USERNAME"))
	password := os.Getenv("ROLEWATCH_PASSWORD")
	if username == "" || password == "" {
		return errors.New("ROLEWATCH_TOKEN or ROLEWATCH_USERNAME/ROLEWATCH_PASSWORD must be set")
	}
	res, err := client.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	store.Set(sessionFromUser(res.User, res.AccessToken))
	return nil
}

func sessionFromUser(user api.User, token string) session.Session {
	return session.Session{
		UserID:            user.ID,
		DiscordUsername:   user.DiscordUsername,
		MinecraftUsername: user.MinecraftUsername,
		Role:              user.Role,
		IsActive:          user.IsActive,
		Token:             token,
		UpdatedAt:         user.UpdatedAt,
	}
}
