// Package broker consumes role events from Kafka and hands them to the
// stream hub. The role-checker service publishes one message per detected
// change or confirmation.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"spAdminEvents/internal/events"
)

// Dispatch receives each decoded role update.
type Dispatch func(ctx context.Context, update events.RoleUpdate)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}),
	}
}

// Run reads until ctx is canceled. Undecodable messages are logged and
// skipped; they never stop the consumer.
func (c *Consumer) Run(ctx context.Context, dispatch Dispatch) error {
	defer c.reader.Close()
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("kafka read error", slog.Any("error", err))
			continue
		}

		update, err := decodeRoleUpdate(m.Value)
		if err != nil {
			slog.Warn("kafka message decode failed",
				slog.String("topic", m.Topic),
				slog.Int("partition", m.Partition),
				slog.Int64("offset", m.Offset),
				slog.Any("error", err),
			)
			continue
		}
		slog.Info("role event consumed",
			slog.String("topic", m.Topic),
			slog.Int64("offset", m.Offset),
			slog.Int64("subjectUserId", update.UserID),
			slog.String("newRole", string(update.NewRole)),
		)
		dispatch(ctx, update)
	}
}

// decodeRoleUpdate accepts either a bare RoleUpdate payload or an
// enveloped {event, data} message on the topic.
func decodeRoleUpdate(value []byte) (events.RoleUpdate, error) {
	var env events.Envelope
	if err := json.Unmarshal(value, &env); err == nil && env.Event == events.KindRoleUpdate && len(env.Data) > 0 {
		var update events.RoleUpdate
		if err := json.Unmarshal(env.Data, &update); err != nil {
			return events.RoleUpdate{}, fmt.Errorf("envelope payload: %w", err)
		}
		return update, nil
	}

	var update events.RoleUpdate
	if err := json.Unmarshal(value, &update); err != nil {
		return events.RoleUpdate{}, err
	}
	if update.UserID == 0 {
		return events.RoleUpdate{}, fmt.Errorf("missing user_id")
	}
	return update, nil
}

// Start launches one consumer goroutine per topic. With no brokers
// configured the gateway runs without a feed, which keeps local setups
// working before Kafka exists.
func Start(ctx context.Context, brokers []string, groupID string, topics []string, dispatch Dispatch) {
	if len(brokers) == 0 {
		slog.Warn("no kafka brokers configured, broker feed disabled")
		return
	}
	for _, topic := range topics {
		go func(tp string) {
			consumer := NewConsumer(brokers, groupID, tp)
			if err := consumer.Run(ctx, dispatch); err != nil && ctx.Err() == nil {
				slog.Error("kafka consumer stopped", slog.String("topic", tp), slog.Any("error", err))
			}
		}(topic)
	}
}
