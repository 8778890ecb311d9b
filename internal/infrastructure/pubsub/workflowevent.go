package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/landreg/cadastre/internal/domain/shared/events"
	"github.com/landreg/cadastre/internal/shared/logger"
)

// DefaultWorkflowChannel carries maker-checker state changes.
const DefaultWorkflowChannel = "cadastre:workflow:events"

// WorkflowEventHandler is a callback function for handling workflow events
type WorkflowEventHandler func(ctx context.Context, event events.WorkflowEvent)

var _ events.EventPublisher = (*RedisWorkflowEventBus)(nil)

// RedisWorkflowEventBus publishes workflow events over Redis Pub/Sub so every
// instance can refresh checker inboxes.
type RedisWorkflowEventBus struct {
	client  *redis.Client
	channel string
	logger  logger.Interface
}

func NewRedisWorkflowEventBus(client *redis.Client, channel string, logger logger.Interface) *RedisWorkflowEventBus {
	if channel == "" {
		channel = DefaultWorkflowChannel
	}
	return &RedisWorkflowEventBus{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (b *RedisWorkflowEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish workflow event",
			"event_type", event.GetEventType(),
			"aggregate_id", event.GetAggregateID(),
			"error", err,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debugw("workflow event published",
		"event_type", event.GetEventType(),
		"aggregate_id", event.GetAggregateID(),
	)
	return nil
}

// Subscribe blocks delivering workflow events to handler until ctx is done.
func (b *RedisWorkflowEventBus) Subscribe(ctx context.Context, handler WorkflowEventHandler) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for subscription confirmation
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to workflow events", "channel", b.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("workflow event subscriber stopped", "reason", ctx.Err())
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("workflow event channel closed")
				return nil
			}

			var event events.WorkflowEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal workflow event",
					"payload", msg.Payload,
					"error", err,
				)
				continue
			}
			handler(ctx, event)
		}
	}
}
