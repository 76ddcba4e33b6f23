package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/pkg/logger"
)

// EventsChannel is the Redis channel session events travel on.
const EventsChannel = "vault:session-events"

// RedisBroadcaster publishes session events on Redis so that every server
// instance sees them, and relays what it receives to a local Hub.
type RedisBroadcaster struct {
	client *redis.Client
	hub    *Hub
	log    zerolog.Logger
}

func NewRedisBroadcaster(client *redis.Client, hub *Hub, log zerolog.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		client: client,
		hub:    hub,
		log:    logger.Component(log, "session_broadcaster"),
	}
}

// Publish sends ev to all instances, this one included.
func (b *RedisBroadcaster) Publish(ctx context.Context, ev domain.SessionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode session event: %w", err)
	}
	if err := b.client.Publish(ctx, EventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish session event: %w", err)
	}
	return nil
}

// Start subscribes to the events channel and relays messages to the hub until
// ctx is cancelled. It returns once the subscription is confirmed.
func (b *RedisBroadcaster) Start(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, EventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", EventsChannel, err)
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev domain.SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warn().Err(err).Msg("dropping malformed session event")
					continue
				}
				_ = b.hub.Publish(ctx, ev)
			}
		}
	}()

	b.log.Info().Str("channel", EventsChannel).Msg("session event relay started")
	return nil
}
