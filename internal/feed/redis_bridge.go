package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type changeMessage struct {
	Origin   string `json:"origin"`
	TicketID string `json:"ticket_id"`
}

// RedisBridge relays change notifications between service instances.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
	origin  string
	logger  *zap.Logger
}

// NewRedisBridge wraps hub so local writes are also published on channel.
func NewRedisBridge(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBridge{client: client, channel: channel, hub: hub, origin: uuid.NewString(), logger: logger}
}

// Notify refreshes local subscribers and tells the other instances.
func (b *RedisBridge) Notify(ticketID string) {
	b.hub.Notify(ticketID)

	payload, err := json.Marshal(changeMessage{Origin: b.origin, TicketID: ticketID})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("publish ticket change failed", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

// Run relays remote changes into the local hub until ctx ends.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.logger.Info("ticket change feed subscribed", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(payload string) {
	var msg changeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		b.logger.Warn("malformed ticket change message", zap.Error(err))
		return
	}
	if msg.Origin == b.origin {
		return
	}
	b.hub.Notify(msg.TicketID)
}
