// Package events announces domain events to other processes over Redis
// pub/sub. Delivery is fire-and-forget; nobody in this service subscribes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MatchCreated is published once per newly created match.
type MatchCreated struct {
	MatchID   string    `json:"match_id"`
	UserIDs   [2]string `json:"user_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher sends match events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishMatchCreated(ctx context.Context, evt MatchCreated) error
}

// RedisPublisher publishes JSON payloads on a single channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) PublishMatchCreated(ctx context.Context, evt MatchCreated) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode match event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}

// Nop drops every event. Used when Redis is not configured.
type Nop struct{}

func (Nop) PublishMatchCreated(context.Context, MatchCreated) error { return nil }
