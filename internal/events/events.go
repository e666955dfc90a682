// Package events publishes declaration lifecycle transitions.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/OpenNSW/customs/internal/config"
	"github.com/OpenNSW/customs/internal/declaration"
)

// Type names a lifecycle transition.
type Type string

const (
	TypeSubmitted Type = "DECLARATION_SUBMITTED"
	TypeFetched   Type = "DECLARATION_FETCHED"
	TypeCorrected Type = "DECLARATION_CORRECTED"
	TypeAssessed  Type = "DECLARATION_ASSESSED"
	TypeRequeued  Type = "DECLARATION_REQUEUED"
	TypeFinalized Type = "DECLARATION_FINALIZED"
)

// Event is the JSON payload published for every transition.
type Event struct {
	ID            uuid.UUID         `json:"id"`
	Type          Type              `json:"type"`
	DeclarationID uuid.UUID         `json:"declarationId"`
	State         declaration.State `json:"state"`
	OfficeID      *uuid.UUID        `json:"officeId,omitempty"`
	InspectorID   *uuid.UUID        `json:"inspectorId,omitempty"`
	OccurredAt    time.Time         `json:"occurredAt"`
}

// New builds an event for the declaration's current state.
func New(t Type, d declaration.Declaration) Event {
	e := Event{
		ID:            uuid.New(),
		Type:          t,
		DeclarationID: d.ID(),
		State:         d.State(),
		OccurredAt:    time.Now().UTC(),
	}
	if id, ok := d.InspectedBy(); ok {
		e.InspectorID = &id
	}
	return e
}

// WithOffice sets the office the event happened at.
func (e Event) WithOffice(id uuid.UUID) Event {
	e.OfficeID = &id
	return e
}

// Publisher delivers events. Publishing is best effort.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// RedisClient is the subset of the go-redis client the publisher uses.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher sends events to a Redis pub/sub channel.
type RedisPublisher struct {
	client  RedisClient
	channel string
}

func NewRedisPublisher(client RedisClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", e.Type, err)
	}
	slog.DebugContext(ctx, "event published", "type", e.Type, "declarationID", e.DeclarationID, "channel", p.channel)
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// NewPublisherFromConfig connects to Redis, or returns a NoopPublisher when no
// address is configured.
func NewPublisherFromConfig(ctx context.Context, cfg config.RedisConfig) (Publisher, error) {
	if cfg.Addr == "" {
		slog.Info("redis not configured, lifecycle events are disabled")
		return NoopPublisher{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	slog.Info("publishing lifecycle events", "addr", cfg.Addr, "channel", cfg.Channel)
	return NewRedisPublisher(client, cfg.Channel), nil
}
