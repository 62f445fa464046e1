package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/recoverytrack/apiserver/config"
	"github.com/recoverytrack/apiserver/types"
)

// Event channels.
const (
	ChannelMoodLogs       = "mood-logs"
	ChannelMedicationLogs = "medication-logs"
	ChannelCommunityPosts = "community-posts"
)

// Channels lists every channel events are published on.
var Channels = []string{ChannelMoodLogs, ChannelMedicationLogs, ChannelCommunityPosts}

// ErrUnknownChannel is returned by the broker backends for a channel not in
// Channels.
var ErrUnknownChannel = errors.New("unknown mq channel")

// brokerPrefix namespaces queues and topics on shared brokers.
const brokerPrefix = "recovery."

// BrokerName is the queue or topic that carries channel.
func BrokerName(channel string) (string, error) {
	if !slices.Contains(Channels, channel) {
		return "", fmt.Errorf("%w %q", ErrUnknownChannel, channel)
	}
	return brokerPrefix + channel, nil
}

// Attribute keys set on every event message.
const (
	AttrEventType = "event_type"
	AttrUserID    = "user_id"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// EventHandler processes a decoded domain event.
type EventHandler func(ctx context.Context, event types.Event) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// NewFromConfig dials the configured broker. It returns nil, nil when
// messaging is disabled.
func NewFromConfig(ctx context.Context, cfg config.Config) (*MQ, error) {
	switch cfg.MQ.Backend {
	case config.MQBackendRabbitMQ:
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		return New(client), nil
	case config.MQBackendPubSub:
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("pubsub: %w", err)
		}
		return New(client), nil
	case config.MQBackendNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported mq backend %q", cfg.MQ.Backend)
	}
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// PublishEvent encodes event as JSON and sends it to channel.
func (m *MQ) PublishEvent(ctx context.Context, channel string, event types.Event) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}
	return m.backend.Publish(ctx, channel, data, map[string]string{
		AttrEventType: event.Type,
		AttrUserID:    strconv.FormatInt(event.UserID, 10),
	})
}

// Subscribe consumes messages from the named channel.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

// SubscribeEvents decodes each message on channel before calling handler.
// Undecodable messages are rejected.
func (m *MQ) SubscribeEvents(ctx context.Context, channel string, handler EventHandler) error {
	return m.backend.Subscribe(ctx, channel, func(ctx context.Context, msg Message) error {
		var event types.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return fmt.Errorf("decode event %s: %w", msg.ID, err)
		}
		return handler(ctx, event)
	})
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
