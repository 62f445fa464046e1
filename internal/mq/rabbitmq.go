package mq

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/recoverytrack/apiserver/config"
)

// appID marks messages published by this service.
const appID = "recovery-apiserver"

// RabbitMQClient publishes events to one durable queue per channel on the
// default exchange. Queue names come from BrokerName.
type RabbitMQClient struct {
	conn            *amqp.Connection
	channel         *amqp.Channel
	queueDurable    bool
	queueAutoDelete bool

	mu       sync.Mutex
	declared map[string]bool
}

// NewRabbitMQClient dials cfg.URL and applies the consumer prefetch.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &RabbitMQClient{
		conn:            conn,
		channel:         ch,
		queueDurable:    cfg.QueueDurable,
		queueAutoDelete: cfg.QueueAutoDelete,
		declared:        make(map[string]bool),
	}, nil
}

// Publish sends an event as a persistent JSON message.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	queue, err := BrokerName(channel)
	if err != nil {
		return "", err
	}
	if err := r.ensureQueue(queue); err != nil {
		return "", err
	}

	msg := eventPublishing(data, attrs, time.Now().UTC())
	if err := r.channel.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		return "", fmt.Errorf("publish to %s: %w", queue, err)
	}
	return msg.MessageId, nil
}

// Subscribe consumes the channel's queue until ctx is done. A failed
// message is requeued once and dropped if it fails again.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	queue, err := BrokerName(channel)
	if err != nil {
		return err
	}
	if err := r.ensureQueue(queue); err != nil {
		return err
	}

	consumerTag := appID + "-" + uuid.NewString()
	deliveries, err := r.channel.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.channel.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			if err := handler(ctx, deliveryMessage(delivery)); err != nil {
				_ = delivery.Nack(false, !delivery.Redelivered)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) ensureQueue(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.declared[name] {
		return nil
	}
	if _, err := r.channel.QueueDeclare(name, r.queueDurable, r.queueAutoDelete, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", name, err)
	}
	r.declared[name] = true
	return nil
}

// eventPublishing carries the event type in the AMQP type property and the
// user id as an integer header.
func eventPublishing(data []byte, attrs map[string]string, now time.Time) amqp.Publishing {
	headers := amqp.Table{}
	for key, value := range attrs {
		if key == AttrUserID {
			if id, err := strconv.ParseInt(value, 10, 64); err == nil {
				headers[key] = id
				continue
			}
		}
		headers[key] = value
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		AppId:        appID,
		Timestamp:    now,
		Type:         attrs[AttrEventType],
		Headers:      headers,
		Body:         data,
	}
}

func deliveryMessage(delivery amqp.Delivery) Message {
	attrs := make(map[string]string, len(delivery.Headers)+1)
	for key, value := range delivery.Headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		case int64:
			attrs[key] = strconv.FormatInt(typed, 10)
		case int32:
			attrs[key] = strconv.FormatInt(int64(typed), 10)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	if _, ok := attrs[AttrEventType]; !ok && delivery.Type != "" {
		attrs[AttrEventType] = delivery.Type
	}
	return Message{ID: delivery.MessageId, Data: delivery.Body, Attributes: attrs}
}
