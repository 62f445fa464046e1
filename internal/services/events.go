package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/recoverytrack/apiserver/internal/logger"
	"github.com/recoverytrack/apiserver/types"
)

// EventPublisher sends domain events to a channel. *mq.MQ satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, channel string, event types.Event) (string, error)
}

// EventObserver is told about every publish attempt.
type EventObserver interface {
	ObserveEvent(eventType string, err error)
}

// Events publishes domain events on a best-effort basis. A nil *Events or a
// nil publisher drops events silently.
type Events struct {
	publisher EventPublisher
	log       *logger.Logger
	observer  EventObserver
}

func NewEvents(publisher EventPublisher, log *logger.Logger, observer EventObserver) *Events {
	if log == nil {
		log = logger.Nop()
	}
	return &Events{publisher: publisher, log: log, observer: observer}
}

func (e *Events) publish(ctx context.Context, channel, eventType string, userID, entityID int64, occurredAt time.Time, entity any) {
	if e == nil || e.publisher == nil {
		return
	}

	payload, err := json.Marshal(entity)
	if err != nil {
		e.log.Error(ctx, "event.encode_failed", err)
		return
	}
	event := types.Event{
		Type:       eventType,
		UserID:     userID,
		EntityID:   entityID,
		OccurredAt: occurredAt,
		Payload:    payload,
	}

	_, err = e.publisher.PublishEvent(ctx, channel, event)
	if e.observer != nil {
		e.observer.ObserveEvent(eventType, err)
	}
	if err != nil {
		logCtx := e.log.WithFields(ctx, map[string]any{
			"event_type": eventType,
			"channel":    channel,
			"entity_id":  entityID,
		})
		e.log.Error(logCtx, "event.publish_failed", err)
	}
}
