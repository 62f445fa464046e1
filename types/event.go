package types

import (
	"encoding/json"
	"time"
)

// Event types published to the message queue.
const (
	EventMoodLogged          = "mood.logged"
	EventMedicationTaken     = "medication.taken"
	EventMedicationMissed    = "medication.missed"
	EventCommunityPostCreate = "community.post_created"
)

// Event is the envelope for domain events published by the API.
type Event struct {
	// Type identifies the event, e.g. "mood.logged".
	Type string `json:"type"`

	// UserID is the user the event concerns.
	UserID int64 `json:"user_id"`

	// EntityID is the id of the entity that triggered the event.
	EntityID int64 `json:"entity_id"`

	// OccurredAt is when the underlying entity was recorded.
	OccurredAt time.Time `json:"occurred_at"`

	// Payload carries the entity as JSON.
	Payload json.RawMessage `json:"payload"`
}
