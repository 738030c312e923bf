package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"
)

// NewEventMessage builds a message for a domain event keyed by entity id. The
// payload is JSON-encoded; a marshal failure is returned to the caller rather
// than published as an empty value.
func NewEventMessage(eventType, key, source string, payload any) (Message, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Key:       key,
		Value:     value,
		Timestamp: time.Now(),
		Headers: map[string]string{
			HeaderEventID:   uuid.NewString(),
			HeaderEventType: eventType,
			HeaderSource:    source,
		},
	}, nil
}
