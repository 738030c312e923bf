package events

import (
	"context"

	"yellowbox/pkg/kafka"
	"yellowbox/pkg/logger"
	"yellowbox/pkg/model"
)

const (
	EventBookingStarted = "booking.started"
	EventBookingEnded   = "booking.ended"

	source = "bookings"
)

// Publisher emits booking lifecycle events. Publishing is best-effort: the
// booking workflow never fails because an event could not be written.
type Publisher interface {
	BookingStarted(ctx context.Context, booking *model.Booking)
	BookingEnded(ctx context.Context, booking *model.Booking)
}

type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		log:      log,
	}
}

func (p *KafkaPublisher) BookingStarted(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingStarted, booking)
}

func (p *KafkaPublisher) BookingEnded(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingEnded, booking)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType string, booking *model.Booking) {
	msg, err := kafka.NewEventMessage(eventType, booking.ID, source, booking)
	if err != nil {
		p.log.Error("Failed to build booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
		return
	}

	p.log.Debug("Booking event published",
		"event_type", eventType,
		"booking_id", booking.ID,
	)
}

// NopPublisher is used when no Kafka brokers are configured.
type NopPublisher struct{}

func (NopPublisher) BookingStarted(ctx context.Context, booking *model.Booking) {}

func (NopPublisher) BookingEnded(ctx context.Context, booking *model.Booking) {}
