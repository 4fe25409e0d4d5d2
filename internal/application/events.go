package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/washline/service-booking/internal/platform/kafka"
)

// Kafka topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types carried in the CloudEvent "type" attribute.
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventPaymentSucceeded = "payment.succeeded"
)

const eventSource = "service-booking"

// BookingCreatedEvent is published after a primary booking (and its
// recurrence children) are committed.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	ServiceID     uuid.UUID `json:"service_id"`
	Price         int64     `json:"price"`
	Currency      string    `json:"currency"`
	Cadence       string    `json:"cadence"`
	Occurrences   int       `json:"occurrences"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingConfirmedEvent is published when payment confirms a booking.
type BookingConfirmedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	BookingNumber   string    `json:"booking_number"`
	CustomerID      uuid.UUID `json:"customer_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when a booking is cancelled.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentSucceededEvent is consumed from the payment topic.
type PaymentSucceededEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// EventPublisher writes CloudEvents to a topic. *kafka.Producer implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, ce kafka.CloudEvent) error
}

// publishEvent wraps data in a CloudEvent and publishes it. Failures are
// logged and never fail the use case.
func publishEvent(ctx context.Context, publisher EventPublisher, logger *zap.Logger, topic, eventType, key string, data interface{}) {
	if publisher == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := publisher.PublishEvent(ctx, topic, key, cloudEvent); err != nil {
		logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
