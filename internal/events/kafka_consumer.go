package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/washline/service-booking/internal/application"
	"github.com/washline/service-booking/internal/platform/domain"
	"github.com/washline/service-booking/internal/platform/kafka"
)

// PaymentConfirmer applies a payment processor's success notification.
// *application.PaymentService implements it.
type PaymentConfirmer interface {
	HandlePaymentSucceeded(ctx context.Context, evt application.PaymentSucceededEvent) error
}

// PaymentEventConsumer listens to payment events and confirms the bookings
// they were paid for.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  PaymentConfirmer
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service PaymentConfirmer,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, application.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // malformed, never retried
	}

	switch cloudEvent.Type {
	case application.EventPaymentSucceeded:
		return c.handlePaymentSucceeded(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentSucceeded(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt application.PaymentSucceededEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentSucceededEvent data",
			zap.Error(err),
		)
		return nil
	}

	c.logger.Info("processing payment succeeded event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_intent_id", evt.PaymentIntentID),
	)

	if err := c.service.HandlePaymentSucceeded(ctx, evt); err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			c.logger.Warn("payment event for unknown booking",
				zap.String("booking_id", evt.BookingID.String()),
				zap.String("payment_intent_id", evt.PaymentIntentID),
			)
			return nil
		}
		c.logger.Error("failed to confirm booking after payment",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
