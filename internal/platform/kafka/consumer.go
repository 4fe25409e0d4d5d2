package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler processes one message. A returned error is retried with
// backoff; the offset is committed only once the handler succeeds.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

// messageReader is the part of *kafkago.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads a single topic as part of a consumer group.
type Consumer struct {
	reader       messageReader
	logger       *zap.Logger
	retryInitial time.Duration
	retryMax     time.Duration
}

// NewConsumer creates a Consumer.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(reader, logger.With(zap.String("topic", topic), zap.String("group_id", groupID)))
}

func newConsumer(reader messageReader, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader:       reader,
		logger:       logger,
		retryInitial: 500 * time.Millisecond,
		retryMax:     30 * time.Second,
	}
}

// Consume blocks, dispatching messages to handler until ctx is cancelled.
// Messages are handled in order: a failing message is retried until it
// succeeds and the ones after it wait.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return context.Canceled
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		if err := c.handle(ctx, handler, msg); err != nil {
			// Only cancellation ends the retries; the offset stays uncommitted.
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit offset",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handler MessageHandler, msg kafkago.Message) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInitial
	b.MaxInterval = c.retryMax
	b.MaxElapsedTime = 0

	return backoff.RetryNotify(func() error {
		return handler(ctx, msg)
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		c.logger.Error("message handler failed, retrying",
			zap.Int64("offset", msg.Offset),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
	})
}

// Close closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
