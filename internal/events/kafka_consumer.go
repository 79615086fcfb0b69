package events

import (
	"context"

	"github.com/edgeandco/service-booking/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// BookingConfirmer moves a pending booking to confirmed, reporting whether it changed.
type BookingConfirmer interface {
	ConfirmBooking(ctx context.Context, id int64) (bool, error)
}

// PaymentEventConsumer listens to payment events and confirms paid bookings.
type PaymentEventConsumer struct {
	consumer *Consumer
	service  BookingConfirmer
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service BookingConfirmer,
	logger *zap.Logger,
) *PaymentEventConsumer {
	return &PaymentEventConsumer{
		consumer: NewConsumer(brokers, groupID, TopicPaymentEvents, logger),
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
	cloudEvent, err := ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case PaymentBookingPaid:
		return c.handleBookingPaid(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handleBookingPaid(ctx context.Context, cloudEvent CloudEvent) error {
	var evt BookingPaidEvent
	if err := cloudEvent.ParseData(&evt); err != nil || evt.BookingID <= 0 {
		c.logger.Error("failed to parse BookingPaidEvent data",
			zap.Error(err),
			zap.String("event_id", cloudEvent.ID),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing booking paid event",
		zap.Int64("booking_id", evt.BookingID),
		zap.String("payment_id", evt.PaymentID),
		zap.Float64("amount", evt.Amount),
	)

	changed, err := c.service.ConfirmBooking(ctx, evt.BookingID)
	if err != nil {
		if domain.IsNotFound(err) {
			c.logger.Warn("paid booking no longer exists",
				zap.Int64("booking_id", evt.BookingID),
			)
			return nil
		}
		if domain.IsValidation(err) || domain.IsConflict(err) {
			c.logger.Error("paid booking cannot be confirmed",
				zap.Int64("booking_id", evt.BookingID),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to confirm booking after payment",
			zap.Int64("booking_id", evt.BookingID),
			zap.Error(err),
		)
		return err
	}

	if changed {
		c.logger.Info("booking confirmed after payment",
			zap.Int64("booking_id", evt.BookingID),
		)
	} else {
		c.logger.Info("booking already settled, payment ignored",
			zap.Int64("booking_id", evt.BookingID),
		)
	}
	return nil
}
