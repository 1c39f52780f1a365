package usecase

import (
	"context"
	"time"

	"cleaning-booking/internal/data/entity"

	"go.uber.org/zap"
)

const (
	EventBookingCreated     = "booking.created"
	EventBookingConfirmed   = "booking.confirmed"
	EventBookingCancelled   = "booking.cancelled"
	EventBookingRescheduled = "booking.rescheduled"
	EventBookingDeleted     = "booking.deleted"
	EventBookingAccepted    = "booking.accepted"
	EventBookingDeclined    = "booking.declined"
	EventBookingStarted     = "booking.started"
	EventBookingProgress    = "booking.progress"
	EventBookingCompleted   = "booking.completed"
	EventPaymentCompleted   = "payment.completed"
	EventPaymentFailed      = "payment.failed"
	EventPaymentDuplicate   = "payment.duplicate"
	EventWalletCredited     = "wallet.credited"
)

type BookingEvent struct {
	Type          string               `json:"type"`
	BookingID     string               `json:"booking_id"`
	Reference     string               `json:"reference"`
	Status        entity.BookingStatus `json:"status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
	ContactEmail  string               `json:"contact_email"`
	ScheduledDate time.Time            `json:"scheduled_date"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

type PaymentEvent struct {
	Type       string    `json:"type"`
	Reference  string    `json:"reference"`
	Kind       string    `json:"kind"`
	UserID     string    `json:"user_id,omitempty"`
	Amount     float64   `json:"amount"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// emitter publishes domain events after commit. Delivery failures are logged
// and never fail the operation that produced the event.
type emitter struct {
	pub   EventPublisher
	topic string
	log   *zap.Logger
}

func (e emitter) booking(ctx context.Context, eventType string, b *entity.Booking) {
	if e.pub == nil {
		return
	}
	e.publish(ctx, b.ID.String(), BookingEvent{
		Type:          eventType,
		BookingID:     b.ID.String(),
		Reference:     b.Reference,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		ContactEmail:  b.ContactEmail,
		ScheduledDate: b.ScheduledDate,
		OccurredAt:    time.Now().UTC(),
	})
}

func (e emitter) payment(ctx context.Context, ev PaymentEvent) {
	if e.pub == nil {
		return
	}
	ev.OccurredAt = time.Now().UTC()
	e.publish(ctx, ev.Reference, ev)
}

func (e emitter) publish(ctx context.Context, key string, value any) {
	if err := e.pub.Publish(ctx, e.topic, key, value); err != nil {
		e.log.Warn("Failed to publish event",
			zap.Error(err),
			zap.String("topic", e.topic),
			zap.String("key", key),
		)
	}
}
