package entity

import (
	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is the idempotency record of one gateway booking payment.
// Reference is unique across the table.
type Payment struct {
	Base
	Reference        string        `db:"reference"`
	UserID           uuid.UUID     `db:"user_id"`
	BookingID        uuid.UUID     `db:"booking_id"`
	RecurringGroupID *uuid.UUID    `db:"recurring_group_id"`
	Amount           float64       `db:"amount"`
	Currency         string        `db:"currency"`
	Status           PaymentStatus `db:"status"`
	FailureReason    *string       `db:"failure_reason"`
}
