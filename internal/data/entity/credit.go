package entity

import (
	"github.com/google/uuid"
)

type CreditType string

const (
	CreditTypePurchase CreditType = "purchase"
	CreditTypeUsage    CreditType = "usage"
	CreditTypeRefund   CreditType = "refund"
)

// Sign is +1 for types that add to the balance and -1 for usage.
func (t CreditType) Sign() float64 {
	if t == CreditTypeUsage {
		return -1
	}
	return 1
}

type CreditStatus string

const (
	CreditStatusPending   CreditStatus = "pending"
	CreditStatusCompleted CreditStatus = "completed"
	CreditStatusFailed    CreditStatus = "failed"
	CreditStatusCancelled CreditStatus = "cancelled"
)

// CreditTransaction is an append-only wallet ledger entry.
// At most one completed row exists per (UserID, PaymentReference).
type CreditTransaction struct {
	BaseNoDelete
	UserID           uuid.UUID      `db:"user_id"`
	Type             CreditType     `db:"transaction_type"`
	Amount           float64        `db:"amount"`
	BalanceBefore    float64        `db:"balance_before"`
	BalanceAfter     float64        `db:"balance_after"`
	Status           CreditStatus   `db:"status"`
	PaymentMethod    *PaymentMethod `db:"payment_method"`
	PaymentReference *string        `db:"payment_reference"`
	BookingID        *uuid.UUID     `db:"booking_id"`
	Description      string         `db:"description"`
	Metadata         map[string]any `db:"metadata"`
}

// SignedAmount is the amount as applied to the balance.
func (t *CreditTransaction) SignedAmount() float64 {
	return t.Type.Sign() * t.Amount
}
