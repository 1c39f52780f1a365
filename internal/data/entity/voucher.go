package entity

import (
	"time"

	"github.com/google/uuid"
)

type VoucherType string

const (
	VoucherCredit             VoucherType = "credit"
	VoucherDiscountPercentage VoucherType = "discount_percentage"
	VoucherDiscountFixed      VoucherType = "discount_fixed"
)

// IsDiscount reports whether redeeming the voucher reduces a booking price
// rather than crediting the wallet.
func (t VoucherType) IsDiscount() bool {
	return t == VoucherDiscountPercentage || t == VoucherDiscountFixed
}

type Voucher struct {
	BaseNoDelete
	Code        string      `db:"code"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	Type        VoucherType `db:"voucher_type"`
	Value       float64     `db:"value"`
	Price       float64     `db:"price"`
	ExpiresAt   *time.Time  `db:"expires_at"`
	Active      bool        `db:"active"`
}

type UserVoucherStatus string

const (
	UserVoucherActive   UserVoucherStatus = "active"
	UserVoucherRedeemed UserVoucherStatus = "redeemed"
)

type UserVoucher struct {
	BaseNoDelete
	UserID              uuid.UUID         `db:"user_id"`
	VoucherID           uuid.UUID         `db:"voucher_id"`
	Status              UserVoucherStatus `db:"status"`
	PurchaseReference   *string           `db:"purchase_reference"`
	RedemptionReference *string           `db:"redemption_reference"`
	RedeemedAt          *time.Time        `db:"redeemed_at"`

	// Voucher is joined in for listing and pricing.
	Voucher *Voucher `db:"-"`
}

// PendingVoucherPurchase tracks a voucher bought through the gateway until reconciliation.
type PendingVoucherPurchase struct {
	BaseNoDelete
	UserID           uuid.UUID     `db:"user_id"`
	VoucherID        uuid.UUID     `db:"voucher_id"`
	Amount           float64       `db:"amount"`
	PaymentReference string        `db:"payment_reference"`
	Status           PaymentStatus `db:"status"`
}

// ProcedureResult is the row returned by the store-side voucher procedures.
type ProcedureResult struct {
	Success  bool       `db:"success"`
	Message  string     `db:"message"`
	RecordID *uuid.UUID `db:"record_id"`
}
