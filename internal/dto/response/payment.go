package response

import (
	"time"

	"cleaning-booking/internal/data/entity"
)

type VoucherResponse struct {
	ID          string             `json:"id"`
	Code        string             `json:"code"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Type        entity.VoucherType `json:"type"`
	Value       float64            `json:"value"`
	Price       float64            `json:"price"`
	ExpiresAt   *time.Time         `json:"expires_at,omitempty"`
}

type UserVoucherResponse struct {
	ID                  string                   `json:"id"`
	Status              entity.UserVoucherStatus `json:"status"`
	PurchaseReference   *string                  `json:"purchase_reference,omitempty"`
	RedemptionReference *string                  `json:"redemption_reference,omitempty"`
	RedeemedAt          *time.Time               `json:"redeemed_at,omitempty"`
	Voucher             *VoucherResponse         `json:"voucher,omitempty"`
	CreatedAt           time.Time                `json:"created_at"`
}

type RedeemVoucherResponse struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	RecordID *string `json:"record_id,omitempty"`
}

type DiscountValidationResponse struct {
	Accepted       bool                `json:"accepted"`
	Code           string              `json:"code"`
	Kind           entity.DiscountKind `json:"kind,omitempty"`
	DiscountAmount float64             `json:"discount_amount"`
	Reason         string              `json:"reason,omitempty"`
	Message        string              `json:"message,omitempty"`
}

// ReconcileResponse reports a reconciliation outcome. AlreadyApplied is set
// when the reference had been settled by an earlier call. Duplicate marks a
// distinct charge for bookings that were already paid.
type ReconcileResponse struct {
	Reference      string   `json:"reference"`
	Kind           string   `json:"kind"`
	Amount         float64  `json:"amount"`
	AlreadyApplied bool     `json:"already_applied"`
	Duplicate      bool     `json:"duplicate,omitempty"`
	BookingIDs     []string `json:"booking_ids,omitempty"`
	Balance        *float64 `json:"balance,omitempty"`
	UserVoucherID  *string  `json:"user_voucher_id,omitempty"`
}

func VoucherToResponse(v *entity.Voucher) *VoucherResponse {
	if v == nil {
		return nil
	}
	return &VoucherResponse{
		ID:          v.ID.String(),
		Code:        v.Code,
		Title:       v.Title,
		Description: v.Description,
		Type:        v.Type,
		Value:       v.Value,
		Price:       v.Price,
		ExpiresAt:   v.ExpiresAt,
	}
}

func UserVoucherToResponse(uv *entity.UserVoucher) UserVoucherResponse {
	return UserVoucherResponse{
		ID:                  uv.ID.String(),
		Status:              uv.Status,
		PurchaseReference:   uv.PurchaseReference,
		RedemptionReference: uv.RedemptionReference,
		RedeemedAt:          uv.RedeemedAt,
		Voucher:             VoucherToResponse(uv.Voucher),
		CreatedAt:           uv.CreatedAt,
	}
}
