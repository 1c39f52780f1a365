package response

import (
	"time"

	"cleaning-booking/internal/data/entity"
)

type WalletResponse struct {
	UserID   string  `json:"user_id"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

type CreditTransactionResponse struct {
	ID               string                `json:"id"`
	Type             entity.CreditType     `json:"type"`
	Amount           float64               `json:"amount"`
	BalanceBefore    float64               `json:"balance_before"`
	BalanceAfter     float64               `json:"balance_after"`
	Status           entity.CreditStatus   `json:"status"`
	PaymentMethod    *entity.PaymentMethod `json:"payment_method,omitempty"`
	PaymentReference *string               `json:"payment_reference,omitempty"`
	BookingID        *string               `json:"booking_id,omitempty"`
	Description      string                `json:"description"`
	CreatedAt        time.Time             `json:"created_at"`
}

// PaymentInitResponse carries the reference the client hands to the gateway checkout.
type PaymentInitResponse struct {
	Reference string  `json:"reference"`
	Kind      string  `json:"kind"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

type EFTResponse struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	Amount          float64          `json:"amount"`
	Reference       string           `json:"reference"`
	ProofURL        *string          `json:"proof_url,omitempty"`
	Status          entity.EFTStatus `json:"status"`
	VerifiedBy      *string          `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time       `json:"verified_at,omitempty"`
	RejectionReason *string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

func CreditTransactionToResponse(tx *entity.CreditTransaction) CreditTransactionResponse {
	resp := CreditTransactionResponse{
		ID:               tx.ID.String(),
		Type:             tx.Type,
		Amount:           tx.Amount,
		BalanceBefore:    tx.BalanceBefore,
		BalanceAfter:     tx.BalanceAfter,
		Status:           tx.Status,
		PaymentMethod:    tx.PaymentMethod,
		PaymentReference: tx.PaymentReference,
		Description:      tx.Description,
		CreatedAt:        tx.CreatedAt,
	}
	if tx.BookingID != nil {
		id := tx.BookingID.String()
		resp.BookingID = &id
	}
	return resp
}

func EFTToResponse(sub *entity.EFTSubmission) EFTResponse {
	resp := EFTResponse{
		ID:              sub.ID.String(),
		UserID:          sub.UserID.String(),
		Amount:          sub.Amount,
		Reference:       sub.Reference,
		ProofURL:        sub.ProofURL,
		Status:          sub.Status,
		VerifiedAt:      sub.VerifiedAt,
		RejectionReason: sub.RejectionReason,
		CreatedAt:       sub.CreatedAt,
	}
	if sub.VerifiedBy != nil {
		id := sub.VerifiedBy.String()
		resp.VerifiedBy = &id
	}
	return resp
}
