package request

type CreditPurchaseRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type EFTSubmissionRequest struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Reference string  `json:"reference" validate:"required,max=100"`
	ProofURL  string  `json:"proof_url,omitempty" validate:"omitempty,url"`
}

type RejectEFTRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required,max=200"`
	Kind      string `json:"kind,omitempty" validate:"omitempty,oneof=booking credit voucher"`
}

type ValidateCodeRequest struct {
	Code       string  `json:"code" validate:"required,max=50"`
	OrderTotal float64 `json:"order_total" validate:"gte=0"`
}

type RedeemVoucherRequest struct {
	PaymentReference string `json:"payment_reference,omitempty" validate:"omitempty,max=200"`
}
