package request

type QuoteRequest struct {
	ServiceType string         `json:"service_type" validate:"required,oneof=standard deep move-in-out airbnb office holiday"`
	Frequency   string         `json:"frequency" validate:"required,oneof=one-time weekly bi-weekly monthly"`
	Rooms       map[string]int `json:"rooms" validate:"dive,gte=0"`
	AddOns      []string       `json:"add_ons" validate:"dive,required"`
	Tip         float64        `json:"tip" validate:"gte=0"`
	PromoCode   string         `json:"promo_code,omitempty" validate:"omitempty,max=50"`
}

type CreateBookingRequest struct {
	QuoteRequest
	ScheduledDate string  `json:"scheduled_date" validate:"required,isodate"`
	ScheduledTime string  `json:"scheduled_time" validate:"required,hhmm"`
	AddressLine   string  `json:"address_line" validate:"required,max=255"`
	Suburb        string  `json:"suburb" validate:"max=100"`
	City          string  `json:"city" validate:"required,max=100"`
	PostalCode    string  `json:"postal_code" validate:"max=20"`
	ContactName   string  `json:"contact_name" validate:"required,max=120"`
	ContactEmail  string  `json:"contact_email" validate:"required,email"`
	ContactPhone  string  `json:"contact_phone" validate:"required,max=30"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=1000"`

	// UserVoucherID applies an owned discount voucher instead of a promo code.
	UserVoucherID string `json:"user_voucher_id,omitempty" validate:"omitempty,uuid"`
}

type RescheduleRequest struct {
	ScheduledDate string `json:"scheduled_date" validate:"required,isodate"`
	ScheduledTime string `json:"scheduled_time" validate:"required,hhmm"`
}

// RebookRequest keeps the original schedule when both fields are empty.
type RebookRequest struct {
	ScheduledDate string `json:"scheduled_date,omitempty" validate:"omitempty,isodate"`
	ScheduledTime string `json:"scheduled_time,omitempty" validate:"omitempty,hhmm"`
}

type DeclineRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type JobProgressRequest struct {
	Progress string `json:"progress" validate:"required,oneof=on-my-way arrived started"`
}

type AssignCleanerRequest struct {
	CleanerID string `json:"cleaner_id" validate:"required,uuid"`
}
