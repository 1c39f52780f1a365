package response

import (
	"time"

	"cleaning-booking/internal/data/entity"
	"cleaning-booking/internal/pricing"
	"cleaning-booking/internal/schedule"
)

type BookingResponse struct {
	ID                string                `json:"id"`
	Reference         string                `json:"reference"`
	ServiceType       entity.ServiceType    `json:"service_type"`
	Frequency         entity.Frequency      `json:"frequency"`
	ScheduledDate     string                `json:"scheduled_date"`
	ScheduledTime     string                `json:"scheduled_time"`
	Rooms             map[string]int        `json:"rooms"`
	AddOns            []string              `json:"add_ons"`
	AddressLine       string                `json:"address_line"`
	Suburb            string                `json:"suburb,omitempty"`
	City              string                `json:"city"`
	PostalCode        string                `json:"postal_code,omitempty"`
	ContactName       string                `json:"contact_name"`
	ContactEmail      string                `json:"contact_email"`
	ContactPhone      string                `json:"contact_phone"`
	Subtotal          float64               `json:"subtotal"`
	FrequencyDiscount float64               `json:"frequency_discount"`
	PromoCode         *string               `json:"promo_code,omitempty"`
	PromoDiscount     float64               `json:"promo_discount"`
	ServiceFee        float64               `json:"service_fee"`
	CleanerEarnings   float64               `json:"cleaner_earnings"`
	CleanerPercentage float64               `json:"cleaner_percentage"`
	Tip               float64               `json:"tip"`
	Total             float64               `json:"total"`
	Status            entity.BookingStatus  `json:"status"`
	PaymentStatus     entity.PaymentStatus  `json:"payment_status"`
	PaymentMethod     *entity.PaymentMethod `json:"payment_method,omitempty"`
	PaymentReference  *string               `json:"payment_reference,omitempty"`
	RecurringGroupID  *string               `json:"recurring_group_id,omitempty"`
	RecurringSequence *int                  `json:"recurring_sequence,omitempty"`
	ParentBookingID   *string               `json:"parent_booking_id,omitempty"`
	CleanerID         *string               `json:"cleaner_id,omitempty"`
	JobProgress       *entity.JobProgress   `json:"job_progress,omitempty"`
	Notes             *string               `json:"notes,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

type QuoteResponse struct {
	pricing.Breakdown
	ServiceType entity.ServiceType `json:"service_type"`
	Frequency   entity.Frequency   `json:"frequency"`
}

// CreateBookingResponse lists every booking of the series in sequence order.
type CreateBookingResponse struct {
	RecurringGroupID *string           `json:"recurring_group_id,omitempty"`
	Bookings         []BookingResponse `json:"bookings"`
	SeriesTotal      float64           `json:"series_total"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                b.ID.String(),
		Reference:         b.Reference,
		ServiceType:       b.ServiceType,
		Frequency:         b.Frequency,
		ScheduledDate:     schedule.FormatDate(b.ScheduledDate),
		ScheduledTime:     b.ScheduledTime,
		Rooms:             b.Rooms,
		AddOns:            b.AddOns,
		AddressLine:       b.AddressLine,
		Suburb:            b.Suburb,
		City:              b.City,
		PostalCode:        b.PostalCode,
		ContactName:       b.ContactName,
		ContactEmail:      b.ContactEmail,
		ContactPhone:      b.ContactPhone,
		Subtotal:          b.Subtotal,
		FrequencyDiscount: b.FrequencyDiscount,
		PromoCode:         b.PromoCode,
		PromoDiscount:     b.PromoDiscount,
		ServiceFee:        b.ServiceFee,
		CleanerEarnings:   b.CleanerEarnings,
		CleanerPercentage: b.CleanerPercentage,
		Tip:               b.Tip,
		Total:             b.Total,
		Status:            b.Status,
		PaymentStatus:     b.PaymentStatus,
		PaymentMethod:     b.PaymentMethod,
		PaymentReference:  b.PaymentReference,
		RecurringSequence: b.RecurringSequence,
		JobProgress:       b.JobProgress,
		Notes:             b.Notes,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}

	if b.RecurringGroupID != nil {
		id := b.RecurringGroupID.String()
		resp.RecurringGroupID = &id
	}
	if b.ParentBookingID != nil {
		id := b.ParentBookingID.String()
		resp.ParentBookingID = &id
	}
	if b.CleanerID != nil {
		id := b.CleanerID.String()
		resp.CleanerID = &id
	}

	return resp
}

func BookingsToResponse(bookings []*entity.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = BookingToResponse(b)
	}
	return out
}
