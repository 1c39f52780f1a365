package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in-progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

type ServiceType string

const (
	ServiceStandard  ServiceType = "standard"
	ServiceDeep      ServiceType = "deep"
	ServiceMoveInOut ServiceType = "move-in-out"
	ServiceAirbnb    ServiceType = "airbnb"
	ServiceOffice    ServiceType = "office"
	ServiceHoliday   ServiceType = "holiday"
)

type Frequency string

const (
	FrequencyOneTime  Frequency = "one-time"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiWeekly Frequency = "bi-weekly"
	FrequencyMonthly  Frequency = "monthly"
)

// IsRecurring reports whether the frequency expands into a series.
func (f Frequency) IsRecurring() bool {
	return f == FrequencyWeekly || f == FrequencyBiWeekly || f == FrequencyMonthly
}

type JobProgress string

const (
	JobProgressOnMyWay JobProgress = "on-my-way"
	JobProgressArrived JobProgress = "arrived"
	JobProgressStarted JobProgress = "started"
)

type PaymentMethod string

const (
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodEFT     PaymentMethod = "eft"
	PaymentMethodCredits PaymentMethod = "credits"
)

type Booking struct {
	Base
	Reference   string      `db:"reference"`
	UserID      *uuid.UUID  `db:"user_id"`
	ServiceType ServiceType `db:"service_type"`
	Frequency   Frequency   `db:"frequency"`

	ScheduledDate time.Time `db:"scheduled_date"`
	ScheduledTime string    `db:"scheduled_time"`

	Rooms  map[string]int `db:"rooms"`
	AddOns []string       `db:"add_ons"`

	AddressLine string `db:"address_line"`
	Suburb      string `db:"suburb"`
	City        string `db:"city"`
	PostalCode  string `db:"postal_code"`

	ContactName  string `db:"contact_name"`
	ContactEmail string `db:"contact_email"`
	ContactPhone string `db:"contact_phone"`

	Subtotal          float64 `db:"subtotal"`
	FrequencyDiscount float64 `db:"frequency_discount"`
	PromoCode         *string `db:"promo_code"`
	PromoDiscount     float64 `db:"promo_discount"`
	ServiceFee        float64 `db:"service_fee"`
	CleanerEarnings   float64 `db:"cleaner_earnings"`
	CleanerPercentage float64 `db:"cleaner_percentage"`
	Tip               float64 `db:"tip"`
	Total             float64 `db:"total"`

	Status           BookingStatus  `db:"status"`
	PaymentStatus    PaymentStatus  `db:"payment_status"`
	PaymentMethod    *PaymentMethod `db:"payment_method"`
	PaymentReference *string        `db:"payment_reference"`

	RecurringGroupID  *uuid.UUID `db:"recurring_group_id"`
	RecurringSequence *int       `db:"recurring_sequence"`
	ParentBookingID   *uuid.UUID `db:"parent_booking_id"`

	CleanerID   *uuid.UUID   `db:"cleaner_id"`
	JobProgress *JobProgress `db:"job_progress"`
	Notes       *string      `db:"notes"`
}

// PaidWith reports whether the booking was settled with the given method.
func (b *Booking) PaidWith(method PaymentMethod) bool {
	return b.PaymentStatus == PaymentStatusCompleted && b.PaymentMethod != nil && *b.PaymentMethod == method
}
