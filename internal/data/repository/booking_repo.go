package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleaning-booking/internal/data/entity"
	"cleaning-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	CreateBatch(ctx context.Context, bookings []*entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByReference(ctx context.Context, reference string) (*entity.Booking, error)
	FindByContactEmail(ctx context.Context, email string, limit, offset int) ([]*entity.Booking, error)
	CountByContactEmail(ctx context.Context, email string) (int64, error)
	FindByGroupID(ctx context.Context, groupID uuid.UUID) ([]*entity.Booking, error)
	FindByCleanerID(ctx context.Context, cleanerID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	Update(ctx context.Context, booking *entity.Booking) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Business queries
	LockUnpaidByGroupID(ctx context.Context, groupID uuid.UUID) ([]*entity.Booking, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error
	MarkPaid(ctx context.Context, bookingID uuid.UUID, method entity.PaymentMethod, reference *string, status entity.BookingStatus) error
	MarkPaymentFailed(ctx context.Context, bookingID uuid.UUID) error
	RecordDecline(ctx context.Context, bookingID, cleanerID uuid.UUID, reason *string) error
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `
	id, reference, user_id, service_type, frequency, scheduled_date, scheduled_time,
	rooms, add_ons, address_line, suburb, city, postal_code,
	contact_name, contact_email, contact_phone,
	subtotal, frequency_discount, promo_code, promo_discount, service_fee,
	cleaner_earnings, cleaner_percentage, tip, total,
	status, payment_status, payment_method, payment_reference,
	recurring_group_id, recurring_sequence, parent_booking_id,
	cleaner_id, job_progress, notes, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID, &b.Reference, &b.UserID, &b.ServiceType, &b.Frequency, &b.ScheduledDate, &b.ScheduledTime,
		&b.Rooms, &b.AddOns, &b.AddressLine, &b.Suburb, &b.City, &b.PostalCode,
		&b.ContactName, &b.ContactEmail, &b.ContactPhone,
		&b.Subtotal, &b.FrequencyDiscount, &b.PromoCode, &b.PromoDiscount, &b.ServiceFee,
		&b.CleanerEarnings, &b.CleanerPercentage, &b.Tip, &b.Total,
		&b.Status, &b.PaymentStatus, &b.PaymentMethod, &b.PaymentReference,
		&b.RecurringGroupID, &b.RecurringSequence, &b.ParentBookingID,
		&b.CleanerID, &b.JobProgress, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) scanRows(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}
	return bookings, nil
}

func bookingArgs(b *entity.Booking) []any {
	return []any{
		b.ID, b.Reference, b.UserID, b.ServiceType, b.Frequency, b.ScheduledDate, b.ScheduledTime,
		b.Rooms, b.AddOns, b.AddressLine, b.Suburb, b.City, b.PostalCode,
		b.ContactName, b.ContactEmail, b.ContactPhone,
		b.Subtotal, b.FrequencyDiscount, b.PromoCode, b.PromoDiscount, b.ServiceFee,
		b.CleanerEarnings, b.CleanerPercentage, b.Tip, b.Total,
		b.Status, b.PaymentStatus, b.PaymentMethod, b.PaymentReference,
		b.RecurringGroupID, b.RecurringSequence, b.ParentBookingID,
		b.CleanerID, b.JobProgress, b.Notes, b.CreatedAt, b.UpdatedAt,
	}
}

const insertBookingSQL = `
	INSERT INTO bookings (` + bookingColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
	        $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37)
`

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	_, err := r.db.Exec(ctx, insertBookingSQL, bookingArgs(booking)...)
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("reference", booking.Reference),
			zap.String("contact_email", booking.ContactEmail),
		)
		return fmt.Errorf("create booking %s: %w", booking.Reference, err)
	}

	return nil
}

// CreateBatch inserts a recurring series. Callers run it inside a transaction.
func (r *bookingRepository) CreateBatch(ctx context.Context, bookings []*entity.Booking) error {
	for _, b := range bookings {
		if err := r.Create(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (r *bookingRepository) findOne(ctx context.Context, query string, arg any, what string) (*entity.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by "+what,
			zap.Error(err),
			zap.Any(what, arg),
		)
		return nil, fmt.Errorf("find booking by %s %v: %w", what, arg, err)
	}
	return b, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND deleted_at IS NULL`
	return r.findOne(ctx, query, id, "id")
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return r.findOne(ctx, query, id, "id")
}

func (r *bookingRepository) FindByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1 AND deleted_at IS NULL`
	return r.findOne(ctx, query, reference, "reference")
}

func (r *bookingRepository) FindByContactEmail(ctx context.Context, email string, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE lower(contact_email) = lower($1) AND deleted_at IS NULL
		ORDER BY scheduled_date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, email, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by contact email",
			zap.Error(err),
			zap.String("contact_email", email),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by contact email: %w", err)
	}

	return r.scanRows(rows)
}

func (r *bookingRepository) CountByContactEmail(ctx context.Context, email string) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE lower(contact_email) = lower($1) AND deleted_at IS NULL`

	var count int64
	if err := r.db.QueryRow(ctx, query, email).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by contact email", zap.Error(err))
		return 0, fmt.Errorf("count bookings by contact email: %w", err)
	}

	return count, nil
}

func (r *bookingRepository) FindByGroupID(ctx context.Context, groupID uuid.UUID) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE recurring_group_id = $1 AND deleted_at IS NULL
		ORDER BY recurring_sequence
	`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		r.log.Error("Failed to find bookings by group",
			zap.Error(err),
			zap.String("recurring_group_id", groupID.String()),
		)
		return nil, fmt.Errorf("find bookings by group %s: %w", groupID.String(), err)
	}

	return r.scanRows(rows)
}

func (r *bookingRepository) FindByCleanerID(ctx context.Context, cleanerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE cleaner_id = $1 AND deleted_at IS NULL
		ORDER BY scheduled_date, scheduled_time
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, cleanerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by cleaner",
			zap.Error(err),
			zap.String("cleaner_id", cleanerID.String()),
		)
		return nil, fmt.Errorf("find bookings by cleaner %s: %w", cleanerID.String(), err)
	}

	return r.scanRows(rows)
}

// LockUnpaidByGroupID locks every series member whose payment is not completed.
func (r *bookingRepository) LockUnpaidByGroupID(ctx context.Context, groupID uuid.UUID) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE recurring_group_id = $1 AND payment_status <> 'completed'
		  AND status <> 'cancelled' AND deleted_at IS NULL
		ORDER BY recurring_sequence
		FOR UPDATE
	`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		r.log.Error("Failed to lock unpaid group bookings",
			zap.Error(err),
			zap.String("recurring_group_id", groupID.String()),
		)
		return nil, fmt.Errorf("lock unpaid bookings of group %s: %w", groupID.String(), err)
	}

	return r.scanRows(rows)
}

func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET scheduled_date = $2, scheduled_time = $3, status = $4, payment_status = $5,
		    payment_method = $6, payment_reference = $7, cleaner_id = $8, job_progress = $9,
		    notes = $10, updated_at = $11
		WHERE id = $1 AND deleted_at IS NULL
	`

	booking.UpdatedAt = time.Now()
	result, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.ScheduledDate,
		booking.ScheduledTime,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentMethod,
		booking.PaymentReference,
		booking.CleanerID,
		booking.JobProgress,
		booking.Notes,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return fmt.Errorf("update booking %s: %w", booking.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", booking.ID.String())
	}

	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM bookings WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("delete booking %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", id.String())
	}

	r.log.Info("Booking deleted", zap.String("booking_id", id.String()))
	return nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, bookingID, status)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update booking %s status to %s: %w", bookingID.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", bookingID.String())
	}

	return nil
}

func (r *bookingRepository) MarkPaid(ctx context.Context, bookingID uuid.UUID, method entity.PaymentMethod, reference *string, status entity.BookingStatus) error {
	query := `
		UPDATE bookings
		SET payment_status = 'completed', payment_method = $2, payment_reference = $3, status = $4, updated_at = NOW()
		WHERE id = $1 AND payment_status <> 'completed'
	`

	result, err := r.db.Exec(ctx, query, bookingID, method, reference, status)
	if err != nil {
		r.log.Error("Failed to mark booking paid",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return fmt.Errorf("mark booking %s paid: %w", bookingID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found or already paid", bookingID.String())
	}

	return nil
}

func (r *bookingRepository) MarkPaymentFailed(ctx context.Context, bookingID uuid.UUID) error {
	query := `
		UPDATE bookings SET payment_status = 'failed', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'pending' AND status <> 'completed'
	`

	if _, err := r.db.Exec(ctx, query, bookingID); err != nil {
		r.log.Error("Failed to mark booking payment failed",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return fmt.Errorf("mark booking %s payment failed: %w", bookingID.String(), err)
	}

	return nil
}

func (r *bookingRepository) RecordDecline(ctx context.Context, bookingID, cleanerID uuid.UUID, reason *string) error {
	query := `
		INSERT INTO booking_declines (id, booking_id, cleaner_id, reason, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	if _, err := r.db.Exec(ctx, query, uuid.New(), bookingID, cleanerID, reason); err != nil {
		r.log.Error("Failed to record booking decline",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("cleaner_id", cleanerID.String()),
		)
		return fmt.Errorf("record decline of booking %s: %w", bookingID.String(), err)
	}

	return nil
}
