package repository

import (
	"context"
	"errors"
	"fmt"

	"cleaning-booking/internal/data/entity"
	"cleaning-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	FindByReference(ctx context.Context, reference string) (*entity.Payment, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)

	// Upsert records the outcome for a reference. It returns false without
	// writing when the reference is already completed.
	Upsert(ctx context.Context, payment *entity.Payment) (bool, error)
}

type paymentRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentRepository(db database.Querier, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `id, reference, user_id, booking_id, recurring_group_id, amount, currency, status, failure_reason, created_at, updated_at`

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.Reference,
		&p.UserID,
		&p.BookingID,
		&p.RecurringGroupID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.FailureReason,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) FindByReference(ctx context.Context, reference string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, reference))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by reference",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return nil, fmt.Errorf("find payment by reference %s: %w", reference, err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payment by booking ID %s: %w", bookingID.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) Upsert(ctx context.Context, payment *entity.Payment) (bool, error) {
	query := `
		INSERT INTO payments (id, reference, user_id, booking_id, recurring_group_id, amount, currency, status, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (reference) DO UPDATE
		SET status = EXCLUDED.status, amount = EXCLUDED.amount, failure_reason = EXCLUDED.failure_reason, updated_at = NOW()
		WHERE payments.status <> 'completed'
		RETURNING id
	`

	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		payment.ID,
		payment.Reference,
		payment.UserID,
		payment.BookingID,
		payment.RecurringGroupID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.FailureReason,
	).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		r.log.Error("Failed to upsert payment",
			zap.Error(err),
			zap.String("reference", payment.Reference),
			zap.String("status", string(payment.Status)),
		)
		return false, fmt.Errorf("upsert payment %s: %w", payment.Reference, err)
	}

	payment.ID = id
	return true, nil
}
