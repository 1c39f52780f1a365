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

type CreditRepository interface {
	// Create appends a ledger entry. A second completed or pending entry for the
	// same user and reference fails with ErrDuplicateReference.
	Create(ctx context.Context, tx *entity.CreditTransaction) error
	FindByReference(ctx context.Context, reference string) (*entity.CreditTransaction, error)
	Complete(ctx context.Context, tx *entity.CreditTransaction) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.CreditTransaction, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type creditRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewCreditRepository(db database.Querier, log *zap.Logger) CreditRepository {
	return &creditRepository{
		db:  db,
		log: log.With(zap.String("repository", "credit")),
	}
}

const creditColumns = `id, user_id, transaction_type, amount, balance_before, balance_after, status,
	payment_method, payment_reference, booking_id, description, metadata, created_at, updated_at`

func scanCredit(row pgx.Row) (*entity.CreditTransaction, error) {
	var tx entity.CreditTransaction
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Type,
		&tx.Amount,
		&tx.BalanceBefore,
		&tx.BalanceAfter,
		&tx.Status,
		&tx.PaymentMethod,
		&tx.PaymentReference,
		&tx.BookingID,
		&tx.Description,
		&tx.Metadata,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *creditRepository) Create(ctx context.Context, tx *entity.CreditTransaction) error {
	query := `
		INSERT INTO credit_transactions (id, user_id, transaction_type, amount, balance_before, balance_after,
			status, payment_method, payment_reference, booking_id, description, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.Metadata == nil {
		tx.Metadata = map[string]any{}
	}

	err := r.db.QueryRow(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Type,
		tx.Amount,
		tx.BalanceBefore,
		tx.BalanceAfter,
		tx.Status,
		tx.PaymentMethod,
		tx.PaymentReference,
		tx.BookingID,
		tx.Description,
		tx.Metadata,
	).Scan(&tx.CreatedAt, &tx.UpdatedAt)

	if database.IsUniqueViolation(err) {
		return fmt.Errorf("credit transaction %s: %w", derefString(tx.PaymentReference), ErrDuplicateReference)
	}
	if err != nil {
		r.log.Error("Failed to create credit transaction",
			zap.Error(err),
			zap.String("user_id", tx.UserID.String()),
			zap.String("type", string(tx.Type)),
		)
		return fmt.Errorf("create credit transaction: %w", err)
	}

	return nil
}

// FindByReference prefers the completed entry for a reference and otherwise
// returns the most recent one.
func (r *creditRepository) FindByReference(ctx context.Context, reference string) (*entity.CreditTransaction, error) {
	query := `
		SELECT ` + creditColumns + `
		FROM credit_transactions
		WHERE payment_reference = $1
		ORDER BY (status = 'completed') DESC, created_at DESC
		LIMIT 1
	`

	tx, err := scanCredit(r.db.QueryRow(ctx, query, reference))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find credit transaction",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return nil, fmt.Errorf("find credit transaction %s: %w", reference, err)
	}

	return tx, nil
}

// Complete moves a pending entry to completed with its final balances.
func (r *creditRepository) Complete(ctx context.Context, tx *entity.CreditTransaction) error {
	query := `
		UPDATE credit_transactions
		SET status = 'completed', amount = $2, balance_before = $3, balance_after = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(ctx, query, tx.ID, tx.Amount, tx.BalanceBefore, tx.BalanceAfter)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("credit transaction %s: %w", derefString(tx.PaymentReference), ErrDuplicateReference)
	}
	if err != nil {
		r.log.Error("Failed to complete credit transaction",
			zap.Error(err),
			zap.String("id", tx.ID.String()),
		)
		return fmt.Errorf("complete credit transaction %s: %w", tx.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pending credit transaction %s: %w", tx.ID.String(), ErrNotFound)
	}

	tx.Status = entity.CreditStatusCompleted
	return nil
}

func (r *creditRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE credit_transactions
		SET status = 'failed', metadata = metadata || jsonb_build_object('failure_reason', $2::TEXT), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	if _, err := r.db.Exec(ctx, query, id, reason); err != nil {
		r.log.Error("Failed to mark credit transaction failed",
			zap.Error(err),
			zap.String("id", id.String()),
		)
		return fmt.Errorf("mark credit transaction %s failed: %w", id.String(), err)
	}

	return nil
}

func (r *creditRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.CreditTransaction, error) {
	query := `
		SELECT ` + creditColumns + `
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list credit transactions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("list credit transactions: %w", err)
	}
	defer rows.Close()

	var txs []entity.CreditTransaction
	for rows.Next() {
		tx, err := scanCredit(rows)
		if err != nil {
			r.log.Error("Failed to scan credit transaction", zap.Error(err))
			return nil, fmt.Errorf("scan credit transaction: %w", err)
		}
		txs = append(txs, *tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit transactions: %w", err)
	}

	return txs, nil
}

func (r *creditRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM credit_transactions WHERE user_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.log.Error("Failed to count credit transactions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count credit transactions: %w", err)
	}

	return count, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
