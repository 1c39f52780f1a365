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

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// LockBalance reads the wallet balance and holds the row lock until the
	// surrounding transaction ends.
	LockBalance(ctx context.Context, userID uuid.UUID) (float64, error)
	SetBalance(ctx context.Context, userID uuid.UUID, balance float64) error
}

type userRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewUserRepository(db database.Querier, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

const userColumns = `id, email, full_name, phone, role, credit_balance, created_at, updated_at`

func (r *userRepository) findOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` AND deleted_at IS NULL`

	var user entity.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.Phone,
		&user.Role,
		&user.CreditBalance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find user",
			zap.Error(err),
			zap.Any("key", arg),
		)
		return nil, fmt.Errorf("find user %v: %w", arg, err)
	}

	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "lower(email) = lower($1)", email)
}

func (r *userRepository) LockBalance(ctx context.Context, userID uuid.UUID) (float64, error) {
	query := `SELECT credit_balance FROM users WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`

	var balance float64
	err := r.db.QueryRow(ctx, query, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("user %s: %w", userID.String(), ErrNotFound)
	}
	if err != nil {
		r.log.Error("Failed to lock wallet balance",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("lock balance of user %s: %w", userID.String(), err)
	}

	return balance, nil
}

func (r *userRepository) SetBalance(ctx context.Context, userID uuid.UUID, balance float64) error {
	query := `UPDATE users SET credit_balance = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, userID, balance)
	if err != nil {
		r.log.Error("Failed to set wallet balance",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Float64("balance", balance),
		)
		return fmt.Errorf("set balance of user %s: %w", userID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID.String(), ErrNotFound)
	}

	return nil
}
