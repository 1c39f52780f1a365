package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cleaning-booking/internal/data/entity"
	"cleaning-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type DiscountRepository interface {
	FindByCode(ctx context.Context, code string) (*entity.DiscountCode, error)

	// ConsumeUse counts one use of a code. It returns false when the usage
	// limit was reached concurrently.
	ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error)
}

type discountRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewDiscountRepository(db database.Querier, log *zap.Logger) DiscountRepository {
	return &discountRepository{
		db:  db,
		log: log.With(zap.String("repository", "discount")),
	}
}

func (r *discountRepository) FindByCode(ctx context.Context, code string) (*entity.DiscountCode, error) {
	query := `
		SELECT id, code, kind, value, min_order, usage_limit, usage_count, expires_at, active, created_at, updated_at
		FROM discount_codes
		WHERE code = $1
	`

	code = strings.ToUpper(strings.TrimSpace(code))

	var d entity.DiscountCode
	err := r.db.QueryRow(ctx, query, code).Scan(
		&d.ID,
		&d.Code,
		&d.Kind,
		&d.Value,
		&d.MinOrder,
		&d.UsageLimit,
		&d.UsageCount,
		&d.ExpiresAt,
		&d.Active,
		&d.CreatedAt,
		&d.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find discount code",
			zap.Error(err),
			zap.String("code", code),
		)
		return nil, fmt.Errorf("find discount code %s: %w", code, err)
	}

	return &d, nil
}

func (r *discountRepository) ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE discount_codes
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE id = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to consume discount code use",
			zap.Error(err),
			zap.String("id", id.String()),
		)
		return false, fmt.Errorf("consume discount code %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}
