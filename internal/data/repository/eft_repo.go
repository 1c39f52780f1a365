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

type EFTRepository interface {
	Create(ctx context.Context, sub *entity.EFTSubmission) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.EFTSubmission, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.EFTSubmission, error)
	ListByStatus(ctx context.Context, status entity.EFTStatus, limit, offset int) ([]entity.EFTSubmission, error)
	CountByStatus(ctx context.Context, status entity.EFTStatus) (int, error)

	// Decide records a verification or rejection of a pending submission.
	Decide(ctx context.Context, sub *entity.EFTSubmission) error
}

type eftRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewEFTRepository(db database.Querier, log *zap.Logger) EFTRepository {
	return &eftRepository{
		db:  db,
		log: log.With(zap.String("repository", "eft")),
	}
}

const eftColumns = `id, user_id, amount, reference, proof_url, status, verified_by, verified_at, rejection_reason, created_at, updated_at`

func scanEFT(row pgx.Row) (*entity.EFTSubmission, error) {
	var sub entity.EFTSubmission
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Amount,
		&sub.Reference,
		&sub.ProofURL,
		&sub.Status,
		&sub.VerifiedBy,
		&sub.VerifiedAt,
		&sub.RejectionReason,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *eftRepository) Create(ctx context.Context, sub *entity.EFTSubmission) error {
	query := `
		INSERT INTO eft_submissions (id, user_id, amount, reference, proof_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query,
		sub.ID,
		sub.UserID,
		sub.Amount,
		sub.Reference,
		sub.ProofURL,
		sub.Status,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)

	if err != nil {
		r.log.Error("Failed to create EFT submission",
			zap.Error(err),
			zap.String("user_id", sub.UserID.String()),
			zap.String("reference", sub.Reference),
		)
		return fmt.Errorf("create EFT submission: %w", err)
	}

	return nil
}

func (r *eftRepository) findOne(ctx context.Context, id uuid.UUID, lock bool) (*entity.EFTSubmission, error) {
	query := `SELECT ` + eftColumns + ` FROM eft_submissions WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	sub, err := scanEFT(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find EFT submission",
			zap.Error(err),
			zap.String("id", id.String()),
		)
		return nil, fmt.Errorf("find EFT submission %s: %w", id.String(), err)
	}

	return sub, nil
}

func (r *eftRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.EFTSubmission, error) {
	return r.findOne(ctx, id, false)
}

func (r *eftRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.EFTSubmission, error) {
	return r.findOne(ctx, id, true)
}

func (r *eftRepository) ListByStatus(ctx context.Context, status entity.EFTStatus, limit, offset int) ([]entity.EFTSubmission, error) {
	query := `
		SELECT ` + eftColumns + `
		FROM eft_submissions
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		r.log.Error("Failed to list EFT submissions",
			zap.Error(err),
			zap.String("status", string(status)),
		)
		return nil, fmt.Errorf("list EFT submissions: %w", err)
	}
	defer rows.Close()

	var subs []entity.EFTSubmission
	for rows.Next() {
		sub, err := scanEFT(rows)
		if err != nil {
			r.log.Error("Failed to scan EFT submission", zap.Error(err))
			return nil, fmt.Errorf("scan EFT submission: %w", err)
		}
		subs = append(subs, *sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate EFT submissions: %w", err)
	}

	return subs, nil
}

func (r *eftRepository) CountByStatus(ctx context.Context, status entity.EFTStatus) (int, error) {
	query := `SELECT COUNT(*) FROM eft_submissions WHERE status = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, status).Scan(&count); err != nil {
		r.log.Error("Failed to count EFT submissions", zap.Error(err))
		return 0, fmt.Errorf("count EFT submissions: %w", err)
	}

	return count, nil
}

func (r *eftRepository) Decide(ctx context.Context, sub *entity.EFTSubmission) error {
	query := `
		UPDATE eft_submissions
		SET status = $2, verified_by = $3, verified_at = $4, rejection_reason = $5, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(ctx, query,
		sub.ID,
		sub.Status,
		sub.VerifiedBy,
		sub.VerifiedAt,
		sub.RejectionReason,
	)
	if err != nil {
		r.log.Error("Failed to record EFT decision",
			zap.Error(err),
			zap.String("id", sub.ID.String()),
			zap.String("status", string(sub.Status)),
		)
		return fmt.Errorf("decide EFT submission %s: %w", sub.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pending EFT submission %s: %w", sub.ID.String(), ErrNotFound)
	}

	return nil
}
