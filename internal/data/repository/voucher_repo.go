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

// ProcedureAlreadyProcessed is the message complete_voucher_purchase returns
// when the reference was reconciled before.
const ProcedureAlreadyProcessed = "already processed"

type VoucherRepository interface {
	FindVoucherByID(ctx context.Context, id uuid.UUID) (*entity.Voucher, error)
	ListActiveVouchers(ctx context.Context) ([]entity.Voucher, error)
	ListUserVouchers(ctx context.Context, userID uuid.UUID) ([]entity.UserVoucher, error)
	FindUserVoucher(ctx context.Context, userID, userVoucherID uuid.UUID) (*entity.UserVoucher, error)

	// Redeem and CompletePurchase call the store procedures that apply a
	// voucher effect atomically.
	Redeem(ctx context.Context, userID, userVoucherID uuid.UUID, reference string) (*entity.ProcedureResult, error)
	CompletePurchase(ctx context.Context, userID, voucherID uuid.UUID, reference string) (*entity.ProcedureResult, error)

	CreatePendingPurchase(ctx context.Context, purchase *entity.PendingVoucherPurchase) error
	FindPendingPurchase(ctx context.Context, reference string) (*entity.PendingVoucherPurchase, error)
	MarkPendingPurchaseFailed(ctx context.Context, reference string) error
}

type voucherRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewVoucherRepository(db database.Querier, log *zap.Logger) VoucherRepository {
	return &voucherRepository{
		db:  db,
		log: log.With(zap.String("repository", "voucher")),
	}
}

const voucherColumns = `v.id, v.code, v.title, v.description, v.voucher_type, v.value, v.price, v.expires_at, v.active, v.created_at, v.updated_at`

func voucherDest(v *entity.Voucher) []any {
	return []any{
		&v.ID,
		&v.Code,
		&v.Title,
		&v.Description,
		&v.Type,
		&v.Value,
		&v.Price,
		&v.ExpiresAt,
		&v.Active,
		&v.CreatedAt,
		&v.UpdatedAt,
	}
}

func (r *voucherRepository) FindVoucherByID(ctx context.Context, id uuid.UUID) (*entity.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers v WHERE v.id = $1`

	var voucher entity.Voucher
	err := r.db.QueryRow(ctx, query, id).Scan(voucherDest(&voucher)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find voucher",
			zap.Error(err),
			zap.String("voucher_id", id.String()),
		)
		return nil, fmt.Errorf("find voucher %s: %w", id.String(), err)
	}

	return &voucher, nil
}

func (r *voucherRepository) ListActiveVouchers(ctx context.Context) ([]entity.Voucher, error) {
	query := `
		SELECT ` + voucherColumns + `
		FROM vouchers v
		WHERE v.active AND (v.expires_at IS NULL OR v.expires_at > NOW())
		ORDER BY v.price ASC, v.code ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to list vouchers", zap.Error(err))
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []entity.Voucher
	for rows.Next() {
		var v entity.Voucher
		if err := rows.Scan(voucherDest(&v)...); err != nil {
			r.log.Error("Failed to scan voucher", zap.Error(err))
			return nil, fmt.Errorf("scan voucher: %w", err)
		}
		vouchers = append(vouchers, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vouchers: %w", err)
	}

	return vouchers, nil
}

const userVoucherSelect = `
	SELECT uv.id, uv.user_id, uv.voucher_id, uv.status, uv.purchase_reference, uv.redemption_reference,
		uv.redeemed_at, uv.created_at, uv.updated_at, ` + voucherColumns + `
	FROM user_vouchers uv
	JOIN vouchers v ON v.id = uv.voucher_id`

func scanUserVoucher(row pgx.Row) (*entity.UserVoucher, error) {
	var uv entity.UserVoucher
	uv.Voucher = &entity.Voucher{}

	dest := []any{
		&uv.ID,
		&uv.UserID,
		&uv.VoucherID,
		&uv.Status,
		&uv.PurchaseReference,
		&uv.RedemptionReference,
		&uv.RedeemedAt,
		&uv.CreatedAt,
		&uv.UpdatedAt,
	}
	if err := row.Scan(append(dest, voucherDest(uv.Voucher)...)...); err != nil {
		return nil, err
	}
	return &uv, nil
}

func (r *voucherRepository) ListUserVouchers(ctx context.Context, userID uuid.UUID) ([]entity.UserVoucher, error) {
	query := userVoucherSelect + `
		WHERE uv.user_id = $1
		ORDER BY uv.status ASC, uv.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list user vouchers",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("list user vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []entity.UserVoucher
	for rows.Next() {
		uv, err := scanUserVoucher(rows)
		if err != nil {
			r.log.Error("Failed to scan user voucher", zap.Error(err))
			return nil, fmt.Errorf("scan user voucher: %w", err)
		}
		vouchers = append(vouchers, *uv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user vouchers: %w", err)
	}

	return vouchers, nil
}

func (r *voucherRepository) FindUserVoucher(ctx context.Context, userID, userVoucherID uuid.UUID) (*entity.UserVoucher, error) {
	query := userVoucherSelect + ` WHERE uv.id = $1 AND uv.user_id = $2`

	uv, err := scanUserVoucher(r.db.QueryRow(ctx, query, userVoucherID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find user voucher",
			zap.Error(err),
			zap.String("user_voucher_id", userVoucherID.String()),
		)
		return nil, fmt.Errorf("find user voucher %s: %w", userVoucherID.String(), err)
	}

	return uv, nil
}

func (r *voucherRepository) callProcedure(ctx context.Context, name string, args ...any) (*entity.ProcedureResult, error) {
	query := `SELECT success, message, record_id FROM ` + name + `($1, $2, $3)`

	var res entity.ProcedureResult
	if err := r.db.QueryRow(ctx, query, args...).Scan(&res.Success, &res.Message, &res.RecordID); err != nil {
		r.log.Error("Voucher procedure failed",
			zap.Error(err),
			zap.String("procedure", name),
		)
		return nil, fmt.Errorf("call %s: %w", name, err)
	}

	return &res, nil
}

func (r *voucherRepository) Redeem(ctx context.Context, userID, userVoucherID uuid.UUID, reference string) (*entity.ProcedureResult, error) {
	return r.callProcedure(ctx, "redeem_voucher", userID, userVoucherID, reference)
}

func (r *voucherRepository) CompletePurchase(ctx context.Context, userID, voucherID uuid.UUID, reference string) (*entity.ProcedureResult, error) {
	return r.callProcedure(ctx, "complete_voucher_purchase", userID, voucherID, reference)
}

func (r *voucherRepository) CreatePendingPurchase(ctx context.Context, purchase *entity.PendingVoucherPurchase) error {
	query := `
		INSERT INTO pending_voucher_purchases (id, user_id, voucher_id, amount, payment_reference, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query,
		purchase.ID,
		purchase.UserID,
		purchase.VoucherID,
		purchase.Amount,
		purchase.PaymentReference,
		purchase.Status,
	).Scan(&purchase.CreatedAt, &purchase.UpdatedAt)

	if database.IsUniqueViolation(err) {
		return fmt.Errorf("voucher purchase %s: %w", purchase.PaymentReference, ErrDuplicateReference)
	}
	if err != nil {
		r.log.Error("Failed to create pending voucher purchase",
			zap.Error(err),
			zap.String("reference", purchase.PaymentReference),
		)
		return fmt.Errorf("create pending voucher purchase: %w", err)
	}

	return nil
}

func (r *voucherRepository) FindPendingPurchase(ctx context.Context, reference string) (*entity.PendingVoucherPurchase, error) {
	query := `
		SELECT id, user_id, voucher_id, amount, payment_reference, status, created_at, updated_at
		FROM pending_voucher_purchases
		WHERE payment_reference = $1
	`

	var p entity.PendingVoucherPurchase
	err := r.db.QueryRow(ctx, query, reference).Scan(
		&p.ID,
		&p.UserID,
		&p.VoucherID,
		&p.Amount,
		&p.PaymentReference,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find pending voucher purchase",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return nil, fmt.Errorf("find pending voucher purchase %s: %w", reference, err)
	}

	return &p, nil
}

func (r *voucherRepository) MarkPendingPurchaseFailed(ctx context.Context, reference string) error {
	query := `
		UPDATE pending_voucher_purchases
		SET status = 'failed', updated_at = NOW()
		WHERE payment_reference = $1 AND status = 'pending'
	`

	if _, err := r.db.Exec(ctx, query, reference); err != nil {
		r.log.Error("Failed to mark voucher purchase failed",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return fmt.Errorf("mark voucher purchase %s failed: %w", reference, err)
	}

	return nil
}
