package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/data/entity"
	"cleaning-booking/internal/data/repository"
	"cleaning-booking/internal/dto/request"
	"cleaning-booking/internal/dto/response"
	"cleaning-booking/internal/pricing"
	"cleaning-booking/pkg/database"
	"cleaning-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rejection reasons surfaced to the customer together with their message.
const (
	ReasonUnknownCode        = "unknown_code"
	ReasonExpiredCode        = "expired_code"
	ReasonUsageLimitExceeded = "usage_limit_exceeded"
	ReasonMinimumOrderNotMet = "minimum_order_not_met"
	ReasonDiscountVoucher    = "discount_voucher"
)

type DiscountService interface {
	// ValidateCode never fails on a rejected code; the verdict is in the response.
	ValidateCode(ctx context.Context, req *request.ValidateCodeRequest) (*response.DiscountValidationResponse, error)

	// ResolvePromo returns the code and its promo, or an InvalidInput error
	// carrying the rejection reason.
	ResolvePromo(ctx context.Context, code string, orderTotal float64) (*entity.DiscountCode, *pricing.Promo, error)

	// ResolveVoucher returns an owned, unredeemed discount voucher as a promo.
	ResolveVoucher(ctx context.Context, actor utils.Actor, userVoucherID uuid.UUID) (*entity.UserVoucher, *pricing.Promo, error)

	ListCatalog(ctx context.Context) ([]*response.VoucherResponse, error)
	ListVouchers(ctx context.Context, actor utils.Actor) ([]response.UserVoucherResponse, error)
	RedeemVoucher(ctx context.Context, actor utils.Actor, userVoucherID string, req *request.RedeemVoucherRequest) (*response.RedeemVoucherResponse, error)
}

type discountService struct {
	repo  *repository.Repository
	clock func() time.Time
	log   *zap.Logger
}

func NewDiscountService(repo *repository.Repository, log *zap.Logger, opts ...Option) DiscountService {
	o := newOptions(opts)
	return &discountService{
		repo:  repo,
		clock: o.clock,
		log:   log.With(zap.String("service", "discount")),
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func rejectCode(reason, msg string) *apperr.Error {
	return apperr.Invalid("%s", msg).WithReason(reason)
}

func (s *discountService) ResolvePromo(ctx context.Context, code string, orderTotal float64) (*entity.DiscountCode, *pricing.Promo, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, nil, rejectCode(ReasonUnknownCode, "Invalid discount code")
	}

	dc, err := s.repo.Discount.FindByCode(ctx, code)
	if err != nil {
		s.log.Error("Failed to look up discount code", zap.Error(err), zap.String("code", code))
		return nil, nil, fmt.Errorf("look up discount code: %w", err)
	}

	switch {
	case dc == nil || !dc.Active:
		return nil, nil, rejectCode(ReasonUnknownCode, "Invalid discount code")
	case dc.ExpiresAt != nil && dc.ExpiresAt.Before(s.clock()):
		return nil, nil, rejectCode(ReasonExpiredCode, "This discount code has expired")
	case dc.UsageLimit != nil && dc.UsageCount >= *dc.UsageLimit:
		return nil, nil, rejectCode(ReasonUsageLimitExceeded, "This discount code has reached its usage limit")
	case orderTotal < dc.MinOrder:
		return nil, nil, rejectCode(ReasonMinimumOrderNotMet,
			fmt.Sprintf("A minimum order of %.2f is required for this code", dc.MinOrder))
	}

	return dc, &pricing.Promo{Code: dc.Code, Kind: dc.Kind, Value: dc.Value}, nil
}

func (s *discountService) ValidateCode(ctx context.Context, req *request.ValidateCodeRequest) (*response.DiscountValidationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.Invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	resp := &response.DiscountValidationResponse{Code: normalizeCode(req.Code)}

	dc, promo, err := s.ResolvePromo(ctx, req.Code, req.OrderTotal)
	if err != nil {
		if appErr := apperr.As(err); appErr != nil && appErr.Kind == apperr.InvalidInput {
			resp.Reason = appErr.Reason
			resp.Message = appErr.Message
			return resp, nil
		}
		return nil, err
	}

	amount, err := pricing.PromoAmount(promo.Kind, promo.Value, req.OrderTotal)
	if err != nil {
		return nil, err
	}

	resp.Accepted = true
	resp.Kind = dc.Kind
	resp.DiscountAmount = amount
	return resp, nil
}

func (s *discountService) ResolveVoucher(ctx context.Context, actor utils.Actor, userVoucherID uuid.UUID) (*entity.UserVoucher, *pricing.Promo, error) {
	uv, err := s.repo.Voucher.FindUserVoucher(ctx, actor.UserID, userVoucherID)
	if err != nil {
		return nil, nil, fmt.Errorf("find user voucher: %w", err)
	}
	if uv == nil || uv.Voucher == nil {
		return nil, nil, apperr.NotFoundf("voucher %s not found", userVoucherID)
	}
	if uv.Status != entity.UserVoucherActive {
		return nil, nil, apperr.Invalid("voucher has already been redeemed").WithReason("voucher_redeemed")
	}
	if !uv.Voucher.Type.IsDiscount() {
		return nil, nil, apperr.Invalid("credit vouchers are redeemed to the wallet, not applied to a booking")
	}
	if !uv.Voucher.Active || (uv.Voucher.ExpiresAt != nil && uv.Voucher.ExpiresAt.Before(s.clock())) {
		return nil, nil, apperr.Invalid("voucher has expired").WithReason(ReasonExpiredCode)
	}

	kind := entity.DiscountFixed
	if uv.Voucher.Type == entity.VoucherDiscountPercentage {
		kind = entity.DiscountPercentage
	}

	return uv, &pricing.Promo{Code: uv.Voucher.Code, Kind: kind, Value: uv.Voucher.Value}, nil
}

func (s *discountService) ListCatalog(ctx context.Context) ([]*response.VoucherResponse, error) {
	vouchers, err := s.repo.Voucher.ListActiveVouchers(ctx)
	if err != nil {
		s.log.Error("Failed to list vouchers", zap.Error(err))
		return nil, fmt.Errorf("list vouchers: %w", err)
	}

	out := make([]*response.VoucherResponse, len(vouchers))
	for i := range vouchers {
		out[i] = response.VoucherToResponse(&vouchers[i])
	}
	return out, nil
}

func (s *discountService) ListVouchers(ctx context.Context, actor utils.Actor) ([]response.UserVoucherResponse, error) {
	vouchers, err := s.repo.Voucher.ListUserVouchers(ctx, actor.UserID)
	if err != nil {
		s.log.Error("Failed to list user vouchers",
			zap.Error(err),
			zap.String("user_id", actor.UserID.String()),
		)
		return nil, fmt.Errorf("list user vouchers: %w", err)
	}

	out := make([]response.UserVoucherResponse, len(vouchers))
	for i := range vouchers {
		out[i] = response.UserVoucherToResponse(&vouchers[i])
	}
	return out, nil
}

// RedeemVoucher credits a credit voucher to the wallet in one store-side call.
// Discount vouchers are only consumed by the booking they are applied to.
// Without a caller reference, a reference derived from the voucher id is
// used, so a repeated request cannot credit twice.
func (s *discountService) RedeemVoucher(ctx context.Context, actor utils.Actor, userVoucherID string, req *request.RedeemVoucherRequest) (*response.RedeemVoucherResponse, error) {
	id, err := uuid.Parse(userVoucherID)
	if err != nil {
		return nil, apperr.Invalid("invalid voucher ID format %s", userVoucherID)
	}

	uv, err := s.repo.Voucher.FindUserVoucher(ctx, actor.UserID, id)
	if err != nil {
		return nil, fmt.Errorf("find user voucher: %w", err)
	}
	if uv == nil || uv.Voucher == nil {
		return nil, apperr.NotFoundf("voucher %s not found", id)
	}
	if uv.Voucher.Type.IsDiscount() {
		return nil, apperr.Invalid("discount vouchers are applied when creating a booking").
			WithReason(ReasonDiscountVoucher)
	}

	reference := "redeem-" + id.String()
	if req != nil && strings.TrimSpace(req.PaymentReference) != "" {
		reference = strings.TrimSpace(req.PaymentReference)
	}

	res, err := s.repo.Voucher.Redeem(ctx, actor.UserID, id, reference)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.AlreadyApplied("voucher already redeemed")
		}
		return nil, fmt.Errorf("redeem voucher %s: %w", id, err)
	}

	if !res.Success {
		s.log.Info("Voucher redemption refused",
			zap.String("user_voucher_id", id.String()),
			zap.String("message", res.Message),
		)
		if strings.Contains(res.Message, "not found") {
			return nil, apperr.NotFoundf("voucher %s not found", id)
		}
		return nil, apperr.Invalid("%s", res.Message).WithReason(strings.ReplaceAll(res.Message, " ", "_"))
	}

	s.log.Info("Voucher redeemed",
		zap.String("user_id", actor.UserID.String()),
		zap.String("user_voucher_id", id.String()),
		zap.String("reference", reference),
	)

	resp := &response.RedeemVoucherResponse{Success: true, Message: res.Message}
	if res.RecordID != nil {
		rid := res.RecordID.String()
		resp.RecordID = &rid
	}
	return resp, nil
}
