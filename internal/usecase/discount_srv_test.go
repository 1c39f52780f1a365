package usecase

import (
	"context"
	"testing"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/data/entity"
	"cleaning-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func discountCode(mutate func(dc *entity.DiscountCode)) *entity.DiscountCode {
	dc := &entity.DiscountCode{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		Code:         "WELCOME",
		Kind:         entity.DiscountPercentage,
		Value:        20,
		Active:       true,
	}
	if mutate != nil {
		mutate(dc)
	}
	return dc
}

func TestValidateCode_Reasons(t *testing.T) {
	yesterday := fixedNow.AddDate(0, 0, -1)
	limit := 3

	tests := []struct {
		name   string
		code   *entity.DiscountCode
		total  float64
		reason string
	}{
		{
			name:   "unknown code",
			code:   nil,
			total:  300,
			reason: ReasonUnknownCode,
		},
		{
			name:   "inactive code",
			code:   discountCode(func(dc *entity.DiscountCode) { dc.Active = false }),
			total:  300,
			reason: ReasonUnknownCode,
		},
		{
			name:   "expired code",
			code:   discountCode(func(dc *entity.DiscountCode) { dc.ExpiresAt = &yesterday }),
			total:  300,
			reason: ReasonExpiredCode,
		},
		{
			name: "usage limit reached",
			code: discountCode(func(dc *entity.DiscountCode) {
				dc.UsageLimit = &limit
				dc.UsageCount = 3
			}),
			total:  300,
			reason: ReasonUsageLimitExceeded,
		},
		{
			name:   "order below minimum",
			code:   discountCode(func(dc *entity.DiscountCode) { dc.MinOrder = 500 }),
			total:  300,
			reason: ReasonMinimumOrderNotMet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, m := newMockRepository()
			if tt.code == nil {
				m.discount.On("FindByCode", mock.Anything, "WELCOME").Return(nil, nil)
			} else {
				m.discount.On("FindByCode", mock.Anything, "WELCOME").Return(tt.code, nil)
			}

			svc := NewDiscountService(repo, zap.NewNop(), WithClock(fixedClock))
			resp, err := svc.ValidateCode(context.Background(), &request.ValidateCodeRequest{Code: " welcome ", OrderTotal: tt.total})

			require.NoError(t, err)
			assert.False(t, resp.Accepted)
			assert.Equal(t, tt.reason, resp.Reason)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestValidateCode_Accepted(t *testing.T) {
	repo, m := newMockRepository()
	m.discount.On("FindByCode", mock.Anything, "WELCOME").Return(discountCode(nil), nil)

	resp, err := NewDiscountService(repo, zap.NewNop(), WithClock(fixedClock)).
		ValidateCode(context.Background(), &request.ValidateCodeRequest{Code: "WELCOME", OrderTotal: 300})

	require.NoError(t, err)
	assert.True(t, resp.Accepted)
	assert.Equal(t, entity.DiscountPercentage, resp.Kind)
	assert.Equal(t, 60.0, resp.DiscountAmount)
}

func TestValidateCode_FixedAmountClampedToOrder(t *testing.T) {
	repo, m := newMockRepository()
	m.discount.On("FindByCode", mock.Anything, "WELCOME").Return(discountCode(func(dc *entity.DiscountCode) {
		dc.Kind = entity.DiscountFixed
		dc.Value = 500
	}), nil)

	resp, err := NewDiscountService(repo, zap.NewNop(), WithClock(fixedClock)).
		ValidateCode(context.Background(), &request.ValidateCodeRequest{Code: "WELCOME", OrderTotal: 120})

	require.NoError(t, err)
	assert.Equal(t, 120.0, resp.DiscountAmount)
}

func TestResolveVoucher_RedeemedVoucherRefused(t *testing.T) {
	repo, m := newMockRepository()
	actor := customer()
	uv := &entity.UserVoucher{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		Status:       entity.UserVoucherRedeemed,
		Voucher:      &entity.Voucher{Code: "TENOFF", Type: entity.VoucherDiscountFixed, Value: 10, Active: true},
	}
	m.voucher.On("FindUserVoucher", mock.Anything, actor.UserID, uv.ID).Return(uv, nil)

	_, _, err := NewDiscountService(repo, zap.NewNop()).ResolveVoucher(context.Background(), actor, uv.ID)

	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
}

func ownedVoucher(userID, id uuid.UUID, voucherType entity.VoucherType) *entity.UserVoucher {
	return &entity.UserVoucher{
		BaseNoDelete: entity.BaseNoDelete{ID: id},
		UserID:       userID,
		Status:       entity.UserVoucherActive,
		Voucher:      &entity.Voucher{Code: "GIFT100", Type: voucherType, Value: 100, Active: true},
	}
}

func TestRedeemVoucher_DerivesReference(t *testing.T) {
	repo, m := newMockRepository()
	actor := customer()
	uvID := uuid.New()
	recordID := uuid.New()
	m.voucher.On("FindUserVoucher", mock.Anything, actor.UserID, uvID).
		Return(ownedVoucher(actor.UserID, uvID, entity.VoucherCredit), nil)
	m.voucher.On("Redeem", mock.Anything, actor.UserID, uvID, "redeem-"+uvID.String()).
		Return(&entity.ProcedureResult{Success: true, Message: "voucher redeemed", RecordID: &recordID}, nil)

	resp, err := NewDiscountService(repo, zap.NewNop()).RedeemVoucher(context.Background(), actor, uvID.String(), nil)

	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.RecordID)
	assert.Equal(t, recordID.String(), *resp.RecordID)
}

func TestRedeemVoucher_RefusedByStore(t *testing.T) {
	repo, m := newMockRepository()
	actor := customer()
	uvID := uuid.New()
	m.voucher.On("FindUserVoucher", mock.Anything, actor.UserID, uvID).
		Return(ownedVoucher(actor.UserID, uvID, entity.VoucherCredit), nil)
	m.voucher.On("Redeem", mock.Anything, actor.UserID, uvID, "pay-77").
		Return(&entity.ProcedureResult{Success: false, Message: "voucher expired"}, nil)

	_, err := NewDiscountService(repo, zap.NewNop()).
		RedeemVoucher(context.Background(), actor, uvID.String(), &request.RedeemVoucherRequest{PaymentReference: "pay-77"})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.InvalidInput, appErr.Kind)
	assert.Equal(t, "voucher_expired", appErr.Reason)
}

func TestRedeemVoucher_DiscountVoucherIsNotConsumed(t *testing.T) {
	repo, m := newMockRepository()
	actor := customer()
	uvID := uuid.New()
	m.voucher.On("FindUserVoucher", mock.Anything, actor.UserID, uvID).
		Return(ownedVoucher(actor.UserID, uvID, entity.VoucherDiscountPercentage), nil)

	_, err := NewDiscountService(repo, zap.NewNop()).RedeemVoucher(context.Background(), actor, uvID.String(), nil)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.InvalidInput, appErr.Kind)
	assert.Equal(t, ReasonDiscountVoucher, appErr.Reason)
	m.voucher.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRedeemVoucher_UnknownVoucher(t *testing.T) {
	repo, m := newMockRepository()
	actor := customer()
	uvID := uuid.New()
	m.voucher.On("FindUserVoucher", mock.Anything, actor.UserID, uvID).Return(nil, nil)

	_, err := NewDiscountService(repo, zap.NewNop()).RedeemVoucher(context.Background(), actor, uvID.String(), nil)

	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
