package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/data/entity"
	"cleaning-booking/internal/data/repository"
	"cleaning-booking/internal/dto/request"
	"cleaning-booking/internal/dto/response"
	"cleaning-booking/internal/lifecycle"
	"cleaning-booking/internal/pricing"
	"cleaning-booking/pkg/utils"

	"go.uber.org/zap"
)

const Currency = "ZAR"

// ReasonInsufficientCredits is attached when a wallet cannot cover a booking.
const ReasonInsufficientCredits = "insufficient_credits"

type WalletService interface {
	// Customer
	GetWallet(ctx context.Context, actor utils.Actor) (*response.WalletResponse, error)
	ListTransactions(ctx context.Context, actor utils.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.CreditTransactionResponse], error)
	InitiateCreditPurchase(ctx context.Context, actor utils.Actor, req *request.CreditPurchaseRequest) (*response.PaymentInitResponse, error)
	InitiateVoucherPurchase(ctx context.Context, actor utils.Actor, voucherID string) (*response.PaymentInitResponse, error)
	PayWithCredits(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error)
	SubmitEFT(ctx context.Context, actor utils.Actor, req *request.EFTSubmissionRequest) (*response.EFTResponse, error)

	// Admin
	ListPendingEFT(ctx context.Context, actor utils.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.EFTResponse], error)
	VerifyEFT(ctx context.Context, actor utils.Actor, submissionID string) (*response.EFTResponse, error)
	RejectEFT(ctx context.Context, actor utils.Actor, submissionID string, req *request.RejectEFTRequest) (*response.EFTResponse, error)
}

type walletService struct {
	repo   *repository.Repository
	events emitter
	clock  func() time.Time
	log    *zap.Logger
}

func NewWalletService(repo *repository.Repository, config *utils.Config, log *zap.Logger, opts ...Option) WalletService {
	o := newOptions(opts)
	log = log.With(zap.String("service", "wallet"))
	return &walletService{
		repo:   repo,
		events: emitter{pub: o.events, topic: config.Kafka.EventsTopic, log: log},
		clock:  o.clock,
		log:    log,
	}
}

func (s *walletService) GetWallet(ctx context.Context, actor utils.Actor) (*response.WalletResponse, error) {
	user, err := s.repo.User.FindByID(ctx, actor.UserID)
	if err != nil {
		s.log.Error("Failed to load wallet", zap.Error(err), zap.String("user_id", actor.UserID.String()))
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFoundf("user %s not found", actor.UserID)
	}

	return &response.WalletResponse{
		UserID:   user.ID.String(),
		Balance:  user.CreditBalance,
		Currency: Currency,
	}, nil
}

func (s *walletService) ListTransactions(ctx context.Context, actor utils.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.CreditTransactionResponse], error) {
	txs, err := s.repo.Credit.ListByUser(ctx, actor.UserID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list credit transactions",
			zap.Error(err),
			zap.String("user_id", actor.UserID.String()),
		)
		return nil, fmt.Errorf("list credit transactions: %w", err)
	}

	total, err := s.repo.Credit.CountByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("count credit transactions: %w", err)
	}

	data := make([]response.CreditTransactionResponse, 0, len(txs))
	for i := range txs {
		data = append(data, response.CreditTransactionToResponse(&txs[i]))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), int64(total)), nil
}

func (s *walletService) InitiateCreditPurchase(ctx context.Context, actor utils.Actor, req *request.CreditPurchaseRequest) (*response.PaymentInitResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.Invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	amount := pricing.RoundCents(req.Amount)
	ref := utils.GenerateCreditReference()
	method := entity.PaymentMethodCard
	tx := &entity.CreditTransaction{
		UserID:           actor.UserID,
		Type:             entity.CreditTypePurchase,
		Amount:           amount,
		Status:           entity.CreditStatusPending,
		PaymentMethod:    &method,
		PaymentReference: &ref,
		Description:      fmt.Sprintf("Credit purchase of %.2f", amount),
	}

	if err := s.repo.Credit.Create(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrDuplicateReference) {
			return nil, apperr.Newf(apperr.Conflict, "credit purchase %s already exists", ref)
		}
		return nil, err
	}

	s.log.Info("Credit purchase initiated",
		zap.String("user_id", actor.UserID.String()),
		zap.String("reference", ref),
		zap.Float64("amount", amount),
	)

	return &response.PaymentInitResponse{
		Reference: ref,
		Kind:      string(KindCredit),
		Amount:    amount,
		Currency:  Currency,
	}, nil
}

func (s *walletService) InitiateVoucherPurchase(ctx context.Context, actor utils.Actor, voucherID string) (*response.PaymentInitResponse, error) {
	id, err := parseID("voucher", voucherID)
	if err != nil {
		return nil, err
	}

	v, err := s.repo.Voucher.FindVoucherByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find voucher %s: %w", id, err)
	}
	if v == nil || !v.Active {
		return nil, apperr.NotFoundf("voucher %s not found", id)
	}
	if v.ExpiresAt != nil && v.ExpiresAt.Before(s.clock()) {
		return nil, apperr.Invalid("voucher %s has expired", v.Code)
	}
	if v.Price <= 0 {
		return nil, apperr.Invalid("voucher %s is not for sale", v.Code)
	}

	ref := utils.GenerateVoucherReference()
	purchase := &entity.PendingVoucherPurchase{
		UserID:           actor.UserID,
		VoucherID:        v.ID,
		Amount:           v.Price,
		PaymentReference: ref,
		Status:           entity.PaymentStatusPending,
	}
	if err := s.repo.Voucher.CreatePendingPurchase(ctx, purchase); err != nil {
		return nil, err
	}

	s.log.Info("Voucher purchase initiated",
		zap.String("user_id", actor.UserID.String()),
		zap.String("voucher_id", v.ID.String()),
		zap.String("reference", ref),
	)

	return &response.PaymentInitResponse{
		Reference: ref,
		Kind:      string(KindVoucher),
		Amount:    v.Price,
		Currency:  Currency,
	}, nil
}

// PayWithCredits debits the wallet and settles the booking in one transaction.
// The booking reference is the usage reference, so a booking is paid from the
// wallet at most once.
func (s *walletService) PayWithCredits(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	b, err := mutateBooking(ctx, s.repo, id, func(tx *repository.Repository, b *entity.Booking) error {
		if err := authorizeOwner(actor, b); err != nil {
			return err
		}
		if err := lifecycle.Check(b, lifecycle.ActionPay); err != nil {
			return err
		}
		if b.PaymentStatus == entity.PaymentStatusCompleted {
			return apperr.Illegal(string(lifecycle.ActionPay), "already paid")
		}

		method := entity.PaymentMethodCredits
		ref := b.Reference
		// A fully discounted booking settles without a wallet entry.
		if b.Total > 0 {
			before, err := tx.User.LockBalance(ctx, actor.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return apperr.NotFoundf("user %s not found", actor.UserID)
				}
				return err
			}
			if before < b.Total {
				return apperr.Invalid("insufficient credits: balance %.2f, booking total %.2f", before, b.Total).
					WithReason(ReasonInsufficientCredits)
			}

			bid := b.ID
			usage := &entity.CreditTransaction{
				UserID:           actor.UserID,
				Type:             entity.CreditTypeUsage,
				Amount:           b.Total,
				BalanceBefore:    before,
				BalanceAfter:     pricing.RoundCents(before - b.Total),
				Status:           entity.CreditStatusCompleted,
				PaymentMethod:    &method,
				PaymentReference: &ref,
				BookingID:        &bid,
				Description:      "Payment for booking " + b.Reference,
			}
			if err := tx.Credit.Create(ctx, usage); err != nil {
				if errors.Is(err, repository.ErrDuplicateReference) {
					return apperr.AlreadyApplied("booking " + b.Reference + " was already paid with credits")
				}
				return err
			}
			if err := tx.User.SetBalance(ctx, actor.UserID, usage.BalanceAfter); err != nil {
				return err
			}
		}

		next := b.Status
		if next == entity.BookingStatusPending {
			next = entity.BookingStatusConfirmed
		}
		if err := tx.Booking.MarkPaid(ctx, b.ID, method, &ref, next); err != nil {
			return err
		}

		b.Status = next
		b.PaymentStatus = entity.PaymentStatusCompleted
		b.PaymentMethod = &method
		b.PaymentReference = &ref
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking paid with credits",
		zap.String("booking_id", b.ID.String()),
		zap.String("user_id", actor.UserID.String()),
		zap.Float64("amount", b.Total),
	)
	s.events.payment(ctx, PaymentEvent{
		Type:      EventPaymentCompleted,
		Reference: b.Reference,
		Kind:      string(KindBooking),
		UserID:    actor.UserID.String(),
		Amount:    b.Total,
	})

	resp := response.BookingToResponse(b)
	return &resp, nil
}

func (s *walletService) SubmitEFT(ctx context.Context, actor utils.Actor, req *request.EFTSubmissionRequest) (*response.EFTResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.Invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	sub := &entity.EFTSubmission{
		UserID:    actor.UserID,
		Amount:    pricing.RoundCents(req.Amount),
		Reference: req.Reference,
		Status:    entity.EFTStatusPending,
	}
	if req.ProofURL != "" {
		sub.ProofURL = &req.ProofURL
	}

	if err := s.repo.EFT.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.log.Info("EFT submitted",
		zap.String("submission_id", sub.ID.String()),
		zap.String("user_id", actor.UserID.String()),
		zap.Float64("amount", sub.Amount),
	)

	resp := response.EFTToResponse(sub)
	return &resp, nil
}

func (s *walletService) ListPendingEFT(ctx context.Context, actor utils.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.EFTResponse], error) {
	if !actor.IsAdmin() {
		return nil, apperr.Denied("Only administrators can review EFT submissions")
	}

	subs, err := s.repo.EFT.ListByStatus(ctx, entity.EFTStatusPending, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list EFT submissions", zap.Error(err))
		return nil, fmt.Errorf("list EFT submissions: %w", err)
	}

	total, err := s.repo.EFT.CountByStatus(ctx, entity.EFTStatusPending)
	if err != nil {
		return nil, fmt.Errorf("count EFT submissions: %w", err)
	}

	data := make([]response.EFTResponse, 0, len(subs))
	for i := range subs {
		data = append(data, response.EFTToResponse(&subs[i]))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), int64(total)), nil
}

// decideEFT locks a pending submission and hands it to decide.
func (s *walletService) decideEFT(ctx context.Context, actor utils.Actor, submissionID, action string, decide func(tx *repository.Repository, sub *entity.EFTSubmission) error) (*entity.EFTSubmission, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Denied("Only administrators can review EFT submissions")
	}

	id, err := parseID("EFT submission", submissionID)
	if err != nil {
		return nil, err
	}

	var out *entity.EFTSubmission
	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		sub, err := tx.EFT.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sub == nil {
			return apperr.NotFoundf("EFT submission %s not found", id)
		}
		if sub.Status != entity.EFTStatusPending {
			return &apperr.Error{
				Kind:    apperr.IllegalTransition,
				Message: fmt.Sprintf("cannot %s an EFT submission that is %s", action, sub.Status),
				State:   string(sub.Status),
			}
		}

		now := s.clock()
		verifier := actor.UserID
		sub.VerifiedBy = &verifier
		sub.VerifiedAt = &now

		if err := decide(tx, sub); err != nil {
			return err
		}
		if err := tx.EFT.Decide(ctx, sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyEFT credits the wallet once. The credit carries the reference
// eft-<submission id>, which the completed-reference index keeps unique.
func (s *walletService) VerifyEFT(ctx context.Context, actor utils.Actor, submissionID string) (*response.EFTResponse, error) {
	sub, err := s.decideEFT(ctx, actor, submissionID, "verify", func(tx *repository.Repository, sub *entity.EFTSubmission) error {
		before, err := tx.User.LockBalance(ctx, sub.UserID)
		if err != nil {
			return err
		}

		method := entity.PaymentMethodEFT
		ref := "eft-" + sub.ID.String()
		credit := &entity.CreditTransaction{
			UserID:           sub.UserID,
			Type:             entity.CreditTypePurchase,
			Amount:           sub.Amount,
			BalanceBefore:    before,
			BalanceAfter:     pricing.RoundCents(before + sub.Amount),
			Status:           entity.CreditStatusCompleted,
			PaymentMethod:    &method,
			PaymentReference: &ref,
			Description:      "EFT deposit " + sub.Reference,
			Metadata:         map[string]any{"eft_submission_id": sub.ID.String()},
		}
		if err := tx.Credit.Create(ctx, credit); err != nil {
			if errors.Is(err, repository.ErrDuplicateReference) {
				return apperr.AlreadyApplied("EFT submission " + sub.ID.String() + " was already credited")
			}
			return err
		}
		if err := tx.User.SetBalance(ctx, sub.UserID, credit.BalanceAfter); err != nil {
			return err
		}

		sub.Status = entity.EFTStatusVerified
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("EFT verified",
		zap.String("submission_id", sub.ID.String()),
		zap.String("user_id", sub.UserID.String()),
		zap.Float64("amount", sub.Amount),
	)
	s.events.payment(ctx, PaymentEvent{
		Type:      EventWalletCredited,
		Reference: "eft-" + sub.ID.String(),
		Kind:      "eft",
		UserID:    sub.UserID.String(),
		Amount:    sub.Amount,
	})

	resp := response.EFTToResponse(sub)
	return &resp, nil
}

func (s *walletService) RejectEFT(ctx context.Context, actor utils.Actor, submissionID string, req *request.RejectEFTRequest) (*response.EFTResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.Invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	sub, err := s.decideEFT(ctx, actor, submissionID, "reject", func(_ *repository.Repository, sub *entity.EFTSubmission) error {
		reason := req.Reason
		sub.Status = entity.EFTStatusRejected
		sub.RejectionReason = &reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("EFT rejected",
		zap.String("submission_id", sub.ID.String()),
		zap.String("reason", req.Reason),
	)

	resp := response.EFTToResponse(sub)
	return &resp, nil
}
