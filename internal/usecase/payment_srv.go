package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/data/entity"
	"cleaning-booking/internal/data/repository"
	"cleaning-booking/internal/dto/request"
	"cleaning-booking/internal/dto/response"
	"cleaning-booking/internal/gateway"
	"cleaning-booking/internal/lifecycle"
	"cleaning-booking/internal/pricing"
	"cleaning-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentKind string

const (
	KindBooking PaymentKind = "booking"
	KindCredit  PaymentKind = "credit"
	KindVoucher PaymentKind = "voucher"
)

// KindFromReference classifies a reference by its prefix. Booking payments
// carry no reserved prefix.
func KindFromReference(reference string) PaymentKind {
	switch {
	case strings.HasPrefix(reference, utils.CreditReferencePrefix):
		return KindCredit
	case strings.HasPrefix(reference, utils.VoucherReferencePrefix):
		return KindVoucher
	default:
		return KindBooking
	}
}

// Failure reasons recorded on the ledger and returned with GatewayRejected.
const (
	ReasonGatewayDeclined  = "gateway_declined"
	ReasonIdentityMismatch = "identity_mismatch"
	ReasonAmountMismatch   = "amount_mismatch"
	ReasonAlreadyFailed    = "already_failed"
	ReasonDuplicatePayment = "duplicate_payment"
)

type PaymentService interface {
	// VerifyPayment reconciles a reference on behalf of the customer returning
	// from the gateway checkout.
	VerifyPayment(ctx context.Context, actor utils.Actor, req *request.VerifyPaymentRequest) (*response.ReconcileResponse, error)

	// Reconcile applies a gateway-confirmed payment exactly once. A nil actor
	// means a trusted caller (webhook or worker); identity then comes from the
	// ledger record alone. Repeated calls for an applied reference return
	// AlreadyApplied without error.
	Reconcile(ctx context.Context, actor *utils.Actor, reference, expectedKind string) (*response.ReconcileResponse, error)
}

type paymentService struct {
	repo    *repository.Repository
	gateway PaymentGateway
	locker  ReferenceLocker
	events  emitter
	log     *zap.Logger
}

func NewPaymentService(repo *repository.Repository, config *utils.Config, log *zap.Logger, opts ...Option) PaymentService {
	o := newOptions(opts)
	log = log.With(zap.String("service", "payment"))
	return &paymentService{
		repo:    repo,
		gateway: o.gateway,
		locker:  o.locker,
		events:  emitter{pub: o.events, topic: config.Kafka.EventsTopic, log: log},
		log:     log,
	}
}

func (s *paymentService) VerifyPayment(ctx context.Context, actor utils.Actor, req *request.VerifyPaymentRequest) (*response.ReconcileResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.Invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}
	return s.Reconcile(ctx, &actor, req.Reference, req.Kind)
}

func (s *paymentService) Reconcile(ctx context.Context, actor *utils.Actor, reference, expectedKind string) (*response.ReconcileResponse, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperr.Invalid("payment reference is required")
	}

	kind := KindFromReference(reference)
	if expectedKind != "" && PaymentKind(expectedKind) != kind {
		return nil, apperr.Invalid("reference %s is a %s payment, not %s", reference, kind, expectedKind)
	}

	if s.gateway == nil {
		return nil, apperr.New(apperr.Internal, "payment gateway is not configured")
	}

	if s.locker != nil {
		acquired, err := s.locker.AcquireReferenceLock(ctx, reference)
		switch {
		case err != nil:
			// The store constraints still guard the effect.
			s.log.Warn("Reference lock unavailable, continuing without it",
				zap.Error(err),
				zap.String("reference", reference),
			)
		case !acquired:
			return nil, apperr.Transient(nil, "payment "+reference+" is being reconciled, retry shortly")
		default:
			defer func() {
				if err := s.locker.ReleaseReferenceLock(context.WithoutCancel(ctx), reference); err != nil {
					s.log.Warn("Failed to release reference lock", zap.Error(err), zap.String("reference", reference))
				}
			}()
		}
	}

	var (
		resp *response.ReconcileResponse
		err  error
	)
	switch kind {
	case KindCredit:
		resp, err = s.reconcileCredit(ctx, actor, reference)
	case KindVoucher:
		resp, err = s.reconcileVoucher(ctx, actor, reference)
	default:
		resp, err = s.reconcileBooking(ctx, actor, reference)
	}

	if apperr.IsKind(err, apperr.Conflict) {
		s.log.Info("Payment already applied",
			zap.String("reference", reference),
			zap.String("kind", string(kind)),
		)
		return &response.ReconcileResponse{
			Reference:      reference,
			Kind:           string(kind),
			AlreadyApplied: true,
		}, nil
	}
	if err != nil {
		s.logOutcome(reference, kind, err)
		return nil, err
	}

	s.log.Info("Payment reconciled",
		zap.String("reference", reference),
		zap.String("kind", string(kind)),
		zap.Float64("amount", resp.Amount),
	)
	return resp, nil
}

func (s *paymentService) logOutcome(reference string, kind PaymentKind, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("reference", reference),
		zap.String("kind", string(kind)),
	}
	switch apperr.KindOf(err) {
	case apperr.GatewayTransient:
		s.log.Warn("Payment verification deferred", fields...)
	case apperr.GatewayRejected, apperr.InvalidInput, apperr.NotFound, apperr.PermissionDenied, apperr.IllegalTransition:
		s.log.Warn("Payment not applied", fields...)
	default:
		s.log.Error("Payment reconciliation failed", fields...)
	}
}

// settled fetches the provider's view of reference and returns it only when
// it is a success. A provider-confirmed decline runs markFailed first.
func (s *paymentService) settled(ctx context.Context, reference string, markFailed func(reason string) error) (*gateway.Transaction, error) {
	txn, err := s.gateway.FetchTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}
	if txn.Pending() {
		return nil, apperr.Transient(nil, "payment "+reference+" is still pending at the gateway")
	}
	if !txn.Succeeded() {
		if err := markFailed(ReasonGatewayDeclined); err != nil {
			return nil, err
		}
		s.events.payment(context.WithoutCancel(ctx), PaymentEvent{
			Type:      EventPaymentFailed,
			Reference: reference,
			Kind:      string(KindFromReference(reference)),
			Reason:    ReasonGatewayDeclined,
		})
		return nil, apperr.Rejected(ReasonGatewayDeclined, "the gateway reported payment "+reference+" as "+txn.Status)
	}
	return txn, nil
}

func checkPayer(txn *gateway.Transaction, emails ...string) error {
	payer := strings.TrimSpace(txn.PayerEmail)
	for _, email := range emails {
		if payer != "" && strings.EqualFold(payer, strings.TrimSpace(email)) {
			return nil
		}
	}
	return apperr.Rejected(ReasonIdentityMismatch, "payer does not match the account that initiated payment "+txn.Reference)
}

func paidShort(txn *gateway.Transaction, expected float64) bool {
	return pricing.FromMinorUnits(txn.Amount) < pricing.RoundCents(expected)
}

func (s *paymentService) reconcileCredit(ctx context.Context, actor *utils.Actor, reference string) (*response.ReconcileResponse, error) {
	credit, err := s.repo.Credit.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if credit == nil {
		return nil, apperr.NotFoundf("credit purchase %s not found", reference)
	}
	if actor != nil && !actor.IsAdmin() && credit.UserID != actor.UserID {
		return nil, apperr.Denied("You do not have permission to verify this payment")
	}

	switch credit.Status {
	case entity.CreditStatusCompleted:
		return nil, apperr.AlreadyApplied("credit purchase " + reference + " already applied")
	case entity.CreditStatusFailed, entity.CreditStatusCancelled:
		return nil, apperr.Rejected(ReasonAlreadyFailed, "credit purchase "+reference+" has failed, start a new purchase")
	}

	user, err := s.repo.User.FindByID(ctx, credit.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFoundf("user %s not found", credit.UserID)
	}

	markFailed := func(reason string) error {
		return s.repo.Credit.MarkFailed(ctx, credit.ID, reason)
	}

	txn, err := s.settled(ctx, reference, markFailed)
	if err != nil {
		return nil, err
	}
	if err := checkPayer(txn, user.Email); err != nil {
		return nil, err
	}
	if paidShort(txn, credit.Amount) {
		if err := markFailed(ReasonAmountMismatch); err != nil {
			return nil, err
		}
		return nil, apperr.Rejected(ReasonAmountMismatch, "gateway amount is below the purchase amount")
	}

	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		before, err := tx.User.LockBalance(ctx, credit.UserID)
		if err != nil {
			return err
		}

		credit.BalanceBefore = before
		credit.BalanceAfter = pricing.RoundCents(before + credit.Amount)
		credit.Status = entity.CreditStatusCompleted
		if err := tx.Credit.Complete(ctx, credit); err != nil {
			if errors.Is(err, repository.ErrDuplicateReference) || errors.Is(err, repository.ErrNotFound) {
				return apperr.AlreadyApplied("credit purchase " + reference + " already applied")
			}
			return err
		}
		return tx.User.SetBalance(ctx, credit.UserID, credit.BalanceAfter)
	})
	if err != nil {
		return nil, err
	}

	s.events.payment(ctx, PaymentEvent{
		Type:      EventWalletCredited,
		Reference: reference,
		Kind:      string(KindCredit),
		UserID:    credit.UserID.String(),
		Amount:    credit.Amount,
	})

	balance := credit.BalanceAfter
	return &response.ReconcileResponse{
		Reference: reference,
		Kind:      string(KindCredit),
		Amount:    credit.Amount,
		Balance:   &balance,
	}, nil
}

func (s *paymentService) reconcileVoucher(ctx context.Context, actor *utils.Actor, reference string) (*response.ReconcileResponse, error) {
	purchase, err := s.repo.Voucher.FindPendingPurchase(ctx, reference)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, apperr.NotFoundf("voucher purchase %s not found", reference)
	}
	if actor != nil && !actor.IsAdmin() && purchase.UserID != actor.UserID {
		return nil, apperr.Denied("You do not have permission to verify this payment")
	}

	switch purchase.Status {
	case entity.PaymentStatusCompleted:
		return nil, apperr.AlreadyApplied("voucher purchase " + reference + " already applied")
	case entity.PaymentStatusFailed:
		return nil, apperr.Rejected(ReasonAlreadyFailed, "voucher purchase "+reference+" has failed, start a new purchase")
	}

	user, err := s.repo.User.FindByID(ctx, purchase.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFoundf("user %s not found", purchase.UserID)
	}

	markFailed := func(string) error {
		return s.repo.Voucher.MarkPendingPurchaseFailed(ctx, reference)
	}

	txn, err := s.settled(ctx, reference, markFailed)
	if err != nil {
		return nil, err
	}
	if err := checkPayer(txn, user.Email); err != nil {
		return nil, err
	}
	if paidShort(txn, purchase.Amount) {
		if err := markFailed(ReasonAmountMismatch); err != nil {
			return nil, err
		}
		return nil, apperr.Rejected(ReasonAmountMismatch, "gateway amount is below the voucher price")
	}

	var result *entity.ProcedureResult
	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		res, err := tx.Voucher.CompletePurchase(ctx, purchase.UserID, purchase.VoucherID, reference)
		if err != nil {
			return err
		}
		if !res.Success {
			if res.Message == repository.ProcedureAlreadyProcessed {
				return apperr.AlreadyApplied("voucher purchase " + reference + " already applied")
			}
			return apperr.Rejected("voucher_unavailable", res.Message)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.payment(ctx, PaymentEvent{
		Type:      EventPaymentCompleted,
		Reference: reference,
		Kind:      string(KindVoucher),
		UserID:    purchase.UserID.String(),
		Amount:    purchase.Amount,
	})

	resp := &response.ReconcileResponse{
		Reference: reference,
		Kind:      string(KindVoucher),
		Amount:    purchase.Amount,
	}
	if result.RecordID != nil {
		id := result.RecordID.String()
		resp.UserVoucherID = &id
	}
	return resp, nil
}

// errPaidShort aborts the booking settlement transaction so the failure can
// be recorded outside of it.
var errPaidShort = errors.New("paid amount below booking total")

func (s *paymentService) reconcileBooking(ctx context.Context, actor *utils.Actor, reference string) (*response.ReconcileResponse, error) {
	existing, err := s.repo.Payment.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case entity.PaymentStatusCompleted:
			return nil, apperr.AlreadyApplied("payment " + reference + " already applied")
		case entity.PaymentStatusFailed:
			return nil, apperr.Rejected(ReasonAlreadyFailed, "payment "+reference+" has failed, start a new payment")
		}
	}

	txn, err := s.gateway.FetchTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}
	if txn.Pending() {
		return nil, apperr.Transient(nil, "payment "+reference+" is still pending at the gateway")
	}

	b, err := s.bookingFor(ctx, txn, existing)
	if err != nil {
		return nil, err
	}
	if actor != nil {
		if err := authorizeOwner(*actor, b); err != nil {
			return nil, err
		}
	}

	userID, err := s.customerOf(ctx, b)
	if err != nil {
		return nil, err
	}

	var groupID *uuid.UUID
	if raw := txn.Metadata["recurring_group_id"]; raw != "" {
		gid, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.Invalid("gateway metadata carries an invalid recurring group %q", raw)
		}
		if b.RecurringGroupID == nil || *b.RecurringGroupID != gid {
			return nil, apperr.Invalid("booking %s is not part of recurring group %s", b.ID, gid)
		}
		groupID = &gid
	}

	payment := &entity.Payment{
		Reference:        reference,
		UserID:           userID,
		BookingID:        b.ID,
		RecurringGroupID: groupID,
		Amount:           pricing.FromMinorUnits(txn.Amount),
		Currency:         txn.Currency,
	}
	if payment.Currency == "" {
		payment.Currency = Currency
	}

	if !txn.Succeeded() {
		if err := s.failBooking(ctx, payment, b, ReasonGatewayDeclined); err != nil {
			return nil, err
		}
		return nil, apperr.Rejected(ReasonGatewayDeclined, "the gateway reported payment "+reference+" as "+txn.Status)
	}

	if err := checkPayer(txn, b.ContactEmail, s.accountEmail(ctx, userID)); err != nil {
		return nil, err
	}

	var (
		settledIDs []string
		duplicate  bool
	)
	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		bookings, err := lockSettlement(ctx, tx, b.ID, groupID)
		if err != nil {
			return err
		}

		var (
			expected float64
			unpaid   int
		)
		for _, bk := range bookings {
			if bk.PaymentStatus != entity.PaymentStatusCompleted {
				expected += bk.Total
				unpaid++
			}
		}
		if unpaid == 0 {
			// A second charge for a settled booking stays on the ledger so it
			// can be refunded.
			reason := ReasonDuplicatePayment
			payment.Status = entity.PaymentStatusCompleted
			payment.FailureReason = &reason
			applied, err := tx.Payment.Upsert(ctx, payment)
			if err != nil {
				return err
			}
			if !applied {
				return apperr.AlreadyApplied("payment " + reference + " already applied")
			}
			duplicate = true
			return nil
		}
		if payment.Amount < pricing.RoundCents(expected) {
			return errPaidShort
		}

		payment.Status = entity.PaymentStatusCompleted
		applied, err := tx.Payment.Upsert(ctx, payment)
		if err != nil {
			return err
		}
		if !applied {
			return apperr.AlreadyApplied("payment " + reference + " already applied")
		}

		method := entity.PaymentMethodCard
		for _, bk := range bookings {
			if bk.PaymentStatus == entity.PaymentStatusCompleted {
				continue
			}
			next := bk.Status
			if err := lifecycle.Check(bk, lifecycle.ActionPay); err != nil {
				s.log.Warn("Payment received for a booking that can no longer change",
					zap.String("booking_id", bk.ID.String()),
					zap.String("status", string(bk.Status)),
					zap.String("reference", reference),
				)
				continue
			}
			if next == entity.BookingStatusPending {
				next = entity.BookingStatusConfirmed
			}
			if err := tx.Booking.MarkPaid(ctx, bk.ID, method, &reference, next); err != nil {
				return err
			}
			settledIDs = append(settledIDs, bk.ID.String())
		}
		return nil
	})
	if errors.Is(err, errPaidShort) {
		if err := s.failBooking(ctx, payment, b, ReasonAmountMismatch); err != nil {
			return nil, err
		}
		return nil, apperr.Rejected(ReasonAmountMismatch, "gateway amount is below the booking total")
	}
	if err != nil {
		return nil, err
	}

	if duplicate {
		s.log.Error("Duplicate charge for an already paid booking",
			zap.String("reference", reference),
			zap.String("booking_id", b.ID.String()),
			zap.String("user_id", userID.String()),
			zap.Float64("amount", payment.Amount),
		)
		s.events.payment(ctx, PaymentEvent{
			Type:      EventPaymentDuplicate,
			Reference: reference,
			Kind:      string(KindBooking),
			UserID:    userID.String(),
			Amount:    payment.Amount,
			Reason:    ReasonDuplicatePayment,
		})
		return &response.ReconcileResponse{
			Reference: reference,
			Kind:      string(KindBooking),
			Amount:    payment.Amount,
			Duplicate: true,
		}, nil
	}

	s.events.payment(ctx, PaymentEvent{
		Type:      EventPaymentCompleted,
		Reference: reference,
		Kind:      string(KindBooking),
		UserID:    userID.String(),
		Amount:    payment.Amount,
	})

	return &response.ReconcileResponse{
		Reference:  reference,
		Kind:       string(KindBooking),
		Amount:     payment.Amount,
		BookingIDs: settledIDs,
	}, nil
}

// lockSettlement locks the bookings a payment settles: the unpaid members of
// the series, or the single booking.
func lockSettlement(ctx context.Context, tx *repository.Repository, bookingID uuid.UUID, groupID *uuid.UUID) ([]*entity.Booking, error) {
	if groupID != nil {
		return tx.Booking.LockUnpaidByGroupID(ctx, *groupID)
	}
	b, err := findBooking(ctx, tx, bookingID, true)
	if err != nil {
		return nil, err
	}
	return []*entity.Booking{b}, nil
}

// bookingFor resolves the booking a gateway transaction pays for, from its
// metadata or from an earlier attempt with the same reference.
func (s *paymentService) bookingFor(ctx context.Context, txn *gateway.Transaction, existing *entity.Payment) (*entity.Booking, error) {
	var id uuid.UUID
	switch raw := txn.Metadata["booking_id"]; {
	case raw != "":
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.Invalid("gateway metadata carries an invalid booking id %q", raw)
		}
		id = parsed
	case existing != nil:
		id = existing.BookingID
	default:
		return nil, apperr.Invalid("payment %s does not name a booking", txn.Reference)
	}
	return findBooking(ctx, s.repo, id, false)
}

func (s *paymentService) customerOf(ctx context.Context, b *entity.Booking) (uuid.UUID, error) {
	if b.UserID != nil {
		return *b.UserID, nil
	}
	user, err := s.repo.User.FindByEmail(ctx, b.ContactEmail)
	if err != nil {
		return uuid.Nil, err
	}
	if user == nil {
		return uuid.Nil, apperr.Invalid("booking %s has no customer account", b.Reference)
	}
	return user.ID, nil
}

func (s *paymentService) accountEmail(ctx context.Context, userID uuid.UUID) string {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil || user == nil {
		return ""
	}
	return user.Email
}

// failBooking records a provider-confirmed failure. The booking keeps its
// status so a fresh payment can be started. A completed booking never carries
// a failed payment status, so only the payment row records the attempt.
func (s *paymentService) failBooking(ctx context.Context, payment *entity.Payment, b *entity.Booking, reason string) error {
	payment.Status = entity.PaymentStatusFailed
	payment.FailureReason = &reason

	err := s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Payment.Upsert(ctx, payment); err != nil {
			return err
		}
		if b.Status == entity.BookingStatusCompleted {
			return nil
		}
		return tx.Booking.MarkPaymentFailed(ctx, b.ID)
	})
	if err != nil {
		return fmt.Errorf("record failed payment %s: %w", payment.Reference, err)
	}

	s.events.payment(context.WithoutCancel(ctx), PaymentEvent{
		Type:      EventPaymentFailed,
		Reference: payment.Reference,
		Kind:      string(KindBooking),
		UserID:    payment.UserID.String(),
		Amount:    payment.Amount,
		Reason:    reason,
	})
	return nil
}
