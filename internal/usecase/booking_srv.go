package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/data/entity"
	"cleaning-booking/internal/data/repository"
	"cleaning-booking/internal/dto/request"
	"cleaning-booking/internal/dto/response"
	"cleaning-booking/internal/lifecycle"
	"cleaning-booking/internal/pricing"
	"cleaning-booking/internal/schedule"
	"cleaning-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	// Public
	Quote(ctx context.Context, req *request.QuoteRequest) (*response.QuoteResponse, error)

	// Customer
	CreateBooking(ctx context.Context, actor utils.Actor, req *request.CreateBookingRequest) (*response.CreateBookingResponse, error)
	GetBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error)
	ListMyBookings(ctx context.Context, actor utils.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	ListGroup(ctx context.Context, actor utils.Actor, groupID string) ([]response.BookingResponse, error)
	Cancel(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error)
	Delete(ctx context.Context, actor utils.Actor, bookingID string) error
	Reschedule(ctx context.Context, actor utils.Actor, bookingID string, req *request.RescheduleRequest) (*response.BookingResponse, error)
	Rebook(ctx context.Context, actor utils.Actor, bookingID string, req *request.RebookRequest) (*response.BookingResponse, error)

	// Admin
	Confirm(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error)
	AssignCleaner(ctx context.Context, actor utils.Actor, bookingID string, req *request.AssignCleanerRequest) (*response.BookingResponse, error)
}

type bookingService struct {
	repo          *repository.Repository
	calc          *pricing.Calculator
	discounts     DiscountService
	events        emitter
	horizonMonths int
	clock         func() time.Time
	log           *zap.Logger
}

func NewBookingService(repo *repository.Repository, calc *pricing.Calculator, discounts DiscountService, config *utils.Config, log *zap.Logger, opts ...Option) BookingService {
	o := newOptions(opts)
	log = log.With(zap.String("service", "booking"))
	return &bookingService{
		repo:          repo,
		calc:          calc,
		discounts:     discounts,
		events:        emitter{pub: o.events, topic: config.Kafka.EventsTopic, log: log},
		horizonMonths: config.Booking.RecurringHorizonMonths,
		clock:         o.clock,
		log:           log,
	}
}

func quoteInput(req *request.QuoteRequest) pricing.Input {
	return pricing.Input{
		Service:   entity.ServiceType(req.ServiceType),
		Frequency: entity.Frequency(req.Frequency),
		Rooms:     req.Rooms,
		AddOns:    req.AddOns,
		Tip:       req.Tip,
	}
}

func (s *bookingService) today() time.Time {
	return schedule.Date(s.clock())
}

// scheduleFrom parses a date and time, rejecting dates before today.
func (s *bookingService) scheduleFrom(date, clock string) (time.Time, string, error) {
	day, err := schedule.ParseDate(date)
	if err != nil {
		return time.Time{}, "", err
	}
	if day.Before(s.today()) {
		return time.Time{}, "", apperr.Invalid("scheduled date %s is in the past", date)
	}
	hhmm, err := schedule.ParseClock(clock)
	if err != nil {
		return time.Time{}, "", err
	}
	return day, hhmm, nil
}

func (s *bookingService) Quote(ctx context.Context, req *request.QuoteRequest) (*response.QuoteResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Quote validation failed", zap.Any("errors", errs))
		return nil, apperr.Invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	in := quoteInput(req)
	breakdown, err := s.calc.Compute(in)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.PromoCode) != "" {
		_, promo, err := s.discounts.ResolvePromo(ctx, req.PromoCode, breakdown.Subtotal-breakdown.FrequencyDiscount)
		if err != nil {
			return nil, err
		}
		in.Promo = promo
		if breakdown, err = s.calc.Compute(in); err != nil {
			return nil, err
		}
	}

	return &response.QuoteResponse{
		Breakdown:   *breakdown,
		ServiceType: in.Service,
		Frequency:   in.Frequency,
	}, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, actor utils.Actor, req *request.CreateBookingRequest) (*response.CreateBookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, apperr.Invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}
	if strings.TrimSpace(req.PromoCode) != "" && req.UserVoucherID != "" {
		return nil, apperr.Invalid("apply either a promo code or a voucher, not both")
	}

	start, clock, err := s.scheduleFrom(req.ScheduledDate, req.ScheduledTime)
	if err != nil {
		return nil, err
	}

	in := quoteInput(&req.QuoteRequest)
	base, err := s.calc.Compute(in)
	if err != nil {
		return nil, err
	}

	var (
		code    *entity.DiscountCode
		voucher *entity.UserVoucher
		promo   *pricing.Promo
	)
	switch {
	case strings.TrimSpace(req.PromoCode) != "":
		code, promo, err = s.discounts.ResolvePromo(ctx, req.PromoCode, base.Subtotal-base.FrequencyDiscount)
	case req.UserVoucherID != "":
		var uvID uuid.UUID
		if uvID, err = parseID("voucher", req.UserVoucherID); err == nil {
			voucher, promo, err = s.discounts.ResolveVoucher(ctx, actor, uvID)
		}
	}
	if err != nil {
		return nil, err
	}

	// The promo reduces only the first occurrence of a series.
	first := base
	if promo != nil {
		in.Promo = promo
		if first, err = s.calc.Compute(in); err != nil {
			return nil, err
		}
	}

	dates := []time.Time{start}
	if in.Frequency.IsRecurring() {
		if dates, err = schedule.Expand(in.Frequency, start, s.horizonMonths); err != nil {
			return nil, err
		}
		if len(dates) == 0 {
			return nil, apperr.Invalid("recurring horizon of %d months produces no occurrences", s.horizonMonths)
		}
	}

	var groupID *uuid.UUID
	if in.Frequency.IsRecurring() {
		id := uuid.New()
		groupID = &id
	}

	bookings := make([]*entity.Booking, len(dates))
	for i, date := range dates {
		breakdown := base
		if i == 0 {
			breakdown = first
		}
		b := s.newBooking(actor, req, breakdown, date, clock)
		if groupID != nil {
			seq := i + 1
			b.RecurringGroupID = groupID
			b.RecurringSequence = &seq
			if i > 0 {
				b.ParentBookingID = &bookings[0].ID
			}
		}
		bookings[i] = b
	}

	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if code != nil {
			ok, err := tx.Discount.ConsumeUse(ctx, code.ID)
			if err != nil {
				return err
			}
			if !ok {
				return rejectCode(ReasonUsageLimitExceeded, "This discount code has reached its usage limit")
			}
		}

		if err := tx.Booking.CreateBatch(ctx, bookings); err != nil {
			return err
		}

		if voucher != nil {
			res, err := tx.Voucher.Redeem(ctx, actor.UserID, voucher.ID, bookings[0].Reference)
			if err != nil {
				return err
			}
			if !res.Success {
				return apperr.Invalid("%s", res.Message).WithReason("voucher_unavailable")
			}
		}
		return nil
	})
	if err != nil {
		if apperr.As(err) == nil {
			s.log.Error("Failed to create booking",
				zap.Error(err),
				zap.String("contact_email", req.ContactEmail),
				zap.Int("occurrences", len(bookings)),
			)
			return nil, fmt.Errorf("create booking: %w", err)
		}
		return nil, err
	}

	resp := &response.CreateBookingResponse{Bookings: response.BookingsToResponse(bookings)}
	for _, b := range bookings {
		resp.SeriesTotal += b.Total
		s.events.booking(ctx, EventBookingCreated, b)
	}
	resp.SeriesTotal = pricing.RoundCents(resp.SeriesTotal)
	if groupID != nil {
		id := groupID.String()
		resp.RecurringGroupID = &id
	}

	s.log.Info("Booking created",
		zap.String("reference", bookings[0].Reference),
		zap.String("frequency", string(in.Frequency)),
		zap.Int("occurrences", len(bookings)),
		zap.Float64("series_total", resp.SeriesTotal),
	)

	return resp, nil
}

func (s *bookingService) newBooking(actor utils.Actor, req *request.CreateBookingRequest, bd *pricing.Breakdown, date time.Time, clock string) *entity.Booking {
	now := s.clock()
	b := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Reference:     utils.GenerateBookingReference(),
		ServiceType:   entity.ServiceType(req.ServiceType),
		Frequency:     entity.Frequency(req.Frequency),
		ScheduledDate: date,
		ScheduledTime: clock,
		Rooms:         req.Rooms,
		AddOns:        req.AddOns,
		AddressLine:   req.AddressLine,
		Suburb:        req.Suburb,
		City:          req.City,
		PostalCode:    req.PostalCode,
		ContactName:   req.ContactName,
		ContactEmail:  strings.TrimSpace(req.ContactEmail),
		ContactPhone:  req.ContactPhone,
		Notes:         req.Notes,
		Status:        entity.BookingStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
	}
	if actor.UserID != uuid.Nil {
		uid := actor.UserID
		b.UserID = &uid
	}
	applyBreakdown(b, bd)
	return b
}

func applyBreakdown(b *entity.Booking, bd *pricing.Breakdown) {
	b.Subtotal = bd.Subtotal
	b.FrequencyDiscount = bd.FrequencyDiscount
	b.PromoDiscount = bd.PromoDiscount
	b.PromoCode = nil
	if bd.PromoCode != "" {
		code := bd.PromoCode
		b.PromoCode = &code
	}
	b.ServiceFee = bd.ServiceFee
	b.CleanerEarnings = bd.CleanerEarnings
	b.CleanerPercentage = bd.CleanerPercentage
	b.Tip = bd.Tip
	b.Total = bd.Total
}

func (s *bookingService) GetBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	b, err := findBooking(ctx, s.repo, id, false)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(actor, b); err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(b)
	return &resp, nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, actor utils.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if actor.Email == "" {
		return nil, apperr.Invalid("an email identity is required to list bookings")
	}

	bookings, err := s.repo.Booking.FindByContactEmail(ctx, actor.Email, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list bookings",
			zap.Error(err),
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage),
		)
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByContactEmail(ctx, actor.Email)
	if err != nil {
		s.log.Error("Failed to count bookings", zap.Error(err))
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	return response.NewPaginatedResponse(response.BookingsToResponse(bookings), req.Page, req.Limit(), total), nil
}

func (s *bookingService) ListGroup(ctx context.Context, actor utils.Actor, groupID string) ([]response.BookingResponse, error) {
	id, err := parseID("recurring group", groupID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.Booking.FindByGroupID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list recurring group %s: %w", id, err)
	}
	if len(bookings) == 0 {
		return nil, apperr.NotFoundf("recurring group %s not found", id)
	}
	if err := authorizeOwner(actor, bookings[0]); err != nil {
		return nil, err
	}

	return response.BookingsToResponse(bookings), nil
}

func (s *bookingService) Cancel(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	b, err := mutateBooking(ctx, s.repo, id, func(tx *repository.Repository, b *entity.Booking) error {
		if err := authorizeOwner(actor, b); err != nil {
			return err
		}
		next, err := lifecycle.Next(b, lifecycle.ActionCancel)
		if err != nil {
			return err
		}

		if b.PaidWith(entity.PaymentMethodCredits) {
			if err := s.refundCredits(ctx, tx, b); err != nil {
				return err
			}
		}

		b.Status = next
		b.UpdatedAt = s.clock()
		return tx.Booking.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking cancelled",
		zap.String("booking_id", b.ID.String()),
		zap.String("reference", b.Reference),
	)
	s.events.booking(ctx, EventBookingCancelled, b)

	resp := response.BookingToResponse(b)
	return &resp, nil
}

// refundCredits returns a wallet payment to the wallet it was debited from.
// The reference is derived from the booking, so a booking is refunded at most
// once.
func (s *bookingService) refundCredits(ctx context.Context, tx *repository.Repository, b *entity.Booking) error {
	usage, err := tx.Credit.FindByReference(ctx, b.Reference)
	if err != nil {
		return err
	}
	if usage == nil || usage.Type != entity.CreditTypeUsage || usage.Status != entity.CreditStatusCompleted {
		// Zero-total bookings settle without a wallet entry.
		s.log.Warn("No wallet payment to refund", zap.String("reference", b.Reference))
		return nil
	}

	payer := usage.UserID
	before, err := tx.User.LockBalance(ctx, payer)
	if err != nil {
		return err
	}

	method := entity.PaymentMethodCredits
	ref := "refund-" + b.Reference
	bookingID := b.ID
	refund := &entity.CreditTransaction{
		UserID:           payer,
		Type:             entity.CreditTypeRefund,
		Amount:           usage.Amount,
		BalanceBefore:    before,
		BalanceAfter:     pricing.RoundCents(before + usage.Amount),
		Status:           entity.CreditStatusCompleted,
		PaymentMethod:    &method,
		PaymentReference: &ref,
		BookingID:        &bookingID,
		Description:      "Refund for cancelled booking " + b.Reference,
	}

	if err := tx.Credit.Create(ctx, refund); err != nil {
		if errors.Is(err, repository.ErrDuplicateReference) {
			s.log.Warn("Booking already refunded", zap.String("reference", b.Reference))
			return nil
		}
		return err
	}

	return tx.User.SetBalance(ctx, payer, refund.BalanceAfter)
}

func (s *bookingService) Delete(ctx context.Context, actor utils.Actor, bookingID string) error {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return err
	}

	b, err := mutateBooking(ctx, s.repo, id, func(tx *repository.Repository, b *entity.Booking) error {
		if err := authorizeOwner(actor, b); err != nil {
			return err
		}
		if err := lifecycle.Check(b, lifecycle.ActionDelete); err != nil {
			return err
		}
		// Cancellation has already refunded a cancelled booking.
		if b.PaidWith(entity.PaymentMethodCredits) && b.Status != entity.BookingStatusCancelled {
			if err := s.refundCredits(ctx, tx, b); err != nil {
				return err
			}
		}
		return tx.Booking.Delete(ctx, b.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("Booking deleted",
		zap.String("booking_id", b.ID.String()),
		zap.String("reference", b.Reference),
	)
	s.events.booking(ctx, EventBookingDeleted, b)
	return nil
}

func (s *bookingService) Reschedule(ctx context.Context, actor utils.Actor, bookingID string, req *request.RescheduleRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.Invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	day, clock, err := s.scheduleFrom(req.ScheduledDate, req.ScheduledTime)
	if err != nil {
		return nil, err
	}

	b, err := mutateBooking(ctx, s.repo, id, func(tx *repository.Repository, b *entity.Booking) error {
		if err := authorizeOwner(actor, b); err != nil {
			return err
		}
		if err := lifecycle.Check(b, lifecycle.ActionReschedule); err != nil {
			return err
		}
		b.ScheduledDate = day
		b.ScheduledTime = clock
		b.UpdatedAt = s.clock()
		return tx.Booking.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking rescheduled",
		zap.String("booking_id", b.ID.String()),
		zap.String("date", req.ScheduledDate),
		zap.String("time", clock),
	)
	s.events.booking(ctx, EventBookingRescheduled, b)

	resp := response.BookingToResponse(b)
	return &resp, nil
}

// Rebook copies a booking into a fresh pending one. The price is recomputed
// from the current catalog without any promo.
func (s *bookingService) Rebook(ctx context.Context, actor utils.Actor, bookingID string, req *request.RebookRequest) (*response.BookingResponse, error) {
	if req == nil {
		req = &request.RebookRequest{}
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.Invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	orig, err := findBooking(ctx, s.repo, id, false)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(actor, orig); err != nil {
		return nil, err
	}

	date := orig.ScheduledDate
	clock := orig.ScheduledTime
	if req.ScheduledDate != "" || req.ScheduledTime != "" {
		d, t := req.ScheduledDate, req.ScheduledTime
		if d == "" {
			d = schedule.FormatDate(orig.ScheduledDate)
		}
		if t == "" {
			t = orig.ScheduledTime
		}
		if date, clock, err = s.scheduleFrom(d, t); err != nil {
			return nil, err
		}
	}

	breakdown, err := s.calc.Compute(pricing.Input{
		Service:   orig.ServiceType,
		Frequency: orig.Frequency,
		Rooms:     orig.Rooms,
		AddOns:    orig.AddOns,
		Tip:       orig.Tip,
	})
	if err != nil {
		return nil, err
	}

	now := s.clock()
	clone := *orig
	clone.Base = entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	clone.Reference = utils.GenerateBookingReference()
	clone.ScheduledDate = date
	clone.ScheduledTime = clock
	clone.Status = entity.BookingStatusPending
	clone.PaymentStatus = entity.PaymentStatusPending
	clone.PaymentMethod = nil
	clone.PaymentReference = nil
	clone.RecurringGroupID = nil
	clone.RecurringSequence = nil
	clone.ParentBookingID = &orig.ID
	clone.CleanerID = nil
	clone.JobProgress = nil
	applyBreakdown(&clone, breakdown)

	if err := s.repo.Booking.Create(ctx, &clone); err != nil {
		s.log.Error("Failed to rebook",
			zap.Error(err),
			zap.String("source_booking_id", orig.ID.String()),
		)
		return nil, fmt.Errorf("rebook %s: %w", orig.ID, err)
	}

	s.log.Info("Booking rebooked",
		zap.String("source_booking_id", orig.ID.String()),
		zap.String("booking_id", clone.ID.String()),
		zap.String("reference", clone.Reference),
	)
	s.events.booking(ctx, EventBookingCreated, &clone)

	resp := response.BookingToResponse(&clone)
	return &resp, nil
}

func (s *bookingService) Confirm(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Denied(deniedMessage)
	}

	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	b, err := mutateBooking(ctx, s.repo, id, func(tx *repository.Repository, b *entity.Booking) error {
		next, err := lifecycle.Next(b, lifecycle.ActionConfirm)
		if err != nil {
			return err
		}
		b.Status = next
		b.UpdatedAt = s.clock()
		return tx.Booking.UpdateStatus(ctx, b.ID, next)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking confirmed",
		zap.String("booking_id", b.ID.String()),
		zap.String("by", actor.UserID.String()),
	)
	s.events.booking(ctx, EventBookingConfirmed, b)

	resp := response.BookingToResponse(b)
	return &resp, nil
}

func (s *bookingService) AssignCleaner(ctx context.Context, actor utils.Actor, bookingID string, req *request.AssignCleanerRequest) (*response.BookingResponse, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Denied(deniedMessage)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.Invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}
	cleanerID, err := parseID("cleaner", req.CleanerID)
	if err != nil {
		return nil, err
	}

	cleaner, err := s.repo.User.FindByID(ctx, cleanerID)
	if err != nil {
		return nil, fmt.Errorf("find cleaner %s: %w", cleanerID, err)
	}
	if cleaner == nil {
		return nil, apperr.NotFoundf("cleaner %s not found", cleanerID)
	}
	if cleaner.Role != entity.RoleCleaner {
		return nil, apperr.Invalid("user %s is not a cleaner", cleanerID)
	}

	b, err := mutateBooking(ctx, s.repo, id, func(tx *repository.Repository, b *entity.Booking) error {
		if err := lifecycle.Check(b, lifecycle.ActionEdit); err != nil {
			return err
		}
		b.CleanerID = &cleanerID
		b.UpdatedAt = s.clock()
		return tx.Booking.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Cleaner assigned",
		zap.String("booking_id", b.ID.String()),
		zap.String("cleaner_id", cleanerID.String()),
	)

	resp := response.BookingToResponse(b)
	return &resp, nil
}
