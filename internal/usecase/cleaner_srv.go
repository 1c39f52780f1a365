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
	"cleaning-booking/internal/lifecycle"
	"cleaning-booking/pkg/utils"

	"go.uber.org/zap"
)

type CleanerService interface {
	ListJobs(ctx context.Context, actor utils.Actor, req *request.PaginatedRequest) ([]response.BookingResponse, error)
	Accept(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error)
	Decline(ctx context.Context, actor utils.Actor, bookingID string, req *request.DeclineRequest) (*response.BookingResponse, error)
	Start(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error)
	UpdateProgress(ctx context.Context, actor utils.Actor, bookingID string, req *request.JobProgressRequest) (*response.BookingResponse, error)
	Complete(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error)
}

type cleanerService struct {
	repo           *repository.Repository
	events         emitter
	strictProgress bool
	clock          func() time.Time
	log            *zap.Logger
}

func NewCleanerService(repo *repository.Repository, config *utils.Config, log *zap.Logger, opts ...Option) CleanerService {
	o := newOptions(opts)
	log = log.With(zap.String("service", "cleaner"))
	return &cleanerService{
		repo:           repo,
		events:         emitter{pub: o.events, topic: config.Kafka.EventsTopic, log: log},
		strictProgress: config.Booking.StrictJobProgress,
		clock:          o.clock,
		log:            log,
	}
}

func (s *cleanerService) ListJobs(ctx context.Context, actor utils.Actor, req *request.PaginatedRequest) ([]response.BookingResponse, error) {
	if !actor.IsCleaner() {
		return nil, apperr.Denied("Only cleaners have a job list")
	}

	bookings, err := s.repo.Booking.FindByCleanerID(ctx, actor.UserID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list cleaner jobs",
			zap.Error(err),
			zap.String("cleaner_id", actor.UserID.String()),
		)
		return nil, fmt.Errorf("list cleaner jobs: %w", err)
	}

	return response.BookingsToResponse(bookings), nil
}

// transition runs a cleaner-side status change under the booking row lock.
func (s *cleanerService) transition(ctx context.Context, actor utils.Actor, bookingID string, allowUnassigned bool, apply func(tx *repository.Repository, b *entity.Booking) error) (*entity.Booking, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	return mutateBooking(ctx, s.repo, id, func(tx *repository.Repository, b *entity.Booking) error {
		if err := authorizeCleaner(actor, b, allowUnassigned); err != nil {
			return err
		}
		if err := apply(tx, b); err != nil {
			return err
		}
		b.UpdatedAt = s.clock()
		return tx.Booking.Update(ctx, b)
	})
}

func (s *cleanerService) Accept(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	b, err := s.transition(ctx, actor, bookingID, true, func(_ *repository.Repository, b *entity.Booking) error {
		if err := lifecycle.Check(b, lifecycle.ActionAccept); err != nil {
			return err
		}
		if b.CleanerID == nil {
			if !actor.IsCleaner() {
				return apperr.Invalid("booking %s has no cleaner to accept on behalf of", b.ID)
			}
			cleanerID := actor.UserID
			b.CleanerID = &cleanerID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Job accepted",
		zap.String("booking_id", b.ID.String()),
		zap.String("cleaner_id", b.CleanerID.String()),
	)
	s.events.booking(ctx, EventBookingAccepted, b)

	resp := response.BookingToResponse(b)
	return &resp, nil
}

// Decline hands the job back to the pool: the booking returns to pending
// with no cleaner, and the decline is recorded.
func (s *cleanerService) Decline(ctx context.Context, actor utils.Actor, bookingID string, req *request.DeclineRequest) (*response.BookingResponse, error) {
	if req == nil {
		req = &request.DeclineRequest{}
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.Invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	b, err := s.transition(ctx, actor, bookingID, true, func(tx *repository.Repository, b *entity.Booking) error {
		next, err := lifecycle.Next(b, lifecycle.ActionDecline)
		if err != nil {
			return err
		}

		cleanerID := actor.UserID
		if b.CleanerID != nil {
			cleanerID = *b.CleanerID
		}
		var reason *string
		if r := strings.TrimSpace(req.Reason); r != "" {
			reason = &r
		}
		if err := tx.Booking.RecordDecline(ctx, b.ID, cleanerID, reason); err != nil {
			return err
		}

		b.Status = next
		b.CleanerID = nil
		b.JobProgress = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Job declined",
		zap.String("booking_id", b.ID.String()),
		zap.String("by", actor.UserID.String()),
	)
	s.events.booking(ctx, EventBookingDeclined, b)

	resp := response.BookingToResponse(b)
	return &resp, nil
}

func (s *cleanerService) Start(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	b, err := s.transition(ctx, actor, bookingID, false, func(_ *repository.Repository, b *entity.Booking) error {
		next, err := lifecycle.Next(b, lifecycle.ActionStart)
		if err != nil {
			return err
		}
		b.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Job started", zap.String("booking_id", b.ID.String()))
	s.events.booking(ctx, EventBookingStarted, b)

	resp := response.BookingToResponse(b)
	return &resp, nil
}

func (s *cleanerService) UpdateProgress(ctx context.Context, actor utils.Actor, bookingID string, req *request.JobProgressRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.Invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}
	progress := entity.JobProgress(req.Progress)

	b, err := s.transition(ctx, actor, bookingID, false, func(_ *repository.Repository, b *entity.Booking) error {
		if err := lifecycle.CheckProgress(b, progress, s.strictProgress); err != nil {
			return err
		}
		b.JobProgress = &progress
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Job progress updated",
		zap.String("booking_id", b.ID.String()),
		zap.String("progress", req.Progress),
	)
	s.events.booking(ctx, EventBookingProgress, b)

	resp := response.BookingToResponse(b)
	return &resp, nil
}

func (s *cleanerService) Complete(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	b, err := s.transition(ctx, actor, bookingID, false, func(_ *repository.Repository, b *entity.Booking) error {
		next, err := lifecycle.Next(b, lifecycle.ActionComplete)
		if err != nil {
			return err
		}
		b.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Job completed",
		zap.String("booking_id", b.ID.String()),
		zap.Float64("cleaner_earnings", b.CleanerEarnings),
	)
	s.events.booking(ctx, EventBookingCompleted, b)

	resp := response.BookingToResponse(b)
	return &resp, nil
}
