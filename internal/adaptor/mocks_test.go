package adaptor

import (
	"context"

	"cleaning-booking/internal/dto/request"
	"cleaning-booking/internal/dto/response"
	"cleaning-booking/pkg/utils"

	"github.com/stretchr/testify/mock"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Quote(ctx context.Context, req *request.QuoteRequest) (*response.QuoteResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.QuoteResponse), args.Error(1)
}

func (m *MockBookingService) CreateBooking(ctx context.Context, actor utils.Actor, req *request.CreateBookingRequest) (*response.CreateBookingResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.CreateBookingResponse), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	args := m.Called(ctx, actor, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

func (m *MockBookingService) ListMyBookings(ctx context.Context, actor utils.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.PaginatedResponse[response.BookingResponse]), args.Error(1)
}

func (m *MockBookingService) ListGroup(ctx context.Context, actor utils.Actor, groupID string) ([]response.BookingResponse, error) {
	args := m.Called(ctx, actor, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]response.BookingResponse), args.Error(1)
}

func (m *MockBookingService) Cancel(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	args := m.Called(ctx, actor, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

func (m *MockBookingService) Delete(ctx context.Context, actor utils.Actor, bookingID string) error {
	args := m.Called(ctx, actor, bookingID)
	return args.Error(0)
}

func (m *MockBookingService) Reschedule(ctx context.Context, actor utils.Actor, bookingID string, req *request.RescheduleRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, actor, bookingID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

func (m *MockBookingService) Rebook(ctx context.Context, actor utils.Actor, bookingID string, req *request.RebookRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, actor, bookingID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

func (m *MockBookingService) Confirm(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	args := m.Called(ctx, actor, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

func (m *MockBookingService) AssignCleaner(ctx context.Context, actor utils.Actor, bookingID string, req *request.AssignCleanerRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, actor, bookingID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) VerifyPayment(ctx context.Context, actor utils.Actor, req *request.VerifyPaymentRequest) (*response.ReconcileResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.ReconcileResponse), args.Error(1)
}

func (m *MockPaymentService) Reconcile(ctx context.Context, actor *utils.Actor, reference, expectedKind string) (*response.ReconcileResponse, error) {
	args := m.Called(ctx, actor, reference, expectedKind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.ReconcileResponse), args.Error(1)
}

type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Publish(ctx context.Context, topic, key string, value any) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}
