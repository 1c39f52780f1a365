package usecase

import (
	"context"

	"cleaning-booking/internal/data/entity"
	"cleaning-booking/internal/data/repository"
	"cleaning-booking/internal/gateway"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) CreateBatch(ctx context.Context, bookings []*entity.Booking) error {
	args := m.Called(ctx, bookings)
	return args.Error(0)
}

func (m *MockBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByContactEmail(ctx context.Context, email string, limit, offset int) ([]*entity.Booking, error) {
	args := m.Called(ctx, email, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Booking), args.Error(1)
}

func (m *MockBookingRepository) CountByContactEmail(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepository) FindByGroupID(ctx context.Context, groupID uuid.UUID) ([]*entity.Booking, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByCleanerID(ctx context.Context, cleanerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	args := m.Called(ctx, cleanerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingRepository) LockUnpaidByGroupID(ctx context.Context, groupID uuid.UUID) ([]*entity.Booking, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error {
	args := m.Called(ctx, bookingID, status)
	return args.Error(0)
}

func (m *MockBookingRepository) MarkPaid(ctx context.Context, bookingID uuid.UUID, method entity.PaymentMethod, reference *string, status entity.BookingStatus) error {
	args := m.Called(ctx, bookingID, method, reference, status)
	return args.Error(0)
}

func (m *MockBookingRepository) MarkPaymentFailed(ctx context.Context, bookingID uuid.UUID) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *MockBookingRepository) RecordDecline(ctx context.Context, bookingID, cleanerID uuid.UUID, reason *string) error {
	args := m.Called(ctx, bookingID, cleanerID, reason)
	return args.Error(0)
}

type MockCreditRepository struct {
	mock.Mock
}

func (m *MockCreditRepository) Create(ctx context.Context, tx *entity.CreditTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockCreditRepository) FindByReference(ctx context.Context, reference string) (*entity.CreditTransaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CreditTransaction), args.Error(1)
}

func (m *MockCreditRepository) Complete(ctx context.Context, tx *entity.CreditTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockCreditRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockCreditRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.CreditTransaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CreditTransaction), args.Error(1)
}

func (m *MockCreditRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MockDiscountRepository struct {
	mock.Mock
}

func (m *MockDiscountRepository) FindByCode(ctx context.Context, code string) (*entity.DiscountCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DiscountCode), args.Error(1)
}

func (m *MockDiscountRepository) ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockEFTRepository struct {
	mock.Mock
}

func (m *MockEFTRepository) Create(ctx context.Context, sub *entity.EFTSubmission) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockEFTRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.EFTSubmission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.EFTSubmission), args.Error(1)
}

func (m *MockEFTRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.EFTSubmission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.EFTSubmission), args.Error(1)
}

func (m *MockEFTRepository) ListByStatus(ctx context.Context, status entity.EFTStatus, limit, offset int) ([]entity.EFTSubmission, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.EFTSubmission), args.Error(1)
}

func (m *MockEFTRepository) CountByStatus(ctx context.Context, status entity.EFTStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *MockEFTRepository) Decide(ctx context.Context, sub *entity.EFTSubmission) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByReference(ctx context.Context, reference string) (*entity.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Upsert(ctx context.Context, payment *entity.Payment) (bool, error) {
	args := m.Called(ctx, payment)
	return args.Bool(0), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) LockBalance(ctx context.Context, userID uuid.UUID) (float64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockUserRepository) SetBalance(ctx context.Context, userID uuid.UUID, balance float64) error {
	args := m.Called(ctx, userID, balance)
	return args.Error(0)
}

type MockVoucherRepository struct {
	mock.Mock
}

func (m *MockVoucherRepository) FindVoucherByID(ctx context.Context, id uuid.UUID) (*entity.Voucher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) ListActiveVouchers(ctx context.Context) ([]entity.Voucher, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) ListUserVouchers(ctx context.Context, userID uuid.UUID) ([]entity.UserVoucher, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserVoucher), args.Error(1)
}

func (m *MockVoucherRepository) FindUserVoucher(ctx context.Context, userID, userVoucherID uuid.UUID) (*entity.UserVoucher, error) {
	args := m.Called(ctx, userID, userVoucherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserVoucher), args.Error(1)
}

func (m *MockVoucherRepository) Redeem(ctx context.Context, userID, userVoucherID uuid.UUID, reference string) (*entity.ProcedureResult, error) {
	args := m.Called(ctx, userID, userVoucherID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProcedureResult), args.Error(1)
}

func (m *MockVoucherRepository) CompletePurchase(ctx context.Context, userID, voucherID uuid.UUID, reference string) (*entity.ProcedureResult, error) {
	args := m.Called(ctx, userID, voucherID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProcedureResult), args.Error(1)
}

func (m *MockVoucherRepository) CreatePendingPurchase(ctx context.Context, purchase *entity.PendingVoucherPurchase) error {
	args := m.Called(ctx, purchase)
	return args.Error(0)
}

func (m *MockVoucherRepository) FindPendingPurchase(ctx context.Context, reference string) (*entity.PendingVoucherPurchase, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PendingVoucherPurchase), args.Error(1)
}

func (m *MockVoucherRepository) MarkPendingPurchaseFailed(ctx context.Context, reference string) error {
	args := m.Called(ctx, reference)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) FetchTransaction(ctx context.Context, reference string) (*gateway.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Transaction), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireReferenceLock(ctx context.Context, reference string) (bool, error) {
	args := m.Called(ctx, reference)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) ReleaseReferenceLock(ctx context.Context, reference string) error {
	args := m.Called(ctx, reference)
	return args.Error(0)
}

type mocks struct {
	user     *MockUserRepository
	booking  *MockBookingRepository
	payment  *MockPaymentRepository
	credit   *MockCreditRepository
	eft      *MockEFTRepository
	voucher  *MockVoucherRepository
	discount *MockDiscountRepository
}

// newMockRepository wires a Repository whose transactions run inline against
// the same mocks.
func newMockRepository() (*repository.Repository, *mocks) {
	m := &mocks{
		user:     new(MockUserRepository),
		booking:  new(MockBookingRepository),
		payment:  new(MockPaymentRepository),
		credit:   new(MockCreditRepository),
		eft:      new(MockEFTRepository),
		voucher:  new(MockVoucherRepository),
		discount: new(MockDiscountRepository),
	}
	repo := &repository.Repository{
		User:     m.user,
		Booking:  m.booking,
		Payment:  m.payment,
		Credit:   m.credit,
		EFT:      m.eft,
		Voucher:  m.voucher,
		Discount: m.discount,
	}
	repo.Tx = repository.Inline(repo)
	return repo, m
}

func (m *mocks) assertAll(t mock.TestingT) {
	m.user.AssertExpectations(t)
	m.booking.AssertExpectations(t)
	m.payment.AssertExpectations(t)
	m.credit.AssertExpectations(t)
	m.eft.AssertExpectations(t)
	m.voucher.AssertExpectations(t)
	m.discount.AssertExpectations(t)
}
