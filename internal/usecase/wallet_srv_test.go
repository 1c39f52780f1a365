package usecase

import (
	"context"
	"testing"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/data/entity"
	"cleaning-booking/internal/data/repository"
	"cleaning-booking/internal/dto/request"
	"cleaning-booking/internal/pricing"
	"cleaning-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memLedger keeps balances and credit transactions in memory, enforcing the
// one-completed-row-per-reference rule the store has.
type memLedger struct {
	users map[uuid.UUID]*entity.User
	txs   []*entity.CreditTransaction
}

func newMemLedger(users ...*entity.User) *memLedger {
	l := &memLedger{users: make(map[uuid.UUID]*entity.User)}
	for _, u := range users {
		l.users[u.ID] = u
	}
	return l
}

func (l *memLedger) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	u, ok := l.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (l *memLedger) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range l.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (l *memLedger) LockBalance(_ context.Context, userID uuid.UUID) (float64, error) {
	u, ok := l.users[userID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return u.CreditBalance, nil
}

func (l *memLedger) SetBalance(_ context.Context, userID uuid.UUID, balance float64) error {
	u, ok := l.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.CreditBalance = balance
	return nil
}

func (l *memLedger) Create(_ context.Context, tx *entity.CreditTransaction) error {
	if tx.Status == entity.CreditStatusCompleted && l.completed(tx.UserID, tx.PaymentReference) {
		return repository.ErrDuplicateReference
	}
	tx.ID = uuid.New()
	cp := *tx
	l.txs = append(l.txs, &cp)
	return nil
}

func (l *memLedger) FindByReference(_ context.Context, reference string) (*entity.CreditTransaction, error) {
	for _, tx := range l.txs {
		if tx.PaymentReference != nil && *tx.PaymentReference == reference {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, nil
}

func (l *memLedger) Complete(_ context.Context, done *entity.CreditTransaction) error {
	for _, tx := range l.txs {
		if tx.ID == done.ID && tx.Status == entity.CreditStatusPending {
			*tx = *done
			return nil
		}
	}
	return repository.ErrNotFound
}

func (l *memLedger) MarkFailed(_ context.Context, id uuid.UUID, _ string) error {
	for _, tx := range l.txs {
		if tx.ID == id {
			tx.Status = entity.CreditStatusFailed
		}
	}
	return nil
}

func (l *memLedger) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]entity.CreditTransaction, error) {
	var out []entity.CreditTransaction
	for _, tx := range l.txs {
		if tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (l *memLedger) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	txs, _ := l.ListByUser(ctx, userID, 0, 0)
	return len(txs), nil
}

func (l *memLedger) completed(userID uuid.UUID, ref *string) bool {
	if ref == nil {
		return false
	}
	for _, tx := range l.txs {
		if tx.UserID == userID && tx.Status == entity.CreditStatusCompleted &&
			tx.PaymentReference != nil && *tx.PaymentReference == *ref {
			return true
		}
	}
	return false
}

// assertConserved checks that the balance equals the sum of completed signed
// amounts and that every completed row continues from the previous one.
func (l *memLedger) assertConserved(t *testing.T, userID uuid.UUID) {
	t.Helper()
	var sum, running float64
	for _, tx := range l.txs {
		if tx.UserID != userID || tx.Status != entity.CreditStatusCompleted {
			continue
		}
		assert.Equal(t, running, tx.BalanceBefore, "balance_before of %s", *tx.PaymentReference)
		assert.Equal(t, pricing.RoundCents(tx.BalanceBefore+tx.SignedAmount()), tx.BalanceAfter)
		running = tx.BalanceAfter
		sum += tx.SignedAmount()
	}
	assert.Equal(t, pricing.RoundCents(sum), l.users[userID].CreditBalance)
}

func newLedgerRepository(ledger *memLedger) (*repository.Repository, *mocks) {
	repo, m := newMockRepository()
	repo.User = ledger
	repo.Credit = ledger
	return repo, m
}

func admin() utils.Actor {
	return utils.Actor{UserID: uuid.New(), Email: "ops@example.com", Role: utils.RoleAdmin}
}

func TestWallet_BalanceIsConservedAcrossOperations(t *testing.T) {
	actor := customer()
	ledger := newMemLedger(&entity.User{Base: entity.Base{ID: actor.UserID}, Email: actor.Email})
	repo, m := newLedgerRepository(ledger)

	wallet := NewWalletService(repo, testConfig(), zap.NewNop(), WithClock(fixedClock))
	bookings := newTestBookingService(repo)

	sub := &entity.EFTSubmission{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		UserID:       actor.UserID,
		Amount:       500,
		Reference:    "EFT-0001",
		Status:       entity.EFTStatusPending,
	}
	m.eft.On("FindByIDForUpdate", mock.Anything, sub.ID).Return(sub, nil)
	m.eft.On("Decide", mock.Anything, sub).Return(nil)

	_, err := wallet.VerifyEFT(context.Background(), admin(), sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 500.0, ledger.users[actor.UserID].CreditBalance)

	_, err = wallet.VerifyEFT(context.Background(), admin(), sub.ID.String())
	assert.Equal(t, apperr.IllegalTransition, apperr.KindOf(err))

	paid := bookingFixture(entity.BookingStatusPending, entity.PaymentStatusPending)
	paid.UserID = &actor.UserID
	m.booking.On("FindByIDForUpdate", mock.Anything, paid.ID).Return(paid, nil)
	m.booking.On("MarkPaid", mock.Anything, paid.ID, entity.PaymentMethodCredits, mock.Anything, entity.BookingStatusConfirmed).Return(nil)

	resp, err := wallet.PayWithCredits(context.Background(), actor, paid.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, resp.Status)
	assert.Equal(t, 180.0, ledger.users[actor.UserID].CreditBalance)

	_, err = wallet.PayWithCredits(context.Background(), actor, paid.ID.String())
	assert.Equal(t, apperr.IllegalTransition, apperr.KindOf(err))

	unaffordable := bookingFixture(entity.BookingStatusPending, entity.PaymentStatusPending)
	m.booking.On("FindByIDForUpdate", mock.Anything, unaffordable.ID).Return(unaffordable, nil)

	_, err = wallet.PayWithCredits(context.Background(), actor, unaffordable.ID.String())
	require.Error(t, err)
	assert.Equal(t, ReasonInsufficientCredits, apperr.As(err).Reason)
	assert.Equal(t, 180.0, ledger.users[actor.UserID].CreditBalance)

	m.booking.On("Update", mock.Anything, paid).Return(nil)
	_, err = bookings.Cancel(context.Background(), actor, paid.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 500.0, ledger.users[actor.UserID].CreditBalance)

	ledger.assertConserved(t, actor.UserID)
	assert.Len(t, ledger.txs, 3)
	m.booking.AssertNumberOfCalls(t, "MarkPaid", 1)
}

func TestWallet_CancelRefundsThePayingWallet(t *testing.T) {
	payer := customer()
	creatorID := uuid.New()
	ledger := newMemLedger(
		&entity.User{Base: entity.Base{ID: payer.UserID}, Email: payer.Email, CreditBalance: 500},
		&entity.User{Base: entity.Base{ID: creatorID}, Email: "creator@example.com", CreditBalance: 320},
	)
	seedRef := "credit-seed"
	ledger.txs = append(ledger.txs, &entity.CreditTransaction{
		UserID:           payer.UserID,
		Type:             entity.CreditTypePurchase,
		Amount:           500,
		BalanceAfter:     500,
		Status:           entity.CreditStatusCompleted,
		PaymentReference: &seedRef,
	})
	repo, m := newLedgerRepository(ledger)

	b := bookingFixture(entity.BookingStatusPending, entity.PaymentStatusPending)
	b.UserID = &creatorID
	m.booking.On("FindByIDForUpdate", mock.Anything, b.ID).Return(b, nil)
	m.booking.On("MarkPaid", mock.Anything, b.ID, entity.PaymentMethodCredits, mock.Anything, entity.BookingStatusConfirmed).Return(nil)
	m.booking.On("Update", mock.Anything, b).Return(nil)

	_, err := NewWalletService(repo, testConfig(), zap.NewNop()).PayWithCredits(context.Background(), payer, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 180.0, ledger.users[payer.UserID].CreditBalance)

	_, err = newTestBookingService(repo).Cancel(context.Background(), payer, b.ID.String())
	require.NoError(t, err)

	assert.Equal(t, 500.0, ledger.users[payer.UserID].CreditBalance)
	assert.Equal(t, 320.0, ledger.users[creatorID].CreditBalance)
	ledger.assertConserved(t, payer.UserID)
}

func TestWallet_ZeroTotalBookingSettlesWithoutLedgerEntry(t *testing.T) {
	actor := customer()
	ledger := newMemLedger(&entity.User{Base: entity.Base{ID: actor.UserID}, Email: actor.Email})
	repo, m := newLedgerRepository(ledger)

	b := bookingFixture(entity.BookingStatusPending, entity.PaymentStatusPending)
	b.Total = 0
	m.booking.On("FindByIDForUpdate", mock.Anything, b.ID).Return(b, nil)
	m.booking.On("MarkPaid", mock.Anything, b.ID, entity.PaymentMethodCredits, mock.Anything, entity.BookingStatusConfirmed).Return(nil)

	resp, err := NewWalletService(repo, testConfig(), zap.NewNop()).PayWithCredits(context.Background(), actor, b.ID.String())

	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusCompleted, resp.PaymentStatus)
	assert.Empty(t, ledger.txs)
	assert.Equal(t, 0.0, ledger.users[actor.UserID].CreditBalance)
}

func TestWallet_DuplicateUsageIsAlreadyApplied(t *testing.T) {
	actor := customer()
	ledger := newMemLedger(&entity.User{Base: entity.Base{ID: actor.UserID}, Email: actor.Email, CreditBalance: 1000})
	repo, m := newLedgerRepository(ledger)

	b := bookingFixture(entity.BookingStatusPending, entity.PaymentStatusPending)
	ref := b.Reference
	ledger.txs = append(ledger.txs, &entity.CreditTransaction{
		UserID:           actor.UserID,
		Type:             entity.CreditTypeUsage,
		Amount:           b.Total,
		Status:           entity.CreditStatusCompleted,
		PaymentReference: &ref,
	})
	m.booking.On("FindByIDForUpdate", mock.Anything, b.ID).Return(b, nil)

	_, err := NewWalletService(repo, testConfig(), zap.NewNop()).PayWithCredits(context.Background(), actor, b.ID.String())

	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.Equal(t, 1000.0, ledger.users[actor.UserID].CreditBalance)
	m.booking.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWallet_CreditPurchaseThroughReconcile(t *testing.T) {
	actor := customer()
	ledger := newMemLedger(&entity.User{Base: entity.Base{ID: actor.UserID}, Email: actor.Email})
	repo, _ := newLedgerRepository(ledger)
	gw := new(MockGateway)

	wallet := NewWalletService(repo, testConfig(), zap.NewNop())
	payments := newTestPaymentService(repo, WithGateway(gw))

	started, err := wallet.InitiateCreditPurchase(context.Background(), actor, &request.CreditPurchaseRequest{Amount: 250})
	require.NoError(t, err)
	assert.Equal(t, string(KindCredit), started.Kind)

	txn := successTxn(started.Reference, 25000)
	txn.PayerEmail = actor.Email
	gw.On("FetchTransaction", mock.Anything, started.Reference).Return(txn, nil).Once()

	resp, err := payments.VerifyPayment(context.Background(), actor, &request.VerifyPaymentRequest{Reference: started.Reference})
	require.NoError(t, err)
	assert.Equal(t, 250.0, *resp.Balance)

	again, err := payments.Reconcile(context.Background(), nil, started.Reference, "")
	require.NoError(t, err)
	assert.True(t, again.AlreadyApplied)

	assert.Equal(t, 250.0, ledger.users[actor.UserID].CreditBalance)
	ledger.assertConserved(t, actor.UserID)
}

func TestVerifyEFT_RequiresAdmin(t *testing.T) {
	repo, m := newMockRepository()

	_, err := NewWalletService(repo, testConfig(), zap.NewNop()).VerifyEFT(context.Background(), customer(), uuid.NewString())

	assert.Equal(t, apperr.PermissionDenied, apperr.KindOf(err))
	m.eft.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
}

func TestRejectEFT_RecordsReason(t *testing.T) {
	repo, m := newMockRepository()
	sub := &entity.EFTSubmission{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		UserID:       uuid.New(),
		Amount:       100,
		Status:       entity.EFTStatusPending,
	}
	m.eft.On("FindByIDForUpdate", mock.Anything, sub.ID).Return(sub, nil)
	m.eft.On("Decide", mock.Anything, mock.MatchedBy(func(s *entity.EFTSubmission) bool {
		return s.Status == entity.EFTStatusRejected && *s.RejectionReason == "proof unreadable"
	})).Return(nil)

	_, err := NewWalletService(repo, testConfig(), zap.NewNop()).
		RejectEFT(context.Background(), admin(), sub.ID.String(), &request.RejectEFTRequest{Reason: "proof unreadable"})

	require.NoError(t, err)
	m.user.AssertNotCalled(t, "LockBalance", mock.Anything, mock.Anything)
	m.assertAll(t)
}

func TestInitiateVoucherPurchase_RejectsExpiredVoucher(t *testing.T) {
	repo, m := newMockRepository()
	expired := fixedNow.AddDate(0, 0, -1)
	v := &entity.Voucher{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		Code:         "SPRING",
		Price:        100,
		Active:       true,
		ExpiresAt:    &expired,
	}
	m.voucher.On("FindVoucherByID", mock.Anything, v.ID).Return(v, nil)

	_, err := NewWalletService(repo, testConfig(), zap.NewNop(), WithClock(fixedClock)).
		InitiateVoucherPurchase(context.Background(), customer(), v.ID.String())

	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
	m.voucher.AssertNotCalled(t, "CreatePendingPurchase", mock.Anything, mock.Anything)
}
