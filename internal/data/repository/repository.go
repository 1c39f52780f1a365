package repository

import (
	"context"
	"fmt"

	"cleaning-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User     UserRepository
	Booking  BookingRepository
	Payment  PaymentRepository
	Credit   CreditRepository
	EFT      EFTRepository
	Voucher  VoucherRepository
	Discount DiscountRepository

	// Tx runs a unit of work against repositories bound to one transaction.
	Tx TxRunner
}

// TxRunner executes fn inside a single store transaction. fn's error rolls it back.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx *Repository) error) error
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepository(db, log)
	repo.Tx = &pgTxRunner{db: db, log: log.With(zap.String("repository", "tx"))}
	return repo
}

func newRepository(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		User:     NewUserRepository(q, log),
		Booking:  NewBookingRepository(q, log),
		Payment:  NewPaymentRepository(q, log),
		Credit:   NewCreditRepository(q, log),
		EFT:      NewEFTRepository(q, log),
		Voucher:  NewVoucherRepository(q, log),
		Discount: NewDiscountRepository(q, log),
	}
}

type pgTxRunner struct {
	db  database.PgxIface
	log *zap.Logger
}

func (r *pgTxRunner) WithinTx(ctx context.Context, fn func(tx *Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	txRepo := newRepository(tx, r.log)
	txRepo.Tx = Inline(txRepo)

	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.log.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type inlineTx struct {
	repo *Repository
}

// Inline returns a TxRunner that runs fn directly against repo. It is used for
// nested units of work and by tests with in-memory repositories.
func Inline(repo *Repository) TxRunner {
	return inlineTx{repo: repo}
}

func (t inlineTx) WithinTx(_ context.Context, fn func(tx *Repository) error) error {
	return fn(t.repo)
}
