package usecase

import (
	"cleaning-booking/internal/data/repository"
	"cleaning-booking/internal/pricing"
	"cleaning-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Booking  BookingService
	Cleaner  CleanerService
	Discount DiscountService
	Wallet   WalletService
	Payment  PaymentService
}

func NewService(repo *repository.Repository, config *utils.Config, calc *pricing.Calculator, log *zap.Logger, opts ...Option) *Service {
	discount := NewDiscountService(repo, log, opts...)
	return &Service{
		Booking:  NewBookingService(repo, calc, discount, config, log, opts...),
		Cleaner:  NewCleanerService(repo, config, log, opts...),
		Discount: discount,
		Wallet:   NewWalletService(repo, config, log, opts...),
		Payment:  NewPaymentService(repo, config, log, opts...),
	}
}
