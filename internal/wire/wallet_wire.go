package wire

import (
	"cleaning-booking/internal/adaptor"
	"cleaning-booking/pkg/middleware"
	"cleaning-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireWallet(
	r chi.Router,
	walletHandler *adaptor.WalletHandler,
	discountHandler *adaptor.DiscountHandler,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Post("/api/discounts/validate", discountHandler.ValidateCode)
	r.Get("/api/vouchers/catalog", discountHandler.ListCatalog)

	// ==================== CUSTOMER ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(log))
		r.Use(middleware.RequireRole(log, utils.RoleCustomer))

		r.Get("/api/vouchers", discountHandler.ListVouchers)
		r.Post("/api/vouchers/{id}/redeem", discountHandler.RedeemVoucher)
		r.Post("/api/vouchers/{id}/purchase", walletHandler.PurchaseVoucher)

		r.Get("/api/wallet", walletHandler.GetWallet)
		r.Get("/api/wallet/transactions", walletHandler.ListTransactions)
		r.Post("/api/wallet/purchase", walletHandler.PurchaseCredits)
		r.Post("/api/wallet/eft", walletHandler.SubmitEFT)
	})
}
