package wire

import (
	"cleaning-booking/internal/adaptor"
	"cleaning-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	walletHandler *adaptor.WalletHandler,
	log *zap.Logger,
) {
	r.Route("/api/admin", func(r chi.Router) {
		// Require both identity AND admin role
		r.Use(middleware.Identity(log))
		r.Use(middleware.RequireRole(log))

		r.Put("/bookings/{id}/confirm", bookingHandler.Confirm)
		r.Put("/bookings/{id}/assign", bookingHandler.AssignCleaner)

		r.Get("/eft", walletHandler.ListPendingEFT)
		r.Put("/eft/{id}/verify", walletHandler.VerifyEFT)
		r.Put("/eft/{id}/reject", walletHandler.RejectEFT)
	})
}
