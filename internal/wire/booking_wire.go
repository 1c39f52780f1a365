package wire

import (
	"cleaning-booking/internal/adaptor"
	"cleaning-booking/pkg/middleware"
	"cleaning-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	walletHandler *adaptor.WalletHandler,
	log *zap.Logger,
) {
	r.Route("/api/bookings", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Post("/quote", bookingHandler.Quote)

		// ==================== CUSTOMER ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(log))
			r.Use(middleware.RequireRole(log, utils.RoleCustomer))

			r.Post("/", bookingHandler.CreateBooking)
			r.Get("/", bookingHandler.ListMyBookings)
			r.Get("/groups/{groupID}", bookingHandler.ListGroup)
			r.Get("/{id}", bookingHandler.GetBooking)
			r.Delete("/{id}", bookingHandler.Delete)
			r.Put("/{id}/cancel", bookingHandler.Cancel)
			r.Put("/{id}/reschedule", bookingHandler.Reschedule)
			r.Post("/{id}/rebook", bookingHandler.Rebook)
			r.Post("/{id}/pay-with-credits", walletHandler.PayWithCredits)
		})
	})
}
