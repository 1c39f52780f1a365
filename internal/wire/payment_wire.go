package wire

import (
	"cleaning-booking/internal/adaptor"
	"cleaning-booking/pkg/middleware"
	"cleaning-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(r chi.Router, paymentHandler *adaptor.PaymentHandler, log *zap.Logger) {
	// Signed by the gateway, no identity headers.
	r.Post("/api/webhooks/payment", paymentHandler.Webhook)

	r.With(
		middleware.Identity(log),
		middleware.RequireRole(log, utils.RoleCustomer),
	).Post("/api/payments/verify", paymentHandler.Verify)
}
