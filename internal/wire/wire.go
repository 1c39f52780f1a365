// internal/wire/wire.go
package wire

import (
	"net/http"

	"cleaning-booking/internal/adaptor"
	"cleaning-booking/internal/data/repository"
	"cleaning-booking/internal/pricing"
	"cleaning-booking/internal/usecase"
	"cleaning-booking/pkg/middleware"
	"cleaning-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and the services behind it.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services and handlers and mounts every route. A nil queue
// makes the webhook endpoint reconcile inline.
func Wiring(
	repo *repository.Repository,
	config *utils.Config,
	calc *pricing.Calculator,
	queue adaptor.WebhookQueue,
	logger *zap.Logger,
	opts ...usecase.Option,
) *App {
	service := usecase.NewService(repo, config, calc, logger, opts...)
	handler := adaptor.NewHandler(service, config, queue, logger)

	return &App{
		Router:  setupRouter(handler, logger),
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	// Apply routes
	wireBooking(r, handler.Booking, handler.Wallet, logger)
	wireCleaner(r, handler.Cleaner, logger)
	wireWallet(r, handler.Wallet, handler.Discount, logger)
	wirePayment(r, handler.Payment, logger)
	wireAdmin(r, handler.Booking, handler.Wallet, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", nil)
	})

	return r
}
