package adaptor

import (
	"errors"
	"net/http"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/usecase"
	"cleaning-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Booking  *BookingHandler
	Cleaner  *CleanerHandler
	Discount *DiscountHandler
	Wallet   *WalletHandler
	Payment  *PaymentHandler
}

func NewHandler(service *usecase.Service, config *utils.Config, queue WebhookQueue, log *zap.Logger) *Handler {
	return &Handler{
		Booking:  NewBookingHandler(service.Booking, log),
		Cleaner:  NewCleanerHandler(service.Cleaner, log),
		Discount: NewDiscountHandler(service.Discount, log),
		Wallet:   NewWalletHandler(service.Wallet, log),
		Payment:  NewPaymentHandler(service.Payment, config.Gateway.WebhookSecret, queue, config.Kafka.WebhookTopic, log),
	}
}

// currentActor reads the identity set by the identity middleware and writes
// 401 when there is none.
func currentActor(w http.ResponseWriter, r *http.Request) (utils.Actor, bool) {
	actor, ok := utils.GetActorFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return utils.Actor{}, false
	}
	return actor, true
}

func paginationFrom(r *http.Request) (page, perPage int) {
	query := r.URL.Query()
	return utils.ParseInt(query.Get("page"), 1), utils.ParseInt(query.Get("per_page"), 10)
}

// handleServiceError maps a service error onto the response envelope.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, r *http.Request, err error, operation string) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	fields := []zap.Field{
		zap.Error(err),
		zap.String("operation", operation),
	}

	switch appErr.Kind {
	case apperr.InvalidInput:
		log.Warn(operation+" rejected - invalid input", fields...)
		var details any
		if appErr.Reason != "" {
			details = map[string]string{"reason": appErr.Reason}
		}
		utils.ResponseBadRequest(w, appErr.Message, details)

	case apperr.NotFound:
		log.Warn(operation+" failed - not found", fields...)
		utils.ResponseNotFound(w, appErr.Message)

	case apperr.PermissionDenied:
		log.Warn(operation+" failed - permission denied", fields...)
		message := "You do not have permission to perform this action"
		if actor, ok := utils.GetActorFromContext(r.Context()); ok && actor.IsAdmin() {
			message = appErr.Message
		}
		utils.ResponseForbidden(w, message)

	case apperr.IllegalTransition:
		log.Warn(operation+" failed - illegal transition", fields...)
		utils.ResponseConflict(w, appErr.Message, map[string]string{"current_state": appErr.State})

	case apperr.GatewayTransient:
		log.Warn(operation+" deferred - gateway unavailable", fields...)
		utils.ResponseServiceUnavailable(w, appErr.Message)

	case apperr.GatewayRejected:
		log.Warn(operation+" failed - payment rejected", fields...)
		utils.ResponsePaymentRequired(w, appErr.Message, map[string]string{"reason": appErr.Reason})

	case apperr.Conflict:
		log.Info(operation+" already applied", fields...)
		utils.ResponseSuccess(w, appErr.Message, map[string]bool{"already_applied": true})

	default:
		log.Error("Failed to "+operation, fields...)
		utils.ResponseInternalError(w, "Internal server error")
	}
}
