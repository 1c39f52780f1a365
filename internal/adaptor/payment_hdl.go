package adaptor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/dto/request"
	"cleaning-booking/internal/gateway"
	"cleaning-booking/internal/kafka"
	"cleaning-booking/internal/usecase"
	"cleaning-booking/pkg/utils"

	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// WebhookQueue hands verified webhooks to the reconciliation worker.
type WebhookQueue interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type PaymentHandler struct {
	service usecase.PaymentService
	secret  string
	queue   WebhookQueue
	topic   string
	log     *zap.Logger
}

// NewPaymentHandler builds the payment handler. With a nil queue, webhooks
// are reconciled inline.
func NewPaymentHandler(service usecase.PaymentService, secret string, queue WebhookQueue, topic string, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		secret:  secret,
		queue:   queue,
		topic:   topic,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// Verify handles POST /api/payments/verify, called when the customer returns
// from checkout.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req request.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.VerifyPayment(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, r, err, "verify payment")
		return
	}

	message := "Payment applied"
	switch {
	case result.AlreadyApplied:
		message = "Payment already applied"
	case result.Duplicate:
		message = "Booking was already paid, the duplicate charge has been recorded for refund"
	}
	utils.ResponseSuccess(w, message, result)
}

// Webhook handles POST /api/webhooks/payment from the gateway.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if !gateway.VerifySignature(h.secret, body, r.Header.Get(gateway.SignatureHeader)) {
		h.log.Warn("Webhook signature rejected", zap.String("ip", r.RemoteAddr))
		utils.ResponseUnauthorized(w, "Invalid signature")
		return
	}

	event, err := gateway.ParseWebhook(body)
	if err != nil {
		h.log.Warn("Malformed webhook", zap.Error(err))
		utils.ResponseBadRequest(w, "Malformed webhook", nil)
		return
	}

	if !event.Settles() {
		h.log.Debug("Webhook ignored", zap.String("event", event.Event))
		utils.ResponseSuccess(w, "ignored", nil)
		return
	}

	if h.queue != nil {
		msg := kafka.WebhookMessage{
			Event:      event.Event,
			Reference:  event.Reference,
			ReceivedAt: time.Now().UTC(),
		}
		if err := h.queue.Publish(r.Context(), h.topic, event.Reference, msg); err != nil {
			h.log.Error("Failed to queue webhook",
				zap.Error(err),
				zap.String("reference", event.Reference))
			utils.ResponseServiceUnavailable(w, "Webhook could not be queued")
			return
		}
		utils.ResponseSuccess(w, "queued", nil)
		return
	}

	result, err := h.service.Reconcile(r.Context(), nil, event.Reference, "")
	switch {
	case err == nil:
	case apperr.IsKind(err, apperr.GatewayTransient), apperr.IsKind(err, apperr.Internal):
		// A non-2xx status makes the gateway redeliver.
		handleServiceError(w, h.log, r, err, "reconcile webhook")
		return
	default:
		h.log.Warn("Webhook acknowledged without effect",
			zap.Error(err),
			zap.String("reference", event.Reference))
		utils.ResponseSuccess(w, "acknowledged", nil)
		return
	}

	utils.ResponseSuccess(w, "processed", result)
}
