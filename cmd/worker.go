package cmd

import (
	"context"
	"encoding/json"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/kafka"
	"cleaning-booking/internal/usecase"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// WebhookWorker reconciles queued gateway webhooks. Transient failures are
// returned to the consumer, which retries before committing the offset.
func WebhookWorker(ctx context.Context, consumer *kafka.Consumer, payments usecase.PaymentService, logger *zap.Logger) error {
	log := logger.With(zap.String("component", "webhook_worker"))
	log.Info("Webhook worker started")

	return consumer.Consume(ctx, func(ctx context.Context, msg kafkago.Message) error {
		var webhook kafka.WebhookMessage
		if err := json.Unmarshal(msg.Value, &webhook); err != nil {
			log.Error("Dropping undecodable webhook message",
				zap.Error(err),
				zap.Int64("offset", msg.Offset))
			return nil
		}

		result, err := payments.Reconcile(ctx, nil, webhook.Reference, "")
		switch {
		case err == nil:
			log.Info("Webhook reconciled",
				zap.String("reference", webhook.Reference),
				zap.String("event", webhook.Event),
				zap.Bool("already_applied", result.AlreadyApplied))
			return nil
		case apperr.IsKind(err, apperr.GatewayTransient), apperr.IsKind(err, apperr.Internal):
			return err
		default:
			log.Warn("Webhook settled without effect",
				zap.Error(err),
				zap.String("reference", webhook.Reference))
			return nil
		}
	})
}
