package kafka

import "time"

// WebhookMessage is a verified gateway notification queued for the worker.
type WebhookMessage struct {
	Event      string    `json:"event"`
	Reference  string    `json:"reference"`
	ReceivedAt time.Time `json:"received_at"`
}
