package usecase

import (
	"context"
	"time"

	"cleaning-booking/internal/gateway"
)

// PaymentGateway verifies references with the card provider.
type PaymentGateway interface {
	FetchTransaction(ctx context.Context, reference string) (*gateway.Transaction, error)
}

// ReferenceLocker serialises reconcilers working on the same reference.
type ReferenceLocker interface {
	AcquireReferenceLock(ctx context.Context, reference string) (bool, error)
	ReleaseReferenceLock(ctx context.Context, reference string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type Option func(*options)

type options struct {
	gateway PaymentGateway
	locker  ReferenceLocker
	events  EventPublisher
	clock   func() time.Time
}

func WithGateway(g PaymentGateway) Option {
	return func(o *options) { o.gateway = g }
}

func WithLocker(l ReferenceLocker) Option {
	return func(o *options) { o.locker = l }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(o *options) { o.events = p }
}

// WithClock overrides time.Now, for tests that depend on "today".
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

func newOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
