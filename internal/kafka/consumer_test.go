package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHandleWithRetry_RetriesUntilSuccess(t *testing.T) {
	c := &Consumer{minBackoff: time.Millisecond, maxBackoff: 4 * time.Millisecond, log: zap.NewNop()}

	calls := 0
	err := c.handleWithRetry(context.Background(), kafka.Message{Key: []byte("ref")}, func(ctx context.Context, msg kafka.Message) error {
		calls++
		if calls < 3 {
			return errors.New("gateway unavailable")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestHandleWithRetry_StopsOnCancel(t *testing.T) {
	c := &Consumer{minBackoff: time.Hour, maxBackoff: time.Hour, log: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	err := c.handleWithRetry(ctx, kafka.Message{}, func(ctx context.Context, msg kafka.Message) error {
		cancel()
		return errors.New("still failing")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
