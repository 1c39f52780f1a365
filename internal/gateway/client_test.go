package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(utils.GatewayConfig{
		BaseURL:   srv.URL,
		SecretKey: "sk_test",
		Timeout:   200 * time.Millisecond,
	}, zap.NewNop())
}

func TestFetchTransaction_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/credit-1-abc", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{
			"reference":"credit-1-abc","status":"success","amount":32000,"currency":"ZAR",
			"customer":{"email":"jane@example.com"},
			"metadata":{"booking_id":"b-1","sequence":2}}}`))
	})

	tx, err := client.FetchTransaction(context.Background(), "credit-1-abc")
	require.NoError(t, err)

	assert.True(t, tx.Succeeded())
	assert.False(t, tx.Pending())
	assert.Equal(t, int64(32000), tx.Amount)
	assert.Equal(t, "jane@example.com", tx.PayerEmail)
	assert.Equal(t, "b-1", tx.Metadata["booking_id"])
	assert.Equal(t, "2", tx.Metadata["sequence"])
}

func TestFetchTransaction_StringMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"data":{"status":"failed","amount":100,
			"customer":{"email":"a@b.co"},"metadata":"{\"booking_id\":\"x\"}"}}`))
	})

	tx, err := client.FetchTransaction(context.Background(), "ref")
	require.NoError(t, err)

	assert.Equal(t, "ref", tx.Reference)
	assert.Equal(t, "x", tx.Metadata["booking_id"])
	assert.False(t, tx.Succeeded())
	assert.False(t, tx.Pending())
}

func TestFetchTransaction_ServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchTransaction(context.Background(), "ref")
	assert.True(t, apperr.IsKind(err, apperr.GatewayTransient))
}

func TestFetchTransaction_TimeoutIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	})

	_, err := client.FetchTransaction(context.Background(), "ref")
	assert.True(t, apperr.IsKind(err, apperr.GatewayTransient))
}

func TestFetchTransaction_UnknownReferenceIsRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	})

	_, err := client.FetchTransaction(context.Background(), "ref")
	assert.True(t, apperr.IsKind(err, apperr.GatewayRejected))
	assert.Equal(t, "unknown_reference", apperr.As(err).Reason)
}

func TestWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"voucher-1-abc"}}`)
	sig := Sign("whsec", body)

	assert.True(t, VerifySignature("whsec", body, sig))
	assert.False(t, VerifySignature("other", body, sig))
	assert.False(t, VerifySignature("whsec", body, ""))

	event, err := ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, "voucher-1-abc", event.Reference)
	assert.True(t, event.Settles())
}

func TestParseWebhook_MissingReference(t *testing.T) {
	_, err := ParseWebhook([]byte(`{"event":"charge.success","data":{}}`))
	assert.Error(t, err)
}
