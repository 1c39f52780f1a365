// Package gateway talks to the card payment provider. Only verification is
// implemented; checkout is initiated by the client with the reference we issue.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/pkg/utils"

	"go.uber.org/zap"
)

// Transaction is the provider's view of one payment reference.
type Transaction struct {
	Reference  string
	Status     string
	Amount     int64 // minor units
	Currency   string
	PayerEmail string
	Metadata   map[string]string
	PaidAt     *time.Time
}

func (t *Transaction) Succeeded() bool {
	return t.Status == "success"
}

// Pending reports a status the provider has not settled yet.
func (t *Transaction) Pending() bool {
	switch t.Status {
	case "pending", "ongoing", "processing", "queued", "":
		return true
	}
	return false
}

type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(cfg utils.GatewayConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		secret:  cfg.SecretKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log.With(zap.String("component", "gateway")),
	}
}

type verifyEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Reference string          `json:"reference"`
		Status    string          `json:"status"`
		Amount    int64           `json:"amount"`
		Currency  string          `json:"currency"`
		PaidAt    *time.Time      `json:"paid_at"`
		Metadata  json.RawMessage `json:"metadata"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// FetchTransaction returns the provider's record for reference. Network
// failures, timeouts and 5xx answers are GatewayTransient; an unknown
// reference is GatewayRejected.
func (c *Client) FetchTransaction(ctx context.Context, reference string) (*Transaction, error) {
	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("Gateway unreachable",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return nil, apperr.Transient(err, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperr.Transient(err, "read payment gateway response")
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		c.log.Warn("Gateway temporarily unavailable",
			zap.Int("status_code", resp.StatusCode),
			zap.String("reference", reference),
		)
		return nil, apperr.Transient(fmt.Errorf("status %d", resp.StatusCode), "payment gateway unavailable")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.log.Error("Gateway rejected credentials", zap.Int("status_code", resp.StatusCode))
		return nil, apperr.Wrap(apperr.Internal, fmt.Errorf("status %d", resp.StatusCode), "payment gateway credentials rejected")
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return nil, apperr.Rejected("unknown_reference", "payment reference not recognised by the gateway")
	case resp.StatusCode != http.StatusOK:
		return nil, apperr.Transient(fmt.Errorf("status %d", resp.StatusCode), "unexpected payment gateway response")
	}

	var env verifyEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperr.Transient(err, "decode payment gateway response")
	}
	if !env.Status {
		return nil, apperr.Rejected("unknown_reference", env.Message)
	}

	metadata, err := decodeMetadata(env.Data.Metadata)
	if err != nil {
		c.log.Warn("Ignoring malformed gateway metadata",
			zap.Error(err),
			zap.String("reference", reference),
		)
	}

	tx := &Transaction{
		Reference:  env.Data.Reference,
		Status:     strings.ToLower(env.Data.Status),
		Amount:     env.Data.Amount,
		Currency:   env.Data.Currency,
		PayerEmail: env.Data.Customer.Email,
		Metadata:   metadata,
		PaidAt:     env.Data.PaidAt,
	}
	if tx.Reference == "" {
		tx.Reference = reference
	}

	c.log.Debug("Gateway transaction fetched",
		zap.String("reference", reference),
		zap.String("status", tx.Status),
		zap.Int64("amount", tx.Amount),
	)

	return tx, nil
}

// decodeMetadata accepts an object, a JSON-encoded object string or an empty value.
func decodeMetadata(raw json.RawMessage) (map[string]string, error) {
	out := map[string]string{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil || s == "" {
			return out, nil
		}
		if err := json.Unmarshal([]byte(s), &obj); err != nil {
			return out, fmt.Errorf("metadata string is not an object: %w", err)
		}
	}

	for k, v := range obj {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out, nil
}
