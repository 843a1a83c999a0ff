// Package gateway implements the payment-gateway client.
// Orders are created upstream and payment confirmations are verified
// locally with the gateway's HMAC-SHA256 signature scheme: the signed
// content is "orderID|paymentID" and the signature is lowercase hex.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bahi-ledger/bahi/internal/domain"
)

// Config holds gateway credentials and endpoint.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string // e.g. https://api.razorpay.com
}

// Enabled reports whether credentials are configured.
func (c Config) Enabled() bool { return c.KeyID != "" && c.KeySecret != "" }

// Client talks to the payment gateway over HTTP.
// The zero credentials case is a configuration error, surfaced as
// domain.ErrGatewayDisabled — never silently fabricated.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a gateway client.
func New(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// ─── Orders ─────────────────────────────────────────────────────────────────

// CreateOrder registers an order with the gateway and returns its handle.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*domain.Order, error) {
	if !c.cfg.Enabled() {
		return nil, domain.ErrGatewayDisabled
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if currency == "" {
		currency = "INR"
	}

	body, err := json.Marshal(map[string]any{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, err
	}

	var order domain.Order
	if err := c.do(ctx, http.MethodPost, "/v1/orders", body, &order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &order, nil
}

// FetchPayment retrieves captured-payment details for auditing.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*domain.PaymentDetails, error) {
	if !c.cfg.Enabled() {
		return nil, domain.ErrGatewayDisabled
	}

	var details domain.PaymentDetails
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &details); err != nil {
		return nil, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}
	return &details, nil
}

// ─── Signature Verification ─────────────────────────────────────────────────

// VerifySignature checks the gateway's confirmation signature.
// Pure function of (orderID, paymentID, signature, secret); comparison
// is constant time via hmac.Equal.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, c.cfg.KeySecret)
}

// VerifySignature checks signature against HMAC-SHA256(secret,
// "orderID|paymentID") in lowercase hex.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := ComputeSignature(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ComputeSignature computes the gateway's HMAC-SHA256 signature.
func ComputeSignature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID))
	mac.Write([]byte("|"))
	mac.Write([]byte(paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// ─── HTTP Plumbing ──────────────────────────────────────────────────────────

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, msg)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
