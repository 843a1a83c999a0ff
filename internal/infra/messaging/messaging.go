// Package messaging implements the SMS/WhatsApp provider client.
// The provider exposes a single send endpoint; WhatsApp recipients are
// addressed with the "whatsapp:" prefix, Twilio-style.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bahi-ledger/bahi/internal/domain"
)

// Config holds provider credentials.
type Config struct {
	AccountSID string
	AuthToken  string
	BaseURL    string
	SMSFrom    string // sender number for SMS
	WAFrom     string // sender number for WhatsApp
}

// Enabled reports whether credentials are configured.
func (c Config) Enabled() bool { return c.AccountSID != "" && c.AuthToken != "" }

// Client sends messages through the provider's REST API.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a messaging client.
func New(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// SendMessage dispatches one message and reports the provider outcome.
// Missing credentials are a configuration error, not a silent success.
func (c *Client) SendMessage(ctx context.Context, msg domain.OutboundMessage) (domain.DispatchResult, error) {
	if !c.cfg.Enabled() {
		return domain.DispatchResult{}, fmt.Errorf("messaging credentials not configured")
	}
	if msg.To == "" {
		return domain.DispatchResult{}, fmt.Errorf("message recipient required")
	}

	to, from := msg.To, c.cfg.SMSFrom
	if msg.Channel == domain.ChannelWhatsApp {
		to, from = "whatsapp:"+msg.To, "whatsapp:"+c.cfg.WAFrom
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.cfg.BaseURL, c.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.DispatchResult{}, err
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.DispatchResult{}, fmt.Errorf("send %s: %w", msg.Channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.DispatchResult{}, fmt.Errorf("provider returned %d: %s", resp.StatusCode, body)
	}

	var out struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.DispatchResult{}, fmt.Errorf("decode provider response: %w", err)
	}
	return domain.DispatchResult{Success: true, ProviderRef: out.SID}, nil
}
