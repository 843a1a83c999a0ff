package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bahi-ledger/bahi/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		AccountSID: "AC_test",
		AuthToken:  "token_test",
		BaseURL:    srv.URL,
		SMSFrom:    "+15550000001",
		WAFrom:     "+15550000002",
	})
}

func TestSendMessage_SMS(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC_test/Messages.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		r.ParseForm()
		if got := r.FormValue("To"); got != "9876543210" {
			t.Errorf("To = %q, want 9876543210", got)
		}
		if got := r.FormValue("From"); got != "+15550000001" {
			t.Errorf("From = %q, want +15550000001", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"sid": "SM123"})
	})

	res, err := client.SendMessage(context.Background(), domain.OutboundMessage{
		Channel: domain.ChannelSMS,
		To:      "9876543210",
		Body:    "Payment reminder",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !res.Success || res.ProviderRef != "SM123" {
		t.Errorf("result = %+v, want success with ref SM123", res)
	}
}

func TestSendMessage_WhatsAppPrefix(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.FormValue("To"); got != "whatsapp:9876543210" {
			t.Errorf("To = %q, want whatsapp:9876543210", got)
		}
		if got := r.FormValue("From"); got != "whatsapp:+15550000002" {
			t.Errorf("From = %q, want whatsapp:+15550000002", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"sid": "WA456"})
	})

	res, err := client.SendMessage(context.Background(), domain.OutboundMessage{
		Channel: domain.ChannelWhatsApp,
		To:      "9876543210",
		Body:    "Payment reminder",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if res.ProviderRef != "WA456" {
		t.Errorf("ProviderRef = %q, want WA456", res.ProviderRef)
	}
}

func TestSendMessage_ProviderFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":21211,"message":"invalid number"}`, http.StatusBadRequest)
	})

	_, err := client.SendMessage(context.Background(), domain.OutboundMessage{
		Channel: domain.ChannelSMS,
		To:      "invalid",
		Body:    "x",
	})
	if err == nil {
		t.Error("expected error from provider 400")
	}
}

func TestSendMessage_MissingCredentials(t *testing.T) {
	client := New(Config{})
	_, err := client.SendMessage(context.Background(), domain.OutboundMessage{
		Channel: domain.ChannelSMS,
		To:      "9876543210",
		Body:    "x",
	})
	if err == nil {
		t.Error("expected configuration error with no credentials")
	}
}
