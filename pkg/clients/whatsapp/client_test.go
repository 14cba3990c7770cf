package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mamadbah2/expiry-tracker/internal/config"
	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
)

func TestSendTextMessage(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v20.0/12345/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "token", PhoneNumberID: "12345", BaseURL: srv.URL, APIVersion: "v20.0"})
	resp, err := client.SendTextMessage(context.Background(), models.OutboundMessageRequest{To: "+1 (415) 555-0100", Message: "Milk expires tomorrow"})
	if err != nil {
		t.Fatalf("SendTextMessage: %v", err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].ID != "wamid.1" {
		t.Fatalf("response = %+v", resp)
	}
	if payload["to"] != "14155550100" {
		t.Fatalf("to = %v", payload["to"])
	}
}

func TestSendTextMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Recipient not in allowed list","code":131030}}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "token", PhoneNumberID: "1", BaseURL: srv.URL, APIVersion: "v20.0"})
	if _, err := client.SendTextMessage(context.Background(), models.OutboundMessageRequest{To: "14155550100", Message: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestInvalidRecipient(t *testing.T) {
	client := NewClient(config.WhatsAppConfig{AccessToken: "t", PhoneNumberID: "1", BaseURL: "http://127.0.0.1:0", APIVersion: "v20.0"})
	_, err := client.SendTextMessage(context.Background(), models.OutboundMessageRequest{To: "call me", Message: "x"})
	if !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
}
