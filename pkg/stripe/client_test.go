package stripe

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/checkout-bridge/pkg/config"
)

func TestNewClientValidatesKeyAgainstEnv(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StripeConfig
		wantErr bool
	}{
		{name: "test key", cfg: config.StripeConfig{APIKey: "sk_test_1", WebhookSecret: "whsec_1", Env: "test"}},
		{name: "restricted live key", cfg: config.StripeConfig{APIKey: "rk_live_1", WebhookSecret: "whsec_1", Env: "LIVE"}},
		{name: "live key in test env", cfg: config.StripeConfig{APIKey: "sk_live_1", WebhookSecret: "whsec_1", Env: "test"}, wantErr: true},
		{name: "missing secret", cfg: config.StripeConfig{APIKey: "sk_test_1", Env: "test"}, wantErr: true},
		{name: "missing key", cfg: config.StripeConfig{WebhookSecret: "whsec_1"}, wantErr: true},
		{name: "unknown env", cfg: config.StripeConfig{APIKey: "sk_test_1", WebhookSecret: "whsec_1", Env: "staging"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.cfg, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %+v", tt.cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.SigningSecret() != "whsec_1" {
				t.Fatalf("unexpected signing secret %q", client.SigningSecret())
			}
		})
	}
}

func TestErrorMessagePrefersStripeMessage(t *testing.T) {
	apiErr := &stripe.Error{Msg: "Your card was declined."}
	if got := ErrorMessage(fmt.Errorf("create: %w", apiErr)); got != "Your card was declined." {
		t.Fatalf("unexpected message %q", got)
	}
	if got := ErrorMessage(errors.New("dial tcp: timeout")); got != "dial tcp: timeout" {
		t.Fatalf("unexpected message %q", got)
	}
	if ErrorMessage(nil) != "" {
		t.Fatal("nil error should have no message")
	}
}
