package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/checkout-bridge/api/controllers"
	checkoutsvc "github.com/angelmondragon/checkout-bridge/internal/checkout"
	"github.com/angelmondragon/checkout-bridge/pkg/config"
	"github.com/angelmondragon/checkout-bridge/pkg/metrics"
)

type stubCheckout struct{}

func (stubCheckout) CreateSession(context.Context, checkoutsvc.CreateSessionInput) (*checkoutsvc.CreateSessionResult, error) {
	return &checkoutsvc.CreateSessionResult{SessionID: "cs_test_1"}, nil
}

func (stubCheckout) GetSessionDetails(_ context.Context, id string) (*checkoutsvc.SessionDetails, error) {
	return &checkoutsvc.SessionDetails{OrderID: "order-1", Status: "complete"}, nil
}

type stubWebhooks struct{}

func (stubWebhooks) HandleEvent(context.Context, *stripe.Event) error { return nil }

type secret string

func (s secret) SigningSecret() string { return string(s) }

type upPinger struct{}

func (upPinger) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	cfg := &config.Config{
		App:      config.AppConfig{Env: "dev"},
		Frontend: config.FrontendConfig{URL: "https://shop.example.com"},
	}
	return NewRouter(cfg, nil, Dependencies{
		Checkout:      stubCheckout{},
		Webhooks:      stubWebhooks{},
		Stripe:        secret("whsec_test"),
		HealthChecks:  map[string]controllers.Pinger{"database": upPinger{}},
		HTTPMetrics:   metrics.NewHTTPMetrics(reg),
		MetricsSource: reg,
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterServesStorefrontRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "banner", method: http.MethodGet, path: "/", status: http.StatusOK},
		{name: "live", method: http.MethodGet, path: "/health/live", status: http.StatusOK},
		{name: "ready", method: http.MethodGet, path: "/health/ready", status: http.StatusOK},
		{name: "create session", method: http.MethodPost, path: "/create-checkout-session", body: `{"items":[{"id":"p1","name":"Tee","price":100,"quantity":1}]}`, status: http.StatusOK},
		{name: "session details", method: http.MethodGet, path: "/checkout-session/cs_test_1", status: http.StatusOK},
		{name: "unsigned webhook", method: http.MethodPost, path: "/webhook", body: `{}`, status: http.StatusBadRequest},
		{name: "unknown route", method: http.MethodGet, path: "/orders", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := serve(router, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
		})
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/create-checkout-session", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(router, req)

	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouterExposesMetrics(t *testing.T) {
	router := newTestRouter(t)
	serve(router, httptest.NewRequest(http.MethodGet, "/checkout-session/cs_test_9", nil))

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `route="/checkout-session/{sessionId}"`)
}
