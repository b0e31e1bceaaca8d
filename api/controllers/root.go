package controllers

import (
	"net/http"

	"github.com/angelmondragon/checkout-bridge/api/responses"
	"github.com/angelmondragon/checkout-bridge/pkg/config"
)

type banner struct {
	Service     string   `json:"service"`
	Status      string   `json:"status"`
	Environment string   `json:"environment"`
	Endpoints   []string `json:"endpoints"`
}

// Root is the discovery banner served at GET /.
func Root(cfg *config.Config) http.HandlerFunc {
	payload := banner{
		Service:     config.ServiceName,
		Status:      "ok",
		Environment: cfg.App.Env,
		Endpoints: []string{
			"POST /create-checkout-session",
			"GET /checkout-session/:sessionId",
			"POST /webhook",
			"GET /health/live",
			"GET /health/ready",
			"GET /metrics",
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, payload)
	}
}
