package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

const preflightMaxAge = 86400

// CORS applies the storefront origin policy. Origins may contain a single "*"
// wildcard, e.g. https://*.vercel.app for preview deployments.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           preflightMaxAge,
	}).Handler
}
