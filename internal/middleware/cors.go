package middleware

import (
	"net/http"

	"github.com/dgeemedia/cse340-backend/internal/config"

	"github.com/rs/cors"
)

// NewCORS allows credentialed requests from the configured origins so the
// identity cookie travels with cross-origin AJAX calls.
func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CorsAllowedOrigins,
		AllowedMethods:   cfg.Server.CorsAllowedMethods,
		AllowedHeaders:   cfg.Server.CorsAllowedHeaders,
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	})

	return c.Handler
}
