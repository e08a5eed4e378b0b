// internal/middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/roostergrin/image-picker/internal/config"
)

// CORSFromConfig applies CORS behavior based on the config's CORS section.
// When EnableCORS is false it returns an identity middleware, so callers can
// apply it unconditionally and let config decide.
func CORSFromConfig(cfg *config.Config) func(next http.Handler) http.Handler {
	if cfg == nil || !cfg.CORS.EnableCORS {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORS.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORS.CORSAllowedHeaders,
		AllowCredentials: cfg.CORS.CORSAllowCredentials,
		MaxAge:           cfg.CORS.CORSMaxAge,
	})
}
