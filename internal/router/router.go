// internal/router/router.go
package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/roostergrin/image-picker/internal/config"
	"github.com/roostergrin/image-picker/internal/logging"
	"github.com/roostergrin/image-picker/internal/metrics"
	"github.com/roostergrin/image-picker/internal/middleware"
)

// New creates a chi.Router pre-wired with the service's standard middleware
// stack: request ID, real IP, panic recovery, body size limit, CORS, HTTP
// metrics, request logging, and JSON NotFound/MethodNotAllowed handlers.
// Routes are mounted by the caller.
func New(cfg *config.Config, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))

	r.Use(middleware.LimitBodySize(cfg.MaxRequestBodyBytes))
	r.Use(middleware.CORSFromConfig(cfg))

	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
