// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// reqDuration is a histogram of HTTP request durations in seconds, labeled
// by route pattern, method, and status code.
var reqDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: []float64{0.01, 0.1, 0.3, 1.2, 5},
	},
	[]string{"path", "method", "status"},
)

// backendRequests counts requests to the stock image backend by outcome
// ("2xx", "4xx", "5xx", "error").
var backendRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stock_backend_requests_total",
		Help: "Requests made to the stock image backend.",
	},
	[]string{"outcome"},
)

// cacheLookups counts search cache lookups by result ("hit", "miss").
var cacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "search_cache_lookups_total",
		Help: "Search result cache lookups.",
	},
	[]string{"result"},
)

// RegisterDefault registers the Go runtime and process collectors plus the
// picker's own metrics. Call once at startup; re-registration is tolerated
// so tests can call through the full startup path.
func RegisterDefault(logger *zap.Logger) {
	mustRegister(logger, "Go collector", collectors.NewGoCollector())
	mustRegister(logger, "process collector", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mustRegister(logger, "HTTP request histogram", reqDuration)
	mustRegister(logger, "backend request counter", backendRequests)
	mustRegister(logger, "cache lookup counter", cacheLookups)
}

func mustRegister(logger *zap.Logger, name string, c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return
		}
		if logger != nil {
			logger.Fatal("failed to register "+name, zap.Error(err))
		} else {
			panic("metrics: failed to register " + name + ": " + err.Error())
		}
	}
}

// BackendRequest records one backend request with the given outcome label.
func BackendRequest(outcome string) {
	backendRequests.WithLabelValues(outcome).Inc()
}

// CacheHit records a search cache hit.
func CacheHit() { cacheLookups.WithLabelValues("hit").Inc() }

// CacheMiss records a search cache miss.
func CacheMiss() { cacheLookups.WithLabelValues("miss").Inc() }

// Handler returns the Prometheus scrape handler for mounting at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMetrics records request duration into the http_request_duration_seconds
// histogram. It labels by the chi route pattern (e.g. "/api/images/search")
// rather than the raw path to keep label cardinality bounded.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		protoMajor := r.ProtoMajor
		if protoMajor < 1 {
			protoMajor = 1
		}
		ww := chimw.NewWrapResponseWriter(w, protoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		reqDuration.WithLabelValues(
			path,
			r.Method,
			strconv.Itoa(ww.Status()),
		).Observe(time.Since(start).Seconds())
	})
}
