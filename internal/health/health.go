// internal/health/health.go
package health

import (
	"context"
	"net/http"

	"github.com/roostergrin/image-picker/internal/httputil"
)

// Check is a single health probe. It returns nil when the dependency is
// healthy. The context is derived from the incoming request.
type Check func(ctx context.Context) error

// Response is the JSON body returned by the health handler.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler runs the given checks on each request. With no checks it is a
// plain liveness probe returning {"status":"ok"}; with checks it returns
// 503 and per-check detail when any fail.
func Handler(checks map[string]Check) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		results := make(map[string]string, len(checks))
		anyErr := false
		for name, check := range checks {
			if check == nil {
				results[name] = "ok"
				continue
			}
			if err := check(r.Context()); err != nil {
				anyErr = true
				results[name] = "error: " + err.Error()
			} else {
				results[name] = "ok"
			}
		}

		if anyErr {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, Response{Status: "error", Checks: results})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok", Checks: results})
	})
}
