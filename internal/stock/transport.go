// internal/stock/transport.go
package stock

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// requestIDHeader is the header used to propagate the inbound request ID to
// the backend so a search can be traced across both services.
const requestIDHeader = "X-Request-ID"

// retryStatus reports whether a backend status code is worth retrying.
// 429 and the transient 5xx family; 501/505-style permanent errors are not
// in the set.
func retryStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// transport wraps the base RoundTripper with request-ID propagation and
// bounded retries for GET requests. Only bodyless requests are retried; the
// client issues nothing else against the backend.
type transport struct {
	base        http.RoundTripper
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func newTransport(base http.RoundTripper) *transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{
		base:        base,
		maxAttempts: 3,
		baseDelay:   200 * time.Millisecond,
		maxDelay:    5 * time.Second,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(requestIDHeader) == "" {
		if id := chimw.GetReqID(req.Context()); id != "" {
			req = req.Clone(req.Context())
			req.Header.Set(requestIDHeader, id)
		}
	}

	// Non-GET or bodied requests go straight through.
	if req.Method != http.MethodGet || req.Body != nil {
		return t.base.RoundTrip(req)
	}

	var (
		resp *http.Response
		err  error
	)
	for attempt := 1; ; attempt++ {
		resp, err = t.base.RoundTrip(req)

		retry := false
		if err != nil {
			retry = true
		} else if retryStatus(resp.StatusCode) {
			retry = true
		}

		if !retry || attempt >= t.maxAttempts {
			return resp, err
		}

		delay := t.delayFor(attempt, resp)
		if resp != nil {
			resp.Body.Close()
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}
	}
}

// delayFor returns the wait before the next attempt: doubling backoff from
// baseDelay, capped at maxDelay, with Retry-After honored when the backend
// sends one.
func (t *transport) delayFor(attempt int, resp *http.Response) time.Duration {
	delay := t.baseDelay << (attempt - 1)
	if delay > t.maxDelay {
		delay = t.maxDelay
	}

	if resp != nil {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				d := time.Duration(secs) * time.Second
				if d > t.maxDelay {
					d = t.maxDelay
				}
				return d
			}
		}
	}
	return delay
}
