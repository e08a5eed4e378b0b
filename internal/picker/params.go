// internal/picker/params.go
package picker

import (
	"net/http"
	"strings"
)

// Keyword combination modes accepted by the stock backend.
const (
	ModeAND = "AND"
	ModeOR  = "OR"
)

// Params is the set of decoded query-string parameters for a search request,
// one value per key. The picker route treats every parameter as an opaque
// string: keywords, keywordMode, limit, category, query, creator, and
// anything else the frontend sends all pass through the same way.
type Params map[string]string

// ParamsFromRequest decodes the request's query string into Params.
// When a key appears more than once, the first value wins; the image-picker
// frontend never sends repeated keys.
func ParamsFromRequest(r *http.Request) Params {
	q := r.URL.Query()
	p := make(Params, len(q))
	for key, vals := range q {
		if len(vals) > 0 {
			p[key] = vals[0]
		}
	}
	return p
}

// Forward copies p into a fresh Params for the backend request. Every
// key/value pair is carried over unchanged: nothing is dropped, renamed,
// validated, or defaulted. In particular, a missing keywordMode stays
// missing; the route never injects one.
//
// The returned map is independent of p, so callers may mutate either side
// without affecting the other. Forward is idempotent.
func Forward(p Params) Params {
	out := make(Params, len(p))
	for key, val := range p {
		out[key] = val
	}
	return out
}

// ModeFor decides whether a keyword mode should accompany a search request.
// It returns (mode, true) when keywords is non-empty after trimming, and
// ("", false) when keywords is empty or whitespace-only. The false case
// means "omit the parameter entirely", not "send an empty value".
//
// This mirrors the SearchFilters form: the AND/OR toggle only matters when
// there are keywords to combine.
func ModeFor(keywords, mode string) (string, bool) {
	if strings.TrimSpace(keywords) == "" {
		return "", false
	}
	return mode, true
}
