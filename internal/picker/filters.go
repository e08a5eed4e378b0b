// internal/picker/filters.go
package picker

import (
	"net/url"
	"strconv"
	"strings"
)

// SearchFilters is the server-side counterpart of the frontend search form.
// It captures the fields a user can set and knows how to turn them into the
// query string the picker route expects. Blank fields are omitted rather
// than sent empty.
type SearchFilters struct {
	// Keywords is a comma-separated list of terms, e.g. "dental,office".
	Keywords string

	// KeywordMode selects AND/OR combination of the keywords. It is only
	// sent when Keywords is non-blank; see ModeFor.
	KeywordMode string

	Category string
	Query    string
	Creator  string

	// Limit caps the number of results. Zero means "let the backend decide"
	// and is omitted from the query.
	Limit int
}

// Values encodes the filters as query parameters. keywordMode is included
// only when ModeFor selects it, so an empty search never carries a dangling
// mode flag.
func (f SearchFilters) Values() url.Values {
	v := url.Values{}

	if s := strings.TrimSpace(f.Keywords); s != "" {
		v.Set("keywords", s)
	}
	if mode, ok := ModeFor(f.Keywords, f.KeywordMode); ok && mode != "" {
		v.Set("keywordMode", mode)
	}
	if s := strings.TrimSpace(f.Category); s != "" {
		v.Set("category", s)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		v.Set("query", s)
	}
	if s := strings.TrimSpace(f.Creator); s != "" {
		v.Set("creator", s)
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}

	return v
}

// Encode returns the filters as an encoded query string, ready to append to
// the picker route URL.
func (f SearchFilters) Encode() string {
	return f.Values().Encode()
}
