package stock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func okResult(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SearchResult{
		Images: []Image{{ID: "img-1", URL: "https://img.example/1.jpg"}},
		Total:  1,
	})
}

func TestSearchURL(t *testing.T) {
	tests := []struct {
		name       string
		baseURL    string
		searchPath string
		params     map[string]string
		wantPath   string
		wantQuery  url.Values
	}{
		{
			name:      "default search path",
			baseURL:   "http://backend:9200",
			params:    map[string]string{"keywords": "dental,office", "keywordMode": "OR"},
			wantPath:  "/search",
			wantQuery: url.Values{"keywords": {"dental,office"}, "keywordMode": {"OR"}},
		},
		{
			name:       "custom path under base prefix",
			baseURL:    "http://backend:9200/v2/",
			searchPath: "/images/search",
			params:     map[string]string{"limit": "5"},
			wantPath:   "/v2/images/search",
			wantQuery:  url.Values{"limit": {"5"}},
		},
		{
			name:      "no params",
			baseURL:   "http://backend:9200",
			params:    nil,
			wantPath:  "/search",
			wantQuery: url.Values{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(Config{BaseURL: tt.baseURL, SearchPath: tt.searchPath})
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}

			u, err := url.Parse(c.SearchURL(tt.params))
			if err != nil {
				t.Fatalf("parse built URL: %v", err)
			}
			if u.Path != tt.wantPath {
				t.Errorf("path = %q, want %q", u.Path, tt.wantPath)
			}
			got := u.Query()
			if len(got) != len(tt.wantQuery) {
				t.Errorf("query = %v, want %v", got, tt.wantQuery)
			}
			for key := range tt.wantQuery {
				if got.Get(key) != tt.wantQuery.Get(key) {
					t.Errorf("query[%s] = %q, want %q", key, got.Get(key), tt.wantQuery.Get(key))
				}
			}
		})
	}
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{"empty", ""},
		{"no scheme", "backend:9200"},
		{"bad scheme", "ftp://backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(Config{BaseURL: tt.baseURL}); err == nil {
				t.Errorf("NewClient(%q) succeeded, want error", tt.baseURL)
			}
		})
	}
}

func TestSearch_SendsAPIKey(t *testing.T) {
	var gotKey atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get("X-Api-Key"))
		okResult(w)
	}))
	defer ts.Close()

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "secret-key"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Search(context.Background(), map[string]string{"keywords": "dental"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := gotKey.Load().(string); got != "secret-key" {
		t.Errorf("X-Api-Key = %q, want %q", got, "secret-key")
	}
}

func TestSearch_NoAPIKeyHeaderWhenUnset(t *testing.T) {
	var hadHeader atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Header["X-Api-Key"]
		hadHeader.Store(ok)
		okResult(w)
	}))
	defer ts.Close()

	c, err := NewClient(Config{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Search(context.Background(), nil); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hadHeader.Load() {
		t.Error("X-Api-Key header sent despite no key configured")
	}
}

func TestSearch_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		okResult(w)
	}))
	defer ts.Close()

	c, err := NewClient(Config{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	result, err := c.Search(context.Background(), map[string]string{"keywords": "dental"})
	if err != nil {
		t.Fatalf("Search after retries: %v", err)
	}
	if result.Total != 1 {
		t.Errorf("total = %d, want 1", result.Total)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("backend hits = %d, want 3", n)
	}
}

func TestSearch_NoRetryOnClientError(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	c, err := NewClient(Config{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.Search(context.Background(), nil)
	if err == nil {
		t.Fatal("Search succeeded, want error")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error = %v, want mention of status 400", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("backend hits = %d, want 1 (4xx must not be retried)", n)
	}
}

func TestSearch_PropagatesRequestID(t *testing.T) {
	var gotID atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID.Store(r.Header.Get("X-Request-ID"))
		okResult(w)
	}))
	defer ts.Close()

	c, err := NewClient(Config{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx := context.WithValue(context.Background(), chimw.RequestIDKey, "req-test-1")
	if _, err := c.Search(ctx, nil); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := gotID.Load().(string); got != "req-test-1" {
		t.Errorf("X-Request-ID = %q, want %q", got, "req-test-1")
	}
}
