package picker

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/roostergrin/image-picker/internal/cache"
	"github.com/roostergrin/image-picker/internal/stock"
)

// newBackend starts a fake stock backend that records the query of the last
// request and returns a fixed result.
func newBackend(t *testing.T, hits *atomic.Int32, lastQuery *atomic.Value) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		lastQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stock.SearchResult{
			Images: []stock.Image{{ID: "img-1", URL: "https://img.example/1.jpg", Creator: "Adobe"}},
			Total:  1,
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestHandler(t *testing.T, backendURL string, c cache.Cache, ttl time.Duration) *Handler {
	t.Helper()
	client, err := stock.NewClient(stock.Config{BaseURL: backendURL})
	if err != nil {
		t.Fatalf("stock.NewClient: %v", err)
	}
	return NewHandler(client, c, ttl, nil)
}

func TestSearch_ForwardsAllParams(t *testing.T) {
	var hits atomic.Int32
	var lastQuery atomic.Value
	ts := newBackend(t, &hits, &lastQuery)
	h := newTestHandler(t, ts.URL, nil, 0)

	req := httptest.NewRequest(http.MethodGet,
		"/api/images/search?keywords=test%2Ckeywords&keywordMode=AND&category=healthcare&query=office+space&creator=Adobe&limit=10", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	q := lastQuery.Load().(url.Values)
	want := map[string]string{
		"keywords":    "test,keywords",
		"keywordMode": "AND",
		"category":    "healthcare",
		"query":       "office space",
		"creator":     "Adobe",
		"limit":       "10",
	}
	for key, val := range want {
		if got := q.Get(key); got != val {
			t.Errorf("backend saw %s = %q, want %q", key, got, val)
		}
	}
	if len(q) != len(want) {
		t.Errorf("backend saw %d params, want %d: %v", len(q), len(want), q)
	}
}

func TestSearch_ForwardsKeywordMode(t *testing.T) {
	for _, mode := range []string{ModeOR, ModeAND} {
		t.Run(mode, func(t *testing.T) {
			var hits atomic.Int32
			var lastQuery atomic.Value
			ts := newBackend(t, &hits, &lastQuery)
			h := newTestHandler(t, ts.URL, nil, 0)

			req := httptest.NewRequest(http.MethodGet,
				"/api/images/search?keywords=dental%2Coffice&keywordMode="+mode+"&limit=5", nil)
			rec := httptest.NewRecorder()
			h.Search(rec, req)

			q := lastQuery.Load().(url.Values)
			if got := q.Get("keywordMode"); got != mode {
				t.Errorf("backend saw keywordMode = %q, want %q", got, mode)
			}
		})
	}
}

func TestSearch_OmitsAbsentKeywordMode(t *testing.T) {
	var hits atomic.Int32
	var lastQuery atomic.Value
	ts := newBackend(t, &hits, &lastQuery)
	h := newTestHandler(t, ts.URL, nil, 0)

	req := httptest.NewRequest(http.MethodGet,
		"/api/images/search?keywords=dental%2Coffice&limit=5", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	q := lastQuery.Load().(url.Values)
	if _, ok := q["keywordMode"]; ok {
		t.Errorf("backend saw keywordMode = %q, want absent", q.Get("keywordMode"))
	}
	if got := q.Get("keywords"); got != "dental,office" {
		t.Errorf("backend saw keywords = %q, want %q", got, "dental,office")
	}
}

func TestSearch_ReturnsBackendResult(t *testing.T) {
	var hits atomic.Int32
	var lastQuery atomic.Value
	ts := newBackend(t, &hits, &lastQuery)
	h := newTestHandler(t, ts.URL, nil, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/images/search?keywords=dental", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	var result stock.SearchResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Total != 1 || len(result.Images) != 1 || result.Images[0].ID != "img-1" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestSearch_BackendFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusNotFound)
	}))
	defer ts.Close()
	h := newTestHandler(t, ts.URL, nil, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/images/search?keywords=dental", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error != "backend_unavailable" {
		t.Errorf("error code = %q, want %q", body.Error, "backend_unavailable")
	}
}

func TestSearch_CachesResults(t *testing.T) {
	var hits atomic.Int32
	var lastQuery atomic.Value
	ts := newBackend(t, &hits, &lastQuery)

	mem := cache.NewMemory(0)
	defer mem.Close()
	h := newTestHandler(t, ts.URL, mem, time.Minute)

	// Same search, different parameter order: one backend hit.
	urls := []string{
		"/api/images/search?keywords=dental&keywordMode=OR&limit=5",
		"/api/images/search?limit=5&keywordMode=OR&keywords=dental",
	}
	for _, u := range urls {
		req := httptest.NewRequest(http.MethodGet, u, nil)
		rec := httptest.NewRecorder()
		h.Search(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	}

	if n := hits.Load(); n != 1 {
		t.Errorf("backend hits = %d, want 1", n)
	}

	// A different search misses the cache.
	req := httptest.NewRequest(http.MethodGet, "/api/images/search?keywords=office", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)
	if n := hits.Load(); n != 2 {
		t.Errorf("backend hits = %d, want 2", n)
	}
}
