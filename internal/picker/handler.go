// internal/picker/handler.go
package picker

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/roostergrin/image-picker/internal/cache"
	"github.com/roostergrin/image-picker/internal/httputil"
	"github.com/roostergrin/image-picker/internal/metrics"
	"github.com/roostergrin/image-picker/internal/stock"
)

// Handler serves the image search route. It is a thin passthrough: the
// incoming query parameters are forwarded to the stock backend verbatim and
// the backend's result is returned to the caller, with an optional
// read-through cache in between.
type Handler struct {
	Stock  *stock.Client
	Cache  cache.Cache
	TTL    time.Duration
	Logger *zap.Logger
}

// NewHandler wires a search handler. c may be nil or ttl zero to disable
// caching.
func NewHandler(stockClient *stock.Client, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Stock: stockClient, Cache: c, TTL: ttl, Logger: logger}
}

// Search handles GET /api/images/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := ParamsFromRequest(r)
	forwarded := Forward(params)

	useCache := h.Cache != nil && h.TTL > 0
	key := cacheKey(forwarded)

	if useCache {
		result, err := cache.GetJSON[*stock.SearchResult](ctx, h.Cache, key)
		if err == nil {
			metrics.CacheHit()
			httputil.WriteJSON(w, http.StatusOK, result)
			return
		}
		if !errors.Is(err, cache.ErrNotFound) {
			h.Logger.Warn("search cache read failed", zap.Error(err))
		}
		metrics.CacheMiss()
	}

	result, err := h.Stock.Search(ctx, map[string]string(forwarded))
	if err != nil {
		h.Logger.Error("backend search failed",
			zap.Error(err),
			zap.String("keywords", params["keywords"]),
			zap.String("keyword_mode", params["keywordMode"]),
		)
		httputil.JSONError(w, http.StatusBadGateway,
			"backend_unavailable",
			"The image search backend could not be reached",
		)
		return
	}

	if useCache {
		if err := cache.SetJSON(ctx, h.Cache, key, result, h.TTL); err != nil {
			h.Logger.Warn("search cache write failed", zap.Error(err))
		}
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// cacheKey is the canonical encoding of the forwarded parameters.
// url.Values.Encode sorts by key, so requests that differ only in parameter
// order share an entry.
func cacheKey(p Params) string {
	v := make(url.Values, len(p))
	for key, val := range p {
		v.Set(key, val)
	}
	return "search:" + v.Encode()
}
