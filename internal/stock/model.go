// internal/stock/model.go
package stock

// Image is a single result from the stock image backend.
type Image struct {
	ID           string   `json:"id"`
	Title        string   `json:"title,omitempty"`
	URL          string   `json:"url"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Creator      string   `json:"creator,omitempty"`
	Category     string   `json:"category,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
}

// SearchResult is the backend's response to a search request.
type SearchResult struct {
	Images []Image `json:"images"`
	Total  int     `json:"total"`
}
