package adapter

import (
	"context"
	"time"
)

// NewsSearchAdapter queries a vendor news-search API for recent coverage
// of a topic or entity (spec §6 news_search contract).
type NewsSearchAdapter struct {
	http *httpClient
}

// NewNewsSearchAdapter builds a NewsSearchAdapter against baseURL.
func NewNewsSearchAdapter(baseURL string) *NewsSearchAdapter {
	return &NewsSearchAdapter{http: newHTTPClient(baseURL, 20*time.Second)}
}

type newsSearchWireRequest struct {
	Query      string `json:"query"`
	Geo        string `json:"geo,omitempty"`
	TimeWindow string `json:"time_window"`
	Limit      int    `json:"limit"`
}

type newsSearchWireResult struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Snippet     string     `json:"snippet"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type newsSearchWireResponse struct {
	Results []newsSearchWireResult `json:"results"`
}

// Search executes one news_search call.
func (a *NewsSearchAdapter) Search(ctx context.Context, req NewsSearchRequest) (NewsSearchResponse, error) {
	var wire newsSearchWireResponse
	err := a.http.postJSON(ctx, "/v1/search", newsSearchWireRequest{
		Query:      req.Query,
		Geo:        req.Geo,
		TimeWindow: req.TimeWindow,
		Limit:      req.Limit,
	}, &wire)
	if err != nil {
		return NewsSearchResponse{}, err
	}

	results := make([]NewsResult, len(wire.Results))
	for i, r := range wire.Results {
		results[i] = NewsResult{URL: r.URL, Title: r.Title, Snippet: r.Snippet, PublishedAt: r.PublishedAt}
	}
	return NewsSearchResponse{Results: results}, nil
}
