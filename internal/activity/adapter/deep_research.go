package adapter

import (
	"context"
	"time"
)

// DeepResearchAdapter queries a vendor deep-research API that returns
// synthesized findings plus candidate seed URLs for a secondary crawl
// wave (spec §5 P2, §6 deep_research contract).
type DeepResearchAdapter struct {
	http *httpClient
}

// NewDeepResearchAdapter builds a DeepResearchAdapter against baseURL.
func NewDeepResearchAdapter(baseURL string) *DeepResearchAdapter {
	return &DeepResearchAdapter{http: newHTTPClient(baseURL, 60*time.Second)}
}

type deepResearchWireRequest struct {
	Topic   string `json:"topic"`
	Breadth int    `json:"breadth"`
}

type deepResearchWireItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

type deepResearchWireResponse struct {
	Items []deepResearchWireItem `json:"items"`
	Seeds []string               `json:"seeds"`
}

// Research executes one deep_research call.
func (a *DeepResearchAdapter) Research(ctx context.Context, req DeepResearchRequest) (DeepResearchResponse, error) {
	var wire deepResearchWireResponse
	err := a.http.postJSON(ctx, "/v1/research", deepResearchWireRequest{
		Topic:   req.Topic,
		Breadth: req.Breadth,
	}, &wire)
	if err != nil {
		return DeepResearchResponse{}, err
	}

	items := make([]ResearchItem, len(wire.Items))
	for i, it := range wire.Items {
		items[i] = ResearchItem{Title: it.Title, Snippet: it.Snippet, URL: it.URL}
	}
	return DeepResearchResponse{Items: items, Seeds: wire.Seeds}, nil
}
