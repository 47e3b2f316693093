package adapter

import (
	"context"
	"time"
)

// GraphUpsertAdapter posts a bounded summary episode to the knowledge
// graph keyed by a stable graph_id (spec §4.9, §6 graph_upsert contract).
// Soft-skippable by the caller (ClassDependency) — this adapter itself
// just reports success or failure of the call.
type GraphUpsertAdapter struct {
	http *httpClient
}

// NewGraphUpsertAdapter builds a GraphUpsertAdapter against baseURL.
func NewGraphUpsertAdapter(baseURL string) *GraphUpsertAdapter {
	return &GraphUpsertAdapter{http: newHTTPClient(baseURL, 15*time.Second)}
}

// MaxEpisodeChars bounds the episode_text payload (spec §4.9 "summaries
// are bounded to <= 10,000 chars").
const MaxEpisodeChars = 10_000

type graphUpsertWireRequest struct {
	GraphID     string   `json:"graph_id"`
	EpisodeText string   `json:"episode_text"`
	Links       []string `json:"links,omitempty"`
}

type graphUpsertWireResponse struct {
	GraphID    string `json:"graph_id"`
	FactsCount int    `json:"facts_count"`
}

// GraphContextRequest is the input to the graph_context read used by P3
// (spec §4.2's "graph context" source kind) — fetches whatever episodes
// already exist under a graph_id before synthesis runs, so the
// synthesizer can build on prior knowledge rather than start cold.
type GraphContextRequest struct {
	GraphID string `validate:"required"`
}

// GraphContextItem is one prior episode or fact returned for a graph_id.
type GraphContextItem struct {
	Summary     string
	SourceURLs  []string
	RecordedAt  string
}

// GraphContextResponse is the graph_context read's output.
type GraphContextResponse struct {
	Items []GraphContextItem
}

type graphContextWireResponse struct {
	Items []struct {
		Summary    string   `json:"summary"`
		SourceURLs []string `json:"source_urls,omitempty"`
		RecordedAt string   `json:"recorded_at,omitempty"`
	} `json:"items"`
}

// FetchContext reads whatever the graph already knows about graphID. A
// read failure is soft-skippable by the caller (spec §4.1 P3 "soft-skip")
// — this method just reports what happened.
func (a *GraphUpsertAdapter) FetchContext(ctx context.Context, req GraphContextRequest) (GraphContextResponse, error) {
	var wire graphContextWireResponse
	if err := a.http.getJSON(ctx, "/v1/episodes?graph_id="+req.GraphID, &wire); err != nil {
		return GraphContextResponse{}, err
	}

	items := make([]GraphContextItem, len(wire.Items))
	for i, it := range wire.Items {
		items[i] = GraphContextItem{Summary: it.Summary, SourceURLs: it.SourceURLs, RecordedAt: it.RecordedAt}
	}
	return GraphContextResponse{Items: items}, nil
}

// Upsert posts one summary episode.
func (a *GraphUpsertAdapter) Upsert(ctx context.Context, req GraphUpsertRequest) (GraphUpsertResponse, error) {
	episode := req.EpisodeText
	if len(episode) > MaxEpisodeChars {
		episode = episode[:MaxEpisodeChars]
	}

	var wire graphUpsertWireResponse
	err := a.http.postJSON(ctx, "/v1/episodes", graphUpsertWireRequest{
		GraphID:     req.GraphID,
		EpisodeText: episode,
		Links:       req.Links,
	}, &wire)
	if err != nil {
		return GraphUpsertResponse{}, err
	}

	return GraphUpsertResponse{GraphID: wire.GraphID, FactsCount: wire.FactsCount}, nil
}
