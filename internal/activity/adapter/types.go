// Package adapter holds the request/response contracts for every external
// capability named in the engine (search, crawl, research, LLM, image
// generation, persistence, graph, URL validation) plus the default
// implementations bound to each at startup. Contracts are validated with
// struct tags at this boundary — the one place external, untyped input
// enters typed Go, so go-playground/validator earns its keep here rather
// than at internal domain construction.
package adapter

import "time"

// NewsSearchRequest is the input to the news_search adapter.
type NewsSearchRequest struct {
	Query      string `validate:"required"`
	Geo        string
	TimeWindow string `validate:"required"`
	Limit      int    `validate:"required,min=1,max=100"`
}

// NewsResult is one search hit.
type NewsResult struct {
	URL         string `validate:"required,url"`
	Title       string `validate:"required"`
	Snippet     string
	PublishedAt *time.Time
}

// NewsSearchResponse is the news_search adapter's output.
type NewsSearchResponse struct {
	Results []NewsResult
}

// DeepResearchRequest is the input to the deep_research adapter.
type DeepResearchRequest struct {
	Topic   string `validate:"required"`
	Breadth int    `validate:"required,min=1"`
}

// ResearchItem is one synthesized finding from deep research.
type ResearchItem struct {
	Title   string
	Snippet string
	URL     string
}

// DeepResearchResponse is the deep_research adapter's output. Seeds feed a
// secondary crawl wave within the same fan-out window.
type DeepResearchResponse struct {
	Items []ResearchItem
	Seeds []string
}

// CrawlRequest is the input to the crawler adapter.
type CrawlRequest struct {
	URL   string `validate:"required,url"`
	Depth int    `validate:"min=0,max=3"`
}

// CrawlResponse is the crawler adapter's output.
type CrawlResponse struct {
	URL    string
	Title  string
	Text   string
	Images []string
}

// LLMRequest is the input to the llm_complete adapter.
type LLMRequest struct {
	Prompt    string `validate:"required"`
	Schema    map[string]any
	MaxTokens int `validate:"required,min=1"`
}

// LLMResponse is the llm_complete adapter's output. Exactly one of Text or
// Structured is populated depending on whether Schema was supplied.
type LLMResponse struct {
	Text       string
	Structured map[string]any
}

// ImageGenerateRequest is the input to the image_generate adapter.
type ImageGenerateRequest struct {
	Prompt      string `validate:"required"`
	ReferenceURL string
	Aspect      string `validate:"required,oneof=1:1 16:9 4:3 3:4"`
}

// ImageGenerateResponse is the image_generate adapter's output.
type ImageGenerateResponse struct {
	URL    string
	Width  int
	Height int
	Seed   int64
}

// StoreUpsertRequest is the input to the store_upsert adapter.
type StoreUpsertRequest struct {
	Kind    string `validate:"required,oneof=article company"`
	Slug    string `validate:"required"`
	App     string `validate:"required"`
	Payload map[string]any `validate:"required"`
}

// StoreOutcome classifies what store_upsert did.
type StoreOutcome string

const (
	StoreOutcomeCreated  StoreOutcome = "created"
	StoreOutcomeUpdated  StoreOutcome = "updated"
	StoreOutcomeConflict StoreOutcome = "conflict"
)

// StoreUpsertResponse is the store_upsert adapter's output.
type StoreUpsertResponse struct {
	ID      string
	Outcome StoreOutcome
}

// GraphUpsertRequest is the input to the graph_upsert adapter.
type GraphUpsertRequest struct {
	GraphID     string `validate:"required"`
	EpisodeText string `validate:"required"`
	Links       []string
}

// GraphUpsertResponse is the graph_upsert adapter's output.
type GraphUpsertResponse struct {
	GraphID     string
	FactsCount  int
}

// URLValidateRequest is the input to the url_validate adapter: a batch of
// URLs checked in one call.
type URLValidateRequest struct {
	URLs []string `validate:"required,min=1,dive,url"`
}

// URLStatus is the validated state of one URL.
type URLStatus struct {
	URL      string
	Status   int
	FinalURL string
}

// URLValidateResponse is the url_validate adapter's output.
type URLValidateResponse struct {
	Results []URLStatus
}
