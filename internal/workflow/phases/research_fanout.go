package phases

import (
	"context"
	"sync"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/activity"
	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
)

// researchCrawlFanout bounds how many news_search hits get crawled for
// full text in the same P2 window (spec §4.3's secondary crawl wave is
// explicitly bounded, not unlimited fan-out over every hit).
const researchCrawlFanout = 5

// perAdapterTimeout bounds each of the four P2 adapter calls
// independently (spec §4.3's phase table: "120s each"), rather than the
// phase's own Timeout() being divided up across them.
const perAdapterTimeout = 120 * time.Second

// ResearchFanoutPhase is P2: invokes news_search and deep_research
// concurrently, then crawls (a) the top news_search hits as
// crawled_news and (b) deep_research's seed URLs as
// crawled_authoritative, the two crawl batches also run concurrently
// once their inputs are ready, within the same phase window (spec
// §4.3). The join is soft: an adapter that fails after its own retries
// contributes an empty, failure-tagged SourceRecord rather than failing
// the phase.
type ResearchFanoutPhase struct {
	activities *activity.GuardedManager
	pool       *activity.Pool
	geo        string
	timeWindow string
}

// NewResearchFanoutPhase builds the P2 phase. geo/timeWindow parameterize
// the news_search query (spec leaves query construction a policy knob).
func NewResearchFanoutPhase(activities *activity.GuardedManager, crawlConcurrency int, geo, timeWindow string) *ResearchFanoutPhase {
	return &ResearchFanoutPhase{
		activities: activities,
		pool:       activity.NewPool(crawlConcurrency),
		geo:        geo,
		timeWindow: timeWindow,
	}
}

func (p *ResearchFanoutPhase) Name() string            { return "research_fanout" }
func (p *ResearchFanoutPhase) DependsOn() []string      { return []string{"normalize"} }
func (p *ResearchFanoutPhase) Timeout() time.Duration   { return 120 * time.Second }
func (p *ResearchFanoutPhase) SkipIf() string           { return "" }
func (p *ResearchFanoutPhase) RetryPolicy() *engine.RetryPolicy {
	return &engine.RetryPolicy{MaxAttempts: 1} // soft-join handles failure per-source, not via the generic retry
}

// Run executes the 4-way fan-out and writes a *domain.ResearchBundle to
// KeyResearchBundle. At least one non-empty source is required for the
// phase to succeed overall (spec §4.1 P2 "partial-ok; at least one
// non-empty bundle required").
func (p *ResearchFanoutPhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	topic, _ := state.GetContext(KeyTopic)
	topicStr, _ := topic.(string)
	breadth := 8
	if input, ok := state.GetContext(KeyArticleInput); ok {
		if ai, ok := input.(*domain.ArticleInput); ok {
			breadth = ai.ResearchBreadth
			if topicStr == "" {
				topicStr = ai.Topic
			}
		}
	}

	bundle := domain.NewResearchBundle()

	var (
		newsRec   *domain.SourceRecord
		newsItems []adapter.NewsResult
		deepRec   *domain.SourceRecord
		seeds     []string
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		newsRec, newsItems = p.fetchNewsSearch(ctx, topicStr)
	}()
	go func() {
		defer wg.Done()
		deepRec, seeds = p.fetchDeepResearch(ctx, topicStr, breadth)
	}()
	wg.Wait()

	bundle.Set(newsRec)
	bundle.Set(deepRec)

	var (
		crawledNews *domain.SourceRecord
		crawledAuth *domain.SourceRecord
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		crawledNews = p.crawlBatch(ctx, domain.SourceCrawledNews, topURLs(newsItems, researchCrawlFanout))
	}()
	go func() {
		defer wg.Done()
		crawledAuth = p.crawlBatch(ctx, domain.SourceCrawledAuthoritative, firstN(seeds, researchCrawlFanout))
	}()
	wg.Wait()

	bundle.Set(crawledNews)
	bundle.Set(crawledAuth)

	if bundle.NonEmptyCount() == 0 {
		return domain.Transient(domain.CodeEmpty, "research fan-out returned no usable sources", nil, nil)
	}

	state.SetContext(KeyResearchBundle, bundle)
	return nil
}

func (p *ResearchFanoutPhase) fetchNewsSearch(ctx context.Context, topic string) (*domain.SourceRecord, []adapter.NewsResult) {
	ctx, cancel := context.WithTimeout(ctx, perAdapterTimeout)
	defer cancel()

	start := time.Now()
	rec := &domain.SourceRecord{Kind: domain.SourceNewsSearch, RetrievedAt: start, Origin: "news_search"}

	out, err := p.activities.Invoke(ctx, "news_search", adapter.NewsSearchRequest{
		Query: topic, Geo: p.geo, TimeWindow: p.timeWindow, Limit: 20,
	})
	rec.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		rec.FailureNote = err.Error()
		return rec, nil
	}

	resp, _ := out.(adapter.NewsSearchResponse)
	rec.Items = make([]domain.ResearchItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		rec.Items = append(rec.Items, domain.ResearchItem{
			URL: r.URL, Title: r.Title, Snippet: r.Snippet, PublishedAt: r.PublishedAt, Confidence: 0.6,
		})
	}
	return rec, resp.Results
}

func (p *ResearchFanoutPhase) fetchDeepResearch(ctx context.Context, topic string, breadth int) (*domain.SourceRecord, []string) {
	ctx, cancel := context.WithTimeout(ctx, perAdapterTimeout)
	defer cancel()

	start := time.Now()
	rec := &domain.SourceRecord{Kind: domain.SourceDeepResearch, RetrievedAt: start, Origin: "deep_research"}

	out, err := p.activities.Invoke(ctx, "deep_research", adapter.DeepResearchRequest{Topic: topic, Breadth: breadth})
	rec.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		rec.FailureNote = err.Error()
		return rec, nil
	}

	resp, _ := out.(adapter.DeepResearchResponse)
	rec.Items = make([]domain.ResearchItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		item := domain.ResearchItem{URL: it.URL, Title: it.Title, Snippet: it.Snippet, Confidence: 0.75}
		if it.URL == "" {
			item.Synthetic = true
		}
		rec.Items = append(rec.Items, item)
	}
	return rec, resp.Seeds
}

func (p *ResearchFanoutPhase) crawlBatch(ctx context.Context, kind domain.SourceKind, urls []string) *domain.SourceRecord {
	ctx, cancel := context.WithTimeout(ctx, perAdapterTimeout)
	defer cancel()

	start := time.Now()
	rec := &domain.SourceRecord{Kind: kind, RetrievedAt: start, Origin: "crawler"}
	if len(urls) == 0 {
		return rec
	}

	tasks := make([]activity.Task, len(urls))
	for i, u := range urls {
		u := u
		tasks[i] = func(ctx context.Context) (any, error) {
			return p.activities.Invoke(ctx, "crawler", adapter.CrawlRequest{URL: u, Depth: 0})
		}
	}

	results := p.pool.Run(ctx, tasks)
	rec.LatencyMs = time.Since(start).Milliseconds()
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		resp, ok := r.Output.(adapter.CrawlResponse)
		if !ok {
			continue
		}
		text := resp.Text
		rec.Items = append(rec.Items, domain.ResearchItem{
			URL: resp.URL, Title: resp.Title, FullText: &text, Confidence: 0.85,
		})
	}
	if len(rec.Items) == 0 {
		rec.FailureNote = "no crawl targets succeeded"
	}
	return rec
}

func topURLs(results []adapter.NewsResult, n int) []string {
	out := make([]string, 0, n)
	for i, r := range results {
		if i >= n {
			break
		}
		if r.URL != "" {
			out = append(out, r.URL)
		}
	}
	return out
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
