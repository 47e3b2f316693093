package domain

import "time"

// SourceKind identifies one of the five research bundle sources (spec §3).
type SourceKind string

const (
	SourceNewsSearch          SourceKind = "news_search"
	SourceDeepResearch        SourceKind = "deep_research"
	SourceCrawledNews         SourceKind = "crawled_news"
	SourceCrawledAuthoritative SourceKind = "crawled_authoritative"
	SourceGraphContext        SourceKind = "graph_context"
)

// ResearchItem is one retrieved piece of evidence.
type ResearchItem struct {
	URL         string
	Title       string
	Snippet     string
	FullText    *string
	PublishedAt *time.Time
	Confidence  float64 // [0,1]
	Synthetic   bool    // true when URL is absent; excluded from validation
}

// SourceRecord is a per-source-kind record in the ResearchBundle,
// carrying retrieval provenance per the spec §3 invariant that "every
// bundle carries the provenance of every item".
type SourceRecord struct {
	Kind         SourceKind
	RetrievedAt  time.Time
	Origin       string // adapter/origin identifier
	Items        []ResearchItem
	CostUSD      float64
	LatencyMs    int64
	FailureNote  string // set when Items is empty due to adapter failure
}

// NonEmpty reports whether this source contributed usable evidence.
func (s *SourceRecord) NonEmpty() bool { return len(s.Items) > 0 }

// ResearchBundle aggregates all source records gathered for one workflow
// run (spec §3, §4.3). It is built incrementally by the research fan-out
// phase and is immutable once P2 (or P2') completes.
type ResearchBundle struct {
	Records map[SourceKind]*SourceRecord
}

// NewResearchBundle returns an empty bundle with all five source slots
// pre-populated as empty (but present) records, so downstream readers
// never have to nil-check a missing kind.
func NewResearchBundle() *ResearchBundle {
	b := &ResearchBundle{Records: make(map[SourceKind]*SourceRecord)}
	for _, k := range []SourceKind{SourceNewsSearch, SourceDeepResearch, SourceCrawledNews, SourceCrawledAuthoritative, SourceGraphContext} {
		b.Records[k] = &SourceRecord{Kind: k}
	}
	return b
}

// Set installs (or replaces) the record for one source kind.
func (b *ResearchBundle) Set(rec *SourceRecord) { b.Records[rec.Kind] = rec }

// Get returns the record for one source kind.
func (b *ResearchBundle) Get(kind SourceKind) *SourceRecord { return b.Records[kind] }

// AllItems returns every item across every source record, tagged with
// its owning SourceKind, for uses that don't care about provenance
// grouping (entity extraction, validation).
func (b *ResearchBundle) AllItems() []struct {
	Kind SourceKind
	Item ResearchItem
} {
	var out []struct {
		Kind SourceKind
		Item ResearchItem
	}
	for kind, rec := range b.Records {
		for _, item := range rec.Items {
			out = append(out, struct {
				Kind SourceKind
				Item ResearchItem
			}{Kind: kind, Item: item})
		}
	}
	return out
}

// NonEmptyCount counts how many source records contributed at least one item.
func (b *ResearchBundle) NonEmptyCount() int {
	n := 0
	for _, rec := range b.Records {
		if rec.NonEmpty() {
			n++
		}
	}
	return n
}

// DedupeByURL applies the tie-break rule from spec §4.3: when multiple
// sources return the same URL, prefer highest confidence, then
// non-empty full_text, then earliest retrieved_at. Returns a flat,
// deduplicated item list with provenance discarded (used once fan-out
// is complete and downstream phases only need "the best view of each
// URL").
func (b *ResearchBundle) DedupeByURL() []ResearchItem {
	type candidate struct {
		item        ResearchItem
		retrievedAt time.Time
	}
	best := make(map[string]candidate)

	for kind, rec := range b.Records {
		_ = kind
		for _, item := range rec.Items {
			if item.URL == "" {
				continue
			}
			cur, ok := best[item.URL]
			if !ok {
				best[item.URL] = candidate{item: item, retrievedAt: rec.RetrievedAt}
				continue
			}
			if item.Confidence > cur.item.Confidence {
				best[item.URL] = candidate{item: item, retrievedAt: rec.RetrievedAt}
				continue
			}
			if item.Confidence == cur.item.Confidence {
				curHasText := cur.item.FullText != nil && *cur.item.FullText != ""
				newHasText := item.FullText != nil && *item.FullText != ""
				if newHasText && !curHasText {
					best[item.URL] = candidate{item: item, retrievedAt: rec.RetrievedAt}
					continue
				}
				if newHasText == curHasText && rec.RetrievedAt.Before(cur.retrievedAt) {
					best[item.URL] = candidate{item: item, retrievedAt: rec.RetrievedAt}
				}
			}
		}
	}

	out := make([]ResearchItem, 0, len(best))
	for _, c := range best {
		out = append(out, c.item)
	}
	return out
}
