// Package phases holds the workflow-shaped building blocks shared by both
// pipeline variants: a small Phase builder over the engine's interface,
// and the fan-out/context/validation phases whose logic doesn't differ
// between the article and company pipelines (spec §2, §4.2, §4.3, §4.9).
package phases

// Context keys name the well-known slots of engine.ExecutionState's
// accumulating context (spec §4.1 "state flows as an accumulating
// context object"). Both internal/workflow/article and
// internal/workflow/company read and write these same keys so the shared
// phases in this package work for either pipeline.
const (
	KeyApp             = "app"
	KeySlug            = "slug"
	KeyTopic           = "topic"
	KeyArticleInput    = "article_input"
	KeyCompanyInput    = "company_input"
	KeyResearchBundle  = "research_bundle"
	KeyGraphID         = "graph_id"
	KeyGraphContext    = "graph_context"
	KeyArticlePayload  = "article_payload"
	KeyProfilePayload  = "profile_payload"
	KeyValidatedLinks  = "validated_links"
	KeySentiments      = "section_sentiments"
	KeyImages          = "image_bundle"
	KeyEntities        = "mentioned_companies"
	KeyAmbiguity       = "ambiguity_signals"
	KeyExistingID      = "existing_id"
	KeyPersistedID     = "persisted_id"
	KeyPersistOutcome  = "persist_outcome"
	KeyReresearchCount = "reresearch_count"
	KeyCanonicalURL    = "canonical_url"
)
