package article

import (
	"context"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/persistence"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// GraphSyncPhase is P11: pushes the persisted article into the knowledge
// graph as an episode (spec §4.1 P11, §4.9). Soft-skip — a graph outage
// never blocks the article from being usable.
type GraphSyncPhase struct {
	graphSync *persistence.GraphSync
	input     *domain.ArticleInput
}

// NewGraphSyncPhase builds the P11 phase. input is read once at
// construction to evaluate the skip-graph-sync flag without a context
// lookup inside SkipIf (the engine evaluates SkipIf as an expression
// string, not a closure, so the flag is captured here instead).
func NewGraphSyncPhase(graphSync *persistence.GraphSync, input *domain.ArticleInput) *GraphSyncPhase {
	return &GraphSyncPhase{graphSync: graphSync, input: input}
}

func (p *GraphSyncPhase) Name() string          { return "graph_sync" }
func (p *GraphSyncPhase) DependsOn() []string    { return []string{"persist"} }
func (p *GraphSyncPhase) Timeout() time.Duration { return 30 * time.Second }
func (p *GraphSyncPhase) SkipIf() string         { return "" }
func (p *GraphSyncPhase) RetryPolicy() *engine.RetryPolicy {
	return engine.NoRetryPolicy()
}

func (p *GraphSyncPhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	if p.input.Flags.SkipGraphSync {
		return nil
	}

	payload, err := getArticlePayload(state)
	if err != nil {
		return err
	}
	idAny, _ := state.GetContext(phases.KeyPersistedID)
	id, _ := idAny.(string)
	appAny, _ := state.GetContext(phases.KeyApp)
	app, _ := appAny.(string)
	slugAny, _ := state.GetContext(phases.KeySlug)
	slug, _ := slugAny.(string)

	links := extractBodyLinks(state)
	if err := p.graphSync.SyncArticle(ctx, id, app, slug, payload.MarkdownBody, links); err != nil {
		state.AddEvent("graph_sync_failed")
		return nil // soft-skip, spec §4.1 P11
	}
	return nil
}
