package phases

import (
	"context"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/activity"
	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
)

// GraphContextPhase is P3: reads whatever the knowledge graph already
// knows under this run's derived graph_id, and folds it into the
// research bundle as the graph_context source kind (spec §3, §4.1 "P3
// soft-skip"). Failure never fails the phase — it just leaves
// graph_context empty. The read runs whether or not `skip_graph_sync`
// is set; that flag only short-circuits the graph-sync phase.
type GraphContextPhase struct {
	graph *adapter.GraphUpsertAdapter
}

// NewGraphContextPhase builds the P3 phase over graph.
func NewGraphContextPhase(graph *adapter.GraphUpsertAdapter) *GraphContextPhase {
	return &GraphContextPhase{graph: graph}
}

func (p *GraphContextPhase) Name() string          { return "graph_context" }
func (p *GraphContextPhase) DependsOn() []string    { return []string{"research_fanout"} }
func (p *GraphContextPhase) Timeout() time.Duration { return 10 * time.Second }
func (p *GraphContextPhase) SkipIf() string         { return "" }
func (p *GraphContextPhase) RetryPolicy() *engine.RetryPolicy {
	return engine.NoRetryPolicy()
}

func (p *GraphContextPhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	graphIDAny, ok := state.GetContext(KeyGraphID)
	graphID, _ := graphIDAny.(string)
	if !ok || graphID == "" {
		return nil // no graph_id in context (normalize has not run); nothing to read
	}

	start := time.Now()
	rec := &domain.SourceRecord{Kind: domain.SourceGraphContext, RetrievedAt: start, Origin: "graph_context"}

	resp, err := p.graph.FetchContext(ctx, adapter.GraphContextRequest{GraphID: graphID})
	rec.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		rec.FailureNote = err.Error()
	} else {
		for _, it := range resp.Items {
			rec.Items = append(rec.Items, domain.ResearchItem{
				Title: it.Summary, Snippet: it.Summary, Confidence: 0.5,
			})
		}
	}

	if bundleAny, ok := state.GetContext(KeyResearchBundle); ok {
		if bundle, ok := bundleAny.(*domain.ResearchBundle); ok {
			bundle.Set(rec)
		}
	}
	state.SetContext(KeyGraphContext, rec)
	return nil
}
