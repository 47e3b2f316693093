package company

import (
	"context"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/persistence"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// GraphSyncPhase pushes the persisted company into the knowledge graph
// (spec §4.9). Soft-skip, like its article counterpart.
type GraphSyncPhase struct {
	graphSync *persistence.GraphSync
}

// NewGraphSyncPhase builds the phase.
func NewGraphSyncPhase(graphSync *persistence.GraphSync) *GraphSyncPhase {
	return &GraphSyncPhase{graphSync: graphSync}
}

func (p *GraphSyncPhase) Name() string          { return "graph_sync" }
func (p *GraphSyncPhase) DependsOn() []string    { return []string{"persist"} }
func (p *GraphSyncPhase) Timeout() time.Duration { return 30 * time.Second }
func (p *GraphSyncPhase) SkipIf() string         { return "" }
func (p *GraphSyncPhase) RetryPolicy() *engine.RetryPolicy {
	return engine.NoRetryPolicy()
}

func (p *GraphSyncPhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	payload, err := getProfilePayload(state)
	if err != nil {
		return err
	}
	idAny, _ := state.GetContext(phases.KeyPersistedID)
	id, _ := idAny.(string)
	appAny, _ := state.GetContext(phases.KeyApp)
	app, _ := appAny.(string)
	slugAny, _ := state.GetContext(phases.KeySlug)
	slug, _ := slugAny.(string)

	episodeText := payload.LegalName
	for _, sec := range payload.OrderedSections() {
		episodeText += "\n\n" + sec.MarkdownContent
	}

	if err := p.graphSync.SyncCompany(ctx, id, app, slug, episodeText, nil); err != nil {
		state.AddEvent("graph_sync_failed")
		return nil // soft-skip
	}
	return nil
}
