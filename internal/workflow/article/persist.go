package article

import (
	"context"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/persistence"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// PersistPhase is P10: commits the finished payload via the persistence
// coordinator's idempotent upsert (spec §4.1 P10, §4.2, §4.8). Fatal —
// a failure here has no cheaper fallback than surfacing to the caller,
// and the executor runs registered compensations for any already-
// completed phase once this one fails.
type PersistPhase struct {
	coordinator *persistence.Coordinator
}

// NewPersistPhase builds the P10 phase.
func NewPersistPhase(coordinator *persistence.Coordinator) *PersistPhase {
	return &PersistPhase{coordinator: coordinator}
}

func (p *PersistPhase) Name() string          { return "persist" }
func (p *PersistPhase) DependsOn() []string    { return []string{"completeness_gate"} }
func (p *PersistPhase) Timeout() time.Duration { return 30 * time.Second }
func (p *PersistPhase) SkipIf() string         { return "" }
func (p *PersistPhase) RetryPolicy() *engine.RetryPolicy {
	return engine.DefaultRetryPolicy()
}

func (p *PersistPhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	payload, err := getArticlePayload(state)
	if err != nil {
		return err
	}
	appAny, _ := state.GetContext(phases.KeyApp)
	app, _ := appAny.(string)

	result, err := p.coordinator.UpsertArticle(ctx, app, payload, false)
	if err != nil {
		return err
	}

	state.SetContext(phases.KeyPersistedID, result.ID.String())
	state.SetContext(phases.KeyPersistOutcome, string(result.Outcome))
	return nil
}
