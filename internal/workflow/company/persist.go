package company

import (
	"context"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/persistence"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// PersistPhase commits the profile via the persistence coordinator's
// upsert, honoring input.ForceUpdate for the update-vs-conflict branch
// the repository's transaction enforces (spec §4.2, §4.8).
type PersistPhase struct {
	coordinator *persistence.Coordinator
	input       *domain.CompanyInput
}

// NewPersistPhase builds the phase.
func NewPersistPhase(coordinator *persistence.Coordinator, input *domain.CompanyInput) *PersistPhase {
	return &PersistPhase{coordinator: coordinator, input: input}
}

func (p *PersistPhase) Name() string          { return "persist" }
func (p *PersistPhase) DependsOn() []string    { return []string{"completeness_gate"} }
func (p *PersistPhase) Timeout() time.Duration { return 30 * time.Second }
func (p *PersistPhase) SkipIf() string         { return "" }
func (p *PersistPhase) RetryPolicy() *engine.RetryPolicy {
	return engine.DefaultRetryPolicy()
}

func (p *PersistPhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	payload, err := getProfilePayload(state)
	if err != nil {
		return err
	}
	appAny, _ := state.GetContext(phases.KeyApp)
	app, _ := appAny.(string)

	result, err := p.coordinator.UpsertCompany(ctx, app, payload, p.input.ForceUpdate)
	if err != nil {
		return err
	}

	state.SetContext(phases.KeyPersistedID, result.ID.String())
	state.SetContext(phases.KeyPersistOutcome, string(result.Outcome))
	return nil
}
