// Package company assembles the company-profile phase DAG (spec §4.2's
// company phase table): existence check/update-or-exit, research,
// identity-ambiguity scoring with a single bounded re-research, profile
// synthesis, images, persistence, and graph sync.
package company

import (
	"context"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/persistence"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// NormalizePhase is P1: validates the input, canonicalizes its URL, and
// checks (app, slug) existence. With force_update=false an existing
// record exits the run reporting a conflict; with force_update=true the
// run proceeds and P10 updates the existing row in place (spec §4.2).
type NormalizePhase struct {
	coordinator *persistence.Coordinator
}

// NewNormalizePhase builds the P1 phase.
func NewNormalizePhase(coordinator *persistence.Coordinator) *NormalizePhase {
	return &NormalizePhase{coordinator: coordinator}
}

func (p *NormalizePhase) Name() string          { return "normalize" }
func (p *NormalizePhase) DependsOn() []string    { return nil }
func (p *NormalizePhase) Timeout() time.Duration { return 15 * time.Second }
func (p *NormalizePhase) SkipIf() string         { return "" }
func (p *NormalizePhase) RetryPolicy() *engine.RetryPolicy {
	return engine.NoRetryPolicy()
}

func (p *NormalizePhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	inputAny, ok := state.GetContext(phases.KeyCompanyInput)
	if !ok {
		return domain.Input(domain.CodeValidation, "normalize: no company input in context")
	}
	input, ok := inputAny.(*domain.CompanyInput)
	if !ok {
		return domain.Input(domain.CodeValidation, "normalize: company input has wrong type")
	}
	if err := input.Validate(); err != nil {
		return err
	}

	canonical, err := domain.CanonicalizeURL(input.URL)
	if err != nil {
		return err
	}
	host, err := input.Host()
	if err != nil {
		return err
	}
	app := string(input.AppTag)
	slug := domain.DeriveSlug(host)

	id, exists, err := p.coordinator.Companies().ExistsBySlug(ctx, app, slug)
	if err != nil {
		return domain.Dependency(domain.CodeUpstream5xx, "normalize: existence check failed", err)
	}
	if exists && !input.ForceUpdate {
		return domain.Business(domain.CodeAlreadyExists, "company already exists for app "+app+" and host "+host)
	}
	if exists {
		state.SetContext(phases.KeyExistingID, id.String())
	}

	state.SetContext(phases.KeyTopic, host)
	state.SetContext(phases.KeyApp, app)
	state.SetContext(phases.KeySlug, slug)
	state.SetContext(phases.KeyCanonicalURL, canonical)
	state.SetContext(phases.KeyGraphID, persistence.DeriveGraphID(app, slug))
	return nil
}
