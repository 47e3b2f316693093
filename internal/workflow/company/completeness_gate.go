package company

import (
	"context"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/config"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/synth"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// CompletenessGatePhase mirrors the article pipeline's inline floor
// check (spec §4.10), scored against domain.CompanyCompleteness and
// config.PipelineConfig.CompletenessFloorCompany.
type CompletenessGatePhase struct {
	synthesizer *synth.Synthesizer
	policy      config.CompletenessFloorPolicy
	floor       int
}

// NewCompletenessGatePhase builds the gate phase.
func NewCompletenessGatePhase(synthesizer *synth.Synthesizer, policy config.CompletenessFloorPolicy, floor int) *CompletenessGatePhase {
	return &CompletenessGatePhase{synthesizer: synthesizer, policy: policy, floor: floor}
}

func (p *CompletenessGatePhase) Name() string          { return "completeness_gate" }
func (p *CompletenessGatePhase) DependsOn() []string    { return []string{"image_generation"} }
func (p *CompletenessGatePhase) Timeout() time.Duration { return 120 * time.Second }
func (p *CompletenessGatePhase) SkipIf() string         { return "" }
func (p *CompletenessGatePhase) RetryPolicy() *engine.RetryPolicy {
	return engine.NoRetryPolicy()
}

func (p *CompletenessGatePhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	payload, err := getProfilePayload(state)
	if err != nil {
		return err
	}

	score := domain.CompanyCompleteness(payload)
	if domain.MeetsFloor(score, p.floor) {
		return nil
	}

	state.AddEvent("below_completeness_floor")

	if p.policy == config.CompletenessFloorDraft {
		return nil // company profiles carry no editorial_status; draft policy is a no-op here
	}

	input, bundle, err := loadSynthesisInputs(state)
	if err != nil {
		return err
	}
	retried, err := p.synthesizer.SynthesizeProfile(ctx, input, bundle)
	if err != nil {
		return nil
	}

	if domain.CompanyCompleteness(retried) > score {
		retried.Images = payload.Images
		retried.AmbiguitySignals = payload.AmbiguitySignals
		state.SetContext(phases.KeyProfilePayload, retried)
	}
	return nil
}
