package company

import (
	"context"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/synth"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// ContentSynthesisPhase is the company-profile counterpart of the
// article pipeline's content_synthesis phase, built over
// synth.Synthesizer.SynthesizeProfile instead of SynthesizeArticle.
type ContentSynthesisPhase struct {
	synthesizer *synth.Synthesizer
}

// NewContentSynthesisPhase builds the phase.
func NewContentSynthesisPhase(synthesizer *synth.Synthesizer) *ContentSynthesisPhase {
	return &ContentSynthesisPhase{synthesizer: synthesizer}
}

func (p *ContentSynthesisPhase) Name() string          { return "content_synthesis" }
func (p *ContentSynthesisPhase) DependsOn() []string    { return []string{"graph_context"} }
func (p *ContentSynthesisPhase) Timeout() time.Duration { return 180 * time.Second }
func (p *ContentSynthesisPhase) SkipIf() string         { return "" }
func (p *ContentSynthesisPhase) RetryPolicy() *engine.RetryPolicy {
	return engine.NoRetryPolicy()
}

func (p *ContentSynthesisPhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	input, bundle, err := loadSynthesisInputs(state)
	if err != nil {
		return err
	}

	payload, err := p.synthesizer.SynthesizeProfile(ctx, input, bundle)
	if err != nil {
		return err
	}

	state.SetContext(phases.KeyProfilePayload, payload)
	return nil
}

func loadSynthesisInputs(state *engine.ExecutionState) (*domain.CompanyInput, *domain.ResearchBundle, error) {
	inputAny, ok := state.GetContext(phases.KeyCompanyInput)
	if !ok {
		return nil, nil, domain.Input(domain.CodeValidation, "content_synthesis: no company input in context")
	}
	input, ok := inputAny.(*domain.CompanyInput)
	if !ok {
		return nil, nil, domain.Input(domain.CodeValidation, "content_synthesis: company input has wrong type")
	}

	bundleAny, ok := state.GetContext(phases.KeyResearchBundle)
	if !ok {
		return nil, nil, domain.Data(domain.CodeEmpty, "content_synthesis: no research bundle in context", nil)
	}
	bundle, ok := bundleAny.(*domain.ResearchBundle)
	if !ok {
		return nil, nil, domain.Data(domain.CodeEmpty, "content_synthesis: research bundle has wrong type", nil)
	}

	return input, bundle, nil
}

func getProfilePayload(state *engine.ExecutionState) (*domain.ProfilePayload, error) {
	payloadAny, ok := state.GetContext(phases.KeyProfilePayload)
	if !ok {
		return nil, domain.Data(domain.CodeEmpty, "no profile payload in context", nil)
	}
	payload, ok := payloadAny.(*domain.ProfilePayload)
	if !ok {
		return nil, domain.Data(domain.CodeEmpty, "profile payload has wrong type", nil)
	}
	return payload, nil
}
