package article

import (
	"context"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/synth"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// ContentSynthesisPhase is P5: runs the narrative-first synthesizer over
// the validated research bundle (spec §4.5). Failure here is fatal after
// the synthesizer's own bounded repair/expansion retries are exhausted —
// there is no outer phase-level retry on top of that (spec §4.1 P5 "fatal
// after 3 retries" is the synthesizer's own loop, not a second layer).
type ContentSynthesisPhase struct {
	synthesizer *synth.Synthesizer
}

// NewContentSynthesisPhase builds the P5 phase.
func NewContentSynthesisPhase(synthesizer *synth.Synthesizer) *ContentSynthesisPhase {
	return &ContentSynthesisPhase{synthesizer: synthesizer}
}

func (p *ContentSynthesisPhase) Name() string          { return "content_synthesis" }
func (p *ContentSynthesisPhase) DependsOn() []string    { return []string{"url_validate_pre"} }
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

	payload, err := p.synthesizer.SynthesizeArticle(ctx, input, bundle)
	if err != nil {
		return err
	}

	state.SetContext(phases.KeyArticlePayload, payload)
	return nil
}

func loadSynthesisInputs(state *engine.ExecutionState) (*domain.ArticleInput, *domain.ResearchBundle, error) {
	inputAny, ok := state.GetContext(phases.KeyArticleInput)
	if !ok {
		return nil, nil, domain.Input(domain.CodeValidation, "content_synthesis: no article input in context")
	}
	input, ok := inputAny.(*domain.ArticleInput)
	if !ok {
		return nil, nil, domain.Input(domain.CodeValidation, "content_synthesis: article input has wrong type")
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
