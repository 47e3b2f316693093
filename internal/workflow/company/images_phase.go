package company

import (
	"context"
	"fmt"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/synth"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// ImageGenerationPhase sequences the two-slot (featured, hero) company
// image bundle (spec §6's ImageCountCompany=2). Company profiles carry
// no per-section sentiment, so mood is always the neutral policy entry.
type ImageGenerationPhase struct {
	sequencer *synth.ImageSequencer
}

// NewImageGenerationPhase builds the phase.
func NewImageGenerationPhase(sequencer *synth.ImageSequencer) *ImageGenerationPhase {
	return &ImageGenerationPhase{sequencer: sequencer}
}

func (p *ImageGenerationPhase) Name() string          { return "image_generation" }
func (p *ImageGenerationPhase) DependsOn() []string    { return []string{"ambiguity_scoring"} }
func (p *ImageGenerationPhase) Timeout() time.Duration { return 600 * time.Second }
func (p *ImageGenerationPhase) SkipIf() string         { return "" }
func (p *ImageGenerationPhase) RetryPolicy() *engine.RetryPolicy {
	return engine.NoRetryPolicy()
}

func (p *ImageGenerationPhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	payload, err := getProfilePayload(state)
	if err != nil {
		return err
	}

	slots := synth.CompanyImageSlots(payload)
	bundle, failed := p.sequencer.Generate(ctx, slots, domain.SentimentNeutral)
	for _, f := range failed {
		state.AddEvent(fmt.Sprintf("image_failed idx=%d reason=%s", f.Index, f.Reason))
	}

	payload.Images = *bundle
	state.SetContext(phases.KeyImages, bundle)
	return nil
}
