package article

import (
	"context"
	"fmt"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/synth"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// ImageGenerationPhase is P8: sequences the seven-slot article image
// bundle, mood-biased by the sections' dominant sentiment (spec §4.1 P8,
// §4.6). Never fails outright — a slot that can't be generated is simply
// left nil, and whatever succeeded is retained (spec "partial-ok").
type ImageGenerationPhase struct {
	sequencer *synth.ImageSequencer
}

// NewImageGenerationPhase builds the P8 phase.
func NewImageGenerationPhase(sequencer *synth.ImageSequencer) *ImageGenerationPhase {
	return &ImageGenerationPhase{sequencer: sequencer}
}

func (p *ImageGenerationPhase) Name() string          { return "image_generation" }
func (p *ImageGenerationPhase) DependsOn() []string    { return []string{"link_cleanse"} }
func (p *ImageGenerationPhase) Timeout() time.Duration { return 600 * time.Second }
func (p *ImageGenerationPhase) SkipIf() string         { return "" }
func (p *ImageGenerationPhase) RetryPolicy() *engine.RetryPolicy {
	return engine.NoRetryPolicy()
}

func (p *ImageGenerationPhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	payload, err := getArticlePayload(state)
	if err != nil {
		return err
	}

	slots := synth.ArticleImageSlots(payload)
	dominant := synth.DominantSentiment(payload.Sections)
	bundle, failed := p.sequencer.Generate(ctx, slots, dominant)
	for _, f := range failed {
		state.AddEvent(fmt.Sprintf("image_failed idx=%d reason=%s", f.Index, f.Reason))
	}

	payload.Images = *bundle
	state.SetContext(phases.KeyImages, bundle)
	return nil
}
