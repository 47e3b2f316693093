package article

import (
	"context"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/persistence"
	"github.com/Londondannyboy/quest-sub002/internal/synth"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// EntityExtractionPhase is P9: scans the finished markdown body for
// company mentions and links the ones that resolve against the stored
// company directory (spec §4.1 P9, §4.7). Soft-skips to an empty mention
// list on any lookup failure.
type EntityExtractionPhase struct {
	coordinator *persistence.Coordinator
}

// NewEntityExtractionPhase builds the P9 phase.
func NewEntityExtractionPhase(coordinator *persistence.Coordinator) *EntityExtractionPhase {
	return &EntityExtractionPhase{coordinator: coordinator}
}

func (p *EntityExtractionPhase) Name() string          { return "entity_extraction" }
func (p *EntityExtractionPhase) DependsOn() []string    { return []string{"image_generation"} }
func (p *EntityExtractionPhase) Timeout() time.Duration { return 30 * time.Second }
func (p *EntityExtractionPhase) SkipIf() string         { return "" }
func (p *EntityExtractionPhase) RetryPolicy() *engine.RetryPolicy {
	return engine.NoRetryPolicy()
}

func (p *EntityExtractionPhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	payload, err := getArticlePayload(state)
	if err != nil {
		return err
	}

	appAny, _ := state.GetContext(phases.KeyApp)
	app, _ := appAny.(string)

	rows, err := p.coordinator.Companies().FindBySlugForLinking(ctx, app)
	if err != nil {
		// soft-skip (spec §4.1 P9): leave mentions empty rather than fail
		state.SetContext(phases.KeyEntities, payload.MentionedCompanies)
		return nil
	}

	candidates := make([]synth.LinkCandidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, synth.LinkCandidate{
			ID: row.ID.String(), LegalName: row.LegalName, Domain: row.Domain, Slug: row.Slug,
		})
	}

	headings := synth.RelevantHeadings(payload.Sections)
	payload.MentionedCompanies = synth.ExtractEntities(payload.MarkdownBody, headings, candidates)
	state.SetContext(phases.KeyEntities, payload.MentionedCompanies)
	return nil
}
