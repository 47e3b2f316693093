package company

import (
	"context"

	"github.com/Londondannyboy/quest-sub002/internal/activity"
	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/config"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/persistence"
	"github.com/Londondannyboy/quest-sub002/internal/synth"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// Pipeline wires the company-profile phase DAG (spec §4.2's company
// phase table) and runs it for one input.
type Pipeline struct {
	executor    *engine.Executor
	coordinator *persistence.Coordinator
	cfg         config.PipelineConfig
	activities  *activity.GuardedManager
	llm         adapter.LLMClient
	graph       *adapter.GraphUpsertAdapter
	graphSync   *persistence.GraphSync
	imageGen    *adapter.ImageGenerateAdapter
}

// NewPipeline builds a Pipeline from its collaborators.
func NewPipeline(
	coordinator *persistence.Coordinator,
	graphSync *persistence.GraphSync,
	activities *activity.GuardedManager,
	llm adapter.LLMClient,
	graph *adapter.GraphUpsertAdapter,
	imageGen *adapter.ImageGenerateAdapter,
	cfg config.PipelineConfig,
	observers ...engine.Observer,
) *Pipeline {
	manager := engine.NewObserverManager()
	for _, o := range observers {
		_ = manager.Register(o)
	}
	executor := engine.NewExecutor(manager)
	p := &Pipeline{
		executor:    executor,
		coordinator: coordinator,
		cfg:         cfg,
		activities:  activities,
		llm:         llm,
		graph:       graph,
		graphSync:   graphSync,
		imageGen:    imageGen,
	}

	executor.RegisterCompensation("persist", func(ctx context.Context, state *engine.ExecutionState) error {
		idAny, ok := state.GetContext(phases.KeyPersistedID)
		if !ok {
			return nil
		}
		id, _ := idAny.(string)
		if id == "" {
			return nil
		}
		return p.coordinator.CompensateCompany(ctx, id)
	})

	return p
}

// Run executes the full company pipeline for input.
func (p *Pipeline) Run(ctx context.Context, executionID string, input *domain.CompanyInput) (*engine.ExecutionState, error) {
	state := engine.NewExecutionState(executionID, "company")
	state.SetContext(phases.KeyCompanyInput, input)

	synthesizer := synth.NewSynthesizer(p.llm)
	sequencer := synth.NewImageSequencer(p.imageGen, nil)

	normalize := NewNormalizePhase(p.coordinator)
	fanout := phases.NewResearchFanoutPhase(p.activities, p.cfg.CrawlConcurrency, p.cfg.SearchGeo, p.cfg.SearchTimeWindow)
	graphCtx := phases.NewGraphContextPhase(p.graph)
	contentSynth := NewContentSynthesisPhase(synthesizer)
	ambiguity := NewAmbiguityScoringPhase(synthesizer, fanout, p.cfg)
	images := NewImageGenerationPhase(sequencer)
	gate := NewCompletenessGatePhase(synthesizer, p.cfg.CompletenessFloorPolicy, p.cfg.CompletenessFloorCompany)
	persist := NewPersistPhase(p.coordinator, input)
	graphSyncPhase := NewGraphSyncPhase(p.graphSync)

	list := []engine.Phase{
		normalize, fanout, graphCtx, contentSynth, ambiguity, images, gate, persist, graphSyncPhase,
	}

	err := p.executor.Execute(ctx, state, list, engine.ExecutionOptions{
		MaxParallelism: p.cfg.MaxPhaseParallelism,
	})
	return state, err
}
