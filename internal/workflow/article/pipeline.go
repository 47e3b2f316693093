package article

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

// Pipeline wires the P1-P11 article phase DAG and runs it for one input
// (spec §4.1's article phase table end to end).
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

// NewPipeline builds a Pipeline from its collaborators. observers are
// registered on a fresh ObserverManager owned by this pipeline instance.
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
		return p.coordinator.CompensateArticle(ctx, id)
	})

	return p
}

// Run executes the full article pipeline for input and returns the
// execution state (for inspecting the final payload/persist outcome).
func (p *Pipeline) Run(ctx context.Context, executionID string, input *domain.ArticleInput) (*engine.ExecutionState, error) {
	state := engine.NewExecutionState(executionID, "article")
	state.SetContext(phases.KeyArticleInput, input)

	synthesizer := synth.NewSynthesizer(p.llm)
	sequencer := synth.NewImageSequencer(p.imageGen, nil)

	normalize := NewNormalizePhase(p.coordinator)
	fanout := phases.NewResearchFanoutPhase(p.activities, p.cfg.CrawlConcurrency, p.cfg.SearchGeo, p.cfg.SearchTimeWindow)
	graphCtx := phases.NewGraphContextPhase(p.graph)
	urlPre := NewPreSynthesisURLValidatePhase(p.activities)
	contentSynth := NewContentSynthesisPhase(synthesizer)
	sentiment := NewSectionSentimentPhase(p.llm)
	linkCleanse := NewLinkCleansePhase(p.activities)
	images := NewImageGenerationPhase(sequencer)
	entities := NewEntityExtractionPhase(p.coordinator)
	gate := NewCompletenessGatePhase(synthesizer, p.cfg.CompletenessFloorPolicy, p.cfg.CompletenessFloorArticle)
	persist := NewPersistPhase(p.coordinator)
	graphSyncPhase := NewGraphSyncPhase(p.graphSync, input)

	list := []engine.Phase{
		normalize, fanout, graphCtx, urlPre, contentSynth, sentiment,
		linkCleanse, images, entities, gate, persist, graphSyncPhase,
	}

	err := p.executor.Execute(ctx, state, list, engine.ExecutionOptions{
		MaxParallelism: p.cfg.MaxPhaseParallelism,
	})
	return state, err
}
