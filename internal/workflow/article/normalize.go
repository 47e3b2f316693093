// Package article assembles the P1-P11 phase DAG for the article
// pipeline (spec §4.1's article phase table) from the shared engine and
// phases packages, plus the article-specific synthesis, sentiment,
// image, entity, persistence, and graph-sync steps.
package article

import (
	"context"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/persistence"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// NormalizePhase is P1: validates the input, derives its normalized
// topic and a provisional slug, and exits early (fatal) if an article
// already exists for (app, slug) — the cheap half of spec §4.2's
// dedupe; the authoritative check is the idempotent upsert at P10.
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
	inputAny, ok := state.GetContext(phases.KeyArticleInput)
	if !ok {
		return domain.Input(domain.CodeValidation, "normalize: no article input in context")
	}
	input, ok := inputAny.(*domain.ArticleInput)
	if !ok {
		return domain.Input(domain.CodeValidation, "normalize: article input has wrong type")
	}
	if err := input.Validate(); err != nil {
		return err
	}

	topic := domain.NormalizeTopic(input.Topic)
	slug := domain.DeriveSlug(topic)
	app := string(input.AppTag)

	exists, err := p.coordinator.ArticleExists(ctx, app, slug)
	if err != nil {
		return domain.Dependency(domain.CodeUpstream5xx, "normalize: existence check failed", err)
	}
	if exists {
		return domain.Business(domain.CodeAlreadyExists, "article already exists for app "+app+" and topic "+topic)
	}

	state.SetContext(phases.KeyTopic, topic)
	state.SetContext(phases.KeyApp, app)
	state.SetContext(phases.KeySlug, slug)
	state.SetContext(phases.KeyGraphID, persistence.DeriveGraphID(app, slug))
	return nil
}
