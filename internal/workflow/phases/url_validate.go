package phases

import (
	"context"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/activity"
	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
)

// URLValidatePhase wraps the url_validate adapter in a reusable phase.
// The spec uses the same underlying check twice with different
// placement and purpose — P4 validates research-bundle URLs before
// synthesis, P7 cleanses links synthesis produced — so this type is
// parameterized by name/deps/extract/apply rather than duplicated (spec
// §4.1 P4 and P7 are both "soft-skip, list preserved as-is, flagged").
type URLValidatePhase struct {
	name       string
	dependsOn  []string
	activities *activity.GuardedManager
	extract    func(state *engine.ExecutionState) []string
	apply      func(state *engine.ExecutionState, results []adapter.URLStatus)
}

// NewURLValidatePhase builds a phase named name over activities.
func NewURLValidatePhase(
	name string,
	dependsOn []string,
	activities *activity.GuardedManager,
	extract func(state *engine.ExecutionState) []string,
	apply func(state *engine.ExecutionState, results []adapter.URLStatus),
) *URLValidatePhase {
	return &URLValidatePhase{name: name, dependsOn: dependsOn, activities: activities, extract: extract, apply: apply}
}

func (p *URLValidatePhase) Name() string          { return p.name }
func (p *URLValidatePhase) DependsOn() []string    { return p.dependsOn }
func (p *URLValidatePhase) Timeout() time.Duration { return 60 * time.Second }
func (p *URLValidatePhase) SkipIf() string         { return "" }
func (p *URLValidatePhase) RetryPolicy() *engine.RetryPolicy {
	return engine.NoRetryPolicy()
}

func (p *URLValidatePhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	urls := p.extract(state)
	if len(urls) == 0 {
		p.apply(state, nil)
		return nil
	}

	out, err := p.activities.Invoke(ctx, "url_validate", adapter.URLValidateRequest{URLs: urls})
	if err != nil {
		// soft-skip: leave the list as-is, flagged via an empty result set
		p.apply(state, nil)
		return nil
	}

	resp, _ := out.(adapter.URLValidateResponse)
	p.apply(state, resp.Results)
	return nil
}
