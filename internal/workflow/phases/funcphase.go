package phases

import (
	"context"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
)

// RunFunc is the business logic of one phase: read inputs from state's
// context, do the work, write outputs back.
type RunFunc func(ctx context.Context, state *engine.ExecutionState) error

// FuncPhase adapts a RunFunc to engine.Phase, the same way
// activity.ActivityFunc adapts a plain function to the Activity
// interface. The article and company pipelines do not use it; their
// phases are named structs.
type FuncPhase struct {
	name        string
	dependsOn   []string
	timeout     time.Duration
	retryPolicy *engine.RetryPolicy
	skipIf      string
	run         RunFunc
}

// Option configures a FuncPhase at construction.
type Option func(*FuncPhase)

// DependsOn declares upstream phase names.
func DependsOn(names ...string) Option {
	return func(p *FuncPhase) { p.dependsOn = names }
}

// Timeout overrides the phase timeout.
func Timeout(d time.Duration) Option {
	return func(p *FuncPhase) { p.timeout = d }
}

// WithRetryPolicy overrides the default no-retry policy.
func WithRetryPolicy(rp *engine.RetryPolicy) Option {
	return func(p *FuncPhase) { p.retryPolicy = rp }
}

// SkipIf sets an expr-lang skip predicate (spec §4.1).
func SkipIf(expression string) Option {
	return func(p *FuncPhase) { p.skipIf = expression }
}

// NewFuncPhase builds a Phase named name running fn, with
// engine.NoRetryPolicy() and no declared dependencies unless overridden.
func NewFuncPhase(name string, fn RunFunc, opts ...Option) *FuncPhase {
	p := &FuncPhase{name: name, run: fn, retryPolicy: engine.NoRetryPolicy()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *FuncPhase) Name() string                      { return p.name }
func (p *FuncPhase) DependsOn() []string                { return p.dependsOn }
func (p *FuncPhase) Timeout() time.Duration             { return p.timeout }
func (p *FuncPhase) RetryPolicy() *engine.RetryPolicy   { return p.retryPolicy }
func (p *FuncPhase) SkipIf() string                     { return p.skipIf }
func (p *FuncPhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	return p.run(ctx, state)
}
