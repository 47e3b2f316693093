package engine

import (
	"context"
	"testing"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

type fakePhase struct {
	name      string
	deps      []string
	run       func(ctx context.Context, state *ExecutionState) error
	skipIf    string
	retry     *RetryPolicy
	timeout   time.Duration
}

func (f *fakePhase) Name() string              { return f.name }
func (f *fakePhase) DependsOn() []string        { return f.deps }
func (f *fakePhase) Timeout() time.Duration     { return f.timeout }
func (f *fakePhase) SkipIf() string             { return f.skipIf }
func (f *fakePhase) RetryPolicy() *RetryPolicy  { return f.retry }
func (f *fakePhase) Run(ctx context.Context, state *ExecutionState) error {
	if f.run != nil {
		return f.run(ctx, state)
	}
	return nil
}

func TestExecutor_RunsPhasesInDependencyOrder(t *testing.T) {
	t.Parallel()
	var order []string

	p1 := &fakePhase{name: "p1", run: func(ctx context.Context, s *ExecutionState) error {
		order = append(order, "p1")
		return nil
	}}
	p2 := &fakePhase{name: "p2", deps: []string{"p1"}, run: func(ctx context.Context, s *ExecutionState) error {
		order = append(order, "p2")
		return nil
	}}

	state := NewExecutionState("exec-1", "wf-1")
	exec := NewExecutor(nil)

	if err := exec.Execute(context.Background(), state, []Phase{p2, p1}, ExecutionOptions{MaxParallelism: 2}); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if len(order) != 2 || order[0] != "p1" || order[1] != "p2" {
		t.Fatalf("expected p1 before p2, got %v", order)
	}
	if state.Status("p1") != PhaseCompleted || state.Status("p2") != PhaseCompleted {
		t.Fatalf("expected both phases completed")
	}
}

func TestExecutor_SkipsWhenPredicateTrue(t *testing.T) {
	t.Parallel()
	ran := false
	p := &fakePhase{
		name:   "maybe",
		skipIf: "ctx.skip == true",
		run: func(ctx context.Context, s *ExecutionState) error {
			ran = true
			return nil
		},
	}

	state := NewExecutionState("exec-2", "wf-1")
	state.SetContext("skip", true)
	exec := NewExecutor(nil)

	if err := exec.Execute(context.Background(), state, []Phase{p}, ExecutionOptions{}); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if ran {
		t.Fatalf("phase should have been skipped")
	}
	if state.Status("maybe") != PhaseSkipped {
		t.Fatalf("expected status skipped, got %s", state.Status("maybe"))
	}
}

func TestExecutor_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()
	attempts := 0
	p := &fakePhase{
		name:  "flaky",
		retry: &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffStrategy: BackoffConstant},
		run: func(ctx context.Context, s *ExecutionState) error {
			attempts++
			if attempts < 2 {
				return domain.Transient(domain.CodeUpstream5xx, "boom", nil, nil)
			}
			return nil
		},
	}

	state := NewExecutionState("exec-3", "wf-1")
	exec := NewExecutor(nil)

	if err := exec.Execute(context.Background(), state, []Phase{p}, ExecutionOptions{}); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestExecutor_DoesNotRetryInputErrors(t *testing.T) {
	t.Parallel()
	attempts := 0
	p := &fakePhase{
		name:  "bad-input",
		retry: DefaultRetryPolicy(),
		run: func(ctx context.Context, s *ExecutionState) error {
			attempts++
			return domain.Input(domain.CodeValidation, "nope")
		},
	}

	state := NewExecutionState("exec-4", "wf-1")
	exec := NewExecutor(nil)

	if err := exec.Execute(context.Background(), state, []Phase{p}, ExecutionOptions{}); err == nil {
		t.Fatalf("expected execute to fail")
	}
	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt for a non-retriable error, got %d", attempts)
	}
}

func TestExecutor_CompensatesCompletedPhasesOnFailure(t *testing.T) {
	t.Parallel()
	compensated := false

	p1 := &fakePhase{name: "create", run: func(ctx context.Context, s *ExecutionState) error { return nil }}
	p2 := &fakePhase{name: "fail", deps: []string{"create"}, retry: NoRetryPolicy(), run: func(ctx context.Context, s *ExecutionState) error {
		return domain.Business(domain.CodeConstraint, "boom")
	}}

	state := NewExecutionState("exec-5", "wf-1")
	exec := NewExecutor(nil)
	exec.RegisterCompensation("create", func(ctx context.Context, s *ExecutionState) error {
		compensated = true
		return nil
	})

	if err := exec.Execute(context.Background(), state, []Phase{p1, p2}, ExecutionOptions{}); err == nil {
		t.Fatalf("expected execute to fail")
	}
	if !compensated {
		t.Fatalf("expected compensation to run for completed phase")
	}
}

func TestBuildDAG_RejectsUnknownDependency(t *testing.T) {
	t.Parallel()
	p := &fakePhase{name: "p1", deps: []string{"ghost"}}
	if _, err := BuildDAG([]Phase{p}); err == nil {
		t.Fatalf("expected error for unknown dependency")
	}
}

func TestTopologicalWaves_DetectsCycle(t *testing.T) {
	t.Parallel()
	p1 := &fakePhase{name: "p1", deps: []string{"p2"}}
	p2 := &fakePhase{name: "p2", deps: []string{"p1"}}

	dag, err := BuildDAG([]Phase{p1, p2})
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if _, err := TopologicalWaves(dag); err == nil {
		t.Fatalf("expected cycle detection error")
	}
}
