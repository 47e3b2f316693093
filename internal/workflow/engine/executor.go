package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ExecutionOptions configures one DAG run.
type ExecutionOptions struct {
	MaxParallelism  int
	ContinueOnError bool
	PhaseTimeout    time.Duration
}

// Compensation undoes the effect of a completed phase. Registered by
// phases whose failure elsewhere in the DAG should trigger a rollback
// (spec §4.8 "compensating deletes").
type Compensation func(ctx context.Context, state *ExecutionState) error

// Executor runs a phase DAG wave by wave with bounded parallelism,
// per-phase retry/timeout, skip-predicate evaluation, and observer
// notification — the generalized form of the teacher's node-type DAG
// executor (spec §4.1).
type Executor struct {
	conditions    *ConditionCache
	notifier      *ObserverManager
	mu            sync.Mutex
	compensations []registeredCompensation
}

type registeredCompensation struct {
	phase string
	fn    Compensation
}

// NewExecutor builds an Executor.
func NewExecutor(notifier *ObserverManager) *Executor {
	return &Executor{
		conditions: NewConditionCache(),
		notifier:   notifier,
	}
}

// RegisterCompensation attaches a rollback action to a phase, invoked in
// reverse registration order, for completed phases only, if the overall
// execution ultimately fails.
func (e *Executor) RegisterCompensation(phase string, fn Compensation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compensations = append(e.compensations, registeredCompensation{phase: phase, fn: fn})
}

// Execute runs every phase in phases to completion or first fatal error.
func (e *Executor) Execute(ctx context.Context, state *ExecutionState, phases []Phase, opts ExecutionOptions) error {
	dag, err := BuildDAG(phases)
	if err != nil {
		return fmt.Errorf("phase graph validation failed: %w", err)
	}

	waves, err := TopologicalWaves(dag)
	if err != nil {
		return err
	}

	e.notify(ctx, Event{
		Type: EventTypeExecutionStarted, ExecutionID: state.ExecutionID,
		WorkflowID: state.WorkflowID, Timestamp: time.Now(),
	})

	var runErr error
	for idx, wave := range waves {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("execution cancelled: %w", err)
			break
		}
		if err := e.executeWave(ctx, state, wave, idx, opts); err != nil {
			runErr = fmt.Errorf("wave %d failed: %w", idx, err)
			break
		}
	}

	if runErr != nil {
		e.runCompensations(ctx, state)
		e.notify(ctx, Event{
			Type: EventTypeExecutionFailed, ExecutionID: state.ExecutionID,
			WorkflowID: state.WorkflowID, Timestamp: time.Now(), Error: runErr,
		})
		return runErr
	}

	e.notify(ctx, Event{
		Type: EventTypeExecutionCompleted, ExecutionID: state.ExecutionID,
		WorkflowID: state.WorkflowID, Timestamp: time.Now(),
	})
	return nil
}

func (e *Executor) executeWave(ctx context.Context, state *ExecutionState, wave []Phase, waveIdx int, opts ExecutionOptions) error {
	start := time.Now()

	e.notify(ctx, Event{
		Type: EventTypeWaveStarted, ExecutionID: state.ExecutionID, WorkflowID: state.WorkflowID,
		Timestamp: start, WaveIndex: waveIdx, PhaseCount: len(wave),
	})

	maxParallelism := opts.MaxParallelism
	if maxParallelism <= 0 {
		maxParallelism = len(wave)
	}
	semaphore := make(chan struct{}, maxParallelism)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var collected []error

	for _, phase := range wave {
		wg.Add(1)
		go func(p Phase) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				state.SetStatus(p.Name(), PhaseSkipped)
				return
			default:
			}

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			skip, skipErr := e.conditions.Evaluate(p.SkipIf(), state)
			if skipErr != nil {
				mu.Lock()
				collected = append(collected, fmt.Errorf("phase %s: %w", p.Name(), skipErr))
				mu.Unlock()
				return
			}
			if skip {
				state.SetStatus(p.Name(), PhaseSkipped)
				e.notify(ctx, Event{
					Type: EventTypePhaseSkipped, ExecutionID: state.ExecutionID, WorkflowID: state.WorkflowID,
					Timestamp: time.Now(), PhaseName: p.Name(), Status: "skipped",
				})
				return
			}

			if err := e.executePhase(ctx, state, p, opts); err != nil {
				phaseErr := fmt.Errorf("phase %s failed: %w", p.Name(), err)
				mu.Lock()
				collected = append(collected, phaseErr)
				mu.Unlock()
			}
		}(phase)
	}

	wg.Wait()

	status := "completed"
	if len(collected) > 0 {
		status = "completed_with_errors"
	}
	e.notify(ctx, Event{
		Type: EventTypeWaveCompleted, ExecutionID: state.ExecutionID, WorkflowID: state.WorkflowID,
		Timestamp: time.Now(), WaveIndex: waveIdx, Status: status, DurationMs: time.Since(start).Milliseconds(),
	})

	if len(collected) == 0 {
		return nil
	}
	if opts.ContinueOnError {
		return nil
	}
	return errors.Join(collected...)
}

func (e *Executor) executePhase(ctx context.Context, state *ExecutionState, p Phase, opts ExecutionOptions) error {
	start := time.Now()
	state.SetStatus(p.Name(), PhaseRunning)

	e.notify(ctx, Event{
		Type: EventTypePhaseStarted, ExecutionID: state.ExecutionID, WorkflowID: state.WorkflowID,
		Timestamp: start, PhaseName: p.Name(), Status: "running",
	})

	phaseCtx := ctx
	timeout := p.Timeout()
	if timeout <= 0 {
		timeout = opts.PhaseTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		phaseCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	policy := p.RetryPolicy()
	if policy == nil {
		policy = NoRetryPolicy()
	}
	policy.OnRetry = func(attempt int, err error) {
		state.IncrementAttempt(p.Name())
		e.notify(ctx, Event{
			Type: EventTypePhaseRetrying, ExecutionID: state.ExecutionID, WorkflowID: state.WorkflowID,
			Timestamp: time.Now(), PhaseName: p.Name(), Status: "retrying", Error: err,
		})
	}

	err := policy.Execute(phaseCtx, func() error {
		return p.Run(phaseCtx, state)
	})

	duration := time.Since(start).Milliseconds()
	if err != nil {
		state.SetError(p.Name(), err)
		state.SetStatus(p.Name(), PhaseFailed)
		e.notify(ctx, Event{
			Type: EventTypePhaseFailed, ExecutionID: state.ExecutionID, WorkflowID: state.WorkflowID,
			Timestamp: time.Now(), PhaseName: p.Name(), Status: "failed", Error: err, DurationMs: duration,
		})
		return err
	}

	state.SetStatus(p.Name(), PhaseCompleted)
	e.notify(ctx, Event{
		Type: EventTypePhaseCompleted, ExecutionID: state.ExecutionID, WorkflowID: state.WorkflowID,
		Timestamp: time.Now(), PhaseName: p.Name(), Status: "completed", DurationMs: duration,
	})
	return nil
}

// runCompensations invokes registered compensations in reverse
// registration order, best-effort: a compensation failure is notified
// but does not block the others from running (spec §4.8).
func (e *Executor) runCompensations(ctx context.Context, state *ExecutionState) {
	e.mu.Lock()
	comps := make([]registeredCompensation, len(e.compensations))
	copy(comps, e.compensations)
	e.mu.Unlock()

	for i := len(comps) - 1; i >= 0; i-- {
		c := comps[i]
		if state.Status(c.phase) != PhaseCompleted {
			continue
		}
		e.notify(ctx, Event{
			Type: EventTypeCompensating, ExecutionID: state.ExecutionID, WorkflowID: state.WorkflowID,
			Timestamp: time.Now(), PhaseName: c.phase, Status: "compensating",
		})
		if err := c.fn(ctx, state); err != nil {
			e.notify(ctx, Event{
				Type: EventTypeCompensating, ExecutionID: state.ExecutionID, WorkflowID: state.WorkflowID,
				Timestamp: time.Now(), PhaseName: c.phase, Status: "compensation_failed", Error: err,
			})
		}
	}
}

func (e *Executor) notify(ctx context.Context, event Event) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, event)
}
