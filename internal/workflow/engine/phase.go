package engine

import (
	"container/list"
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

// Phase is one named step of a workflow DAG (P1, P2, P2', ... in spec
// §4.1). Run receives the shared ExecutionState and is expected to read
// its inputs from, and write its output back into, state's context.
type Phase interface {
	Name() string
	DependsOn() []string
	Run(ctx context.Context, state *ExecutionState) error
	Timeout() time.Duration
	RetryPolicy() *RetryPolicy
	// SkipIf is an expr-lang expression evaluated against the execution
	// context; a phase is skipped (not failed) when it evaluates true.
	// Empty string means "never skip" (spec §4.1 skip predicates).
	SkipIf() string
}

// BackoffStrategy selects how retry delay grows between attempts.
type BackoffStrategy string

const (
	BackoffConstant    BackoffStrategy = "constant"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryPolicy governs whether and how long to wait before retrying a
// failed phase. Only domain.ClassTransient errors are retried; the
// policy's ShouldRetry checks domain.ClassOf so classification stays
// centralized in the domain package (spec §7).
type RetryPolicy struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffStrategy BackoffStrategy
	OnRetry         func(attempt int, err error)
}

// DefaultRetryPolicy mirrors the pipeline-wide default from spec §4.1/§6.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     3,
		InitialDelay:    time.Second,
		MaxDelay:        60 * time.Second,
		BackoffStrategy: BackoffExponential,
	}
}

// NoRetryPolicy never retries; used by phases whose failures are
// terminal by nature (e.g. synthesis, which has its own bounded repair
// loop rather than the generic retry policy).
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 1}
}

// ShouldRetry reports whether err warrants another attempt.
func (rp *RetryPolicy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	return domain.ClassOf(err) == domain.ClassTransient
}

// Delay computes the backoff delay before the given attempt (1-indexed).
func (rp *RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	var delay time.Duration
	switch rp.BackoffStrategy {
	case BackoffConstant:
		delay = rp.InitialDelay
	case BackoffLinear:
		delay = rp.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		delay = time.Duration(float64(rp.InitialDelay) * math.Pow(2, float64(attempt-1)))
	default:
		delay = rp.InitialDelay
	}
	if delay > rp.MaxDelay {
		delay = rp.MaxDelay
	}
	return delay
}

// Execute runs fn under the policy, honoring retryAfter hints carried by
// domain.Error (spec §4.1 "rate-limit hints shorten or lengthen the
// backoff").
func (rp *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	maxAttempts := rp.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("phase cancelled: %w", err)
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= maxAttempts || !rp.ShouldRetry(err) {
			break
		}

		if rp.OnRetry != nil {
			rp.OnRetry(attempt, err)
		}

		delay := rp.Delay(attempt)
		if pe, ok := err.(*domain.Error); ok && pe.RetryAfter != nil {
			delay = time.Duration(*pe.RetryAfter) * time.Second
		}

		if delay > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("phase cancelled during retry delay: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("all retry attempts failed: %w", lastErr)
}

// conditionCacheCapacity bounds the compiled-expression LRU.
const conditionCacheCapacity = 128

// ConditionCache memoizes compiled expr-lang programs for skip
// predicates, avoiding recompilation on every phase evaluation across a
// long-running worker process.
type ConditionCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type conditionCacheEntry struct {
	key     string
	program *vm.Program
}

// NewConditionCache builds a cache bounded at conditionCacheCapacity.
func NewConditionCache() *ConditionCache {
	return &ConditionCache{
		capacity: conditionCacheCapacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (c *ConditionCache) get(expr string) (*vm.Program, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if el, ok := c.entries[expr]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*conditionCacheEntry).program, true
	}
	return nil, false
}

func (c *ConditionCache) put(expression string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[expression]; ok {
		c.order.MoveToFront(el)
		el.Value.(*conditionCacheEntry).program = program
		return
	}
	el := c.order.PushFront(&conditionCacheEntry{key: expression, program: program})
	c.entries[expression] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*conditionCacheEntry).key)
		}
	}
}

// Evaluate compiles (or reuses a cached compile of) expression against
// the execution context and returns its boolean result. Empty expression
// always evaluates to false (never skip).
func (c *ConditionCache) Evaluate(expression string, state *ExecutionState) (bool, error) {
	if expression == "" {
		return false, nil
	}

	env := map[string]any{"ctx": state.snapshotContext()}

	program, ok := c.get(expression)
	if !ok {
		compiled, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
		if err != nil {
			return false, fmt.Errorf("compile skip predicate %q: %w", expression, err)
		}
		program = compiled
		c.put(expression, program)
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate skip predicate %q: %w", expression, err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("skip predicate %q did not return a boolean", expression)
	}
	return b, nil
}

// snapshotContext returns a shallow copy of the execution context for
// read-only expression evaluation.
func (s *ExecutionState) snapshotContext() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.context))
	for k, v := range s.context {
		out[k] = v
	}
	return out
}
