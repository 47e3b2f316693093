// Package activity provides the adapter contract (search, crawl,
// research, LLM, image generation, persistence, graph, URL validation)
// and the cross-cutting policies — rate limiting, circuit breaking,
// bounded concurrency — that wrap every adapter call (spec §4.1, §6).
package activity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Activity is one externally-facing capability a phase can invoke. Each
// concrete adapter in internal/activity/adapter implements this against
// its own typed request/response pair via a thin wrapper (see
// adapter.TypedActivity) so the registry and cross-cutting policies stay
// adapter-agnostic, mirroring the teacher's own node-type Executor
// contract (pkg/executor.Executor).
type Activity interface {
	// Name identifies the activity for rate-limit, breaker, and metrics
	// lookup (e.g. "news_search", "llm_complete").
	Name() string

	// Execute performs the call. input/output are adapter-specific; callers
	// type-assert based on Name().
	Execute(ctx context.Context, input any) (any, error)
}

// ActivityFunc adapts a plain function to the Activity interface.
type ActivityFunc struct {
	name string
	fn   func(ctx context.Context, input any) (any, error)
}

// NewActivityFunc builds an Activity from a name and function.
func NewActivityFunc(name string, fn func(ctx context.Context, input any) (any, error)) *ActivityFunc {
	return &ActivityFunc{name: name, fn: fn}
}

// Name implements Activity.
func (f *ActivityFunc) Name() string { return f.name }

// Execute implements Activity.
func (f *ActivityFunc) Execute(ctx context.Context, input any) (any, error) {
	return f.fn(ctx, input)
}

// IdempotencyKey derives a stable key for a (workflow, phase, input)
// triple so retries of the same logical call are recognizable as
// duplicates by downstream stores (spec §4.1 "phases carry idempotency
// keys"). The key is a hash, not the input itself, so it's safe to log
// and index.
func IdempotencyKey(workflowID, phaseName, inputFingerprint string) string {
	h := sha256.New()
	h.Write([]byte(workflowID))
	h.Write([]byte{0})
	h.Write([]byte(phaseName))
	h.Write([]byte{0})
	h.Write([]byte(inputFingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// ErrActivityNotFound is returned by Manager.Get for an unregistered name.
type ErrActivityNotFound struct{ Name string }

func (e *ErrActivityNotFound) Error() string {
	return fmt.Sprintf("activity not registered: %s", e.Name)
}
