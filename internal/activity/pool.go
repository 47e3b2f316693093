package activity

import (
	"context"
	"sync"
)

// Pool bounds the concurrency of fan-out work inside a single activity —
// e.g. crawling several candidate URLs, or requesting images for several
// slots at once — independent of the phase-level wave parallelism the
// engine already provides. Grounded on the teacher's semaphore pattern in
// pkg/engine/dag_executor.go (executeWave), generalized from "one
// semaphore slot per DAG node" to "one slot per fan-out unit of work
// inside an activity".
type Pool struct {
	size int
}

// NewPool builds a Pool with the given maximum concurrency. size <= 0
// is treated as 1 to guarantee forward progress.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{size: size}
}

// Task is one unit of fan-out work submitted to a Pool.
type Task func(ctx context.Context) (any, error)

// Result pairs a Task's output with its index, preserving input order
// regardless of completion order.
type Result struct {
	Index  int
	Output any
	Err    error
}

// Run executes every task with at most p.size running concurrently,
// returning one Result per task in input order. It does not stop early
// on error — callers inspect each Result.Err themselves, since partial
// fan-out failure (e.g. 2 of 5 crawl targets failing) is routinely
// expected rather than fatal.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	sem := make(chan struct{}, p.size)
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				results[i] = Result{Index: i, Err: ctx.Err()}
				return
			}
			out, err := task(ctx)
			results[i] = Result{Index: i, Output: out, Err: err}
		}(i, task)
	}

	wg.Wait()
	return results
}
