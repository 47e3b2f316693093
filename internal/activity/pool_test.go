package activity

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPool_RunPreservesOrderAndBoundsConcurrency(t *testing.T) {
	var inFlight int32
	var maxObserved int32

	p := NewPool(2)
	tasks := make([]Task, 5)
	for i := 0; i < 5; i++ {
		i := i
		tasks[i] = func(ctx context.Context) (any, error) {
			cur := atomic.AddInt32(&inFlight, 1)
			defer atomic.AddInt32(&inFlight, -1)
			for {
				observed := atomic.LoadInt32(&maxObserved)
				if cur <= observed || atomic.CompareAndSwapInt32(&maxObserved, observed, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return i, nil
		}
	}

	results := p.Run(context.Background(), tasks)

	assert.LessOrEqual(t, int(maxObserved), 2)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, i, r.Output)
		assert.NoError(t, r.Err)
	}
}

func TestPool_ZeroSizeDefaultsToOne(t *testing.T) {
	p := NewPool(0)
	assert.Equal(t, 1, p.size)
}

func TestPool_PartialFailureDoesNotAbortOthers(t *testing.T) {
	p := NewPool(3)
	tasks := []Task{
		func(ctx context.Context) (any, error) { return "ok", nil },
		func(ctx context.Context) (any, error) { return nil, assertErr },
		func(ctx context.Context) (any, error) { return "ok2", nil },
	}

	results := p.Run(context.Background(), tasks)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
}

var assertErr = context.DeadlineExceeded
