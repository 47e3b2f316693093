package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutionState_ContextRoundTrip(t *testing.T) {
	state := NewExecutionState("exec-1", "article")

	_, ok := state.GetContext("missing")
	assert.False(t, ok)

	state.SetContext("topic", "remote work visas")
	v, ok := state.GetContext("topic")
	assert.True(t, ok)
	assert.Equal(t, "remote work visas", v)
}

func TestExecutionState_StatusDefaultsToPending(t *testing.T) {
	state := NewExecutionState("exec-1", "article")
	assert.Equal(t, PhasePending, state.Status("normalize"))

	state.SetStatus("normalize", PhaseCompleted)
	assert.Equal(t, PhaseCompleted, state.Status("normalize"))
}

func TestExecutionState_ErrorRoundTrip(t *testing.T) {
	state := NewExecutionState("exec-1", "article")
	assert.NoError(t, state.Error("normalize"))

	boom := errors.New("boom")
	state.SetError("normalize", boom)
	assert.Equal(t, boom, state.Error("normalize"))
}

func TestExecutionState_AttemptIncrementsAndReads(t *testing.T) {
	state := NewExecutionState("exec-1", "company")
	assert.Equal(t, 0, state.Attempt("reresearch"))

	assert.Equal(t, 1, state.IncrementAttempt("reresearch"))
	assert.Equal(t, 2, state.IncrementAttempt("reresearch"))
	assert.Equal(t, 2, state.Attempt("reresearch"))
}

func TestExecutionState_EventsAccumulateInAppendOrder(t *testing.T) {
	state := NewExecutionState("exec-1", "article")
	assert.Empty(t, state.Events())

	state.AddEvent("below_completeness_floor")
	state.AddEvent("image_failed idx=3 reason=CONTENT_POLICY")

	assert.Equal(t, []string{"below_completeness_floor", "image_failed idx=3 reason=CONTENT_POLICY"}, state.Events())
}

func TestExecutionState_EventsReturnsACopy(t *testing.T) {
	state := NewExecutionState("exec-1", "article")
	state.AddEvent("first")

	got := state.Events()
	got[0] = "mutated"

	assert.Equal(t, []string{"first"}, state.Events())
}
