package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue_EnqueueReceiveAck(t *testing.T) {
	q := NewInMemoryQueue(10, time.Minute)
	msg := Message{WorkflowType: WorkflowArticle, WorkflowID: "digital-nomad-visa-greece", Input: json.RawMessage(`{"topic":"x"}`)}

	require.NoError(t, q.Enqueue(t.Context(), msg))

	got, handle, err := q.Receive(t.Context(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, msg.WorkflowID, got.WorkflowID)
	assert.Equal(t, 1, got.DeliveryCount)

	require.NoError(t, q.Ack(t.Context(), handle))
	assert.ErrorIs(t, q.Ack(t.Context(), handle), ErrNotFound)
}

func TestInMemoryQueue_ReceiveOnEmptyTimesOut(t *testing.T) {
	q := NewInMemoryQueue(10, time.Minute)

	_, _, err := q.Receive(t.Context(), 10*time.Millisecond)

	assert.ErrorIs(t, err, ErrNoMessage)
}

func TestInMemoryQueue_DuplicateWorkflowIDIsNoOp(t *testing.T) {
	q := NewInMemoryQueue(10, time.Minute)
	msg := Message{WorkflowType: WorkflowCompany, WorkflowID: "acme-inc"}

	require.NoError(t, q.Enqueue(t.Context(), msg))
	require.NoError(t, q.Enqueue(t.Context(), msg)) // dedup, spec §6

	_, _, err := q.Receive(t.Context(), 10*time.Millisecond)
	require.NoError(t, err)

	_, _, err = q.Receive(t.Context(), 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoMessage)
}

func TestInMemoryQueue_NackRedeliversMessage(t *testing.T) {
	q := NewInMemoryQueue(10, time.Minute)
	msg := Message{WorkflowType: WorkflowArticle, WorkflowID: "redelivery-case"}
	require.NoError(t, q.Enqueue(t.Context(), msg))

	_, handle, err := q.Receive(t.Context(), time.Second)
	require.NoError(t, err)
	require.NoError(t, q.Nack(t.Context(), handle))

	redelivered, _, err := q.Receive(t.Context(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, msg.WorkflowID, redelivered.WorkflowID)
	assert.Equal(t, 2, redelivered.DeliveryCount)
}

func TestInMemoryQueue_VisibilityTimeoutRequeuesUnackedMessage(t *testing.T) {
	q := NewInMemoryQueue(10, 20*time.Millisecond)
	msg := Message{WorkflowType: WorkflowArticle, WorkflowID: "timeout-case"}
	require.NoError(t, q.Enqueue(t.Context(), msg))

	_, _, err := q.Receive(t.Context(), time.Second)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	redelivered, _, err := q.Receive(t.Context(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, msg.WorkflowID, redelivered.WorkflowID)
}
