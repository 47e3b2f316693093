package queue

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// InMemoryQueue is a reference Queue implementation backed by a
// buffered channel plus an in-flight receipt table. It satisfies the
// at-least-once redelivery and workflow-id dedup requirements from
// spec §6 without a concrete broker dependency — see DESIGN.md for why
// no broker SDK from the retrieved pack was a fit for this interface.
// Each Receive call first requeues messages whose consumer never acked
// or nacked within the visibility timeout, the same redelivery guarantee
// a real broker (SQS, Redis streams, etc) provides natively. No
// background goroutine runs, so an expired message waits for the next
// Receive call to be requeued.
type InMemoryQueue struct {
	mu             sync.Mutex
	pending        chan Message
	inFlight       map[string]inFlightEntry
	seen           map[string]bool // workflow ids ever enqueued or in flight
	visibilityTime time.Duration
}

type inFlightEntry struct {
	msg     Message
	expires time.Time
}

// NewInMemoryQueue builds a queue with the given buffer capacity and
// visibility timeout (how long a received-but-unacked message stays
// invisible before automatic redelivery).
func NewInMemoryQueue(capacity int, visibilityTimeout time.Duration) *InMemoryQueue {
	q := &InMemoryQueue{
		pending:        make(chan Message, capacity),
		inFlight:       make(map[string]inFlightEntry),
		seen:           make(map[string]bool),
		visibilityTime: visibilityTimeout,
	}
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, msg Message) error {
	q.mu.Lock()
	if q.seen[msg.WorkflowID] {
		q.mu.Unlock()
		return nil // dedup: spec §6 "workflow IDs deduplicate"
	}
	q.seen[msg.WorkflowID] = true
	q.mu.Unlock()

	if msg.EnqueuedAt.IsZero() {
		msg.EnqueuedAt = time.Now()
	}

	select {
	case q.pending <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InMemoryQueue) Receive(ctx context.Context, waitTimeout time.Duration) (Message, string, error) {
	q.reapExpired()

	timer := time.NewTimer(waitTimeout)
	defer timer.Stop()

	select {
	case msg := <-q.pending:
		msg.DeliveryCount++
		handle := newReceiptHandle()
		q.mu.Lock()
		q.inFlight[handle] = inFlightEntry{msg: msg, expires: time.Now().Add(q.visibilityTime)}
		q.mu.Unlock()
		return msg, handle, nil
	case <-timer.C:
		return Message{}, "", ErrNoMessage
	case <-ctx.Done():
		return Message{}, "", ctx.Err()
	}
}

func (q *InMemoryQueue) Ack(ctx context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.inFlight[receiptHandle]; !ok {
		return ErrNotFound
	}
	delete(q.inFlight, receiptHandle)
	return nil
}

func (q *InMemoryQueue) Nack(ctx context.Context, receiptHandle string) error {
	q.mu.Lock()
	entry, ok := q.inFlight[receiptHandle]
	if !ok {
		q.mu.Unlock()
		return ErrNotFound
	}
	delete(q.inFlight, receiptHandle)
	q.mu.Unlock()

	select {
	case q.pending <- entry.msg:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// reapExpired requeues any in-flight message whose visibility timeout
// has elapsed without an ack or explicit nack — the redelivery path a
// consumer crash takes.
func (q *InMemoryQueue) reapExpired() {
	now := time.Now()
	var expired []Message

	q.mu.Lock()
	for handle, entry := range q.inFlight {
		if now.After(entry.expires) {
			expired = append(expired, entry.msg)
			delete(q.inFlight, handle)
		}
	}
	q.mu.Unlock()

	for _, msg := range expired {
		select {
		case q.pending <- msg:
		default:
			// buffer full; dropped messages would need an explicit DLQ
			// in a production broker, out of scope for the reference impl
		}
	}
}

func newReceiptHandle() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
