// Package queue defines the durable task queue consumer contract for
// the pipeline's one external trigger surface (spec §6): a logical
// `quest-content-queue` carrying {workflow_type, workflow_id, input}
// messages, delivered at-least-once, deduplicated by workflow_id.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// WorkflowType selects which pipeline a message triggers.
type WorkflowType string

const (
	WorkflowArticle WorkflowType = "ARTICLE"
	WorkflowCompany WorkflowType = "COMPANY"
)

// Message is one `quest-content-queue` trigger (spec §6). WorkflowID
// must equal the slug once derived by the normalizer; callers that
// don't yet know the slug (the common case — the caller is enqueueing
// before normalization runs) pass a random id and let the worker's own
// dedup fall back to the (app, slug) uniqueness the persistence layer
// already enforces.
type Message struct {
	WorkflowType WorkflowType    `json:"workflow_type"`
	WorkflowID   string          `json:"workflow_id"`
	Input        json.RawMessage `json:"input"`
	EnqueuedAt   time.Time       `json:"enqueued_at"`
	DeliveryCount int            `json:"-"`
}

// ErrNoMessage is returned by Receive when the queue is empty for this
// poll; callers should back off and retry rather than treating it as
// fatal.
var ErrNoMessage = errors.New("queue: no message available")

// ErrNotFound is returned by Ack/Nack when receiptHandle no longer
// refers to an in-flight message (already acked, nacked, or expired).
var ErrNotFound = errors.New("queue: receipt handle not found")

// Queue is the consumer-side contract a worker process needs: receive
// one message at a time, acknowledge success, or negatively acknowledge
// for redelivery. Enqueue exists for completeness (tests, local
// triggering tools) — production enqueue is the trigger system's job,
// outside this pipeline's scope.
type Queue interface {
	// Enqueue submits msg for delivery. Implementations deduplicate by
	// WorkflowID: re-enqueuing an id already in flight or already
	// processed is a no-op, not an error (spec §6 "workflow IDs
	// deduplicate").
	Enqueue(ctx context.Context, msg Message) error

	// Receive blocks up to waitTimeout for the next available message,
	// returning it along with an opaque receipt handle. Returns
	// ErrNoMessage on timeout with nothing available.
	Receive(ctx context.Context, waitTimeout time.Duration) (Message, string, error)

	// Ack permanently removes the message identified by receiptHandle.
	Ack(ctx context.Context, receiptHandle string) error

	// Nack returns the message to the queue for redelivery (at-least-once,
	// spec §6), incrementing its delivery count.
	Nack(ctx context.Context, receiptHandle string) error
}
