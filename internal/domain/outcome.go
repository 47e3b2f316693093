package domain

import (
	"context"
	"errors"
)

// Status is the user-visible workflow outcome taxonomy (spec §7). It is
// the terminal classification a caller (the queue consumer, an
// operator dashboard) uses to decide what happened to one run —
// distinct from the internal error Class, which only governs
// propagation/retry policy while the run is still in flight.
type Status string

const (
	// StatusCreated: new record written, completeness >= floor.
	StatusCreated Status = "created"
	// StatusUpdated: existing slug replaced under force_update.
	StatusUpdated Status = "updated"
	// StatusExists: duplicate detected pre-work; nothing written.
	StatusExists Status = "exists"
	// StatusDraftOutcome: below-floor completeness; written with status=draft.
	StatusDraftOutcome Status = "draft"
	// StatusDuplicate: slug conflict at commit time.
	StatusDuplicate Status = "duplicate"
	// StatusFailed: terminal error; nothing committed.
	StatusFailed Status = "failed"
	// StatusCancelled: explicit cancel; may have partial rollback.
	StatusCancelled Status = "cancelled"
)

// Result is the outcome of one pipeline run: the user-visible status
// plus whatever soft-skip events accumulated along the way (spec §7
// "soft-skip errors accumulate into the workflow's events list, which
// is always persisted alongside a successful payload").
type Result struct {
	Status Status
	Events []string
}

// StatusFromError maps a terminal pipeline error to its spec §7
// user-visible status. Only ClassBusiness errors are terminal-but-not-a-bug
// from the queue's perspective — they should be acked, not redelivered;
// ClassInput, ClassTransient, ClassData, ClassDependency, and an
// unrecognized error all fall through to StatusFailed, which the consumer
// nacks for retry (input/data errors won't succeed on retry either, but
// that's a producer-side bug, not something this run can resolve itself).
func StatusFromError(err error) Status {
	if err == nil {
		return StatusCreated
	}
	if errors.Is(err, context.Canceled) {
		return StatusCancelled
	}
	var pe *Error
	if !errors.As(err, &pe) {
		return StatusFailed
	}
	switch pe.Class {
	case ClassBusiness:
		switch pe.Code {
		case CodeSlugConflict:
			return StatusDuplicate
		case CodeAlreadyExists:
			return StatusExists
		case CodeBelowFloor, CodeAmbiguous:
			return StatusDraftOutcome
		default:
			return StatusFailed
		}
	default:
		return StatusFailed
	}
}

// AckOnTerminal reports whether the queue consumer should acknowledge
// (not redeliver) a run that failed with this status. Business-class
// terminal outcomes — a slug conflict (duplicate), an already-existing
// record, or completeness settling into draft — are final answers for
// this workflow_id, not transient failures; redelivering them would
// retry forever without ever succeeding (spec §7, E3's duplicate
// scenario).
func (s Status) AckOnTerminal() bool {
	switch s {
	case StatusDuplicate, StatusExists, StatusDraftOutcome, StatusCancelled:
		return true
	default:
		return false
	}
}
