package adapter

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

var validate = validator.New()

// TypedActivity adapts a strongly-typed (request, response) function pair
// to the activity.Activity interface, validating the request via struct
// tags before invoking fn. This is the generalized, typed replacement for
// the teacher's BaseExecutor.ValidateRequired config-map checks (see
// pkg/executor.BaseExecutor) — the same "validate before Execute" shape,
// but against real Go structs instead of map[string]any.
type TypedActivity[Req, Resp any] struct {
	name string
	fn   func(ctx context.Context, req Req) (Resp, error)
}

// NewTypedActivity builds a TypedActivity for name, delegating to fn once
// req passes validation.
func NewTypedActivity[Req, Resp any](name string, fn func(ctx context.Context, req Req) (Resp, error)) *TypedActivity[Req, Resp] {
	return &TypedActivity[Req, Resp]{name: name, fn: fn}
}

// Name implements activity.Activity.
func (t *TypedActivity[Req, Resp]) Name() string { return t.name }

// Execute implements activity.Activity. input must be a Req (a *Req is rejected);
// mismatches are a caller bug, not a request-shape error, so they are
// returned as ClassInput to keep the retry policy honest.
func (t *TypedActivity[Req, Resp]) Execute(ctx context.Context, input any) (any, error) {
	req, ok := input.(Req)
	if !ok {
		return nil, domain.Input(domain.CodeValidation, fmt.Sprintf("%s: unexpected input type %T", t.name, input))
	}

	if err := validate.Struct(req); err != nil {
		return nil, domain.Input(domain.CodeValidation, fmt.Sprintf("%s: %v", t.name, err))
	}

	return t.fn(ctx, req)
}
