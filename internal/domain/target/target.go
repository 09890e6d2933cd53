// Package target defines how the approval engine reaches the resources an
// ActionItem changes. Each resource kind registers one Adapter under a string key.
package target

import (
	"context"
	"strings"

	"approval-engine/internal/pkg/errs"
)

var ErrNotFound = errs.New("target resource not found")

// ValidationError is returned by adapters that refuse a change.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid resource: " + strings.Join(e.Messages, "; ")
}

func Invalid(messages ...string) error {
	return &ValidationError{Messages: messages}
}

type Params map[string]any

// Subject is the resource an operation runs against. ID is nil for a
// transient resource built only from Params.
type Subject struct {
	ID     *int64
	Params Params
}

// Operation is a named action with a declared arity of 0 or 1. Arity-1
// operations receive the item's options.
type Operation struct {
	name   string
	arity  int
	invoke func(ctx context.Context, subject Subject, options Params) (any, error)
}

func Nullary(name string, fn func(ctx context.Context, subject Subject) (any, error)) Operation {
	return Operation{
		name:  name,
		arity: 0,
		invoke: func(ctx context.Context, subject Subject, _ Params) (any, error) {
			return fn(ctx, subject)
		},
	}
}

func Unary(name string, fn func(ctx context.Context, subject Subject, options Params) (any, error)) Operation {
	return Operation{name: name, arity: 1, invoke: fn}
}

func (o Operation) Name() string { return o.name }
func (o Operation) Arity() int   { return o.arity }

// Call dispatches on arity: options are dropped for nullary operations.
func (o Operation) Call(ctx context.Context, subject Subject, options Params) (any, error) {
	if o.arity == 0 {
		return o.invoke(ctx, subject, nil)
	}
	return o.invoke(ctx, subject, options)
}

// ValidationFunc is a paired pre-check run when a perform item is proposed.
type ValidationFunc func(ctx context.Context, subject Subject, options Params) (ok bool, messages []string)

type Adapter interface {
	TargetType() string
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, params Params) (int64, error)
	Update(ctx context.Context, id int64, params Params) error
	Destroy(ctx context.Context, id int64) error
	Operation(name string) (Operation, bool)
}

// Validator is implemented by adapters exposing paired validation operations.
type Validator interface {
	Validation(name string) (ValidationFunc, bool)
}

// Summarizer is implemented by adapters that render a checker friendly view.
type Summarizer interface {
	SummaryForChecker(ctx context.Context, id *int64, params Params) (map[string]any, error)
}

const (
	operationPrefix  = "callback"
	validationPrefix = "validation_callback"
)

// ValidationName derives the paired validation operation name by replacing the
// first "callback" with "validation_callback". Names without it have no pair.
func ValidationName(operation string) (string, bool) {
	if !strings.Contains(operation, operationPrefix) {
		return "", false
	}
	return strings.Replace(operation, operationPrefix, validationPrefix, 1), true
}
