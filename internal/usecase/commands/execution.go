package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/domain/target"
	"approval-engine/internal/pkg/errs"
)

// ExecutionEngine replays ActionItems against their target adapters.
type ExecutionEngine struct {
	registry *target.Registry
}

func NewExecutionEngine(registry *target.Registry) *ExecutionEngine {
	return &ExecutionEngine{registry: registry}
}

func (e *ExecutionEngine) adapter(targetType, operation string) (target.Adapter, error) {
	a, ok := e.registry.Lookup(targetType)
	if !ok {
		return nil, approval.NewUnsupportedActionError(targetType, operation)
	}
	return a, nil
}

// Apply dispatches on the item's event. A create item that already carries a
// target id was applied by an earlier attempt and is skipped.
func (e *ExecutionEngine) Apply(ctx context.Context, item *approval.ActionItem) error {
	a, err := e.adapter(item.TargetType(), item.OperationName())
	if err != nil {
		return err
	}

	switch item.Event() {
	case approval.EventCreate:
		return e.create(ctx, a, item)
	case approval.EventUpdate:
		id, err := e.existing(ctx, a, item)
		if err != nil {
			return err
		}
		return classify(a, id, a.Update(ctx, id, item.Params()))
	case approval.EventDestroy:
		id, err := e.existing(ctx, a, item)
		if err != nil {
			return err
		}
		return classify(a, id, a.Destroy(ctx, id))
	case approval.EventPerform:
		return e.perform(ctx, a, item)
	default:
		return approval.NewValidationError("event", fmt.Sprintf("%q is not a valid event", item.Event()))
	}
}

func (e *ExecutionEngine) create(ctx context.Context, a target.Adapter, item *approval.ActionItem) error {
	if item.Target().HasID() {
		slog.Debug("skipping already applied create item",
			"item_id", item.ID(),
			"target", item.Target().Key())
		return nil
	}
	id, err := a.Create(ctx, item.Params())
	if err != nil {
		return classify(a, 0, err)
	}
	item.ResolveTarget(id)
	return nil
}

// existing resolves the item's target id and confirms the resource is still there.
func (e *ExecutionEngine) existing(ctx context.Context, a target.Adapter, item *approval.ActionItem) (int64, error) {
	id := item.TargetID()
	if id == nil {
		return 0, approval.NewValidationError("target_id", fmt.Sprintf("is required for %s", item.Event()))
	}
	ok, err := a.Exists(ctx, *id)
	if err != nil {
		return 0, errs.Wrapf(err, "look up %s#%d", a.TargetType(), *id)
	}
	if !ok {
		return 0, approval.NewUnexistResourceError(a.TargetType(), *id)
	}
	return *id, nil
}

func (e *ExecutionEngine) perform(ctx context.Context, a target.Adapter, item *approval.ActionItem) error {
	name := item.OperationName()
	if name == "" {
		return approval.NewUnsupportedActionError(a.TargetType(), "")
	}
	op, ok := a.Operation(name)
	if !ok {
		return approval.NewUnsupportedActionError(a.TargetType(), name)
	}

	subject := target.Subject{Params: item.Params()}
	if item.Target().HasID() {
		id, err := e.existing(ctx, a, item)
		if err != nil {
			return err
		}
		subject.ID = &id
	}

	var id int64
	if subject.ID != nil {
		id = *subject.ID
	}
	if _, err := op.Call(ctx, subject, item.Options()); err != nil {
		return classify(a, id, err)
	}
	return nil
}

// ValidateProposal runs the paired validation operation of a perform item, if
// the adapter declares one. A refusal surfaces as a ValidationError.
func (e *ExecutionEngine) ValidateProposal(ctx context.Context, item *approval.ActionItem) error {
	if item.Event() != approval.EventPerform {
		return nil
	}
	a, err := e.adapter(item.TargetType(), item.OperationName())
	if err != nil {
		return err
	}
	v, ok := a.(target.Validator)
	if !ok {
		return nil
	}
	name, ok := target.ValidationName(item.OperationName())
	if !ok {
		return nil
	}
	validate, ok := v.Validation(name)
	if !ok {
		return nil
	}

	ok, messages := validate(ctx, target.Subject{ID: item.TargetID(), Params: item.Params()}, item.Options())
	if ok {
		return nil
	}
	return approval.NewValidationError("options", messages...)
}

// classify maps adapter failures onto the engine's error kinds.
func classify(a target.Adapter, id int64, err error) error {
	if err == nil {
		return nil
	}
	var verr *target.ValidationError
	switch {
	case errors.As(err, &verr):
		return approval.NewResourceRejectedError(a.TargetType(), verr.Messages, err)
	case errs.Is(err, target.ErrNotFound):
		return approval.NewUnexistResourceError(a.TargetType(), id)
	default:
		if _, ok := approval.KindOf(err); ok {
			return err
		}
		return errs.Wrapf(err, "%s adapter", a.TargetType())
	}
}

// Supports reports whether an adapter is registered for targetType.
func (e *ExecutionEngine) Supports(targetType string) bool {
	_, ok := e.registry.Lookup(targetType)
	return ok
}
