package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/infra"
	"approval-engine/internal/pkg/clock"
	"approval-engine/internal/pkg/errs"
	"approval-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrRequestNotFound = errs.New("approval request not found")
	errPreview         = errs.New("preview rollback")
)

type Options struct {
	CommentMaximum int
}

type TargetInput struct {
	TargetType string         `json:"target_type" validate:"required"`
	TargetID   *int64         `json:"target_id"`
	Params     map[string]any `json:"params"`
}

type CreateRequestInput struct {
	ActorID     uuid.UUID            `json:"actor_id" validate:"required"`
	Event       approval.Event       `json:"event" validate:"required,oneof=create update destroy perform"`
	RequestType approval.RequestType `json:"request_type" validate:"required"`
	// AccessScope may be empty when ParentRequestID is set.
	AccessScope     approval.AccessScope `json:"access_scope"`
	Reason          string               `json:"reason" validate:"required"`
	ParentRequestID *uuid.UUID           `json:"parent_request_id"`
	OperationName   string               `json:"operation_name" validate:"required_if=Event perform"`
	Options         map[string]any       `json:"options"`
	Targets         []TargetInput        `json:"targets" validate:"required,min=1,dive"`
}

type CreateRequestResult struct {
	RequestID uuid.UUID
	Request   approval.Snapshot
}

type RequestCommands interface {
	Create(ctx context.Context, in CreateRequestInput) (*CreateRequestResult, error)
	// Preview runs every check Create runs and returns the request that would
	// be stored, without storing it.
	Preview(ctx context.Context, in CreateRequestInput) (*approval.Snapshot, error)
}

// Completion finishes a request form inside its unit of work once the request
// has been built and validated.
type Completion func(ctx context.Context, tx shared.Tx, req *approval.Request) error

type requestUseCaseImpl struct {
	uow            shared.UnitOfWork
	authz          *AuthorizationResolver
	engine         *ExecutionEngine
	guard          *approval.DuplicateGuard
	events         *EventPublisher
	clock          clock.Clock
	commentMaximum int
}

func NewRequestUseCase(
	uow shared.UnitOfWork,
	authz *AuthorizationResolver,
	engine *ExecutionEngine,
	guard *approval.DuplicateGuard,
	events *EventPublisher,
	clk clock.Clock,
	opts Options,
) RequestCommands {
	return &requestUseCaseImpl{
		uow:            uow,
		authz:          authz,
		engine:         engine,
		guard:          guard,
		events:         events,
		clock:          clk,
		commentMaximum: opts.CommentMaximum,
	}
}

func (uc *requestUseCaseImpl) Create(ctx context.Context, in CreateRequestInput) (*CreateRequestResult, error) {
	var created *approval.Request
	err := uc.run(ctx, in, func(ctx context.Context, tx shared.Tx, req *approval.Request) error {
		if err := persist(ctx, tx, req); err != nil {
			return err
		}
		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("approval request created",
		"request_id", created.ID(),
		"request_type", created.RequestType(),
		"access_scope", created.AccessScope(),
		"items", len(created.Items()))
	uc.events.Publish(ctx, approval.TopicRequestCreated, created, in.ActorID, nil, nil)

	return &CreateRequestResult{RequestID: created.ID(), Request: created.Snapshot()}, nil
}

func (uc *requestUseCaseImpl) Preview(ctx context.Context, in CreateRequestInput) (*approval.Snapshot, error) {
	var snap approval.Snapshot
	err := uc.run(ctx, in, func(_ context.Context, _ shared.Tx, req *approval.Request) error {
		snap = req.Snapshot()
		return errPreview
	})
	if err != nil && !errors.Is(err, errPreview) {
		return nil, err
	}
	return &snap, nil
}

// persist is the default completion: store the request, then hide its relatives.
func persist(ctx context.Context, tx shared.Tx, req *approval.Request) error {
	if err := tx.Requests().Create(ctx, req); err != nil {
		return err
	}
	if family, ok := approval.FamilyOf(req); ok {
		if _, err := tx.Requests().HideRelatives(ctx, family); err != nil {
			return err
		}
	}
	return nil
}

func (uc *requestUseCaseImpl) run(ctx context.Context, in CreateRequestInput, complete Completion) error {
	if err := validateInput(in); err != nil {
		return err
	}
	rt, err := approval.ParseRequestType(string(in.RequestType))
	if err != nil {
		return err
	}

	reads := uc.uow.CommandReads()
	scope := in.AccessScope
	var lineage []uuid.UUID
	if in.ParentRequestID != nil {
		parent, err := loadParent(ctx, reads, *in.ParentRequestID)
		if err != nil {
			return err
		}
		scope = parent.AccessScope()
		if lineage, err = reads.AncestorIDs(ctx, parent.ID()); err != nil {
			return err
		}
	}
	if scope == "" {
		return approval.NewValidationError("access_scope", "access_scope can't be blank")
	}
	if !scope.IsValid() {
		return approval.NewValidationError("access_scope", fmt.Sprintf("%q is not an access scope", scope))
	}

	items, err := uc.buildItems(ctx, in)
	if err != nil {
		return err
	}

	if err := uc.authz.RequireMaker(ctx, rt, scope, in.ActorID); err != nil {
		return err
	}
	if err := uc.checkDuplicates(ctx, reads, rt, items, lineage); err != nil {
		return err
	}

	now := uc.clock.Now()
	return uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		comment, err := approval.NewComment(in.ActorID, in.Reason, uc.commentMaximum, now)
		if err != nil {
			return err
		}

		var parent *approval.Request
		if in.ParentRequestID != nil {
			if parent, err = loadParent(ctx, tx.Reads(), *in.ParentRequestID); err != nil {
				return err
			}
		}

		req, err := approval.NewRequest(approval.NewRequestParams{
			RequestType:   rt,
			AccessScope:   scope,
			RequestUserID: in.ActorID,
			Parent:        parent,
			Items:         items,
			Comment:       comment,
			Now:           now,
		})
		if err != nil {
			return err
		}

		var ancestors []uuid.UUID
		if parent != nil {
			if ancestors, err = tx.Reads().AncestorIDs(ctx, parent.ID()); err != nil {
				return err
			}
			if err := approval.EnsureAcyclic(req.ID(), ancestors); err != nil {
				return err
			}
		}

		// Re-run the scan under the write transaction to catch a racing maker.
		if err := uc.checkDuplicates(ctx, tx.Reads(), rt, items, ancestors); err != nil {
			return err
		}
		return complete(ctx, tx, req)
	})
}

func (uc *requestUseCaseImpl) buildItems(ctx context.Context, in CreateRequestInput) ([]*approval.ActionItem, error) {
	var v approval.ValidationErrors
	items := make([]*approval.ActionItem, 0, len(in.Targets))
	for i, t := range in.Targets {
		prefix := fmt.Sprintf("targets[%d].", i)
		if !uc.engine.Supports(t.TargetType) {
			v.Add(prefix+"target_type", fmt.Sprintf("%q is not a registered target type", t.TargetType))
			continue
		}
		item, err := approval.NewActionItem(approval.ActionItemParams{
			Event:         in.Event,
			Target:        approval.Target{Type: t.TargetType, ID: t.TargetID},
			Params:        t.Params,
			OperationName: in.OperationName,
			Options:       in.Options,
		})
		if err != nil {
			v.Merge(prefix, err)
			continue
		}
		if err := uc.engine.ValidateProposal(ctx, item); err != nil {
			if kind, _ := approval.KindOf(err); kind != approval.KindValidation {
				return nil, err
			}
			v.Merge(prefix, err)
			continue
		}
		items = append(items, item)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// checkDuplicates ignores the request's own ancestors: a child revises the
// pending parent it hangs under rather than competing with it.
func (uc *requestUseCaseImpl) checkDuplicates(ctx context.Context, reads shared.CommandReads, rt approval.RequestType, items []*approval.ActionItem, lineage []uuid.UUID) error {
	targets := uc.guard.CollisionTargets(rt, items)
	if len(targets) == 0 {
		return nil
	}
	pending, err := reads.PendingRequestsTargeting(ctx, rt, targets)
	if err != nil {
		return err
	}
	return uc.guard.Check(rt, items, approval.ExcludePending(pending, lineage))
}

func loadParent(ctx context.Context, reads shared.CommandReads, id uuid.UUID) (*approval.Request, error) {
	parent, err := reads.RequestByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, approval.NewValidationError("parent_request_id", fmt.Sprintf("request %s does not exist", id))
		}
		return nil, err
	}
	return parent, nil
}

// RequestForCreate proposes creating one resource per params entry.
func RequestForCreate(actor uuid.UUID, reason string, rt approval.RequestType, scope approval.AccessScope, targetType string, params ...map[string]any) CreateRequestInput {
	targets := make([]TargetInput, 0, len(params))
	for _, p := range params {
		targets = append(targets, TargetInput{TargetType: targetType, Params: p})
	}
	return CreateRequestInput{
		ActorID:     actor,
		Event:       approval.EventCreate,
		RequestType: rt,
		AccessScope: scope,
		Reason:      reason,
		Targets:     targets,
	}
}

// RequestForUpdate proposes applying params to each listed target.
func RequestForUpdate(actor uuid.UUID, reason string, rt approval.RequestType, scope approval.AccessScope, targets ...TargetInput) CreateRequestInput {
	return CreateRequestInput{
		ActorID:     actor,
		Event:       approval.EventUpdate,
		RequestType: rt,
		AccessScope: scope,
		Reason:      reason,
		Targets:     targets,
	}
}

func RequestForDestroy(actor uuid.UUID, reason string, rt approval.RequestType, scope approval.AccessScope, targetType string, ids ...int64) CreateRequestInput {
	targets := make([]TargetInput, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, TargetInput{TargetType: targetType, TargetID: &id})
	}
	return CreateRequestInput{
		ActorID:     actor,
		Event:       approval.EventDestroy,
		RequestType: rt,
		AccessScope: scope,
		Reason:      reason,
		Targets:     targets,
	}
}

// RequestForPerform proposes running operation on each listed target with options.
func RequestForPerform(actor uuid.UUID, reason string, rt approval.RequestType, scope approval.AccessScope, operation string, options map[string]any, targets ...TargetInput) CreateRequestInput {
	return CreateRequestInput{
		ActorID:       actor,
		Event:         approval.EventPerform,
		RequestType:   rt,
		AccessScope:   scope,
		Reason:        reason,
		OperationName: operation,
		Options:       options,
		Targets:       targets,
	}
}
