package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/infra"
	"approval-engine/internal/pkg/clock"
	"approval-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

type RespondInput struct {
	ActorID   uuid.UUID `json:"actor_id" validate:"required"`
	RequestID uuid.UUID `json:"request_id" validate:"required"`
	Reason    string    `json:"reason"`
}

type RespondCommands interface {
	Cancel(ctx context.Context, in RespondInput) error
	// Approve approves the request and, when execute is set, runs it in the
	// same unit of work. A failed run leaves the request approved.
	Approve(ctx context.Context, in RespondInput, execute bool) error
	Reject(ctx context.Context, in RespondInput) error
	Execute(ctx context.Context, in RespondInput) error
}

type respondUseCaseImpl struct {
	uow            shared.UnitOfWork
	authz          *AuthorizationResolver
	engine         *ExecutionEngine
	events         *EventPublisher
	clock          clock.Clock
	commentMaximum int
}

func NewRespondUseCase(
	uow shared.UnitOfWork,
	authz *AuthorizationResolver,
	engine *ExecutionEngine,
	events *EventPublisher,
	clk clock.Clock,
	opts Options,
) RespondCommands {
	return &respondUseCaseImpl{
		uow:            uow,
		authz:          authz,
		engine:         engine,
		events:         events,
		clock:          clk,
		commentMaximum: opts.CommentMaximum,
	}
}

// transition mutates a locked request. Any error aborts the unit of work
// except an *executionFailure, whose partial effects still commit.
type transition func(ctx context.Context, req *approval.Request, actor uuid.UUID, now time.Time) error

type executionFailure struct {
	err error
}

func (e *executionFailure) Error() string { return e.err.Error() }
func (e *executionFailure) Unwrap() error { return e.err }

type respondOp struct {
	name           string
	checkerOnly    bool
	reasonOptional bool
	apply          transition
}

func (uc *respondUseCaseImpl) Cancel(ctx context.Context, in RespondInput) error {
	return uc.respond(ctx, in, respondOp{
		name: "cancel",
		apply: func(_ context.Context, req *approval.Request, actor uuid.UUID, _ time.Time) error {
			return req.Cancel(actor)
		},
	})
}

func (uc *respondUseCaseImpl) Approve(ctx context.Context, in RespondInput, execute bool) error {
	return uc.respond(ctx, in, respondOp{
		name:        "approve",
		checkerOnly: true,
		apply: func(ctx context.Context, req *approval.Request, actor uuid.UUID, now time.Time) error {
			if err := req.Approve(actor); err != nil {
				return err
			}
			if !execute {
				return nil
			}
			return uc.execute(ctx, req, now)
		},
	})
}

func (uc *respondUseCaseImpl) Reject(ctx context.Context, in RespondInput) error {
	return uc.respond(ctx, in, respondOp{
		name:        "reject",
		checkerOnly: true,
		apply: func(_ context.Context, req *approval.Request, actor uuid.UUID, _ time.Time) error {
			return req.Reject(actor)
		},
	})
}

func (uc *respondUseCaseImpl) Execute(ctx context.Context, in RespondInput) error {
	return uc.respond(ctx, in, respondOp{
		name:           "execute",
		checkerOnly:    true,
		reasonOptional: true,
		apply: func(ctx context.Context, req *approval.Request, _ uuid.UUID, now time.Time) error {
			return uc.execute(ctx, req, now)
		},
	})
}

// execute separates item failures from guard failures: the former are
// reported after commit, the latter roll the unit of work back.
func (uc *respondUseCaseImpl) execute(ctx context.Context, req *approval.Request, now time.Time) error {
	var itemErr error
	err := req.Execute(now, func(item *approval.ActionItem) error {
		itemErr = uc.engine.Apply(ctx, item)
		return itemErr
	})
	if err != nil && itemErr != nil {
		return &executionFailure{err: err}
	}
	return err
}

func (uc *respondUseCaseImpl) respond(ctx context.Context, in RespondInput, op respondOp) error {
	if err := validateInput(in); err != nil {
		return err
	}
	if !op.reasonOptional && strings.TrimSpace(in.Reason) == "" {
		return approval.NewValidationError("reason", "reason can't be blank")
	}

	current, err := loadRequest(ctx, uc.uow.CommandReads(), in.RequestID, false)
	if err != nil {
		return err
	}
	if op.checkerOnly {
		if err := uc.authz.RequireChecker(ctx, current, in.ActorID); err != nil {
			return err
		}
	}

	var (
		before  approval.Snapshot
		after   *approval.Request
		execErr error
	)
	now := uc.clock.Now()
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		after, execErr = nil, nil

		req, err := loadRequest(ctx, tx.Reads(), in.RequestID, true)
		if err != nil {
			return err
		}
		before = req.Snapshot()

		var comment *approval.Comment
		if strings.TrimSpace(in.Reason) != "" {
			if comment, err = approval.NewComment(in.ActorID, in.Reason, uc.commentMaximum, now); err != nil {
				return err
			}
		}

		if err := op.apply(ctx, req, in.ActorID, now); err != nil {
			var failure *executionFailure
			if !errors.As(err, &failure) {
				return err
			}
			execErr = failure.err
		}

		changed := req.State() != before.State
		if changed && comment != nil {
			req.AddComment(comment)
		}
		if err := tx.Requests().Save(ctx, req); err != nil {
			return err
		}
		if family, ok := approval.FamilyOf(req); ok && changed {
			if _, err := tx.Requests().HideRelatives(ctx, family); err != nil {
				return err
			}
		}
		after = req
		return nil
	})
	if err != nil {
		slog.Warn("approval response failed",
			"action", op.name,
			"request_id", in.RequestID,
			"actor_id", in.ActorID,
			"error", err.Error())
		return err
	}

	uc.publish(ctx, op, before, after, in.ActorID, execErr)
	return execErr
}

func (uc *respondUseCaseImpl) publish(ctx context.Context, op respondOp, before approval.Snapshot, after *approval.Request, actor uuid.UUID, execErr error) {
	if after.State() != before.State {
		slog.Info("approval request transitioned",
			"action", op.name,
			"request_id", after.ID(),
			"request_type", after.RequestType(),
			"from", before.State,
			"to", after.State())
	}

	// approve+execute passes through approved on its way to executed.
	if before.State == approval.StatePending && after.State() == approval.StateExecuted {
		uc.events.Publish(ctx, approval.TopicRequestApproved, after, actor, &before, nil)
		uc.events.Publish(ctx, approval.TopicRequestExecuted, after, actor, nil, nil)
		return
	}
	if after.State() != before.State {
		uc.events.Publish(ctx, approval.TopicFor(after.State()), after, actor, &before, nil)
	}
	if execErr != nil {
		slog.Error("approval request execution failed",
			"request_id", after.ID(),
			"request_type", after.RequestType(),
			"state", after.State(),
			"error", execErr.Error())
		uc.events.Publish(ctx, approval.TopicRequestExecutionFailed, after, actor, &before, execErr)
	}
}

func loadRequest(ctx context.Context, reads shared.CommandReads, id uuid.UUID, forUpdate bool) (*approval.Request, error) {
	load := reads.RequestByID
	if forUpdate {
		load = reads.RequestForUpdate
	}
	req, err := load(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}
