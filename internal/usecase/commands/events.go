package commands

import (
	"context"
	"log/slog"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/pkg/clock"
	"approval-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

// EventPublisher runs the post-commit side channel: notification then audit.
// Neither can fail the mutation that already committed.
type EventPublisher struct {
	notifier Notifier
	audit    AuditHook
	clock    clock.Clock
}

func NewEventPublisher(notifier Notifier, audit AuditHook, clk clock.Clock) *EventPublisher {
	return &EventPublisher{notifier: notifier, audit: audit, clock: clk}
}

func (p *EventPublisher) Publish(ctx context.Context, topic approval.Topic, req *approval.Request, actor uuid.UUID, before *approval.Snapshot, cause error) {
	now := p.clock.Now()
	evt := approval.NewNotification(topic, req, actor, now)
	evt.Err = cause

	p.notify(ctx, evt)

	if p.audit == nil {
		return
	}
	entry := shared.AuditEntry{
		RequestID:  req.ID(),
		Action:     topic,
		ActorID:    actor,
		Before:     before,
		After:      evt.Request,
		RecordedAt: now,
	}
	if err := p.audit.Record(ctx, entry); err != nil {
		slog.Warn("failed to record audit entry",
			"request_id", req.ID(),
			"action", topic,
			"error", err.Error())
	}
}

func (p *EventPublisher) notify(ctx context.Context, evt approval.Notification) {
	if p.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("notifier panicked",
				"request_id", evt.Request.ID,
				"topic", evt.Topic,
				"panic", r)
		}
	}()
	p.notifier.Notify(ctx, evt)
}
