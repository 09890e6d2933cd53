// Package notify delivers approval events to side channels that cannot fail
// the mutation they describe.
package notify

import (
	"context"
	"log/slog"

	"approval-engine/internal/domain/approval"
)

// Notifier matches the usecase port.
type Notifier interface {
	Notify(ctx context.Context, evt approval.Notification)
}

// Fanout forwards every event to each notifier in order. A panicking
// notifier is logged and skipped.
type Fanout struct {
	notifiers []Notifier
}

func NewFanout(notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers}
}

func (f *Fanout) Notify(ctx context.Context, evt approval.Notification) {
	for _, n := range f.notifiers {
		deliver(ctx, n, evt)
	}
}

func deliver(ctx context.Context, n Notifier, evt approval.Notification) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("notifier panicked",
				"topic", evt.Topic,
				"request_id", evt.Request.ID,
				"panic", r)
		}
	}()
	n.Notify(ctx, evt)
}

// LogNotifier writes one structured log line per event.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, evt approval.Notification) {
	attrs := []any{
		slog.String("topic", string(evt.Topic)),
		slog.String("request_id", evt.Request.ID.String()),
		slog.String("request_type", evt.Request.RequestType.String()),
		slog.String("access_scope", evt.Request.AccessScope.String()),
		slog.String("state", evt.Request.State.String()),
		slog.String("actor_id", evt.ActorID.String()),
		slog.Time("occurred_at", evt.OccurredAt),
	}
	if evt.Request.ParentRequestID != nil {
		attrs = append(attrs, slog.String("parent_request_id", evt.Request.ParentRequestID.String()))
	}
	if evt.Latest != nil {
		attrs = append(attrs, slog.String("comment", evt.Latest.Content))
	}

	if evt.Err != nil {
		attrs = append(attrs, slog.String("error", evt.Err.Error()))
		l.logger.WarnContext(ctx, "approval event", attrs...)
		return
	}
	l.logger.InfoContext(ctx, "approval event", attrs...)
}
