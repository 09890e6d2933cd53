package approval

import (
	"time"

	"github.com/google/uuid"
)

type Topic string

const (
	TopicRequestCreated         Topic = "request.created"
	TopicRequestCancelled       Topic = "request.cancelled"
	TopicRequestApproved        Topic = "request.approved"
	TopicRequestRejected        Topic = "request.rejected"
	TopicRequestExecuted        Topic = "request.executed"
	TopicRequestExecutionFailed Topic = "request.execution_failed"
)

// Notification is emitted once per committed mutation.
type Notification struct {
	Topic   Topic
	Request Snapshot
	// Comment is the initiating comment, Latest the most recent one.
	Comment    *CommentSnapshot
	Latest     *CommentSnapshot
	ActorID    uuid.UUID
	OccurredAt time.Time
	// Err is set for TopicRequestExecutionFailed.
	Err error
}

func NewNotification(topic Topic, r *Request, actor uuid.UUID, now time.Time) Notification {
	snap := r.Snapshot()
	evt := Notification{Topic: topic, Request: snap, ActorID: actor, OccurredAt: now}
	if n := len(snap.Comments); n > 0 {
		first, last := snap.Comments[0], snap.Comments[n-1]
		evt.Comment = &first
		evt.Latest = &last
	}
	return evt
}

// TopicFor maps a resulting state to its event topic.
func TopicFor(s State) Topic {
	switch s {
	case StateCancelled:
		return TopicRequestCancelled
	case StateApproved:
		return TopicRequestApproved
	case StateRejected:
		return TopicRequestRejected
	case StateExecuted:
		return TopicRequestExecuted
	default:
		return TopicRequestCreated
	}
}
