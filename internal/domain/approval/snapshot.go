package approval

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is a detached, JSON friendly copy of a Request. Audit records and
// events carry snapshots so later mutations of the aggregate never leak into them.
type Snapshot struct {
	ID              uuid.UUID         `json:"id"`
	RequestType     RequestType       `json:"request_type"`
	AccessScope     AccessScope       `json:"access_scope"`
	State           State             `json:"state"`
	DisplayStatus   DisplayStatus     `json:"display_status"`
	RequestUserID   uuid.UUID         `json:"request_user_id"`
	RespondUserID   *uuid.UUID        `json:"respond_user_id,omitempty"`
	ParentRequestID *uuid.UUID        `json:"parent_request_id,omitempty"`
	RequestedAt     time.Time         `json:"requested_at"`
	ExecutedAt      *time.Time        `json:"executed_at,omitempty"`
	Items           []ItemSnapshot    `json:"items"`
	Comments        []CommentSnapshot `json:"comments"`
}

type ItemSnapshot struct {
	ID            uuid.UUID      `json:"id"`
	Event         Event          `json:"event"`
	TargetType    string         `json:"target_type"`
	TargetID      *int64         `json:"target_id,omitempty"`
	Params        map[string]any `json:"params"`
	OperationName string         `json:"operation_name,omitempty"`
	Options       map[string]any `json:"options"`
}

type CommentSnapshot struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Request) Snapshot() Snapshot {
	s := Snapshot{
		ID:              r.id,
		RequestType:     r.requestType,
		AccessScope:     r.accessScope,
		State:           r.state,
		DisplayStatus:   r.displayStatus,
		RequestUserID:   r.requestUserID,
		RespondUserID:   copyUUID(r.respondUserID),
		ParentRequestID: copyUUID(r.parentRequestID),
		RequestedAt:     r.requestedAt,
		ExecutedAt:      copyTime(r.executedAt),
		Items:           make([]ItemSnapshot, 0, len(r.items)),
		Comments:        make([]CommentSnapshot, 0, len(r.comments)),
	}
	for _, i := range r.items {
		s.Items = append(s.Items, ItemSnapshot{
			ID:            i.id,
			Event:         i.event,
			TargetType:    i.target.Type,
			TargetID:      copyID(i.target.ID),
			Params:        cloneMap(i.params),
			OperationName: i.operationName,
			Options:       cloneMap(i.options),
		})
	}
	for _, c := range r.comments {
		s.Comments = append(s.Comments, CommentSnapshot{
			ID:        c.id,
			UserID:    c.userID,
			Content:   c.content,
			CreatedAt: c.createdAt,
		})
	}
	return s
}

// FromSnapshot rebuilds a persisted Request.
func FromSnapshot(s Snapshot) *Request {
	items := make([]*ActionItem, 0, len(s.Items))
	for _, i := range s.Items {
		items = append(items, ReconstructActionItem(i.ID, ActionItemParams{
			Event:         i.Event,
			Target:        Target{Type: i.TargetType, ID: i.TargetID},
			Params:        i.Params,
			OperationName: i.OperationName,
			Options:       i.Options,
		}))
	}
	comments := make([]*Comment, 0, len(s.Comments))
	for _, c := range s.Comments {
		comments = append(comments, ReconstructComment(c.ID, s.ID, c.UserID, c.Content, c.CreatedAt))
	}
	return ReconstructRequest(RequestRecord{
		ID:              s.ID,
		RequestType:     s.RequestType,
		AccessScope:     s.AccessScope,
		State:           s.State,
		DisplayStatus:   s.DisplayStatus,
		RequestUserID:   s.RequestUserID,
		RespondUserID:   copyUUID(s.RespondUserID),
		ParentRequestID: copyUUID(s.ParentRequestID),
		RequestedAt:     s.RequestedAt,
		ExecutedAt:      copyTime(s.ExecutedAt),
		Items:           items,
		Comments:        comments,
	})
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
