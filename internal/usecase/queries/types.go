package queries

import (
	"time"

	"github.com/google/uuid"
	"github.com/wI2L/jsondiff"
)

// RequestView is the checker facing rendering of one request.
type RequestView struct {
	ID               uuid.UUID     `json:"id"`
	RequestType      string        `json:"request_type"`
	RequestTypeLabel string        `json:"request_type_label"`
	AccessScope      string        `json:"access_scope"`
	State            string        `json:"state"`
	DisplayStatus    string        `json:"display_status"`
	RequestUserID    uuid.UUID     `json:"request_user_id"`
	RespondUserID    *uuid.UUID    `json:"respond_user_id,omitempty"`
	ParentRequestID  *uuid.UUID    `json:"parent_request_id,omitempty"`
	RequestedAt      time.Time     `json:"requested_at"`
	ExecutedAt       *time.Time    `json:"executed_at,omitempty"`
	Items            []ItemView    `json:"items"`
	Comments         []CommentView `json:"comments"`
}

type ItemView struct {
	ID            uuid.UUID      `json:"id"`
	Event         string         `json:"event"`
	TargetType    string         `json:"target_type"`
	TargetID      *int64         `json:"target_id,omitempty"`
	Params        map[string]any `json:"params"`
	OperationName string         `json:"operation_name,omitempty"`
	Options       map[string]any `json:"options,omitempty"`
	// Summary is the adapter's checker view of the target, when it offers one.
	Summary       map[string]any `json:"summary,omitempty"`
}

type CommentView struct {
	ID        uuid.UUID `json:"id"`
	RequestID uuid.UUID `json:"request_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// RequestListItem is the row shape of request listings.
type RequestListItem struct {
	ID               uuid.UUID  `json:"id"`
	RequestType      string     `json:"request_type"`
	RequestTypeLabel string     `json:"request_type_label"`
	AccessScope      string     `json:"access_scope"`
	State            string     `json:"state"`
	DisplayStatus    string     `json:"display_status"`
	RequestUserID    uuid.UUID  `json:"request_user_id"`
	RespondUserID    *uuid.UUID `json:"respond_user_id,omitempty"`
	ParentRequestID  *uuid.UUID `json:"parent_request_id,omitempty"`
	ItemCount        int32      `json:"item_count"`
	RequestedAt      time.Time  `json:"requested_at"`
	ExecutedAt       *time.Time `json:"executed_at,omitempty"`
}

// HistoryEntryView is one audited mutation with the JSON Patch it applied.
type HistoryEntryView struct {
	Action     string         `json:"action"`
	ActorID    uuid.UUID      `json:"actor_id"`
	Patch      jsondiff.Patch `json:"patch"`
	RecordedAt time.Time      `json:"recorded_at"`
}
