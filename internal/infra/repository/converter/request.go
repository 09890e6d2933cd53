package converter

import (
	"encoding/json"
	"fmt"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// RequestRow mirrors approval_requests.
type RequestRow struct {
	ID              uuid.UUID
	RequestType     string
	AccessScope     string
	State           int16
	DisplayStatus   int16
	RequestUserID   uuid.UUID
	RespondUserID   pgtype.UUID
	ParentRequestID pgtype.UUID
	RequestedAt     pgtype.Timestamptz
	ExecutedAt      pgtype.Timestamptz
}

// ScanTargets lists the destinations in the column order of RequestColumns.
func (r *RequestRow) ScanTargets() []any {
	return []any{
		&r.ID, &r.RequestType, &r.AccessScope, &r.State, &r.DisplayStatus,
		&r.RequestUserID, &r.RespondUserID, &r.ParentRequestID, &r.RequestedAt, &r.ExecutedAt,
	}
}

const RequestColumns = `id, request_type, access_scope, state, display_status,
	request_user_id, respond_user_id, parent_request_id, requested_at, executed_at`

type ItemRow struct {
	ID            uuid.UUID
	RequestID     uuid.UUID
	Event         string
	TargetType    string
	TargetID      pgtype.Int8
	Params        []byte
	OperationName string
	Options       []byte
}

func (r *ItemRow) ScanTargets() []any {
	return []any{
		&r.ID, &r.RequestID, &r.Event, &r.TargetType, &r.TargetID,
		&r.Params, &r.OperationName, &r.Options,
	}
}

const ItemColumns = `id, request_id, event, target_type, target_id, params, operation_name, options`

type CommentRow struct {
	ID        uuid.UUID
	RequestID uuid.UUID
	UserID    uuid.UUID
	Content   string
	CreatedAt pgtype.Timestamptz
}

func (r *CommentRow) ScanTargets() []any {
	return []any{&r.ID, &r.RequestID, &r.UserID, &r.Content, &r.CreatedAt}
}

const CommentColumns = `id, request_id, user_id, content, created_at`

func ItemToDomain(row ItemRow) (*approval.ActionItem, error) {
	params, err := decodeMap(row.Params)
	if err != nil {
		return nil, fmt.Errorf("item %s params: %w", row.ID, err)
	}
	options, err := decodeMap(row.Options)
	if err != nil {
		return nil, fmt.Errorf("item %s options: %w", row.ID, err)
	}
	return approval.ReconstructActionItem(row.ID, approval.ActionItemParams{
		Event:         approval.Event(row.Event),
		Target:        approval.Target{Type: row.TargetType, ID: pgconv.Int64PtrFromPgtype(row.TargetID)},
		Params:        params,
		OperationName: row.OperationName,
		Options:       options,
	}), nil
}

func CommentToDomain(row CommentRow) *approval.Comment {
	return approval.ReconstructComment(row.ID, row.RequestID, row.UserID, row.Content, pgconv.TimeFromPgtype(row.CreatedAt))
}

// RequestToDomain rebuilds the aggregate from its row, items and comments.
func RequestToDomain(row RequestRow, items []*approval.ActionItem, comments []*approval.Comment) (*approval.Request, error) {
	state, err := approval.StateFromCode(row.State)
	if err != nil {
		return nil, err
	}
	display, err := approval.DisplayStatusFromCode(row.DisplayStatus)
	if err != nil {
		return nil, err
	}
	return approval.ReconstructRequest(approval.RequestRecord{
		ID:              row.ID,
		RequestType:     approval.RequestType(row.RequestType),
		AccessScope:     approval.AccessScope(row.AccessScope),
		State:           state,
		DisplayStatus:   display,
		RequestUserID:   row.RequestUserID,
		RespondUserID:   pgconv.UUIDPtrFromPgtype(row.RespondUserID),
		ParentRequestID: pgconv.UUIDPtrFromPgtype(row.ParentRequestID),
		RequestedAt:     pgconv.TimeFromPgtype(row.RequestedAt),
		ExecutedAt:      pgconv.TimePtrFromPgtype(row.ExecutedAt),
		Items:           items,
		Comments:        comments,
	}), nil
}

// EncodeMap renders a params/options map as JSONB; nil becomes {}.
func EncodeMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func decodeMap(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}
