package response

import (
	"time"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/wI2L/jsondiff"
)

type RequestResponse struct {
	ID               string            `json:"id"`
	RequestType      string            `json:"request_type"`
	RequestTypeLabel string            `json:"request_type_label"`
	AccessScope      string            `json:"access_scope"`
	State            string            `json:"state"`
	DisplayStatus    string            `json:"display_status"`
	RequestUserID    string            `json:"request_user_id"`
	RespondUserID    *string           `json:"respond_user_id,omitempty"`
	ParentRequestID  *string           `json:"parent_request_id,omitempty"`
	RequestedAt      int64             `json:"requested_at"`
	ExecutedAt       *int64            `json:"executed_at,omitempty"`
	Items            []ItemResponse    `json:"items"`
	Comments         []CommentResponse `json:"comments"`
}

type ItemResponse struct {
	ID            string         `json:"id"`
	Event         string         `json:"event"`
	TargetType    string         `json:"target_type"`
	TargetID      *int64         `json:"target_id,omitempty"`
	Params        map[string]any `json:"params"`
	OperationName string         `json:"operation_name,omitempty"`
	Options       map[string]any `json:"options,omitempty"`
	Summary       map[string]any `json:"summary,omitempty"`
}

type CommentResponse struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id,omitempty"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

type RequestListItemResponse struct {
	ID               string  `json:"id"`
	RequestType      string  `json:"request_type"`
	RequestTypeLabel string  `json:"request_type_label"`
	AccessScope      string  `json:"access_scope"`
	State            string  `json:"state"`
	DisplayStatus    string  `json:"display_status"`
	RequestUserID    string  `json:"request_user_id"`
	RespondUserID    *string `json:"respond_user_id,omitempty"`
	ParentRequestID  *string `json:"parent_request_id,omitempty"`
	ItemCount        int32   `json:"item_count"`
	RequestedAt      int64   `json:"requested_at"`
	ExecutedAt       *int64  `json:"executed_at,omitempty"`
}

type RequestListResponse struct {
	Items      []*RequestListItemResponse `json:"items"`
	NextCursor string                     `json:"next_cursor,omitempty"`
}

type HistoryEntryResponse struct {
	Action     string         `json:"action"`
	ActorID    string         `json:"actor_id"`
	Patch      jsondiff.Patch `json:"patch"`
	RecordedAt int64          `json:"recorded_at"`
}

type UserIDsResponse struct {
	UserIDs []string `json:"user_ids"`
}

// ids and timestamps leave the API as strings and unix seconds
var copyOption = copier.Option{
	Converters: []copier.TypeConverter{
		{
			SrcType: uuid.UUID{},
			DstType: copier.String,
			Fn: func(src any) (any, error) {
				return src.(uuid.UUID).String(), nil
			},
		},
		{
			SrcType: (*uuid.UUID)(nil),
			DstType: (*string)(nil),
			Fn: func(src any) (any, error) {
				id := src.(*uuid.UUID)
				if id == nil {
					return (*string)(nil), nil
				}
				s := id.String()
				return &s, nil
			},
		},
		{
			SrcType: time.Time{},
			DstType: int64(0),
			Fn: func(src any) (any, error) {
				return src.(time.Time).Unix(), nil
			},
		},
		{
			SrcType: (*time.Time)(nil),
			DstType: (*int64)(nil),
			Fn: func(src any) (any, error) {
				t := src.(*time.Time)
				if t == nil {
					return (*int64)(nil), nil
				}
				u := t.Unix()
				return &u, nil
			},
		},
	},
}

func FromRequestView(v *queries.RequestView) (*RequestResponse, error) {
	res := &RequestResponse{}
	if err := copier.CopyWithOption(res, v, copyOption); err != nil {
		return nil, err
	}
	nonNilSlices(res)
	return res, nil
}

// FromSnapshot renders a request that has not been stored, such as a preview.
func FromSnapshot(s *approval.Snapshot) (*RequestResponse, error) {
	res := &RequestResponse{}
	if err := copier.CopyWithOption(res, s, copyOption); err != nil {
		return nil, err
	}
	res.RequestTypeLabel = s.RequestType.Label()
	nonNilSlices(res)
	return res, nil
}

func nonNilSlices(res *RequestResponse) {
	if res.Items == nil {
		res.Items = []ItemResponse{}
	}
	if res.Comments == nil {
		res.Comments = []CommentResponse{}
	}
}

func FromComments(views []queries.CommentView) ([]CommentResponse, error) {
	res := make([]CommentResponse, 0, len(views))
	if err := copier.CopyWithOption(&res, views, copyOption); err != nil {
		return nil, err
	}
	return res, nil
}

func FromRequestList(items []*queries.RequestListItem, next *queries.Cursor) (*RequestListResponse, error) {
	res := &RequestListResponse{Items: make([]*RequestListItemResponse, 0, len(items))}
	if err := copier.CopyWithOption(&res.Items, items, copyOption); err != nil {
		return nil, err
	}
	if next != nil {
		res.NextCursor = next.After
	}
	return res, nil
}

func FromUserIDs(ids []uuid.UUID) *UserIDsResponse {
	res := &UserIDsResponse{UserIDs: make([]string, len(ids))}
	for i, id := range ids {
		res.UserIDs[i] = id.String()
	}
	return res
}

func FromHistory(entries []queries.HistoryEntryView) []HistoryEntryResponse {
	res := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		res[i] = HistoryEntryResponse{
			Action:     e.Action,
			ActorID:    e.ActorID.String(),
			Patch:      e.Patch,
			RecordedAt: e.RecordedAt.Unix(),
		}
	}
	return res
}
