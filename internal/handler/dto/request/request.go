package request

import (
	"approval-engine/internal/domain/approval"
	"approval-engine/internal/pkg/patch"
	"approval-engine/internal/usecase/commands"
	"approval-engine/internal/usecase/queries"

	"github.com/google/uuid"
)

type TargetRequest struct {
	TargetType string         `json:"target_type" binding:"required"`
	TargetID   *int64         `json:"target_id" binding:"omitempty,min=1"`
	Params     map[string]any `json:"params"`
}

type CreateRequestRequest struct {
	Event           string          `json:"event" binding:"required,oneof=create update destroy perform"`
	RequestType     string          `json:"request_type" binding:"required"`
	AccessScope     string          `json:"access_scope"`
	Reason          string          `json:"reason" binding:"required"`
	ParentRequestID *uuid.UUID      `json:"parent_request_id"`
	OperationName   string          `json:"operation_name"`
	Options         map[string]any  `json:"options"`
	Targets         []TargetRequest `json:"targets" binding:"required,min=1,dive"`
}

// ToInput binds the acting user to the proposal.
func (r *CreateRequestRequest) ToInput(actorID uuid.UUID) commands.CreateRequestInput {
	targets := make([]commands.TargetInput, len(r.Targets))
	for i, t := range r.Targets {
		targets[i] = commands.TargetInput{
			TargetType: t.TargetType,
			TargetID:   t.TargetID,
			Params:     patch.CoalesceMap(t.Params),
		}
	}
	return commands.CreateRequestInput{
		ActorID:         actorID,
		Event:           approval.Event(r.Event),
		RequestType:     approval.RequestType(r.RequestType),
		AccessScope:     approval.AccessScope(r.AccessScope),
		Reason:          r.Reason,
		ParentRequestID: r.ParentRequestID,
		OperationName:   r.OperationName,
		Options:         r.Options,
		Targets:         targets,
	}
}

type RespondRequest struct {
	Reason string `json:"reason"`
	// Execute applies to approve only; nil falls back to the server default.
	Execute *bool `json:"execute"`
}

func (r *RespondRequest) ToInput(actorID, requestID uuid.UUID) commands.RespondInput {
	return commands.RespondInput{ActorID: actorID, RequestID: requestID, Reason: r.Reason}
}

type ListRequestsQuery struct {
	State         string `form:"state"`
	DisplayStatus string `form:"display_status"`
	RequestType   string `form:"request_type"`
	AccessScope   string `form:"access_scope"`
	RequestUserID string `form:"request_user_id"`
	Limit         *int   `form:"limit" binding:"omitempty,min=1"`
	After         string `form:"after"`
}

// ToFilters parses the filter values; an empty value does not filter.
func (q *ListRequestsQuery) ToFilters() (queries.RequestFilters, error) {
	var (
		f    queries.RequestFilters
		errs approval.ValidationErrors
	)
	if q.State != "" {
		if s, err := approval.ParseState(q.State); err != nil {
			errs.Merge("", err)
		} else {
			f.State = &s
		}
	}
	if q.DisplayStatus != "" {
		if d, err := approval.ParseDisplayStatus(q.DisplayStatus); err != nil {
			errs.Merge("", err)
		} else {
			f.DisplayStatus = &d
		}
	}
	if q.RequestType != "" {
		if rt, err := approval.ParseRequestType(q.RequestType); err != nil {
			errs.Merge("", err)
		} else {
			f.RequestType = &rt
		}
	}
	if q.AccessScope != "" {
		if sc, err := approval.ParseAccessScope(q.AccessScope); err != nil {
			errs.Merge("", err)
		} else {
			f.AccessScope = &sc
		}
	}
	if q.RequestUserID != "" {
		if id, err := uuid.Parse(q.RequestUserID); err != nil {
			errs.Add("request_user_id", "is not a valid id")
		} else {
			f.RequestUserID = &id
		}
	}
	return f, errs.Err()
}

// PageSize is the requested limit, or 0 to let the query apply its default.
func (q *ListRequestsQuery) PageSize() int {
	if q.Limit == nil {
		return 0
	}
	return *q.Limit
}

func (q *ListRequestsQuery) Cursor() *queries.Cursor {
	if q.After == "" {
		return nil
	}
	return &queries.Cursor{After: q.After}
}
