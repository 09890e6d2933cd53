//go:build unit || e2e

package builder

import (
	"time"

	"approval-engine/internal/domain/approval"
	reqdto "approval-engine/internal/handler/dto/request"
	"approval-engine/internal/pkg/ptr"
	"approval-engine/internal/usecase/queries"

	"github.com/google/uuid"
)

type RequestBuilder struct {
	RequestType   approval.RequestType
	AccessScope   approval.AccessScope
	RequestUserID uuid.UUID
	Parent        *approval.Request
	Items         []approval.ActionItemParams
	Reason        string
	Now           time.Time
}

func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{
		RequestType:   approval.RequestTypeUpdateUserInformation,
		AccessScope:   approval.ScopeSystem,
		RequestUserID: uuid.New(),
		Items: []approval.ActionItemParams{{
			Event:  approval.EventUpdate,
			Target: approval.Target{Type: "User", ID: ptr.Of(int64(42))},
			Params: map[string]any{"name": "Ada"},
		}},
		Reason: "rename after marriage",
		Now:    time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func (b *RequestBuilder) With(mutate func(*RequestBuilder)) *RequestBuilder {
	mutate(b)
	return b
}

// Build methods
func (b *RequestBuilder) BuildDomain() (*approval.Request, error) {
	items := make([]*approval.ActionItem, 0, len(b.Items))
	for _, p := range b.Items {
		item, err := approval.NewActionItem(p)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	var comment *approval.Comment
	if b.Reason != "" {
		c, err := approval.NewComment(b.RequestUserID, b.Reason, approval.DefaultCommentMaximum, b.Now)
		if err != nil {
			return nil, err
		}
		comment = c
	}

	return approval.NewRequest(approval.NewRequestParams{
		RequestType:   b.RequestType,
		AccessScope:   b.AccessScope,
		RequestUserID: b.RequestUserID,
		Parent:        b.Parent,
		Items:         items,
		Comment:       comment,
		Now:           b.Now,
	})
}

// BuildPersisted returns the request as storage would hand it back, in state.
func (b *RequestBuilder) BuildPersisted(state approval.State, responder *uuid.UUID) (*approval.Request, error) {
	r, err := b.BuildDomain()
	if err != nil {
		return nil, err
	}
	snap := r.Snapshot()
	snap.State = state
	if state != approval.StatePending && responder == nil {
		responder = ptr.Of(uuid.New())
	}
	snap.RespondUserID = responder
	return approval.FromSnapshot(snap), nil
}

// BuildCreateRequestDTO renders the builder as the create request body.
func (b *RequestBuilder) BuildCreateRequestDTO() reqdto.CreateRequestRequest {
	dto := reqdto.CreateRequestRequest{
		RequestType: b.RequestType.String(),
		AccessScope: b.AccessScope.String(),
		Reason:      b.Reason,
	}
	for _, item := range b.Items {
		dto.Event = item.Event.String()
		dto.OperationName = item.OperationName
		dto.Options = item.Options
		dto.Targets = append(dto.Targets, reqdto.TargetRequest{
			TargetType: item.Target.Type,
			TargetID:   item.Target.ID,
			Params:     item.Params,
		})
	}
	return dto
}

// BuildViewQuery returns the checker view of the built request.
func (b *RequestBuilder) BuildViewQuery() *queries.RequestView {
	r, err := b.BuildDomain()
	if err != nil {
		panic(err)
	}
	view := &queries.RequestView{
		ID:               r.ID(),
		RequestType:      r.RequestType().String(),
		RequestTypeLabel: r.RequestType().Label(),
		AccessScope:      r.AccessScope().String(),
		State:            r.State().String(),
		DisplayStatus:    r.DisplayStatus().String(),
		RequestUserID:    r.RequestUserID(),
		ParentRequestID:  r.ParentRequestID(),
		RequestedAt:      r.RequestedAt(),
	}
	for _, item := range r.Items() {
		view.Items = append(view.Items, queries.ItemView{
			ID:            item.ID(),
			Event:         item.Event().String(),
			TargetType:    item.TargetType(),
			TargetID:      item.TargetID(),
			Params:        item.Params(),
			OperationName: item.OperationName(),
			Options:       item.Options(),
		})
	}
	for _, c := range r.Comments() {
		view.Comments = append(view.Comments, queries.CommentView{
			ID:        c.ID(),
			RequestID: r.ID(),
			UserID:    c.UserID(),
			Role:      string(approval.CommentRoleMaker),
			Content:   c.Content(),
			CreatedAt: c.CreatedAt(),
		})
	}
	return view
}

// Fluent builder methods
func (b *RequestBuilder) WithType(rt approval.RequestType) *RequestBuilder {
	b.RequestType = rt
	return b
}

func (b *RequestBuilder) WithScope(scope approval.AccessScope) *RequestBuilder {
	b.AccessScope = scope
	return b
}

func (b *RequestBuilder) WithRequester(id uuid.UUID) *RequestBuilder {
	b.RequestUserID = id
	return b
}

func (b *RequestBuilder) WithParent(parent *approval.Request) *RequestBuilder {
	b.Parent = parent
	return b
}

func (b *RequestBuilder) WithReason(reason string) *RequestBuilder {
	b.Reason = reason
	return b
}

func (b *RequestBuilder) WithoutItems() *RequestBuilder {
	b.Items = nil
	return b
}

func (b *RequestBuilder) WithItems(items ...approval.ActionItemParams) *RequestBuilder {
	b.Items = items
	return b
}

func (b *RequestBuilder) WithUpdate(targetType string, id int64, params map[string]any) *RequestBuilder {
	b.Items = []approval.ActionItemParams{{
		Event:  approval.EventUpdate,
		Target: approval.Target{Type: targetType, ID: ptr.Of(id)},
		Params: params,
	}}
	return b
}

func (b *RequestBuilder) WithCreate(targetType string, params map[string]any) *RequestBuilder {
	b.Items = []approval.ActionItemParams{{
		Event:  approval.EventCreate,
		Target: approval.Target{Type: targetType},
		Params: params,
	}}
	return b
}

func (b *RequestBuilder) WithPerform(targetType string, id int64, operation string, options map[string]any) *RequestBuilder {
	b.Items = []approval.ActionItemParams{{
		Event:         approval.EventPerform,
		Target:        approval.Target{Type: targetType, ID: ptr.Of(id)},
		OperationName: operation,
		Options:       options,
	}}
	return b
}

func (b *RequestBuilder) At(now time.Time) *RequestBuilder {
	b.Now = now
	return b
}
