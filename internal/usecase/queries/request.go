package queries

import (
	"context"
	"log/slog"
	"time"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/domain/target"
	"approval-engine/internal/infra"
	"approval-engine/internal/infra/audit"
	"approval-engine/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrRequestNotFound = errs.New("approval request not found")

// RequestFilters narrows a listing. Nil fields do not filter.
type RequestFilters struct {
	State         *approval.State
	DisplayStatus *approval.DisplayStatus
	RequestType   *approval.RequestType
	AccessScope   *approval.AccessScope
	RequestUserID *uuid.UUID
}

type RequestReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*approval.Request, error)
	ListFirstPage(ctx context.Context, filters RequestFilters, limit int32) ([]*RequestListItem, error)
	ListKeyset(ctx context.Context, filters RequestFilters, lastRequestedAt time.Time, lastID uuid.UUID, limit int32) ([]*RequestListItem, error)
	// ChildIDs lists the direct children of parentID.
	ChildIDs(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error)
	// CommentsOf returns the comments of every listed request, oldest first.
	CommentsOf(ctx context.Context, requestIDs []uuid.UUID) ([]*approval.Comment, error)
}

// EligibilityResolver resolves the users able to make or check a request.
type EligibilityResolver interface {
	ValidMakers(ctx context.Context, req *approval.Request) ([]uuid.UUID, error)
	ValidCheckers(ctx context.Context, req *approval.Request) ([]uuid.UUID, error)
}

// HistoryReader returns the audit trail of a request, oldest first.
type HistoryReader interface {
	History(ctx context.Context, requestID uuid.UUID) ([]audit.Record, error)
}

type RequestQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*RequestView, error)
	List(ctx context.Context, filters RequestFilters, cursor *Cursor, limit int) ([]*RequestListItem, *Cursor, error)
	RelatedComments(ctx context.Context, id uuid.UUID) ([]CommentView, error)
	ValidMakers(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	ValidCheckers(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	History(ctx context.Context, id uuid.UUID) ([]HistoryEntryView, error)
}

type requestQueriesImpl struct {
	store    RequestReadStore
	resolver EligibilityResolver
	registry *target.Registry
	history  HistoryReader
}

func NewRequestQueries(store RequestReadStore, resolver EligibilityResolver, registry *target.Registry, history HistoryReader) RequestQueries {
	return &requestQueriesImpl{store: store, resolver: resolver, registry: registry, history: history}
}

func (q *requestQueriesImpl) load(ctx context.Context, id uuid.UUID) (*approval.Request, error) {
	req, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

func (q *requestQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*RequestView, error) {
	req, err := q.load(ctx, id)
	if err != nil {
		return nil, err
	}

	roles := newRoleCache(q.resolver)
	view := &RequestView{
		ID:               req.ID(),
		RequestType:      req.RequestType().String(),
		RequestTypeLabel: req.RequestType().Label(),
		AccessScope:      req.AccessScope().String(),
		State:            req.State().String(),
		DisplayStatus:    req.DisplayStatus().String(),
		RequestUserID:    req.RequestUserID(),
		RespondUserID:    req.RespondUserID(),
		ParentRequestID:  req.ParentRequestID(),
		RequestedAt:      req.RequestedAt(),
		ExecutedAt:       req.ExecutedAt(),
		Items:            make([]ItemView, 0, len(req.Items())),
		Comments:         make([]CommentView, 0, len(req.Comments())),
	}
	for _, item := range req.Items() {
		view.Items = append(view.Items, q.itemView(ctx, item))
	}
	roles.remember(req)
	for _, c := range req.Comments() {
		cv, err := roles.view(ctx, c)
		if err != nil {
			return nil, err
		}
		view.Comments = append(view.Comments, cv)
	}
	return view, nil
}

func (q *requestQueriesImpl) itemView(ctx context.Context, item *approval.ActionItem) ItemView {
	iv := ItemView{
		ID:            item.ID(),
		Event:         item.Event().String(),
		TargetType:    item.TargetType(),
		TargetID:      item.TargetID(),
		Params:        item.Params(),
		OperationName: item.OperationName(),
		Options:       item.Options(),
	}
	if q.registry == nil {
		return iv
	}
	adapter, ok := q.registry.Lookup(item.TargetType())
	if !ok {
		return iv
	}
	summarizer, ok := adapter.(target.Summarizer)
	if !ok {
		return iv
	}
	summary, err := summarizer.SummaryForChecker(ctx, item.TargetID(), target.Params(item.Params()))
	if err != nil {
		// a vanished target still renders without its summary
		slog.Warn("checker summary unavailable",
			"item_id", item.ID(),
			"target_type", item.TargetType(),
			"error", err)
		return iv
	}
	iv.Summary = summary
	return iv
}

func (q *requestQueriesImpl) List(ctx context.Context, filters RequestFilters, cursor *Cursor, limit int) ([]*RequestListItem, *Cursor, error) {
	limit = ValidateLimit(limit)
	var rows []*RequestListItem
	var err error
	if cursor == nil || cursor.After == "" {
		rows, err = q.store.ListFirstPage(ctx, filters, int32(limit+1))
	} else {
		lastRequestedAt, lastID, derr := DecodeAfterCursor(cursor.After)
		if derr != nil {
			return nil, nil, ErrInvalidCursor
		}
		rows, err = q.store.ListKeyset(ctx, filters, lastRequestedAt, lastID, int32(limit+1))
	}
	if err != nil {
		return nil, nil, err
	}
	var next *Cursor
	if len(rows) > limit {
		last := rows[limit-1]
		next = &Cursor{After: EncodeAfterCursor(last.RequestedAt, last.ID)}
		rows = rows[:limit]
	}
	return rows, next, nil
}

// RelatedComments returns the consolidated thread of a request's family,
// oldest first. Each comment's role is resolved against its own request.
func (q *requestQueriesImpl) RelatedComments(ctx context.Context, id uuid.UUID) ([]CommentView, error) {
	req, err := q.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var siblings []uuid.UUID
	if parentID := req.ParentRequestID(); parentID != nil {
		siblings, err = q.store.ChildIDs(ctx, *parentID)
		if err != nil {
			return nil, errs.Wrap(err, "list sibling requests")
		}
	}

	comments, err := q.store.CommentsOf(ctx, approval.RelatedRequestIDs(req, siblings))
	if err != nil {
		return nil, errs.Wrap(err, "list related comments")
	}

	roles := newRoleCache(q.resolver)
	roles.remember(req)
	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		if !roles.known(c.RequestID()) {
			owner, err := q.load(ctx, c.RequestID())
			if err != nil {
				return nil, err
			}
			roles.remember(owner)
		}
		cv, err := roles.view(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, nil
}

func (q *requestQueriesImpl) ValidMakers(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	req, err := q.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return q.resolver.ValidMakers(ctx, req)
}

func (q *requestQueriesImpl) ValidCheckers(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	req, err := q.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return q.resolver.ValidCheckers(ctx, req)
}

func (q *requestQueriesImpl) History(ctx context.Context, id uuid.UUID) ([]HistoryEntryView, error) {
	if _, err := q.load(ctx, id); err != nil {
		return nil, err
	}
	records, err := q.history.History(ctx, id)
	if err != nil {
		return nil, errs.Wrap(err, "load audit trail")
	}
	out := make([]HistoryEntryView, 0, len(records))
	for _, rec := range records {
		out = append(out, HistoryEntryView{
			Action:     rec.Action,
			ActorID:    rec.ActorID,
			Patch:      rec.Patch,
			RecordedAt: rec.RecordedAt,
		})
	}
	return out, nil
}

type eligibility struct {
	makers   []uuid.UUID
	checkers []uuid.UUID
}

// roleCache resolves makers and checkers once per request.
type roleCache struct {
	resolver EligibilityResolver
	requests map[uuid.UUID]*approval.Request
	resolved map[uuid.UUID]eligibility
}

func newRoleCache(resolver EligibilityResolver) *roleCache {
	return &roleCache{
		resolver: resolver,
		requests: map[uuid.UUID]*approval.Request{},
		resolved: map[uuid.UUID]eligibility{},
	}
}

func (c *roleCache) remember(req *approval.Request) { c.requests[req.ID()] = req }

func (c *roleCache) known(id uuid.UUID) bool {
	_, ok := c.requests[id]
	return ok
}

func (c *roleCache) eligibility(ctx context.Context, requestID uuid.UUID) (eligibility, error) {
	if e, ok := c.resolved[requestID]; ok {
		return e, nil
	}
	req, ok := c.requests[requestID]
	if !ok {
		return eligibility{}, nil
	}
	makers, err := c.resolver.ValidMakers(ctx, req)
	if err != nil {
		return eligibility{}, errs.Wrap(err, "resolve makers")
	}
	checkers, err := c.resolver.ValidCheckers(ctx, req)
	if err != nil {
		return eligibility{}, errs.Wrap(err, "resolve checkers")
	}
	e := eligibility{makers: makers, checkers: checkers}
	c.resolved[requestID] = e
	return e, nil
}

func (c *roleCache) view(ctx context.Context, comment *approval.Comment) (CommentView, error) {
	e, err := c.eligibility(ctx, comment.RequestID())
	if err != nil {
		return CommentView{}, err
	}
	return CommentView{
		ID:        comment.ID(),
		RequestID: comment.RequestID(),
		UserID:    comment.UserID(),
		Role:      string(comment.RoleIn(e.makers, e.checkers)),
		Content:   comment.Content(),
		CreatedAt: comment.CreatedAt(),
	}, nil
}
