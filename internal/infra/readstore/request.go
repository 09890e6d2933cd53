package readstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/infra"
	"approval-engine/internal/infra/db"
	"approval-engine/internal/infra/repository"
	"approval-engine/internal/infra/repository/converter"
	"approval-engine/internal/pkg/pgconv"
	"approval-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RequestReadStore struct {
	db db.DBTX
}

func NewRequestReadStore(dbtx db.DBTX) *RequestReadStore {
	return &RequestReadStore{db: dbtx}
}

func (s *RequestReadStore) FindByID(ctx context.Context, id uuid.UUID) (*approval.Request, error) {
	return repository.LoadRequest(ctx, s.db, id, false)
}

func (s *RequestReadStore) ListFirstPage(ctx context.Context, filters queries.RequestFilters, limit int32) ([]*queries.RequestListItem, error) {
	where, args := filterClause(filters)
	return s.list(ctx, where, args, limit)
}

func (s *RequestReadStore) ListKeyset(ctx context.Context, filters queries.RequestFilters, lastRequestedAt time.Time, lastID uuid.UUID, limit int32) ([]*queries.RequestListItem, error) {
	where, args := filterClause(filters)
	args = append(args, pgconv.TimeToPgtype(lastRequestedAt), lastID)
	where = append(where, fmt.Sprintf("(r.requested_at, r.id) < ($%d, $%d)", len(args)-1, len(args)))
	return s.list(ctx, where, args, limit)
}

func filterClause(f queries.RequestFilters) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("r.%s = $%d", column, len(args)))
	}
	if f.State != nil {
		add("state", f.State.Code())
	}
	if f.DisplayStatus != nil {
		add("display_status", f.DisplayStatus.Code())
	}
	if f.RequestType != nil {
		add("request_type", f.RequestType.String())
	}
	if f.AccessScope != nil {
		add("access_scope", f.AccessScope.String())
	}
	if f.RequestUserID != nil {
		add("request_user_id", *f.RequestUserID)
	}
	return where, args
}

func (s *RequestReadStore) list(ctx context.Context, where []string, args []any, limit int32) ([]*queries.RequestListItem, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT r.id, r.request_type, r.access_scope, r.state, r.display_status,
		r.request_user_id, r.respond_user_id, r.parent_request_id, r.requested_at, r.executed_at,
		(SELECT count(*) FROM approval_items i WHERE i.request_id = r.id)
	FROM approval_requests r`)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, limit)
	fmt.Fprintf(&sb, " ORDER BY r.requested_at DESC, r.id DESC LIMIT $%d", len(args))

	rows, err := s.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list approval requests", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*queries.RequestListItem, error) {
		var (
			r     converter.RequestRow
			count int64
		)
		if err := row.Scan(append(r.ScanTargets(), &count)...); err != nil {
			return nil, err
		}
		return toRequestListItem(r, count)
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan approval requests", err)
	}
	return items, nil
}

func toRequestListItem(r converter.RequestRow, itemCount int64) (*queries.RequestListItem, error) {
	state, err := approval.StateFromCode(r.State)
	if err != nil {
		return nil, err
	}
	display, err := approval.DisplayStatusFromCode(r.DisplayStatus)
	if err != nil {
		return nil, err
	}
	rt := approval.RequestType(r.RequestType)
	return &queries.RequestListItem{
		ID:               r.ID,
		RequestType:      rt.String(),
		RequestTypeLabel: rt.Label(),
		AccessScope:      r.AccessScope,
		State:            state.String(),
		DisplayStatus:    display.String(),
		RequestUserID:    r.RequestUserID,
		RespondUserID:    pgconv.UUIDPtrFromPgtype(r.RespondUserID),
		ParentRequestID:  pgconv.UUIDPtrFromPgtype(r.ParentRequestID),
		ItemCount:        int32(itemCount),
		RequestedAt:      pgconv.TimeFromPgtype(r.RequestedAt),
		ExecutedAt:       pgconv.TimePtrFromPgtype(r.ExecutedAt),
	}, nil
}

func (s *RequestReadStore) ChildIDs(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id FROM approval_requests WHERE parent_request_id = $1 ORDER BY requested_at, id`, parentID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list child requests", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan child requests", err)
	}
	return ids, nil
}

func (s *RequestReadStore) CommentsOf(ctx context.Context, requestIDs []uuid.UUID) ([]*approval.Comment, error) {
	return repository.CommentsOf(ctx, s.db, requestIDs)
}
