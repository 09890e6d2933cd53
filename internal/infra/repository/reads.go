package repository

import (
	"context"
	"fmt"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/infra"
	"approval-engine/internal/infra/db"
	"approval-engine/internal/infra/repository/converter"
	"approval-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// RequestReads serves the command-side lookups. Bound to a transaction,
// RequestForUpdate takes a row lock; bound to the pool it degrades to a plain read.
type RequestReads struct {
	db db.DBTX
}

func NewRequestReads(dbtx db.DBTX) *RequestReads {
	return &RequestReads{db: dbtx}
}

func (r *RequestReads) RequestByID(ctx context.Context, id uuid.UUID) (*approval.Request, error) {
	return LoadRequest(ctx, r.db, id, false)
}

func (r *RequestReads) RequestForUpdate(ctx context.Context, id uuid.UUID) (*approval.Request, error) {
	return LoadRequest(ctx, r.db, id, true)
}

// LoadRequest reads a whole aggregate: the request row, its items in order and its comments.
func LoadRequest(ctx context.Context, dbtx db.DBTX, id uuid.UUID, forUpdate bool) (*approval.Request, error) {
	query := `SELECT ` + converter.RequestColumns + ` FROM approval_requests WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var row converter.RequestRow
	if err := dbtx.QueryRow(ctx, query, id).Scan(row.ScanTargets()...); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("approval request not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find approval request", err)
	}

	items, err := itemsOf(ctx, dbtx, id)
	if err != nil {
		return nil, err
	}
	comments, err := CommentsOf(ctx, dbtx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	req, err := converter.RequestToDomain(row, items, comments)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt approval request row", err, infra.KindDBFailure)
	}
	return req, nil
}

func itemsOf(ctx context.Context, dbtx db.DBTX, requestID uuid.UUID) ([]*approval.ActionItem, error) {
	rows, err := dbtx.Query(ctx,
		`SELECT `+converter.ItemColumns+` FROM approval_items WHERE request_id = $1 ORDER BY position`, requestID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list approval items", err)
	}
	defer rows.Close()

	var items []*approval.ActionItem
	for rows.Next() {
		var row converter.ItemRow
		if err := rows.Scan(row.ScanTargets()...); err != nil {
			return nil, infra.WrapRepoErr("failed to scan approval item", err)
		}
		item, err := converter.ItemToDomain(row)
		if err != nil {
			return nil, infra.WrapRepoErr("corrupt approval item row", err, infra.KindDBFailure)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to list approval items", err)
	}
	return items, nil
}

// CommentsOf returns the comments of the given requests, oldest first.
func CommentsOf(ctx context.Context, dbtx db.DBTX, requestIDs []uuid.UUID) ([]*approval.Comment, error) {
	rows, err := dbtx.Query(ctx,
		`SELECT `+converter.CommentColumns+` FROM approval_comments
		 WHERE request_id = ANY($1) ORDER BY created_at, id`, requestIDs)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list approval comments", err)
	}
	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*approval.Comment, error) {
		var c converter.CommentRow
		if err := row.Scan(c.ScanTargets()...); err != nil {
			return nil, err
		}
		return converter.CommentToDomain(c), nil
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan approval comments", err)
	}
	return comments, nil
}

const pendingTargetingSQL = `
SELECT r.id, i.target_type, i.target_id
FROM approval_requests r
JOIN approval_items i ON i.request_id = r.id
WHERE r.state = 0
  AND r.request_type = $1
  AND i.target_id IS NOT NULL
  AND (i.target_type, i.target_id) IN (SELECT * FROM unnest($2::text[], $3::bigint[]))
ORDER BY r.requested_at, r.id`

func (r *RequestReads) PendingRequestsTargeting(ctx context.Context, rt approval.RequestType, targets []approval.Target) ([]approval.PendingRequest, error) {
	types := make([]string, 0, len(targets))
	ids := make([]int64, 0, len(targets))
	for _, t := range targets {
		if !t.HasID() {
			continue
		}
		types = append(types, t.Type)
		ids = append(ids, *t.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, pendingTargetingSQL, rt.String(), types, ids)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan pending requests", err)
	}
	defer rows.Close()

	var out []approval.PendingRequest
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var (
			id         uuid.UUID
			targetType string
			targetID   int64
		)
		if err := rows.Scan(&id, &targetType, &targetID); err != nil {
			return nil, infra.WrapRepoErr("failed to scan pending request", err)
		}
		pos, ok := index[id]
		if !ok {
			pos = len(out)
			index[id] = pos
			out = append(out, approval.PendingRequest{ID: id, RequestType: rt})
		}
		tid := targetID
		out[pos].Targets = append(out[pos].Targets, approval.Target{Type: targetType, ID: &tid})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to scan pending requests", err)
	}
	return out, nil
}

// depth bound stops the walk on rows that already form a cycle
const ancestorsSQL = `
WITH RECURSIVE chain (id, parent_request_id, depth) AS (
    SELECT id, parent_request_id, 0 FROM approval_requests WHERE id = $1
    UNION ALL
    SELECT r.id, r.parent_request_id, c.depth + 1
    FROM approval_requests r
    JOIN chain c ON r.id = c.parent_request_id
    WHERE c.depth < 1000
)
SELECT id FROM chain ORDER BY depth`

func (r *RequestReads) AncestorIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, ancestorsSQL, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to walk request ancestors", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan request ancestors", err)
	}
	if len(ids) == 0 {
		return nil, infra.NotFound(fmt.Sprintf("approval request %s not found", id))
	}
	return ids, nil
}

const accessControlSQL = `
SELECT ac.id, acr.role_id, acr.access_type
FROM approval_access_controls ac
LEFT JOIN approval_access_control_roles acr ON acr.access_control_id = ac.id
WHERE ac.request_type = $1 AND ac.access_scope = $2
ORDER BY acr.access_type, acr.role_id`

func (r *RequestReads) AccessControl(ctx context.Context, rt approval.RequestType, scope approval.AccessScope) (*approval.AccessControl, error) {
	rows, err := r.db.Query(ctx, accessControlSQL, rt.String(), scope.String())
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load access control", err)
	}
	defer rows.Close()

	var (
		id    int64
		found bool
		roles []approval.AccessControlRole
	)
	for rows.Next() {
		var (
			roleID     pgtype.Int8
			accessCode pgtype.Int2
		)
		if err := rows.Scan(&id, &roleID, &accessCode); err != nil {
			return nil, infra.WrapRepoErr("failed to scan access control", err)
		}
		found = true
		if !roleID.Valid {
			continue
		}
		access, err := approval.AccessTypeFromCode(accessCode.Int16)
		if err != nil {
			return nil, infra.WrapRepoErr("corrupt access control row", err, infra.KindDBFailure)
		}
		roles = append(roles, approval.AccessControlRole{RoleID: approval.RoleID(roleID.Int64), AccessType: access})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to load access control", err)
	}
	if !found {
		return nil, infra.NotFound(fmt.Sprintf("access control %s/%s not found", rt, scope))
	}
	return approval.NewAccessControl(id, rt, scope, roles)
}
