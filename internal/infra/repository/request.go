package repository

import (
	"context"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/infra"
	"approval-engine/internal/infra/db"
	"approval-engine/internal/infra/repository/converter"
	"approval-engine/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5"
)

type RequestRepository struct {
	db db.DBTX
}

func NewRequestRepository(dbtx db.DBTX) *RequestRepository {
	return &RequestRepository{db: dbtx}
}

const insertRequestSQL = `
INSERT INTO approval_requests (
    id, request_type, access_scope, state, display_status,
    request_user_id, respond_user_id, parent_request_id, requested_at, executed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const insertItemSQL = `
INSERT INTO approval_items (
    id, request_id, position, event, target_type, target_id, params, operation_name, options
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const insertCommentSQL = `
INSERT INTO approval_comments (id, request_id, user_id, content, created_at)
VALUES ($1, $2, $3, $4, $5)`

func (r *RequestRepository) Create(ctx context.Context, req *approval.Request) error {
	_, err := r.db.Exec(ctx, insertRequestSQL,
		req.ID(),
		req.RequestType().String(),
		req.AccessScope().String(),
		req.State().Code(),
		req.DisplayStatus().Code(),
		req.RequestUserID(),
		pgconv.UUIDPtrToPgtype(req.RespondUserID()),
		pgconv.UUIDPtrToPgtype(req.ParentRequestID()),
		pgconv.TimeToPgtype(req.RequestedAt()),
		pgconv.TimePtrToPgtype(req.ExecutedAt()),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create approval request", err)
	}

	batch := &pgx.Batch{}
	for pos, item := range req.Items() {
		params, err := converter.EncodeMap(item.Params())
		if err != nil {
			return infra.WrapRepoErr("failed to encode item params", err, infra.KindDBFailure)
		}
		options, err := converter.EncodeMap(item.Options())
		if err != nil {
			return infra.WrapRepoErr("failed to encode item options", err, infra.KindDBFailure)
		}
		batch.Queue(insertItemSQL,
			item.ID(), req.ID(), pos, item.Event().String(), item.TargetType(),
			pgconv.Int64PtrToPgtype(item.TargetID()), params, item.OperationName(), options)
	}
	queueComments(batch, req.UnsavedComments())
	if err := r.sendBatch(ctx, batch); err != nil {
		return infra.WrapRepoErr("failed to create approval items and comments", err)
	}

	req.MarkPersisted()
	return nil
}

const updateRequestSQL = `
UPDATE approval_requests
SET state = $2, display_status = $3, respond_user_id = $4, executed_at = $5, updated_at = now()
WHERE id = $1 AND state = $6`

const resolveItemTargetSQL = `UPDATE approval_items SET target_id = $2 WHERE id = $1`

func (r *RequestRepository) Save(ctx context.Context, req *approval.Request) error {
	tag, err := r.db.Exec(ctx, updateRequestSQL,
		req.ID(),
		req.State().Code(),
		req.DisplayStatus().Code(),
		pgconv.UUIDPtrToPgtype(req.RespondUserID()),
		pgconv.TimePtrToPgtype(req.ExecutedAt()),
		req.PersistedState().Code(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update approval request", err)
	}
	if tag.RowsAffected() == 0 {
		return r.staleWrite(ctx, req)
	}

	batch := &pgx.Batch{}
	for _, item := range req.Items() {
		if !item.TargetResolved() {
			continue
		}
		batch.Queue(resolveItemTargetSQL, item.ID(), pgconv.Int64PtrToPgtype(item.TargetID()))
	}
	queueComments(batch, req.UnsavedComments())
	if err := r.sendBatch(ctx, batch); err != nil {
		return infra.WrapRepoErr("failed to save approval items and comments", err)
	}

	req.MarkPersisted()
	return nil
}

// staleWrite explains a compare-and-set miss: the row is gone or another
// responder already moved it.
func (r *RequestRepository) staleWrite(ctx context.Context, req *approval.Request) error {
	var code int16
	err := r.db.QueryRow(ctx, `SELECT state FROM approval_requests WHERE id = $1`, req.ID()).Scan(&code)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return infra.WrapRepoErr("approval request not found", err, infra.KindNotFound)
		}
		return infra.WrapRepoErr("failed to read approval request state", err)
	}
	current, err := approval.StateFromCode(code)
	if err != nil {
		return infra.WrapRepoErr("unknown approval request state", err, infra.KindDBFailure)
	}
	return approval.NewAlreadyPerformedError(req.ID(), current)
}

const hideRelativesSQL = `
UPDATE approval_requests
SET display_status = 2, updated_at = now()
WHERE display_status = 1
  AND id <> $2
  AND (id = $1 OR parent_request_id = $1)`

func (r *RequestRepository) HideRelatives(ctx context.Context, family approval.Family) (int64, error) {
	tag, err := r.db.Exec(ctx, hideRelativesSQL, family.ParentID, family.MemberID)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to hide related requests", err)
	}
	return tag.RowsAffected(), nil
}

func queueComments(batch *pgx.Batch, comments []*approval.Comment) {
	for _, c := range comments {
		batch.Queue(insertCommentSQL, c.ID(), c.RequestID(), c.UserID(), c.Content(), pgconv.TimeToPgtype(c.CreatedAt()))
	}
}

func (r *RequestRepository) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	return r.db.SendBatch(ctx, batch).Close()
}
