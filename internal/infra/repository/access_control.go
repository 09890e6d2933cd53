package repository

import (
	"context"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/infra"
	"approval-engine/internal/infra/db"
)

type AccessControlRepository struct {
	db db.DBTX
}

func NewAccessControlRepository(dbtx db.DBTX) *AccessControlRepository {
	return &AccessControlRepository{db: dbtx}
}

// ReplaceAccessControl stores ac as the only row for its (request type, scope), dropping
// any roles previously attached to it. It returns the row id.
func (r *AccessControlRepository) ReplaceAccessControl(ctx context.Context, ac *approval.AccessControl) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO approval_access_controls (request_type, access_scope) VALUES ($1, $2)
		ON CONFLICT (request_type, access_scope) DO UPDATE SET request_type = EXCLUDED.request_type
		RETURNING id`, ac.RequestType().String(), ac.AccessScope().String()).Scan(&id)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to upsert access control", err)
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM approval_access_control_roles WHERE access_control_id = $1`, id); err != nil {
		return 0, infra.WrapRepoErr("failed to clear access control roles", err)
	}

	for _, access := range []approval.AccessType{approval.AccessMaker, approval.AccessChecker} {
		for _, role := range ac.Roles(access) {
			_, err := r.db.Exec(ctx, `
				INSERT INTO approval_access_control_roles (access_control_id, role_id, access_type)
				VALUES ($1, $2, $3)`, id, int64(role), access.Code())
			if err != nil {
				return 0, infra.WrapRepoErr("failed to attach access control role", err)
			}
		}
	}
	return id, nil
}
