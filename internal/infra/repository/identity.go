package repository

import (
	"context"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/infra"
	"approval-engine/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IdentityStore resolves role membership from the user_roles table.
type IdentityStore struct {
	db db.DBTX
}

func NewIdentityStore(dbtx db.DBTX) *IdentityStore {
	return &IdentityStore{db: dbtx}
}

func (s *IdentityStore) RolesOf(ctx context.Context, userID uuid.UUID) ([]approval.RoleID, error) {
	rows, err := s.db.Query(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1 ORDER BY role_id`, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list roles of user", err)
	}
	roles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (approval.RoleID, error) {
		var id int64
		err := row.Scan(&id)
		return approval.RoleID(id), err
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan roles of user", err)
	}
	return roles, nil
}

func (s *IdentityStore) UsersWithRole(ctx context.Context, roleID approval.RoleID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT user_id FROM user_roles WHERE role_id = $1 ORDER BY user_id`, int64(roleID))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list members of role", err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan members of role", err)
	}
	return users, nil
}

func (s *IdentityStore) UpsertRole(ctx context.Context, id approval.RoleID, name string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO roles (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, int64(id), name)
	if err != nil {
		return infra.WrapRepoErr("failed to upsert role", err)
	}
	return nil
}

func (s *IdentityStore) AssignRole(ctx context.Context, userID uuid.UUID, roleID approval.RoleID) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, int64(roleID))
	if err != nil {
		return infra.WrapRepoErr("failed to assign role", err)
	}
	return nil
}
