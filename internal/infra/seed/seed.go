// Package seed loads the access-control matrix and role memberships from YAML.
package seed

import (
	"context"
	"fmt"
	"os"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/infra/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"
)

// File models the matrix seed file.
type File struct {
	Roles          []Role          `yaml:"roles"`
	AccessControls []AccessControl `yaml:"access_controls"`
}

type Role struct {
	ID      int64       `yaml:"id"`
	Name    string      `yaml:"name"`
	Members []uuid.UUID `yaml:"members"`
}

type AccessControl struct {
	RequestType string  `yaml:"request_type"`
	AccessScope string  `yaml:"access_scope"`
	Makers      []int64 `yaml:"makers"`
	Checkers    []int64 `yaml:"checkers"`
}

// FromYAML parses and validates a seed file.
func FromYAML(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid matrix yaml: %w", err)
	}
	if _, err := f.Matrix(); err != nil {
		return nil, err
	}
	return &f, nil
}

func FromFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Matrix builds the domain matrix, rejecting unknown roles, overlapping
// maker/checker sets and duplicate keys.
func (f *File) Matrix() (*approval.Matrix, error) {
	known := map[int64]struct{}{}
	for _, r := range f.Roles {
		if r.ID <= 0 {
			return nil, fmt.Errorf("role %q has no positive id", r.Name)
		}
		if _, dup := known[r.ID]; dup {
			return nil, fmt.Errorf("role id %d declared twice", r.ID)
		}
		known[r.ID] = struct{}{}
	}

	rows := make([]*approval.AccessControl, 0, len(f.AccessControls))
	for i, ac := range f.AccessControls {
		var roles []approval.AccessControlRole
		for _, side := range []struct {
			ids    []int64
			access approval.AccessType
		}{{ac.Makers, approval.AccessMaker}, {ac.Checkers, approval.AccessChecker}} {
			for _, id := range side.ids {
				if _, ok := known[id]; !ok {
					return nil, fmt.Errorf("access_controls[%d] references unknown role %d", i, id)
				}
				roles = append(roles, approval.AccessControlRole{RoleID: approval.RoleID(id), AccessType: side.access})
			}
		}
		row, err := approval.NewAccessControl(0, approval.RequestType(ac.RequestType), approval.AccessScope(ac.AccessScope), roles)
		if err != nil {
			return nil, fmt.Errorf("access_controls[%d]: %w", i, err)
		}
		rows = append(rows, row)
	}
	return approval.NewMatrix(rows...)
}

// Writer is the storage a seed file is applied to.
type Writer interface {
	UpsertRole(ctx context.Context, id approval.RoleID, name string) error
	AssignRole(ctx context.Context, userID uuid.UUID, roleID approval.RoleID) error
	ReplaceAccessControl(ctx context.Context, ac *approval.AccessControl) (int64, error)
}

// Apply writes roles, memberships and every matrix row. Re-applying the same
// file is a no-op.
func Apply(ctx context.Context, w Writer, f *File) error {
	matrix, err := f.Matrix()
	if err != nil {
		return err
	}
	for _, r := range f.Roles {
		if err := w.UpsertRole(ctx, approval.RoleID(r.ID), r.Name); err != nil {
			return err
		}
		for _, member := range r.Members {
			if err := w.AssignRole(ctx, member, approval.RoleID(r.ID)); err != nil {
				return err
			}
		}
	}
	for _, row := range matrix.Rows() {
		if _, err := w.ReplaceAccessControl(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

type postgresWriter struct {
	*repository.IdentityStore
	*repository.AccessControlRepository
}

// ApplyPostgres applies f in a single transaction.
func ApplyPostgres(ctx context.Context, pool *pgxpool.Pool, f *File) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return Apply(ctx, postgresWriter{
			IdentityStore:           repository.NewIdentityStore(tx),
			AccessControlRepository: repository.NewAccessControlRepository(tx),
		}, f)
	})
}
