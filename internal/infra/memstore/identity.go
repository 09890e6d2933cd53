package memstore

import (
	"context"
	"sort"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/infra/audit"

	"github.com/google/uuid"
)

func (s *Store) accessControl(key approval.MatrixKey) (*approval.AccessControl, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ac, ok := s.matrix[key]
	return ac, ok
}

// ReplaceAccessControl stores ac as the only row for its key and returns the row id.
func (s *Store) ReplaceAccessControl(_ context.Context, ac *approval.AccessControl) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ac.ID()
	if existing, ok := s.matrix[ac.Key()]; ok {
		id = existing.ID()
	} else if id == 0 {
		s.nextACID++
		id = s.nextACID
	}

	var roles []approval.AccessControlRole
	for _, access := range []approval.AccessType{approval.AccessMaker, approval.AccessChecker} {
		for _, r := range ac.Roles(access) {
			roles = append(roles, approval.AccessControlRole{RoleID: r, AccessType: access})
		}
	}
	stored, err := approval.NewAccessControl(id, ac.RequestType(), ac.AccessScope(), roles)
	if err != nil {
		return 0, err
	}
	s.matrix[ac.Key()] = stored
	return id, nil
}

func (s *Store) UpsertRole(_ context.Context, id approval.RoleID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[id] = name
	return nil
}

func (s *Store) AssignRole(_ context.Context, userID uuid.UUID, roleID approval.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	held, ok := s.userRoles[userID]
	if !ok {
		held = map[approval.RoleID]struct{}{}
		s.userRoles[userID] = held
	}
	held[roleID] = struct{}{}
	return nil
}

func (s *Store) RolesOf(_ context.Context, userID uuid.UUID) ([]approval.RoleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]approval.RoleID, 0, len(s.userRoles[userID]))
	for r := range s.userRoles[userID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *Store) UsersWithRole(_ context.Context, roleID approval.RoleID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []uuid.UUID
	for user, held := range s.userRoles {
		if _, ok := held[roleID]; ok {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (s *Store) Append(_ context.Context, rec audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, rec)
	return nil
}

// History returns the audit trail of one request in insertion order.
func (s *Store) History(_ context.Context, requestID uuid.UUID) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Record
	for _, rec := range s.audit {
		if rec.RequestID == requestID {
			out = append(out, rec)
		}
	}
	return out, nil
}
