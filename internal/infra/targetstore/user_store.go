// Package targetstore persists the resources approval requests act on and
// exposes them to the engine as target adapters.
package targetstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"approval-engine/internal/domain/target"
	"approval-engine/internal/domain/user"
	"approval-engine/internal/infra"
	"approval-engine/internal/infra/db"
	"approval-engine/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5/pgtype"
)

// UserStore is the persistence port of the managed User resource. Find
// returns target.ErrNotFound for a missing id.
type UserStore interface {
	Find(ctx context.Context, id int64) (*user.User, error)
	Insert(ctx context.Context, u *user.User) (int64, error)
	Update(ctx context.Context, u *user.User) error
	Delete(ctx context.Context, id int64) error
}

type PostgresUserStore struct {
	db db.DBTX
}

func NewPostgresUserStore(dbtx db.DBTX) *PostgresUserStore {
	return &PostgresUserStore{db: dbtx}
}

func (s *PostgresUserStore) Find(ctx context.Context, id int64) (*user.User, error) {
	var (
		name, email, status  string
		lockedAt             pgtype.Timestamptz
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := s.db.QueryRow(ctx,
		`SELECT name, email, status, locked_at, created_at, updated_at FROM managed_users WHERE id = $1`, id).
		Scan(&name, &email, &status, &lockedAt, &createdAt, &updatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, target.ErrNotFound
		}
		return nil, infra.WrapRepoErr("failed to find managed user", err)
	}
	return reconstruct(id, name, email, status,
		pgconv.TimePtrFromPgtype(lockedAt), pgconv.TimeFromPgtype(createdAt), pgconv.TimeFromPgtype(updatedAt))
}

func (s *PostgresUserStore) Insert(ctx context.Context, u *user.User) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO managed_users (name, email, status, locked_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		u.Name().Value(), u.Email().Value(), u.Status().String(), pgconv.TimePtrToPgtype(u.LockedAt()),
		pgconv.TimeToPgtype(u.CreatedAt()), pgconv.TimeToPgtype(u.UpdatedAt())).Scan(&id)
	if err != nil {
		if infra.Classify(err) == infra.KindDuplicateKey {
			return 0, target.Invalid("email has already been taken")
		}
		return 0, infra.WrapRepoErr("failed to insert managed user", err)
	}
	return id, nil
}

func (s *PostgresUserStore) Update(ctx context.Context, u *user.User) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE managed_users SET name = $2, email = $3, status = $4, locked_at = $5, updated_at = $6 WHERE id = $1`,
		u.ID(), u.Name().Value(), u.Email().Value(), u.Status().String(),
		pgconv.TimePtrToPgtype(u.LockedAt()), pgconv.TimeToPgtype(u.UpdatedAt()))
	if err != nil {
		if infra.Classify(err) == infra.KindDuplicateKey {
			return target.Invalid("email has already been taken")
		}
		return infra.WrapRepoErr("failed to update managed user", err)
	}
	if tag.RowsAffected() == 0 {
		return target.ErrNotFound
	}
	return nil
}

func (s *PostgresUserStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM managed_users WHERE id = $1`, id)
	if err != nil {
		return infra.WrapRepoErr("failed to delete managed user", err)
	}
	if tag.RowsAffected() == 0 {
		return target.ErrNotFound
	}
	return nil
}

func reconstruct(id int64, name, email, status string, lockedAt *time.Time, createdAt, updatedAt time.Time) (*user.User, error) {
	n, err := user.NewName(name)
	if err != nil {
		return nil, err
	}
	e, err := user.NewEmail(email)
	if err != nil {
		return nil, err
	}
	st, err := user.NewStatus(status)
	if err != nil {
		return nil, err
	}
	return user.ReconstructUser(id, n, e, st, lockedAt, createdAt, updatedAt), nil
}

// MemoryUserStore keeps users in process, assigning ids from 1.
type MemoryUserStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*user.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: map[int64]*user.User{}}
}

func (s *MemoryUserStore) Find(_ context.Context, id int64) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, target.ErrNotFound
	}
	return clone(u), nil
}

func (s *MemoryUserStore) Insert(_ context.Context, u *user.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(u.Email().Value(), 0) {
		return 0, target.Invalid("email has already been taken")
	}
	s.nextID++
	stored := clone(u)
	stored.AssignID(s.nextID)
	s.users[s.nextID] = stored
	return s.nextID, nil
}

func (s *MemoryUserStore) Update(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID()]; !ok {
		return target.ErrNotFound
	}
	if s.emailTaken(u.Email().Value(), u.ID()) {
		return target.Invalid("email has already been taken")
	}
	s.users[u.ID()] = clone(u)
	return nil
}

func (s *MemoryUserStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return target.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// IDs lists stored ids in ascending order.
func (s *MemoryUserStore) IDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *MemoryUserStore) emailTaken(email string, except int64) bool {
	for id, u := range s.users {
		if id != except && u.Email().Value() == email {
			return true
		}
	}
	return false
}

func clone(u *user.User) *user.User {
	return user.ReconstructUser(u.ID(), u.Name(), u.Email(), u.Status(), u.LockedAt(), u.CreatedAt(), u.UpdatedAt())
}
