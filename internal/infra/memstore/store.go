// Package memstore is the in-process persistence backend. Transactions are
// serialized and buffer their writes in an overlay that is folded into the
// store only when the callback succeeds.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/infra"
	"approval-engine/internal/infra/audit"
	"approval-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

// maximum parent hops followed before a chain is treated as cyclic
const maxAncestorDepth = 1000

type Store struct {
	// txMu serializes units of work; mu guards the maps below.
	txMu sync.Mutex
	mu   sync.RWMutex

	requests  map[uuid.UUID]approval.Snapshot
	matrix    map[approval.MatrixKey]*approval.AccessControl
	nextACID  int64
	roles     map[approval.RoleID]string
	userRoles map[uuid.UUID]map[approval.RoleID]struct{}
	audit     []audit.Record
}

func New() *Store {
	return &Store{
		requests:  map[uuid.UUID]approval.Snapshot{},
		matrix:    map[approval.MatrixKey]*approval.AccessControl{},
		roles:     map[approval.RoleID]string{},
		userRoles: map[uuid.UUID]map[approval.RoleID]struct{}{},
	}
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{store: s, writes: map[uuid.UUID]approval.Snapshot{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, snap := range tx.writes {
		s.requests[id] = snap
	}
	return nil
}

func (s *Store) CommandReads() shared.CommandReads {
	return &reads{view: s}
}

func (s *Store) lookup(id uuid.UUID) (approval.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.requests[id]
	return snap, ok
}

func (s *Store) all() []approval.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]approval.Snapshot, 0, len(s.requests))
	for _, snap := range s.requests {
		out = append(out, snap)
	}
	return out
}

// view is what reads need: point lookups and a full scan.
type view interface {
	lookup(id uuid.UUID) (approval.Snapshot, bool)
	all() []approval.Snapshot
	accessControl(key approval.MatrixKey) (*approval.AccessControl, bool)
}

type memTx struct {
	store  *Store
	writes map[uuid.UUID]approval.Snapshot
}

func (t *memTx) Requests() shared.RequestRepository { return t }
func (t *memTx) Reads() shared.CommandReads         { return &reads{view: t} }

func (t *memTx) lookup(id uuid.UUID) (approval.Snapshot, bool) {
	if snap, ok := t.writes[id]; ok {
		return snap, true
	}
	return t.store.lookup(id)
}

func (t *memTx) all() []approval.Snapshot {
	merged := map[uuid.UUID]approval.Snapshot{}
	for _, snap := range t.store.all() {
		merged[snap.ID] = snap
	}
	for id, snap := range t.writes {
		merged[id] = snap
	}
	out := make([]approval.Snapshot, 0, len(merged))
	for _, snap := range merged {
		out = append(out, snap)
	}
	return out
}

func (t *memTx) accessControl(key approval.MatrixKey) (*approval.AccessControl, bool) {
	return t.store.accessControl(key)
}

func (t *memTx) Create(_ context.Context, req *approval.Request) error {
	if _, exists := t.lookup(req.ID()); exists {
		return infra.WrapRepoErr("approval request already exists", fmt.Errorf("id %s", req.ID()), infra.KindDuplicateKey)
	}
	if parentID := req.ParentRequestID(); parentID != nil {
		if _, ok := t.lookup(*parentID); !ok {
			return infra.WrapRepoErr("parent request does not exist", fmt.Errorf("id %s", *parentID), infra.KindForeignKeyViolated)
		}
	}
	t.writes[req.ID()] = req.Snapshot()
	req.MarkPersisted()
	return nil
}

func (t *memTx) Save(_ context.Context, req *approval.Request) error {
	stored, ok := t.lookup(req.ID())
	if !ok {
		return infra.NotFound(fmt.Sprintf("approval request %s not found", req.ID()))
	}
	if stored.State != req.PersistedState() {
		return approval.NewAlreadyPerformedError(req.ID(), stored.State)
	}
	t.writes[req.ID()] = req.Snapshot()
	req.MarkPersisted()
	return nil
}

func (t *memTx) HideRelatives(_ context.Context, family approval.Family) (int64, error) {
	var hidden int64
	for _, snap := range t.all() {
		if snap.ID == family.MemberID || snap.DisplayStatus != approval.DisplayStatusDisplayed {
			continue
		}
		isParent := snap.ID == family.ParentID
		isSibling := snap.ParentRequestID != nil && *snap.ParentRequestID == family.ParentID
		if !isParent && !isSibling {
			continue
		}
		snap.DisplayStatus = approval.DisplayStatusHidden
		t.writes[snap.ID] = snap
		hidden++
	}
	return hidden, nil
}

type reads struct {
	view view
}

func (r *reads) RequestByID(_ context.Context, id uuid.UUID) (*approval.Request, error) {
	snap, ok := r.view.lookup(id)
	if !ok {
		return nil, infra.NotFound(fmt.Sprintf("approval request %s not found", id))
	}
	return approval.FromSnapshot(snap), nil
}

// RequestForUpdate needs no extra locking: units of work are serialized.
func (r *reads) RequestForUpdate(ctx context.Context, id uuid.UUID) (*approval.Request, error) {
	return r.RequestByID(ctx, id)
}

func (r *reads) PendingRequestsTargeting(_ context.Context, rt approval.RequestType, targets []approval.Target) ([]approval.PendingRequest, error) {
	var out []approval.PendingRequest
	for _, snap := range r.view.all() {
		if snap.State != approval.StatePending || snap.RequestType != rt {
			continue
		}
		var hits []approval.Target
		for _, item := range snap.Items {
			t := approval.Target{Type: item.TargetType, ID: item.TargetID}
			if !t.HasID() {
				continue
			}
			for _, want := range targets {
				if t.Equal(want) {
					hits = append(hits, t)
					break
				}
			}
		}
		if len(hits) > 0 {
			out = append(out, approval.PendingRequest{ID: snap.ID, RequestType: snap.RequestType, Targets: hits})
		}
	}
	sortPending(out, r.view)
	return out, nil
}

func sortPending(p []approval.PendingRequest, v view) {
	sort.Slice(p, func(i, j int) bool {
		a, _ := v.lookup(p[i].ID)
		b, _ := v.lookup(p[j].ID)
		if a.RequestedAt.Equal(b.RequestedAt) {
			return a.ID.String() < b.ID.String()
		}
		return a.RequestedAt.Before(b.RequestedAt)
	})
}

func (r *reads) AncestorIDs(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	snap, ok := r.view.lookup(id)
	if !ok {
		return nil, infra.NotFound(fmt.Sprintf("approval request %s not found", id))
	}
	ids := []uuid.UUID{snap.ID}
	for depth := 0; snap.ParentRequestID != nil && depth < maxAncestorDepth; depth++ {
		next, ok := r.view.lookup(*snap.ParentRequestID)
		if !ok {
			break
		}
		ids = append(ids, next.ID)
		snap = next
	}
	return ids, nil
}

func (r *reads) AccessControl(_ context.Context, rt approval.RequestType, scope approval.AccessScope) (*approval.AccessControl, error) {
	ac, ok := r.view.accessControl(approval.MatrixKey{RequestType: rt, AccessScope: scope})
	if !ok {
		return nil, infra.NotFound(fmt.Sprintf("access control %s/%s not found", rt, scope))
	}
	return ac, nil
}
