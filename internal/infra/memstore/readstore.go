package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/infra"
	"approval-engine/internal/usecase/queries"

	"github.com/google/uuid"
)

// ReadStore exposes the committed state to the query side.
type ReadStore struct {
	store *Store
}

func NewReadStore(store *Store) *ReadStore {
	return &ReadStore{store: store}
}

func (r *ReadStore) FindByID(_ context.Context, id uuid.UUID) (*approval.Request, error) {
	snap, ok := r.store.lookup(id)
	if !ok {
		return nil, infra.NotFound(fmt.Sprintf("approval request %s not found", id))
	}
	return approval.FromSnapshot(snap), nil
}

func (r *ReadStore) ListFirstPage(_ context.Context, filters queries.RequestFilters, limit int32) ([]*queries.RequestListItem, error) {
	return r.list(filters, nil, limit), nil
}

func (r *ReadStore) ListKeyset(_ context.Context, filters queries.RequestFilters, lastRequestedAt time.Time, lastID uuid.UUID, limit int32) ([]*queries.RequestListItem, error) {
	after := func(s approval.Snapshot) bool {
		if s.RequestedAt.Equal(lastRequestedAt) {
			return s.ID.String() < lastID.String()
		}
		return s.RequestedAt.Before(lastRequestedAt)
	}
	return r.list(filters, after, limit), nil
}

func (r *ReadStore) list(f queries.RequestFilters, after func(approval.Snapshot) bool, limit int32) []*queries.RequestListItem {
	var rows []approval.Snapshot
	for _, s := range r.store.all() {
		if !matches(f, s) || (after != nil && !after(s)) {
			continue
		}
		rows = append(rows, s)
	}
	// newest first, ties broken by id descending like the SQL keyset
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RequestedAt.Equal(rows[j].RequestedAt) {
			return rows[i].ID.String() > rows[j].ID.String()
		}
		return rows[i].RequestedAt.After(rows[j].RequestedAt)
	})
	if int(limit) < len(rows) {
		rows = rows[:limit]
	}

	out := make([]*queries.RequestListItem, 0, len(rows))
	for _, s := range rows {
		out = append(out, &queries.RequestListItem{
			ID:               s.ID,
			RequestType:      s.RequestType.String(),
			RequestTypeLabel: s.RequestType.Label(),
			AccessScope:      s.AccessScope.String(),
			State:            s.State.String(),
			DisplayStatus:    s.DisplayStatus.String(),
			RequestUserID:    s.RequestUserID,
			RespondUserID:    s.RespondUserID,
			ParentRequestID:  s.ParentRequestID,
			ItemCount:        int32(len(s.Items)),
			RequestedAt:      s.RequestedAt,
			ExecutedAt:       s.ExecutedAt,
		})
	}
	return out
}

func matches(f queries.RequestFilters, s approval.Snapshot) bool {
	switch {
	case f.State != nil && *f.State != s.State:
		return false
	case f.DisplayStatus != nil && *f.DisplayStatus != s.DisplayStatus:
		return false
	case f.RequestType != nil && *f.RequestType != s.RequestType:
		return false
	case f.AccessScope != nil && *f.AccessScope != s.AccessScope:
		return false
	case f.RequestUserID != nil && *f.RequestUserID != s.RequestUserID:
		return false
	}
	return true
}

func (r *ReadStore) ChildIDs(_ context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	var children []approval.Snapshot
	for _, s := range r.store.all() {
		if s.ParentRequestID != nil && *s.ParentRequestID == parentID {
			children = append(children, s)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].RequestedAt.Equal(children[j].RequestedAt) {
			return children[i].ID.String() < children[j].ID.String()
		}
		return children[i].RequestedAt.Before(children[j].RequestedAt)
	})
	ids := make([]uuid.UUID, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (r *ReadStore) CommentsOf(_ context.Context, requestIDs []uuid.UUID) ([]*approval.Comment, error) {
	var out []*approval.Comment
	for _, id := range requestIDs {
		snap, ok := r.store.lookup(id)
		if !ok {
			continue
		}
		for _, c := range snap.Comments {
			out = append(out, approval.ReconstructComment(c.ID, snap.ID, c.UserID, c.Content, c.CreatedAt))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID().String() < out[j].ID().String()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}
