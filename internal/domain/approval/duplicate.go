package approval

import (
	"github.com/google/uuid"
)

// PendingRequest is the slice of a pending request the duplicate scan needs.
type PendingRequest struct {
	ID          uuid.UUID
	RequestType RequestType
	Targets     []Target
}

// DuplicateGuard rejects a new request whose targets are already claimed by
// a pending request of the same type.
type DuplicateGuard struct {
	exemptions map[RequestType]map[string]struct{}
}

// NewDuplicateGuard takes, per request type, the target types that are exempt
// from the scan because the request itself brings them into existence.
func NewDuplicateGuard(exemptions map[RequestType][]string) *DuplicateGuard {
	g := &DuplicateGuard{exemptions: make(map[RequestType]map[string]struct{}, len(exemptions))}
	for rt, types := range exemptions {
		set := make(map[string]struct{}, len(types))
		for _, t := range types {
			set[t] = struct{}{}
		}
		g.exemptions[rt] = set
	}
	return g
}

// DefaultCreationExemptions covers the creation types that attach a new
// resource under an existing owner.
func DefaultCreationExemptions() map[RequestType][]string {
	return map[RequestType][]string{
		RequestTypeCreateUser:               {"User"},
		RequestTypeCreateMerchantUser:       {"Merchant", "User"},
		RequestTypeCreateParentMerchantUser: {"ParentMerchant", "User"},
		RequestTypeCreateMerchant:           {"ParentMerchant", "Merchant"},
		RequestTypeCreateParentMerchant:     {"ParentMerchant"},
		RequestTypeCreateTerminal:           {"Merchant", "Terminal"},
	}
}

func (g *DuplicateGuard) isExempt(rt RequestType, targetType string) bool {
	set, ok := g.exemptions[rt]
	if !ok {
		return false
	}
	_, ok = set[targetType]
	return ok
}

// CollisionTargets returns the targets worth scanning for. Targets without an
// id and exempt target types are skipped.
func (g *DuplicateGuard) CollisionTargets(rt RequestType, items []*ActionItem) []Target {
	seen := map[string]struct{}{}
	var out []Target
	for _, item := range items {
		t := item.Target()
		if !t.HasID() || g.isExempt(rt, t.Type) {
			continue
		}
		if _, dup := seen[t.Key()]; dup {
			continue
		}
		seen[t.Key()] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Check fails with DuplicateRequest listing every pending request of the same
// type that shares a collision target with items.
func (g *DuplicateGuard) Check(rt RequestType, items []*ActionItem, pending []PendingRequest) error {
	targets := g.CollisionTargets(rt, items)
	if len(targets) == 0 {
		return nil
	}
	var conflicting []uuid.UUID
	seen := map[uuid.UUID]struct{}{}
	for _, p := range pending {
		if p.RequestType != rt {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		if sharesTarget(p.Targets, targets) {
			seen[p.ID] = struct{}{}
			conflicting = append(conflicting, p.ID)
		}
	}
	if len(conflicting) > 0 {
		return NewDuplicateRequestError(conflicting)
	}
	return nil
}

func sharesTarget(a, b []Target) bool {
	for _, x := range a {
		for _, y := range b {
			if x.HasID() && x.Equal(y) {
				return true
			}
		}
	}
	return false
}

// ExcludePending drops the pending requests whose id is in ids.
func ExcludePending(pending []PendingRequest, ids []uuid.UUID) []PendingRequest {
	if len(ids) == 0 {
		return pending
	}
	skip := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		skip[id] = struct{}{}
	}
	out := pending[:0:0]
	for _, p := range pending {
		if _, ok := skip[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out
}
