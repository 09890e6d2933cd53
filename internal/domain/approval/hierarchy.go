package approval

import (
	"github.com/google/uuid"
)

// EnsureAcyclic rejects linking id under a parent whose ancestor chain
// (parent first, root last) already contains id.
func EnsureAcyclic(id uuid.UUID, ancestors []uuid.UUID) error {
	for _, a := range ancestors {
		if a == id {
			return NewValidationError("parent_request_id", "would make the request its own ancestor")
		}
	}
	return nil
}

// Family describes which requests must be hidden once a member is created or
// responded to: the parent and every other child, never the member itself.
type Family struct {
	ParentID uuid.UUID
	MemberID uuid.UUID
}

// FamilyOf returns the family r belongs to as a child, if any.
func FamilyOf(r *Request) (Family, bool) {
	if r.parentRequestID == nil {
		return Family{}, false
	}
	return Family{ParentID: *r.parentRequestID, MemberID: r.id}, true
}

// RelatedRequestIDs lists the requests whose comments form one thread: the
// request itself and, for a child, its parent and all of the parent's children.
func RelatedRequestIDs(r *Request, siblings []uuid.UUID) []uuid.UUID {
	ids := []uuid.UUID{r.id}
	if r.parentRequestID == nil {
		return ids
	}
	ids = append(ids, *r.parentRequestID)
	for _, s := range siblings {
		if s != r.id {
			ids = append(ids, s)
		}
	}
	return ids
}
