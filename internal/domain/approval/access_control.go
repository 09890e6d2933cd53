package approval

import (
	"fmt"
	"sort"

	"approval-engine/internal/pkg/errs"
)

var (
	ErrOverlappingRoles      = errs.New("a role cannot be both maker and checker")
	ErrDuplicateAccessKey    = errs.New("access control already defined for request type and scope")
	ErrAccessControlNotFound = errs.New("access control not found")
)

type AccessControlRole struct {
	RoleID     RoleID
	AccessType AccessType
}

// AccessControl is one row of the matrix: who may make and who may check a
// given request type inside a given scope.
type AccessControl struct {
	id          int64
	requestType RequestType
	accessScope AccessScope
	makers      []RoleID
	checkers    []RoleID
}

func NewAccessControl(id int64, rt RequestType, scope AccessScope, roles []AccessControlRole) (*AccessControl, error) {
	var v ValidationErrors
	if !rt.IsValid() {
		v.Add("request_type", fmt.Sprintf("%q is not a request type", rt))
	}
	if !scope.IsValid() {
		v.Add("access_scope", fmt.Sprintf("%q is not an access scope", scope))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	ac := &AccessControl{id: id, requestType: rt, accessScope: scope}
	makers := map[RoleID]struct{}{}
	checkers := map[RoleID]struct{}{}
	for _, r := range roles {
		switch r.AccessType {
		case AccessMaker:
			makers[r.RoleID] = struct{}{}
		case AccessChecker:
			checkers[r.RoleID] = struct{}{}
		default:
			return nil, NewValidationError("access_type", fmt.Sprintf("%q is not an access type", r.AccessType))
		}
	}
	for id := range makers {
		if _, ok := checkers[id]; ok {
			return nil, errs.Wrapf(ErrOverlappingRoles, "role %d in %s/%s", id, rt, scope)
		}
	}
	ac.makers = sortedRoles(makers)
	ac.checkers = sortedRoles(checkers)
	return ac, nil
}

func (a *AccessControl) ID() int64                { return a.id }
func (a *AccessControl) RequestType() RequestType { return a.requestType }
func (a *AccessControl) AccessScope() AccessScope { return a.accessScope }
func (a *AccessControl) MakerRoles() []RoleID     { return append([]RoleID(nil), a.makers...) }
func (a *AccessControl) CheckerRoles() []RoleID   { return append([]RoleID(nil), a.checkers...) }

func (a *AccessControl) Key() MatrixKey {
	return MatrixKey{RequestType: a.requestType, AccessScope: a.accessScope}
}

// Roles returns the role set for the given side of the matrix.
func (a *AccessControl) Roles(access AccessType) []RoleID {
	if access == AccessChecker {
		return a.CheckerRoles()
	}
	return a.MakerRoles()
}

// Grants reports whether any of held is in the role set for access.
func (a *AccessControl) Grants(access AccessType, held []RoleID) bool {
	set := a.makers
	if access == AccessChecker {
		set = a.checkers
	}
	for _, h := range held {
		for _, r := range set {
			if h == r {
				return true
			}
		}
	}
	return false
}

type MatrixKey struct {
	RequestType RequestType
	AccessScope AccessScope
}

func (k MatrixKey) String() string { return fmt.Sprintf("%s/%s", k.RequestType, k.AccessScope) }

// Matrix is the read-only lookup table of access controls.
type Matrix struct {
	rows map[MatrixKey]*AccessControl
}

func NewMatrix(rows ...*AccessControl) (*Matrix, error) {
	m := &Matrix{rows: make(map[MatrixKey]*AccessControl, len(rows))}
	for _, row := range rows {
		if _, dup := m.rows[row.Key()]; dup {
			return nil, errs.Wrapf(ErrDuplicateAccessKey, "%s", row.Key())
		}
		m.rows[row.Key()] = row
	}
	return m, nil
}

func (m *Matrix) Lookup(rt RequestType, scope AccessScope) (*AccessControl, bool) {
	row, ok := m.rows[MatrixKey{RequestType: rt, AccessScope: scope}]
	return row, ok
}

// Rows lists every access control ordered by key.
func (m *Matrix) Rows() []*AccessControl {
	out := make([]*AccessControl, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().String() < out[j].Key().String() })
	return out
}

func sortedRoles(set map[RoleID]struct{}) []RoleID {
	out := make([]RoleID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
