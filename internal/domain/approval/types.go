package approval

import (
	"fmt"
	"sort"
)

// State is the lifecycle position of a Request.
type State string

const (
	StatePending   State = "pending"
	StateCancelled State = "cancelled"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StateExecuted  State = "executed"
)

var stateCodes = map[State]int16{
	StatePending:   0,
	StateCancelled: 1,
	StateApproved:  2,
	StateRejected:  3,
	StateExecuted:  4,
}

func (s State) String() string { return string(s) }

func (s State) IsValid() bool {
	_, ok := stateCodes[s]
	return ok
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	switch s {
	case StateCancelled, StateRejected, StateExecuted:
		return true
	default:
		return false
	}
}

// Code is the stable integer persisted for the state.
func (s State) Code() int16 { return stateCodes[s] }

func StateFromCode(code int16) (State, error) {
	for s, c := range stateCodes {
		if c == code {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown request state code %d", code)
}

func ParseState(s string) (State, error) {
	st := State(s)
	if !st.IsValid() {
		return "", NewValidationError("state", fmt.Sprintf("%q is not a request state", s))
	}
	return st, nil
}

type DisplayStatus string

const (
	DisplayStatusDisplayed DisplayStatus = "displayed"
	DisplayStatusHidden    DisplayStatus = "hidden"
)

func (d DisplayStatus) String() string { return string(d) }

func (d DisplayStatus) IsValid() bool {
	return d == DisplayStatusDisplayed || d == DisplayStatusHidden
}

func (d DisplayStatus) Code() int16 {
	if d == DisplayStatusHidden {
		return 2
	}
	return 1
}

func DisplayStatusFromCode(code int16) (DisplayStatus, error) {
	switch code {
	case 1:
		return DisplayStatusDisplayed, nil
	case 2:
		return DisplayStatusHidden, nil
	default:
		return "", fmt.Errorf("unknown display status code %d", code)
	}
}

func ParseDisplayStatus(s string) (DisplayStatus, error) {
	d := DisplayStatus(s)
	if !d.IsValid() {
		return "", NewValidationError("display_status", fmt.Sprintf("%q is not a display status", s))
	}
	return d, nil
}

// Event is the kind of change an ActionItem applies to its target.
type Event string

const (
	EventCreate  Event = "create"
	EventUpdate  Event = "update"
	EventDestroy Event = "destroy"
	EventPerform Event = "perform"
)

func (e Event) String() string { return string(e) }

func (e Event) IsValid() bool {
	switch e {
	case EventCreate, EventUpdate, EventDestroy, EventPerform:
		return true
	default:
		return false
	}
}

type AccessType string

const (
	AccessMaker   AccessType = "maker"
	AccessChecker AccessType = "checker"
)

func (a AccessType) String() string { return string(a) }

func (a AccessType) IsValid() bool {
	return a == AccessMaker || a == AccessChecker
}

func (a AccessType) Code() int16 {
	if a == AccessChecker {
		return 2
	}
	return 1
}

func AccessTypeFromCode(code int16) (AccessType, error) {
	switch code {
	case 1:
		return AccessMaker, nil
	case 2:
		return AccessChecker, nil
	default:
		return "", fmt.Errorf("unknown access type code %d", code)
	}
}

// RequestType identifies the business action a Request asks for. The set is
// closed; each type carries a human readable label.
type RequestType string

const (
	RequestTypeLockUser                 RequestType = "lock_user"
	RequestTypeUnlockUser               RequestType = "unlock_user"
	RequestTypeCreateUser               RequestType = "create_user"
	RequestTypeUpdateUserInformation    RequestType = "update_user_information"
	RequestTypeCreateTerminal           RequestType = "create_terminal"
	RequestTypeUpdateTerminal           RequestType = "update_terminal"
	RequestTypeUpdateMerchant           RequestType = "update_merchant"
	RequestTypeCreateMerchant           RequestType = "create_merchant"
	RequestTypeCreateMerchantUser       RequestType = "create_merchant_user"
	RequestTypeCreateParentMerchant     RequestType = "create_parent_merchant"
	RequestTypeUpdateParentMerchant     RequestType = "update_parent_merchant"
	RequestTypeCreateParentMerchantUser RequestType = "create_parent_merchant_user"
	RequestTypeUpdateParentMerchantUser RequestType = "update_parent_merchant_user"
)

var requestTypeLabels = map[RequestType]string{
	RequestTypeLockUser:                 "Lock User",
	RequestTypeUnlockUser:               "Unlock User",
	RequestTypeCreateUser:               "Create User",
	RequestTypeUpdateUserInformation:    "Update User Information",
	RequestTypeCreateTerminal:           "Create Terminal",
	RequestTypeUpdateTerminal:           "Update Terminal",
	RequestTypeUpdateMerchant:           "Update Merchant",
	RequestTypeCreateMerchant:           "Create Merchant",
	RequestTypeCreateMerchantUser:       "Create Merchant User",
	RequestTypeCreateParentMerchant:     "Create Parent Merchant",
	RequestTypeUpdateParentMerchant:     "Update Parent Merchant",
	RequestTypeCreateParentMerchantUser: "Create Parent Merchant User",
	RequestTypeUpdateParentMerchantUser: "Update Parent Merchant User",
}

func (t RequestType) String() string { return string(t) }

func (t RequestType) IsValid() bool {
	_, ok := requestTypeLabels[t]
	return ok
}

func (t RequestType) Label() string { return requestTypeLabels[t] }

// ParseRequestType accepts either the code ("lock_user") or its label ("Lock User").
func ParseRequestType(s string) (RequestType, error) {
	if rt := RequestType(s); rt.IsValid() {
		return rt, nil
	}
	for rt, label := range requestTypeLabels {
		if label == s {
			return rt, nil
		}
	}
	return "", NewValidationError("request_type", fmt.Sprintf("%q is not a request type", s))
}

// RequestTypes lists every known type in code order.
func RequestTypes() []RequestType {
	out := make([]RequestType, 0, len(requestTypeLabels))
	for rt := range requestTypeLabels {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AccessScope partitions who may act on a Request.
type AccessScope string

const (
	ScopeCustomer       AccessScope = "customer"
	ScopeMerchant       AccessScope = "merchant"
	ScopeParentMerchant AccessScope = "parent_merchant"
	ScopeTerminal       AccessScope = "terminal"
	ScopeSystem         AccessScope = "system"
)

func (s AccessScope) String() string { return string(s) }

func (s AccessScope) IsValid() bool {
	switch s {
	case ScopeCustomer, ScopeMerchant, ScopeParentMerchant, ScopeTerminal, ScopeSystem:
		return true
	default:
		return false
	}
}

func ParseAccessScope(s string) (AccessScope, error) {
	sc := AccessScope(s)
	if !sc.IsValid() {
		return "", NewValidationError("access_scope", fmt.Sprintf("%q is not an access scope", s))
	}
	return sc, nil
}

// RoleID references an externally managed role.
type RoleID int64
