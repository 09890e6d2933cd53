package approval

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"approval-engine/internal/pkg/errs"

	"github.com/google/uuid"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindAlreadyPerformed  ErrorKind = "ALREADY_PERFORMED"
	KindDuplicateRequest  ErrorKind = "DUPLICATE_REQUEST"
	KindUnexistResource   ErrorKind = "UNEXIST_RESOURCE"
	KindUnsupportedAction ErrorKind = "UNSUPPORTED_ACTION"
	KindResourceRejected  ErrorKind = "RESOURCE_REJECTED"
	KindAuthorization     ErrorKind = "AUTHORIZATION_ERROR"
)

var (
	ErrValidation        = errs.New("validation failed")
	ErrAlreadyPerformed  = errs.New("request already performed")
	ErrDuplicateRequest  = errs.New("duplicate pending request")
	ErrUnexistResource   = errs.New("target resource does not exist")
	ErrUnsupportedAction = errs.New("unsupported action")
	ErrResourceRejected  = errs.New("target resource rejected the change")
	ErrAuthorization     = errs.New("not authorized")
)

var kindSentinels = map[ErrorKind]error{
	KindValidation:        ErrValidation,
	KindAlreadyPerformed:  ErrAlreadyPerformed,
	KindDuplicateRequest:  ErrDuplicateRequest,
	KindUnexistResource:   ErrUnexistResource,
	KindUnsupportedAction: ErrUnsupportedAction,
	KindResourceRejected:  ErrResourceRejected,
	KindAuthorization:     ErrAuthorization,
}

// Error is the single error type surfaced by the approval engine. Kind is stable
// and machine readable; Fields and ConflictingIDs carry the offending details.
type Error struct {
	Kind           ErrorKind
	Message        string
	Fields         []string
	Messages       []string
	ConflictingIDs []uuid.UUID
	Err            error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " (fields: %s)", strings.Join(e.Fields, ", "))
	}
	if len(e.ConflictingIDs) > 0 {
		ids := make([]string, len(e.ConflictingIDs))
		for i, id := range e.ConflictingIDs {
			ids[i] = id.String()
		}
		fmt.Fprintf(&b, " (conflicting requests: %s)", strings.Join(ids, ", "))
	}
	if len(e.Messages) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Messages, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match an *Error against the sentinel of its kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

func NewValidationError(field string, messages ...string) *Error {
	return &Error{
		Kind:     KindValidation,
		Message:  "validation failed",
		Fields:   []string{field},
		Messages: messages,
	}
}

func NewAlreadyPerformedError(id uuid.UUID, state State) *Error {
	return &Error{
		Kind:    KindAlreadyPerformed,
		Message: fmt.Sprintf("request %s is already %s", id, state),
	}
}

func NewDuplicateRequestError(ids []uuid.UUID) *Error {
	sorted := append([]uuid.UUID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })
	return &Error{
		Kind:           KindDuplicateRequest,
		Message:        "a pending request already targets the same resource",
		ConflictingIDs: sorted,
	}
}

func NewUnexistResourceError(targetType string, id int64) *Error {
	return &Error{
		Kind:    KindUnexistResource,
		Message: fmt.Sprintf("%s#%d does not exist", targetType, id),
	}
}

func NewUnsupportedActionError(targetType, operation string) *Error {
	msg := fmt.Sprintf("%s does not support operation %q", targetType, operation)
	if operation == "" {
		msg = fmt.Sprintf("%s perform requires an operation name", targetType)
	}
	return &Error{Kind: KindUnsupportedAction, Message: msg}
}

func NewResourceRejectedError(targetType string, messages []string, cause error) *Error {
	return &Error{
		Kind:     KindResourceRejected,
		Message:  fmt.Sprintf("%s rejected the change", targetType),
		Messages: messages,
		Err:      cause,
	}
}

func NewAuthorizationError(userID uuid.UUID, access AccessType, rt RequestType, scope AccessScope) *Error {
	return &Error{
		Kind:    KindAuthorization,
		Message: fmt.Sprintf("user %s is not a %s for %s/%s", userID, access, rt, scope),
	}
}

// ValidationErrors accumulates field failures so every problem is reported at once.
type ValidationErrors struct {
	fields   []string
	messages []string
}

func (v *ValidationErrors) Add(field, message string) {
	v.fields = append(v.fields, field)
	v.messages = append(v.messages, field+" "+message)
}

// Merge folds another validation failure in, prefixing its fields.
func (v *ValidationErrors) Merge(prefix string, err error) {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindValidation {
		return
	}
	for _, f := range e.Fields {
		v.fields = append(v.fields, prefix+f)
	}
	v.messages = append(v.messages, e.Messages...)
}

func (v *ValidationErrors) Empty() bool { return len(v.fields) == 0 }

func (v *ValidationErrors) Err() error {
	if v.Empty() {
		return nil
	}
	return &Error{
		Kind:     KindValidation,
		Message:  "validation failed",
		Fields:   append([]string(nil), v.fields...),
		Messages: append([]string(nil), v.messages...),
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
