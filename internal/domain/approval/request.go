package approval

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Request is the aggregate root: one proposed change, its approval state,
// its ActionItems and its comment thread.
type Request struct {
	id              uuid.UUID
	requestType     RequestType
	accessScope     AccessScope
	state           State
	persistedState  State
	displayStatus   DisplayStatus
	requestUserID   uuid.UUID
	respondUserID   *uuid.UUID
	parentRequestID *uuid.UUID
	requestedAt     time.Time
	executedAt      *time.Time
	items           []*ActionItem
	comments        []*Comment
}

type NewRequestParams struct {
	RequestType   RequestType
	AccessScope   AccessScope
	RequestUserID uuid.UUID
	// Parent, when set, links the request into a family and overrides AccessScope.
	Parent  *Request
	Items   []*ActionItem
	Comment *Comment
	Now     time.Time
}

func NewRequest(p NewRequestParams) (*Request, error) {
	r := &Request{
		id:            uuid.New(),
		requestType:   p.RequestType,
		accessScope:   p.AccessScope,
		state:         StatePending,
		displayStatus: DisplayStatusDisplayed,
		requestUserID: p.RequestUserID,
		requestedAt:   p.Now,
		items:         append([]*ActionItem(nil), p.Items...),
	}
	if p.Parent != nil {
		parentID := p.Parent.id
		r.parentRequestID = &parentID
		r.accessScope = p.Parent.accessScope
	}
	if p.Comment != nil {
		r.AddComment(p.Comment)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// RequestRecord is the flat persisted shape used to rebuild a Request.
type RequestRecord struct {
	ID              uuid.UUID
	RequestType     RequestType
	AccessScope     AccessScope
	State           State
	DisplayStatus   DisplayStatus
	RequestUserID   uuid.UUID
	RespondUserID   *uuid.UUID
	ParentRequestID *uuid.UUID
	RequestedAt     time.Time
	ExecutedAt      *time.Time
	Items           []*ActionItem
	Comments        []*Comment
}

func ReconstructRequest(rec RequestRecord) *Request {
	return &Request{
		id:              rec.ID,
		requestType:     rec.RequestType,
		accessScope:     rec.AccessScope,
		state:           rec.State,
		persistedState:  rec.State,
		displayStatus:   rec.DisplayStatus,
		requestUserID:   rec.RequestUserID,
		respondUserID:   rec.RespondUserID,
		parentRequestID: rec.ParentRequestID,
		requestedAt:     rec.RequestedAt,
		executedAt:      rec.ExecutedAt,
		items:           rec.Items,
		comments:        rec.Comments,
	}
}

func (r *Request) ID() uuid.UUID                { return r.id }
func (r *Request) RequestType() RequestType     { return r.requestType }
func (r *Request) AccessScope() AccessScope     { return r.accessScope }
func (r *Request) State() State                 { return r.state }
func (r *Request) PersistedState() State        { return r.persistedState }
func (r *Request) DisplayStatus() DisplayStatus { return r.displayStatus }
func (r *Request) RequestUserID() uuid.UUID     { return r.requestUserID }
func (r *Request) RespondUserID() *uuid.UUID    { return r.respondUserID }
func (r *Request) ParentRequestID() *uuid.UUID  { return r.parentRequestID }
func (r *Request) RequestedAt() time.Time       { return r.requestedAt }
func (r *Request) ExecutedAt() *time.Time       { return r.executedAt }
func (r *Request) Items() []*ActionItem         { return r.items }
func (r *Request) Comments() []*Comment         { return r.comments }
func (r *Request) IsNew() bool                  { return r.persistedState == "" }
func (r *Request) HasParent() bool              { return r.parentRequestID != nil }

// InitialComment is the maker's reason, the oldest comment on the request.
func (r *Request) InitialComment() *Comment {
	if len(r.comments) == 0 {
		return nil
	}
	return r.comments[0]
}

// UnsavedComments returns comments added since the request was loaded.
func (r *Request) UnsavedComments() []*Comment {
	var out []*Comment
	for _, c := range r.comments {
		if !c.persisted {
			out = append(out, c)
		}
	}
	return out
}

func (r *Request) AddComment(c *Comment) {
	c.requestID = r.id
	r.comments = append(r.comments, c)
}

func (r *Request) Validate() error {
	var v ValidationErrors
	if !r.requestType.IsValid() {
		v.Add("request_type", fmt.Sprintf("%q is not a request type", r.requestType))
	}
	if r.accessScope == "" {
		v.Add("access_scope", "can't be blank")
	} else if !r.accessScope.IsValid() {
		v.Add("access_scope", fmt.Sprintf("%q is not an access scope", r.accessScope))
	}
	if !r.state.IsValid() {
		v.Add("state", "can't be blank")
	}
	if !r.displayStatus.IsValid() {
		v.Add("display_status", "can't be blank")
	}
	if r.requestUserID == uuid.Nil {
		v.Add("request_user_id", "can't be blank")
	}
	if r.state != StatePending && r.respondUserID == nil {
		v.Add("respond_user_id", "can't be blank")
	}
	if r.parentRequestID != nil && *r.parentRequestID == r.id {
		v.Add("parent_request_id", "can't reference itself")
	}
	if len(r.comments) == 0 {
		v.Add("comments", "can't be blank")
	}
	if len(r.items) == 0 {
		v.Add("items", "can't be blank")
	}
	for i, item := range r.items {
		v.Merge(fmt.Sprintf("items[%d].", i), item.Validate())
	}
	return v.Err()
}

// ensureResolvable guards every transition. Both the state the request was
// loaded with and the current state must still admit a response.
func (r *Request) ensureResolvable() error {
	if r.persistedState.IsTerminal() {
		return NewAlreadyPerformedError(r.id, r.persistedState)
	}
	if r.state.IsTerminal() {
		return NewAlreadyPerformedError(r.id, r.state)
	}
	return nil
}

func (r *Request) ensurePending() error {
	if err := r.ensureResolvable(); err != nil {
		return err
	}
	if r.state != StatePending {
		return NewAlreadyPerformedError(r.id, r.state)
	}
	return nil
}

func (r *Request) respond(by uuid.UUID, to State) error {
	prevState, prevResponder := r.state, r.respondUserID
	r.state = to
	r.respondUserID = &by
	if err := r.Validate(); err != nil {
		r.state, r.respondUserID = prevState, prevResponder
		return err
	}
	return nil
}

// Cancel withdraws a pending request. Only its requester may do so.
func (r *Request) Cancel(by uuid.UUID) error {
	if err := r.ensurePending(); err != nil {
		return err
	}
	if by != r.requestUserID {
		return &Error{
			Kind:    KindAuthorization,
			Message: fmt.Sprintf("only the requester can cancel request %s", r.id),
		}
	}
	return r.respond(by, StateCancelled)
}

func (r *Request) Approve(by uuid.UUID) error {
	if err := r.ensurePending(); err != nil {
		return err
	}
	return r.respond(by, StateApproved)
}

func (r *Request) Reject(by uuid.UUID) error {
	if err := r.ensurePending(); err != nil {
		return err
	}
	return r.respond(by, StateRejected)
}

// Execute applies every item in order and only then marks the request
// executed. The first failing item aborts the run and leaves the state as is;
// items before it keep whatever side effects apply produced.
func (r *Request) Execute(now time.Time, apply func(*ActionItem) error) error {
	if err := r.ensureResolvable(); err != nil {
		return err
	}
	if r.state != StateApproved {
		return NewValidationError("state", fmt.Sprintf("request %s must be approved before execution", r.id))
	}
	for _, item := range r.items {
		if err := apply(item); err != nil {
			return err
		}
	}
	r.state = StateExecuted
	r.executedAt = &now
	return nil
}

// MarkPersisted is called by storage once the current state has been written.
func (r *Request) MarkPersisted() {
	r.persistedState = r.state
	for _, c := range r.comments {
		c.persisted = true
	}
	for _, item := range r.items {
		item.markPersisted()
	}
}

// Hide flags the request as superseded within its family.
func (r *Request) Hide() { r.displayStatus = DisplayStatusHidden }
