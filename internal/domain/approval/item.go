package approval

import (
	"fmt"
	"maps"

	"github.com/google/uuid"
)

// Target locates the resource an ActionItem acts on. ID stays nil until a
// create item has been executed.
type Target struct {
	Type string
	ID   *int64
}

func (t Target) HasID() bool { return t.ID != nil }

// Key renders "Type#ID", or just the type for a target without an id.
func (t Target) Key() string {
	if t.ID == nil {
		return t.Type
	}
	return fmt.Sprintf("%s#%d", t.Type, *t.ID)
}

func (t Target) Equal(o Target) bool {
	if t.Type != o.Type {
		return false
	}
	if t.ID == nil || o.ID == nil {
		return t.ID == nil && o.ID == nil
	}
	return *t.ID == *o.ID
}

type ActionItem struct {
	id            uuid.UUID
	event         Event
	target        Target
	params        map[string]any
	operationName string
	options       map[string]any
	resolved      bool
}

type ActionItemParams struct {
	Event         Event
	Target        Target
	Params        map[string]any
	OperationName string
	Options       map[string]any
}

func NewActionItem(p ActionItemParams) (*ActionItem, error) {
	item := &ActionItem{
		id:            uuid.New(),
		event:         p.Event,
		target:        Target{Type: p.Target.Type, ID: copyID(p.Target.ID)},
		params:        cloneMap(p.Params),
		operationName: p.OperationName,
		options:       cloneMap(p.Options),
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

func ReconstructActionItem(id uuid.UUID, p ActionItemParams) *ActionItem {
	return &ActionItem{
		id:            id,
		event:         p.Event,
		target:        Target{Type: p.Target.Type, ID: copyID(p.Target.ID)},
		params:        cloneMap(p.Params),
		operationName: p.OperationName,
		options:       cloneMap(p.Options),
	}
}

// Validate checks the structural rules that hold regardless of the adapter.
func (i *ActionItem) Validate() error {
	var v ValidationErrors
	if !i.event.IsValid() {
		v.Add("event", fmt.Sprintf("%q is not a valid event", i.event))
	}
	if i.target.Type == "" {
		v.Add("target_type", "can't be blank")
	}
	if (i.event == EventUpdate || i.event == EventDestroy) && i.target.ID == nil {
		v.Add("target_id", fmt.Sprintf("is required for %s", i.event))
	}
	if i.event == EventUpdate && len(i.params) == 0 {
		v.Add("params", "can't be blank for update")
	}
	return v.Err()
}

func (i *ActionItem) ID() uuid.UUID          { return i.id }
func (i *ActionItem) Event() Event           { return i.event }
func (i *ActionItem) Target() Target         { return Target{Type: i.target.Type, ID: copyID(i.target.ID)} }
func (i *ActionItem) TargetType() string     { return i.target.Type }
func (i *ActionItem) TargetID() *int64       { return copyID(i.target.ID) }
func (i *ActionItem) OperationName() string  { return i.operationName }
func (i *ActionItem) Params() map[string]any { return cloneMap(i.params) }
func (i *ActionItem) Options() map[string]any {
	return cloneMap(i.options)
}

// ResolveTarget records the id of a resource created by this item.
func (i *ActionItem) ResolveTarget(id int64) {
	i.target.ID = &id
	i.resolved = true
}

// TargetResolved reports whether ResolveTarget ran since the item was loaded.
func (i *ActionItem) TargetResolved() bool { return i.resolved }

func (i *ActionItem) markPersisted() { i.resolved = false }

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}
