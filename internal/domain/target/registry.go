package target

import (
	"sort"

	"approval-engine/internal/pkg/errs"
)

var ErrDuplicateAdapter = errs.New("adapter already registered")

// Registry maps target type keys to adapters. It is built once at start-up
// and read concurrently afterwards.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		key := a.TargetType()
		if _, dup := r.adapters[key]; dup {
			return nil, errs.Wrapf(ErrDuplicateAdapter, "target type %q", key)
		}
		r.adapters[key] = a
	}
	return r, nil
}

func (r *Registry) Lookup(targetType string) (Adapter, bool) {
	a, ok := r.adapters[targetType]
	return a, ok
}

func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
