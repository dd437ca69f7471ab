// Package stdlib provides the native functions predefined in the lox global scope.
package stdlib

import (
	"sort"

	"github.com/loxwalk/lox/pkg/evaluator"
)

// Registry holds registered native functions.
type Registry struct {
	fns map[string]*evaluator.NativeFn
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*evaluator.NativeFn),
	}
}

// Register adds a native to the registry, replacing any with the same name.
func (r *Registry) Register(fn *evaluator.NativeFn) {
	r.fns[fn.Name] = fn
}

// Get retrieves a native by name.
func (r *Registry) Get(name string) *evaluator.NativeFn {
	return r.fns[name]
}

// All returns all registered natives sorted by name.
func (r *Registry) All() []*evaluator.NativeFn {
	out := make([]*evaluator.NativeFn, 0, len(r.fns))
	for _, fn := range r.fns {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Option returns an interpreter option that defines every registered native.
func (r *Registry) Option() evaluator.Option {
	return evaluator.WithNatives(r.All()...)
}
