package evaluator

import (
	"fmt"

	"github.com/loxwalk/lox/pkg/token"
)

// Env is a scoped environment for variable bindings.
// It supports parent-chained lookup for lexical scoping. The parent link is
// fixed at creation, so chains are acyclic. Closures hold an *Env directly;
// a scope lives as long as any function value or active frame refers to it.
type Env struct {
	bindings map[string]Value
	parent   *Env
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings: make(map[string]Value),
		parent:   parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Parent returns the enclosing scope, or nil for the global scope.
func (e *Env) Parent() *Env {
	return e.parent
}

// Define binds name in this scope, replacing any existing binding here.
func (e *Env) Define(name string, val Value) {
	e.bindings[name] = val
}

// Lookup finds name by walking outward through parent scopes.
func (e *Env) Lookup(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if val, ok := env.bindings[name]; ok {
			return val, true
		}
	}
	return nil, false
}

// Get resolves a variable reference, failing with a runtime error at name
// when no scope in the chain binds it.
func (e *Env) Get(name token.Token) (Value, error) {
	if val, ok := e.Lookup(name.Lexeme); ok {
		return val, nil
	}
	return nil, undefined(name)
}

// Assign updates the nearest existing binding of name. It never creates one.
func (e *Env) Assign(name token.Token, val Value) error {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.bindings[name.Lexeme]; ok {
			env.bindings[name.Lexeme] = val
			return nil
		}
	}
	return undefined(name)
}

// Names returns the names bound directly in this scope.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	return names
}

func undefined(name token.Token) error {
	return &RuntimeError{Token: name, Message: fmt.Sprintf("Undefined variable '%s'.", name.Lexeme)}
}
