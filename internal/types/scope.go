package types

import "maps"

// TypeEnv maps variable names to their types within one lexical scope.
//
// Scopes have value semantics: Child returns a full copy, so bindings made
// or shadowed in a nested block never reach the enclosing scope and sibling
// scopes never alias each other.
type TypeEnv struct {
	vars map[string]Ty
}

// NewTypeEnv creates an empty environment.
func NewTypeEnv() *TypeEnv {
	return &TypeEnv{vars: make(map[string]Ty)}
}

// Child returns a copy of the environment for a nested scope.
func (e *TypeEnv) Child() *TypeEnv {
	return &TypeEnv{vars: maps.Clone(e.vars)}
}

// Declare binds name in this scope, shadowing any previous binding.
func (e *TypeEnv) Declare(name string, ty Ty) {
	e.vars[name] = ty
}

// Lookup finds the type bound to name.
func (e *TypeEnv) Lookup(name string) (Ty, bool) {
	ty, ok := e.vars[name]
	return ty, ok
}

// Len returns the number of visible bindings.
func (e *TypeEnv) Len() int {
	return len(e.vars)
}
