package types

import "sync"

// Registry interns class types by name. Primitive types are package
// singletons and compound types compare structurally, so only class
// types need a shared home: the parser, loader and code generator all
// resolve a class name to the same *Class value, and the declaration
// back-pointer set at parse time is visible everywhere.
//
// The registry is owned by the Compiler value rather than being a
// process singleton so tests get per-test isolation.
type Registry struct {
	mu       sync.Mutex
	classes  map[string]*Class
	declared map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		classes:  make(map[string]*Class),
		declared: make(map[string]bool),
	}
}

// Class returns the interned class type for name, creating it on
// first use. Mentioning a class name in a type annotation does not
// declare it; see Declare.
func (r *Registry) Class(name string) *Class {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ct, ok := r.classes[name]; ok {
		return ct
	}
	ct := &Class{Name: name}
	r.classes[name] = ct
	return ct
}

// Declare marks a class name as having a parsed declaration. A call
// expression whose callee is a declared class lowers to construction.
func (r *Registry) Declare(name string) *Class {
	ct := r.Class(name)
	r.mu.Lock()
	r.declared[name] = true
	r.mu.Unlock()
	return ct
}

// IsDeclared reports whether a ClassDecl has been registered for name.
func (r *Registry) IsDeclared(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.declared[name]
}

// DeclaredClasses returns the names of all declared classes.
func (r *Registry) DeclaredClasses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.declared))
	for name := range r.declared {
		names = append(names, name)
	}
	return names
}
