package strata

import (
	"sort"
	"sync"
)

// Binding constructs a repository or service instance. The scaffolded
// provider files register one Binding per artifact.
type Binding func() any

// Registry holds named bindings so application wiring can resolve
// repositories and services by name instead of importing constructors
// directly.
type Registry struct {
	bindings map[string]Binding
	mu       sync.RWMutex
}

// Global default registry.
var defaultRegistry = NewRegistry()

// NewRegistry creates a new registry instance.
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]Binding),
	}
}

// Bind registers a binding under a name, replacing any previous binding.
func (r *Registry) Bind(name string, binding Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[name] = binding
}

// Unbind removes a binding from the registry.
func (r *Registry) Unbind(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, name)
}

// Resolve invokes the named binding and returns the result.
func (r *Registry) Resolve(name string) (any, bool) {
	r.mu.RLock()
	binding, ok := r.bindings[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return binding(), true
}

// Names returns the registered binding names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bindings))
	for name := range r.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package-level functions that delegate to the default registry

// Bind registers a binding in the global registry.
func Bind(name string, binding Binding) {
	defaultRegistry.Bind(name, binding)
}

// Unbind removes a binding from the global registry.
func Unbind(name string) {
	defaultRegistry.Unbind(name)
}

// Resolve invokes a binding from the global registry.
func Resolve(name string) (any, bool) {
	return defaultRegistry.Resolve(name)
}

// Names lists the global registry's binding names.
func Names() []string {
	return defaultRegistry.Names()
}
