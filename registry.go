package recs

import (
	"sort"
	"sync"
)

// Registry maps stage names to factories. The engine never enumerates
// stages itself: discovery is external, and the registry only answers
// yes/no resolution during compilation. The stages package installs the
// builtin catalog; embedders may register their own factories alongside
// or instead of it.
type Registry struct {
	mu        sync.RWMutex
	factories map[Name]Factory
}

// NewRegistry creates an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Name]Factory)}
}

// Register adds a factory under a stage name, replacing any previous
// registration for that name.
func (r *Registry) Register(name Name, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Resolve returns the factory for a stage name, or an UnknownStageError.
func (r *Registry) Resolve(name Name) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	if !ok {
		return nil, &UnknownStageError{Name: name}
	}
	return factory, nil
}

// Names returns all registered stage names in sorted order.
func (r *Registry) Names() []Name {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]Name, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
