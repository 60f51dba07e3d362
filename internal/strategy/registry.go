package strategy

import (
	"sort"
	"sync"
)

// Registry maps strategy names to signal functions for CLI and API dispatch.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Func
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Func),
	}
}

// Register adds a strategy under the given name, replacing any previous
// registration.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = fn
}

// Get retrieves a strategy by name.
func (r *Registry) Get(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.strategies[name]
	if !ok {
		return Strategy{}, false
	}
	return Strategy{Name: name, Eval: fn}, true
}

// Names returns the registered strategy names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
