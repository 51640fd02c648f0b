package game

import (
	"fmt"
	"sync"
)

// Registry holds the game types offered by the lobby. Types are registered
// explicitly at startup and listed in registration order.
type Registry struct {
	games map[string]Descriptor
	order []string
	mu    sync.RWMutex
}

// NewRegistry creates a new game registry.
func NewRegistry() *Registry {
	return &Registry{
		games: make(map[string]Descriptor),
	}
}

// Register adds a game type. Registering an existing type replaces it in place.
func (r *Registry) Register(d Descriptor) error {
	if d == nil {
		return fmt.Errorf("cannot register nil game type")
	}
	if d.Type() == "" {
		return fmt.Errorf("game type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.games[d.Type()]; !exists {
		r.order = append(r.order, d.Type())
	}
	r.games[d.Type()] = d
	return nil
}

// Get retrieves a game type by id.
func (r *Registry) Get(gameType string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.games[gameType]
	return d, ok
}

// All returns every registered game type in registration order.
// The returned slice is a copy.
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.games[t])
	}
	return out
}

// Types returns all registered type ids in registration order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered game types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
