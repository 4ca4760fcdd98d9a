package llm

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
)

// Registry holds the mapping between backend choices and their implementations.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry creates a registry pre-populated with backends keyed by Name().
func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{backends: make(map[string]Backend)}
	for _, b := range backends {
		r.Register(b)
	}
	return r
}

// Register adds a backend, overwriting any previous one with the same name.
func (r *Registry) Register(b Backend) {
	if _, exists := r.backends[b.Name()]; exists {
		log.Printf("WARN [BackendRegistry] Backend '%s' is already registered. Overwriting.", b.Name())
	}
	r.backends[b.Name()] = b
	log.Printf("[BackendRegistry] Registered completion backend: %s", b.Name())
}

// Get retrieves a backend by choice.
func (r *Registry) Get(name string) (Backend, error) {
	b, exists := r.backends[name]
	if !exists {
		return nil, fmt.Errorf("no completion backend registered for %q", name)
	}
	return b, nil
}

// Names lists registered backends in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
