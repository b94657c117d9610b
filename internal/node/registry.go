package node

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps node ids to factories. Nodes are added by explicit
// Register calls; nothing registers itself on import.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the id reported by its node's metadata
func (r *Registry) Register(f Factory) error {
	if f == nil {
		return fmt.Errorf("register: nil factory")
	}
	id := f().Metadata().ID
	if id == "" {
		return fmt.Errorf("register: node has an empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("register: node %q already registered", id)
	}
	r.factories[id] = f
	return nil
}

// New creates a node with default settings
func (r *Registry) New(id string) (Node, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown node %q", id)
	}
	return f(), nil
}

// List returns the metadata of every registered node sorted by id
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Metadata, 0, len(r.factories))
	for _, f := range r.factories {
		list = append(list, f().Metadata())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
