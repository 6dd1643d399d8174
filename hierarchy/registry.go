// Package hierarchy keeps an explicit registry of named types and their
// subtype relations, and answers which concrete types hang from a base.
package hierarchy

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownType is returned for names that were never registered.
	ErrUnknownType = errors.New("hierarchy: unknown type")
	// ErrDuplicateType is returned when a name is registered twice.
	ErrDuplicateType = errors.New("hierarchy: duplicate type")
)

type node struct {
	name     string
	abstract bool
	children []string
}

// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]*node
}

func NewRegistry() *Registry {
	return &Registry{nodes: map[string]*node{}}
}

// Register adds a type. Parents must already be registered; the registry is
// therefore acyclic by construction.
func (r *Registry) Register(name string, abstract bool, parents ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.nodes[name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateType, name)
	}
	for _, p := range parents {
		if _, ok := r.nodes[p]; !ok {
			return fmt.Errorf("%w: %s (parent of %s)", ErrUnknownType, p, name)
		}
	}

	r.nodes[name] = &node{name: name, abstract: abstract}
	for _, p := range parents {
		r.nodes[p].children = append(r.nodes[p].children, name)
	}
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *Registry) MustRegister(name string, abstract bool, parents ...string) {
	if err := r.Register(name, abstract, parents...); err != nil {
		panic(err)
	}
}

// Concrete returns the non-abstract types reachable from name, name included,
// in depth-first pre-order following registration order. A type reachable
// through several parents is listed once.
func (r *Registry) Concrete(name string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.nodes[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}

	visited := map[string]bool{}
	var out []string
	var visit func(string)

	visit = func(n string) {
		if visited[n] {
			return
		}
		visited[n] = true
		nd := r.nodes[n]
		if !nd.abstract {
			out = append(out, n)
		}
		for _, c := range nd.children {
			visit(c)
		}
	}

	visit(name)
	return out, nil
}

// Subtypes returns the direct subtypes of name.
func (r *Registry) Subtypes(name string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nd, ok := r.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return append([]string(nil), nd.children...), nil
}
