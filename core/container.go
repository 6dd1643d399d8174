package core

import (
	"fmt"
	"reflect"
	"sync"
)

// Container is a small typed registry shared by modules. Values are keyed by
// arbitrary comparable keys; TypeKey[T] keys by Go type.
type Container interface {
	Set(key any, val any)
	Get(key any) (any, bool)
	MustGet(key any) any
	// GetOrCreate returns the value under key, calling create exactly once
	// when the key is missing, even under concurrent callers.
	GetOrCreate(key any, create func() any) any
}

type container struct {
	mu      sync.RWMutex
	reg     map[any]any
	pending map[any]*sync.Once
}

func NewContainer() Container {
	return &container{
		reg:     make(map[any]any),
		pending: make(map[any]*sync.Once),
	}
}

func (c *container) Set(key, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reg[key] = val
}

func (c *container) Get(key any) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.reg[key]
	return v, ok
}

func (c *container) MustGet(key any) any {
	if v, ok := c.Get(key); ok {
		return v
	}
	panic(fmt.Errorf("container: missing dependency %v (%T)", key, key))
}

func (c *container) GetOrCreate(key any, create func() any) any {
	if v, ok := c.Get(key); ok {
		return v
	}

	c.mu.Lock()
	if v, ok := c.reg[key]; ok {
		c.mu.Unlock()
		return v
	}
	once, ok := c.pending[key]
	if !ok {
		once = new(sync.Once)
		c.pending[key] = once
	}
	c.mu.Unlock()

	// create runs outside the lock so it may use the container itself.
	once.Do(func() {
		v := create()
		c.mu.Lock()
		if _, exists := c.reg[key]; !exists {
			c.reg[key] = v
		}
		delete(c.pending, key)
		c.mu.Unlock()
	})

	return c.MustGet(key)
}

// TypeKey keys a container entry by type.
type TypeKey[T any] struct{}

func Put[T any](c Container, v T) { c.Set(TypeKey[T]{}, v) }

func Get[T any](c Container) T {
	raw := c.MustGet(TypeKey[T]{})
	v, ok := raw.(T)
	if !ok {
		panic(fmt.Errorf("container: wrong type. have=%T want=%v", raw, reflect.TypeFor[T]()))
	}
	return v
}

// Lookup is Get without the panic on a missing entry.
func Lookup[T any](c Container) (T, bool) {
	raw, ok := c.Get(TypeKey[T]{})
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}

// GetOrCreate returns the T in c, constructing it with ctor the first time.
func GetOrCreate[T any](c Container, ctor func() T) T {
	return c.GetOrCreate(TypeKey[T]{}, func() any { return ctor() }).(T)
}
