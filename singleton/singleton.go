// Package singleton holds at most one lazily built instance per Go type for
// the life of the process.
package singleton

import "github.com/skekre98/sundry/core"

var instances = core.NewContainer()

// Of returns the process-wide T. The first call builds it with ctor; later
// calls return the same value and never call ctor. Concurrent first calls
// build exactly once.
//
// Distinct types get distinct instances, so wrap shared types in a named
// type when two singletons of the same underlying type are needed.
func Of[T any](ctor func() T) T {
	return core.GetOrCreate(instances, ctor)
}

// Lookup reports the process-wide T if it has been built.
func Lookup[T any]() (T, bool) {
	return core.Lookup[T](instances)
}
