package singleton

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type counter struct{ n int }

type tally struct{ n int }

type settings struct{ name string }

type lazy struct{ id int64 }

func TestOf_SameInstance(t *testing.T) {
	first := Of(func() *counter { return &counter{n: 1} })
	second := Of(func() *counter { return &counter{n: 2} })

	assert.Same(t, first, second)
	assert.Equal(t, 1, second.n)
}

func TestOf_PerType(t *testing.T) {
	c := Of(func() *tally { return &tally{n: 7} })
	s := Of(func() *settings { return &settings{name: "x"} })

	assert.Equal(t, 7, c.n)
	assert.Equal(t, "x", s.name)

	got, ok := Lookup[*settings]()
	assert.True(t, ok)
	assert.Same(t, s, got)
}

func TestOf_ConcurrentBuildsOnce(t *testing.T) {
	var built atomic.Int64
	ctor := func() *lazy { return &lazy{id: built.Add(1)} }

	var wg sync.WaitGroup
	results := make([]*lazy, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Of(ctor)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), built.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestLookup_NotBuilt(t *testing.T) {
	type never struct{}
	_, ok := Lookup[*never]()
	assert.False(t, ok)
}
