package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

type stubModule struct {
	name     string
	deps     []string
	rec      *recorder
	startErr error
}

func (m *stubModule) Name() string        { return m.name }
func (m *stubModule) DependsOn() []string { return m.deps }
func (m *stubModule) Configure(c Container) error {
	m.rec.add("configure " + m.name)
	return nil
}
func (m *stubModule) Start(ctx context.Context, c Container) error {
	m.rec.add("start " + m.name)
	return m.startErr
}
func (m *stubModule) Stop(ctx context.Context, c Container) error {
	m.rec.add("stop " + m.name)
	return nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestApp_Lifecycle(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	app := NewApp(quietLogger(),
		&stubModule{name: "api", deps: []string{"web"}, rec: rec},
		&stubModule{name: "web", rec: rec},
		&stubModule{name: "actuator", deps: []string{"web"}, rec: rec},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, app.Run(ctx))

	assert.Equal(t, []string{
		"configure web", "configure actuator", "configure api",
		"start web", "start actuator", "start api",
		"stop api", "stop actuator", "stop web",
	}, rec.events)
}

func TestApp_StartFailureStopsStarted(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	boom := errors.New("boom")
	app := NewApp(quietLogger(),
		&stubModule{name: "a", rec: rec},
		&stubModule{name: "b", deps: []string{"a"}, rec: rec, startErr: boom},
	)

	err := app.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"configure a", "configure b", "start a", "start b", "stop a"}, rec.events)
}

func TestTopoSort_Errors(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	_, err := topoSort([]Module{&stubModule{name: "x", rec: rec}, &stubModule{name: "x", rec: rec}})
	assert.ErrorIs(t, err, ErrDuplicateModule)

	_, err = topoSort([]Module{&stubModule{name: "x", deps: []string{"y"}, rec: rec}})
	assert.ErrorIs(t, err, ErrMissingModule)

	_, err = topoSort([]Module{
		&stubModule{name: "x", deps: []string{"y"}, rec: rec},
		&stubModule{name: "y", deps: []string{"x"}, rec: rec},
	})
	assert.ErrorIs(t, err, ErrDependencyCycle)
}

func TestContainer(t *testing.T) {
	t.Parallel()

	c := NewContainer()
	Put(c, "hello")
	assert.Equal(t, "hello", Get[string](c))

	_, ok := Lookup[int](c)
	assert.False(t, ok)
	assert.Panics(t, func() { Get[int](c) })

	c.Set(TypeKey[int]{}, "not an int")
	assert.Panics(t, func() { Get[int](c) })
}

func TestContainer_GetOrCreate(t *testing.T) {
	t.Parallel()

	type widget struct{ n int64 }

	c := NewContainer()
	var calls atomic.Int64
	ctor := func() *widget { return &widget{n: calls.Add(1)} }

	var wg sync.WaitGroup
	got := make([]*widget, 32)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = GetOrCreate(c, ctor)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, w := range got {
		assert.Same(t, got[0], w)
	}
}
