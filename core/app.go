package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"sort"
	"syscall"
	"time"
)

// ShutdownTimeout bounds how long Run waits for modules to stop.
const ShutdownTimeout = 15 * time.Second

type App struct {
	Modules   []Module
	Container Container
	Logger    *slog.Logger

	started []Module
}

func NewApp(logger *slog.Logger, mods ...Module) *App {
	return &App{
		Modules:   mods,
		Container: NewContainer(),
		Logger:    logger,
	}
}

// Run starts every module, blocks until ctx is done or SIGINT/SIGTERM
// arrives, then stops the modules in reverse order.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		_ = a.Stop(context.Background())
		return err
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return a.Stop(shutdownCtx)
}

// Start configures all modules in dependency order, then starts them.
func (a *App) Start(ctx context.Context) error {
	order, err := topoSort(a.Modules)
	if err != nil {
		return err
	}

	for _, m := range order {
		if err := m.Configure(a.Container); err != nil {
			return fmt.Errorf("configure %s: %w", m.Name(), err)
		}
	}

	for _, m := range order {
		a.Logger.Info("starting module", "module", m.Name())
		if err := m.Start(ctx, a.Container); err != nil {
			return fmt.Errorf("start %s: %w", m.Name(), err)
		}
		a.started = append(a.started, m)
	}
	return nil
}

// Stop stops started modules in reverse order and returns the first error.
func (a *App) Stop(ctx context.Context) error {
	var firstErr error
	for i := len(a.started) - 1; i >= 0; i-- {
		m := a.started[i]
		a.Logger.Info("stopping module", "module", m.Name())
		if err := m.Stop(ctx, a.Container); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.started = nil
	return firstErr
}

// Module graph errors returned by Start.
var (
	ErrDuplicateModule = errors.New("duplicate module name")
	ErrMissingModule   = errors.New("missing dependency")
	ErrDependencyCycle = errors.New("cycle detected")
)

// topoSort orders mods so that every module follows its dependencies.
// Independent modules are visited by name for a stable order.
func topoSort(mods []Module) ([]Module, error) {
	nameToMod := map[string]Module{}
	for _, m := range mods {
		if _, dup := nameToMod[m.Name()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModule, m.Name())
		}
		nameToMod[m.Name()] = m
	}
	visited := map[string]bool{}
	temp := map[string]bool{}
	var out []Module
	var visit func(string) error

	visit = func(n string) error {
		if temp[n] {
			return fmt.Errorf("%w at module %s", ErrDependencyCycle, n)
		}
		if visited[n] {
			return nil
		}
		temp[n] = true
		m := nameToMod[n]
		for _, d := range m.DependsOn() {
			if _, ok := nameToMod[d]; !ok {
				return fmt.Errorf("%w: %s depends on %s", ErrMissingModule, n, d)
			}
			if err := visit(d); err != nil {
				return err
			}
		}
		visited[n] = true
		temp[n] = false
		out = append(out, m)
		return nil
	}

	names := make([]string, 0, len(mods))
	for _, m := range mods {
		names = append(names, m.Name())
	}
	sort.Strings(names)

	for _, n := range names {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return out, nil
}
