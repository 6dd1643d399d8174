package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/skekre98/sundry/dict"
)

// Manager loads configuration from layered sources, validates it, and
// notifies subscribers of changes.
//
// Sources are merged in order with dict.Merge, so later sources override
// earlier ones key by key, at any depth. A reload that fails to bind or
// validate leaves the current configuration untouched. All methods are safe
// for concurrent use.
type Manager struct {
	sources []ConfigSource
	config  any
	binder  *Binder
	logger  *slog.Logger

	mu   sync.RWMutex
	subs []chan Event

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options configures a Manager.
type Options struct {
	// AutoReload starts a watcher per source and reloads on every event.
	AutoReload bool

	// Logger receives reload failures from watchers. Defaults to slog.Default.
	Logger *slog.Logger
}

// NewManager binds cfg, a pointer to a struct with `config` and `validate`
// tags, from sources. The initial load must succeed.
//
// Example:
//
//	var cfg config.Root
//	mgr, err := config.NewManager(&cfg, config.Options{},
//	    config.DefaultsSource(),
//	    &source.FileSource{BasePath: "configs"},
//	    &source.EnvSource{},
//	    &source.CLISource{Args: args},
//	)
func NewManager(cfg any, opts Options, sources ...ConfigSource) (*Manager, error) {
	m := &Manager{
		sources: sources,
		config:  cfg,
		binder:  NewBinder(),
		logger:  opts.Logger,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	if err := m.Reload(context.Background()); err != nil {
		return nil, err
	}

	if opts.AutoReload {
		m.startWatchers()
	}

	return m, nil
}

// Reload loads and merges every source, binds and validates the result into
// a fresh value, and only then swaps it into the caller's struct. Subscribers
// are notified when any field changed.
func (m *Manager) Reload(ctx context.Context) error {
	merged := map[string]any{}
	for _, src := range m.sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		vals, err := src.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load config from %s: %w", src.Name(), err)
		}
		dict.Merge(vals, merged)
	}

	cfgType := reflect.TypeOf(m.config).Elem()
	newCfg := reflect.New(cfgType).Interface()

	if err := m.binder.Bind(merged, newCfg); err != nil {
		return fmt.Errorf("failed to bind config: %w", err)
	}

	m.mu.Lock()
	oldCfg := reflect.New(cfgType).Interface()
	reflect.ValueOf(oldCfg).Elem().Set(reflect.ValueOf(m.config).Elem())
	reflect.ValueOf(m.config).Elem().Set(reflect.ValueOf(newCfg).Elem())
	m.mu.Unlock()

	if !reflect.DeepEqual(oldCfg, newCfg) {
		m.notify(diffEvent(oldCfg, newCfg))
	}
	return nil
}

// Snapshot copies the current configuration into dst, which must be a
// pointer of the same type as the struct given to NewManager.
func (m *Manager) Snapshot(dst any) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reflect.ValueOf(dst).Elem().Set(reflect.ValueOf(m.config).Elem())
}

// Subscribe registers ch for change events. Sends never block: a full
// channel misses the event. The Manager never closes ch.
func (m *Manager) Subscribe(ch chan Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, ch)
}

// Close stops the watchers started by AutoReload and waits for them.
func (m *Manager) Close() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Manager) notify(evt Event) {
	m.mu.RLock()
	subs := append([]chan Event(nil), m.subs...)
	m.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (m *Manager) startWatchers() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	for _, src := range m.sources {
		ch := make(chan Event, 1)
		m.wg.Add(2)

		go func() {
			defer m.wg.Done()
			if err := src.Watch(ctx, ch); err != nil && ctx.Err() == nil {
				m.logger.Warn("config watch stopped", "source", src.Name(), "error", err)
			}
		}()

		go func() {
			defer m.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ch:
					if err := m.Reload(ctx); err != nil {
						m.logger.Error("config reload failed", "source", src.Name(), "error", err)
					}
				}
			}
		}()
	}
}
