package config

import "context"

// ConfigSource is a source of configuration data that can be loaded and,
// optionally, watched for changes.
//
// Load must be safe for concurrent use. Watch may return nil immediately
// when the source cannot detect changes.
type ConfigSource interface {
	// Load returns the source's data as a nested string-keyed map. The map is
	// owned by the caller.
	Load(ctx context.Context) (map[string]any, error)

	// Watch sends an Event on ch whenever the source changes, until ctx is
	// cancelled. It must not close ch.
	Watch(ctx context.Context, ch chan<- Event) error

	// Name identifies the source in errors and logs, e.g. "file" or "env".
	Name() string
}

// Event is a configuration change notification.
type Event struct {
	// ChangedKeys lists dotted field paths whose values differ between
	// OldConfig and NewConfig, e.g. "Server.Addr".
	ChangedKeys []string

	OldConfig any
	NewConfig any
}
