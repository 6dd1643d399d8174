package source

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/skekre98/sundry/config"
)

// DefaultEnvPrefix is the prefix EnvSource uses when Prefix is empty.
const DefaultEnvPrefix = "SUNDRY_"

// EnvSource loads configuration from environment variables.
//
// Only variables starting with Prefix are read. The rest of the name is
// lower-cased and split on underscores into a nested path:
//
//	SUNDRY_SERVER_ADDR=:9090     -> {server: {addr: ":9090"}}
//	SUNDRY_TOOLS_GIT=/opt/git    -> {tools: {git: "/opt/git"}}
//
// Values stay strings; the Binder converts them. When a leaf already exists
// at a path, deeper variables under it are skipped.
//
// Keys are lower-cased. When Keys is set, every path is matched against it
// ignoring case and rewritten to its spelling there, so
// SUNDRY_SERVER_READTIMEOUT reaches server.readTimeout. Variables with no
// matching key are logged and dropped.
type EnvSource struct {
	Prefix string
	// Environ replaces os.Environ, mainly for tests.
	Environ func() []string
	// Keys is a template of the known configuration, typically
	// config.Defaults().
	Keys map[string]any
	// Logger receives dropped variables. Defaults to slog.Default.
	Logger *slog.Logger
}

func (e *EnvSource) Name() string { return "env" }

// Load never fails; malformed entries are ignored.
func (e *EnvSource) Load(ctx context.Context) (map[string]any, error) {
	prefix := e.Prefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	environ := e.Environ
	if environ == nil {
		environ = os.Environ
	}
	return e.loadEnvVars(prefix, environ()), nil
}

// Watch is a no-op; the environment does not change under a running process.
func (e *EnvSource) Watch(ctx context.Context, ch chan<- config.Event) error {
	return nil
}

func (e *EnvSource) loadEnvVars(prefix string, environ []string) map[string]any {
	result := make(map[string]any)

	for _, env := range environ {
		name, value, found := strings.Cut(env, "=")
		if !found || !strings.HasPrefix(name, prefix) {
			continue
		}

		segments := strings.Split(strings.ToLower(strings.TrimPrefix(name, prefix)), "_")
		if e.Keys != nil {
			var ok bool
			if segments, ok = canonicalPath(e.Keys, segments); !ok {
				e.logger().Warn("ignoring unknown config key from environment", "variable", name)
				continue
			}
		}
		setNestedValue(result, segments, value)
	}

	return result
}

func (e *EnvSource) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// canonicalPath spells segments the way keys does, matching case-insensitively.
func canonicalPath(keys map[string]any, segments []string) ([]string, bool) {
	out := make([]string, 0, len(segments))
	level := keys
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if level == nil {
			return nil, false
		}
		key, next, ok := lookupFold(level, seg)
		if !ok {
			return nil, false
		}
		out = append(out, key)
		level, _ = next.(map[string]any)
	}
	return out, len(out) > 0
}

func lookupFold(m map[string]any, name string) (string, any, bool) {
	if v, ok := m[name]; ok {
		return name, v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return k, v, true
		}
	}
	return "", nil, false
}

func setNestedValue(m map[string]any, segments []string, value string) {
	current := m

	for i, segment := range segments {
		if segment == "" {
			continue
		}

		if i == len(segments)-1 {
			current[segment] = value
			return
		}

		existing, exists := current[segment]
		if !exists {
			nested := make(map[string]any)
			current[segment] = nested
			current = nested
			continue
		}

		nested, ok := existing.(map[string]any)
		if !ok {
			// A leaf already lives here.
			return
		}
		current = nested
	}
}
