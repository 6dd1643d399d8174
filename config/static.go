package config

import (
	"context"

	"github.com/skekre98/sundry/dict"
)

// StaticSource serves a fixed map. It is typically the first source of a
// Manager so that defaults sit below every other layer.
type StaticSource struct {
	ID     string
	Values map[string]any
}

func (s *StaticSource) Name() string {
	if s.ID == "" {
		return "static"
	}
	return s.ID
}

// Load returns a deep copy of Values.
func (s *StaticSource) Load(ctx context.Context) (map[string]any, error) {
	return dict.Merge(s.Values, map[string]any{}), nil
}

func (s *StaticSource) Watch(ctx context.Context, ch chan<- Event) error { return nil }
