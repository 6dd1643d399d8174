package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/skekre98/sundry/config"
	"github.com/skekre98/sundry/dict"
)

// FileSource loads YAML configuration from BasePath.
//
// The base file is application.yaml (or .yml). When Profile is set,
// application.<profile>.yaml is deep-merged over it if present:
//
//	configs/
//	  application.yaml
//	  application.prod.yaml
type FileSource struct {
	BasePath string
	Profile  string

	// Optional makes a missing base file yield an empty map instead of
	// os.ErrNotExist.
	Optional bool
}

func (f *FileSource) Name() string { return "file" }

func (f *FileSource) Load(ctx context.Context) (map[string]any, error) {
	baseFile := findYAMLFile(f.BasePath, "application")
	if baseFile == "" {
		if f.Optional {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("application.yaml in %s: %w", f.BasePath, os.ErrNotExist)
	}

	data, err := readYAML(baseFile)
	if err != nil {
		return nil, err
	}

	if f.Profile != "" {
		if profileFile := findYAMLFile(f.BasePath, "application."+f.Profile); profileFile != "" {
			overlay, err := readYAML(profileFile)
			if err != nil {
				return nil, err
			}
			dict.Merge(overlay, data)
		}
	}

	return data, nil
}

// Watch is a no-op; reload explicitly with Manager.Reload.
func (f *FileSource) Watch(ctx context.Context, ch chan<- config.Event) error { return nil }

func findYAMLFile(dir, basename string) string {
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, basename+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func readYAML(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}
