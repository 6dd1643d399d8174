package config

import (
	"time"

	"github.com/skekre98/sundry/fsutil"
)

type AppInfo struct {
	Name    string `config:"name" validate:"required"`
	Version string `config:"version" validate:"required"`
}

type LoggingConfig struct {
	Level  string `config:"level" validate:"oneof=debug info warn error"`
	Format string `config:"format" validate:"oneof=text json"`
}

type MetricsConfig struct {
	Enabled bool   `config:"enabled"`
	Path    string `config:"path"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `config:"metrics"`
}

type ActuatorConfig struct {
	BasePath string `config:"basePath" validate:"startswith=/"`
}

type ServerConfig struct {
	Addr         string        `config:"addr" validate:"required"`
	ReadTimeout  time.Duration `config:"readTimeout"`
	WriteTimeout time.Duration `config:"writeTimeout"`
	IdleTimeout  time.Duration `config:"idleTimeout"`
}

// ToolsConfig names the external binaries and messages used by the
// process wrappers.
type ToolsConfig struct {
	Inkscape        string `config:"inkscape" validate:"required"`
	Git             string `config:"git" validate:"required"`
	GitErrorMessage string `config:"gitErrorMessage"`
}

// FilesConfig constrains the filesystem endpoints.
type FilesConfig struct {
	// Root confines path arguments of HTTP requests. Empty means no limit.
	Root     string      `config:"root"`
	SizeUnit fsutil.Unit `config:"sizeUnit"`
}

type Root struct {
	App           AppInfo             `config:"app"`
	Server        ServerConfig        `config:"server"`
	Logging       LoggingConfig       `config:"logging"`
	Observability ObservabilityConfig `config:"observability"`
	Actuator      ActuatorConfig      `config:"actuator"`
	Tools         ToolsConfig         `config:"tools"`
	Files         FilesConfig         `config:"files"`
}

// Defaults is the bottom configuration layer.
func Defaults() map[string]any {
	return map[string]any{
		"app": map[string]any{
			"name":    "sundry",
			"version": "dev",
		},
		"server": map[string]any{
			"addr":         ":8080",
			"readTimeout":  "10s",
			"writeTimeout": "30s",
			"idleTimeout":  "60s",
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"observability": map[string]any{
			"metrics": map[string]any{
				"enabled": true,
				"path":    "/actuator/metrics",
			},
		},
		"actuator": map[string]any{
			"basePath": "/actuator",
		},
		"tools": map[string]any{
			"inkscape":        "inkscape",
			"git":             "git",
			"gitErrorMessage": "parent directory is not a repository",
		},
		"files": map[string]any{
			"root":     "",
			"sizeUnit": "b",
		},
	}
}

// DefaultsSource serves Defaults as a ConfigSource.
func DefaultsSource() ConfigSource {
	return &StaticSource{ID: "defaults", Values: Defaults()}
}
