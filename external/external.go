// Package external wraps command-line tools installed on the host.
package external

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrInkscapeNotFound is returned by SVGToPDF when inkscape is not on PATH.
var ErrInkscapeNotFound = errors.New("inkscape not found")

const (
	// GitNotPresent is returned by GitCommit when git is not on PATH.
	GitNotPresent = "git no present"

	// DefaultGitErrorMessage is returned by GitCommit when the directory is
	// not inside a repository and no message was given.
	DefaultGitErrorMessage = "parent directory is not a repository"
)

// Runner resolves and runs tools. The zero value uses os/exec.
type Runner struct {
	// LookPath finds a binary on PATH. Defaults to exec.LookPath.
	LookPath func(file string) (string, error)
	// Command builds the process. Defaults to exec.CommandContext.
	Command func(ctx context.Context, name string, args ...string) *exec.Cmd
	// Logger receives tool failures that are not surfaced as errors.
	Logger *slog.Logger

	// Inkscape and Git override the binary names looked up on PATH.
	Inkscape string
	Git      string
}

var defaultRunner = &Runner{}

// SVGToPDF converts input into a PDF at output using Inkscape.
func SVGToPDF(ctx context.Context, input, output string) error {
	return defaultRunner.SVGToPDF(ctx, input, output)
}

// GitCommit returns the commit checked out at path.
func GitCommit(ctx context.Context, path, errorMessage string) string {
	return defaultRunner.GitCommit(ctx, path, errorMessage)
}

// SVGToPDF converts input into a PDF at output using Inkscape. Only a missing
// inkscape binary is an error; a failed conversion is logged.
func (r *Runner) SVGToPDF(ctx context.Context, input, output string) error {
	bin, err := r.lookPath(or(r.Inkscape, "inkscape"))
	if err != nil {
		return ErrInkscapeNotFound
	}

	cmd := r.command(ctx, bin,
		"--file="+input,
		"--export-area-drawing",
		"--without-gui",
		"--export-pdf="+output,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		r.logger().Warn("inkscape conversion failed",
			"input", input,
			"output", output,
			"error", err,
			"stderr", strings.TrimSpace(stderr.String()),
		)
	}
	return nil
}

// GitCommit runs `git rev-parse HEAD` in path. It never fails: a missing git
// binary yields GitNotPresent and a failed query yields errorMessage, or
// DefaultGitErrorMessage when errorMessage is empty.
func (r *Runner) GitCommit(ctx context.Context, path, errorMessage string) string {
	if errorMessage == "" {
		errorMessage = DefaultGitErrorMessage
	}

	bin, err := r.lookPath(or(r.Git, "git"))
	if err != nil {
		return GitNotPresent
	}

	cmd := r.command(ctx, bin, "rev-parse", "HEAD")
	cmd.Dir = path
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.logger().Debug("git rev-parse failed", "path", path, "error", err)
		return errorMessage
	}
	return strings.TrimRight(string(out), " \t\r\n")
}

func (r *Runner) lookPath(file string) (string, error) {
	if r.LookPath != nil {
		return r.LookPath(file)
	}
	p, err := exec.LookPath(file)
	if err != nil {
		return "", fmt.Errorf("look up %s: %w", file, err)
	}
	return p, nil
}

func (r *Runner) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	if r.Command != nil {
		return r.Command(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// ToolStatus reports whether a wrapped tool is installed.
type ToolStatus struct {
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Found bool   `json:"found"`
}

// Tools looks up every wrapped tool on PATH.
func (r *Runner) Tools() []ToolStatus {
	names := []string{or(r.Git, "git"), or(r.Inkscape, "inkscape")}
	out := make([]ToolStatus, 0, len(names))
	for _, n := range names {
		p, err := r.lookPath(n)
		out = append(out, ToolStatus{Name: n, Path: p, Found: err == nil})
	}
	return out
}
