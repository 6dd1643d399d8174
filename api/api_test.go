package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skekre98/sundry/actuator"
	"github.com/skekre98/sundry/api"
	"github.com/skekre98/sundry/config"
	"github.com/skekre98/sundry/core"
	"github.com/skekre98/sundry/external"
	"github.com/skekre98/sundry/fsutil"
	"github.com/skekre98/sundry/gpu"
	"github.com/skekre98/sundry/web"
)

type fakeTelemetry struct {
	free    []uint64
	initErr error
}

func (f *fakeTelemetry) Init() error               { return f.initErr }
func (f *fakeTelemetry) Shutdown() error           { return nil }
func (f *fakeTelemetry) DeviceCount() (int, error) { return len(f.free), nil }
func (f *fakeTelemetry) FreeMemory(i int) (uint64, error) {
	return f.free[i], nil
}

func testRoot(root string) config.Root {
	return config.Root{
		App:      config.AppInfo{Name: "sundry", Version: "test"},
		Server:   config.ServerConfig{Addr: "127.0.0.1:0"},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
		Actuator: config.ActuatorConfig{BasePath: "/actuator"},
		Observability: config.ObservabilityConfig{
			Metrics: config.MetricsConfig{Enabled: true},
		},
		Tools: config.ToolsConfig{Git: "git", Inkscape: "inkscape", GitErrorMessage: "not a repo"},
		Files: config.FilesConfig{Root: root, SizeUnit: fsutil.Bytes},
	}
}

// newEngine configures web, actuator and api against c without listening.
func newEngine(t *testing.T, cfg config.Root, seed func(c core.Container)) *gin.Engine {
	t.Helper()

	c := core.NewContainer()
	core.Put(c, cfg)
	core.Put(c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if seed != nil {
		seed(c)
	}

	for _, m := range []core.Module{web.Module(), actuator.Module(), api.Module()} {
		require.NoError(t, m.Configure(c))
	}
	return web.Engine(c)
}

func do(t *testing.T, e *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestMerge(t *testing.T) {
	t.Parallel()
	e := newEngine(t, testRoot(""), nil)

	w := do(t, e, http.MethodPost, "/v1/merge", map[string]any{
		"src": map[string]any{"a": map[string]any{"b": 2}, "c": "new"},
		"dst": map[string]any{"a": map[string]any{"x": 1}, "c": "old"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": float64(2), "x": float64(1)},
		"c": "new",
	}, decode(t, w))

	w = do(t, e, http.MethodPost, "/v1/merge", map[string]any{"dst": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRotate(t *testing.T) {
	t.Parallel()
	e := newEngine(t, testRoot(""), nil)

	w := do(t, e, http.MethodPost, "/v1/rotate", map[string]any{
		"time":    []float64{1, 2},
		"signal":  []float64{0, 0},
		"degrees": 180,
		"origin":  map[string]float64{"t": 0, "y": 0},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Time   []float64 `json:"time"`
		Signal []float64 `json:"signal"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.InDeltaSlice(t, []float64{-1, -2}, got.Time, 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0}, got.Signal, 1e-9)

	w = do(t, e, http.MethodPost, "/v1/rotate", map[string]any{
		"time":   []float64{1, 2},
		"signal": []float64{0},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDistributionParams(t *testing.T) {
	t.Parallel()
	e := newEngine(t, testRoot(""), nil)

	tests := []struct {
		name   string
		target string
		status int
		want   map[string]float64
	}{
		{"beta ab", "/v1/beta/ab?mode=0.5&concentration=10", http.StatusOK, map[string]float64{"a": 5, "b": 5}},
		{"beta mode", "/v1/beta/mode?a=3&b=5", http.StatusOK, map[string]float64{"mode": 1.0 / 3, "concentration": 8}},
		{"beta mode invalid", "/v1/beta/mode?a=1&b=5", http.StatusUnprocessableEntity, nil},
		{"beta ab missing", "/v1/beta/ab?mode=0.5", http.StatusBadRequest, nil},
		{"beta ab mode out of range", "/v1/beta/ab?mode=2&concentration=10", http.StatusBadRequest, nil},
		{"gamma", "/v1/gamma?mode=0&sd=1", http.StatusOK, map[string]float64{"shape": 1, "rate": 1}},
		{"gamma zero sd", "/v1/gamma?mode=1&sd=0", http.StatusUnprocessableEntity, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, e, http.MethodGet, tt.target, nil)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.want == nil {
				return
			}
			got := decode(t, w)
			for k, v := range tt.want {
				assert.InDelta(t, v, got[k], 1e-9, k)
			}
		})
	}
}

func TestPlot(t *testing.T) {
	t.Parallel()
	e := newEngine(t, testRoot(""), nil)

	w := do(t, e, http.MethodGet, "/v1/plot/gamma?mode=2&sd=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = do(t, e, http.MethodGet, "/v1/plot/beta", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, e, http.MethodGet, "/v1/plot/beta?a=-1&b=2", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, e, http.MethodGet, "/v1/plot/normal", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGPU(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fake   *fakeTelemetry
		status int
		best   float64
	}{
		{"least busy", &fakeTelemetry{free: []uint64{1 << 20, 8 << 20, 4 << 20}}, http.StatusOK, 1},
		{"no library", &fakeTelemetry{initErr: gpu.ErrLibraryNotFound}, http.StatusServiceUnavailable, 0},
		{"no devices", &fakeTelemetry{}, http.StatusServiceUnavailable, 0},
		{"init failure", &fakeTelemetry{initErr: errors.New("boom")}, http.StatusInternalServerError, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, testRoot(""), func(c core.Container) {
				core.Put[gpu.Telemetry](c, tt.fake)
			})
			w := do(t, e, http.MethodGet, "/v1/gpu", nil)
			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.best, decode(t, w)["least_busy"])
			}
		})
	}
}

func TestGit_NotInstalled(t *testing.T) {
	t.Parallel()
	runner := &external.Runner{
		LookPath: func(string) (string, error) { return "", errors.New("not found") },
	}
	e := newEngine(t, testRoot(""), func(c core.Container) { core.Put(c, runner) })

	w := do(t, e, http.MethodGet, "/v1/git?path=.", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, external.GitNotPresent, decode(t, w)["commit"])
}

func TestDirSize(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "a.bin"), make([]byte, 1024), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "nested", "b.bin"), make([]byte, 1024), 0o644))

	e := newEngine(t, testRoot(root), nil)

	w := do(t, e, http.MethodGet, "/v1/dirsize?path=data&unit=kb", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode(t, w)
	assert.Equal(t, float64(2), got["size"])
	assert.Equal(t, "KB", got["unit"])
	assert.Equal(t, "2.0 KiB", got["human"])

	w = do(t, e, http.MethodGet, "/v1/dirsize?path=data&unit=tb", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, e, http.MethodGet, "/v1/dirsize?path=../etc", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, e, http.MethodGet, "/v1/dirsize?path=missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, e, http.MethodGet, "/v1/dirsize", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDirSize_SymlinkOutsideRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(outside, "secret"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret", "key"), make([]byte, 4096), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "inside"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(root, "inside"), filepath.Join(root, "alias")))

	e := newEngine(t, testRoot(root), nil)

	for _, p := range []string{"link", "link/secret", "link/secret/key"} {
		w := do(t, e, http.MethodGet, "/v1/dirsize?path="+p, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, p)
	}

	w := do(t, e, http.MethodGet, "/v1/git?path=link", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, e, http.MethodGet, "/v1/dirsize?path=alias", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestOperationsCounter(t *testing.T) {
	t.Parallel()
	e := newEngine(t, testRoot(""), nil)

	do(t, e, http.MethodGet, "/v1/gamma?mode=1&sd=1", nil)
	do(t, e, http.MethodGet, "/v1/gamma?mode=1&sd=0", nil)

	w := do(t, e, http.MethodGet, "/actuator/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `sundry_operations_total{operation="gamma",outcome="ok"} 1`), body)
	assert.True(t, strings.Contains(body, `sundry_operations_total{operation="gamma",outcome="error"} 1`), body)
}
