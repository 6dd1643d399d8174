package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/mat"

	"github.com/skekre98/sundry/config"
	"github.com/skekre98/sundry/dict"
	"github.com/skekre98/sundry/external"
	"github.com/skekre98/sundry/fsutil"
	"github.com/skekre98/sundry/geometry"
	"github.com/skekre98/sundry/gpu"
	"github.com/skekre98/sundry/stats"
	"github.com/skekre98/sundry/web"
)

var (
	// errOutsideRoot rejects paths that escape files.root.
	errOutsideRoot  = errors.New("path is outside the configured root")
	errPathRequired = errors.New("path is required")
)

type handlers struct {
	cfg       config.Root
	logger    *slog.Logger
	ops       *prometheus.CounterVec
	telemetry gpu.Telemetry
	runner    *external.Runner
}

func (h *handlers) routes(r gin.IRouter) {
	r.POST("/merge", h.merge)
	r.POST("/rotate", h.rotate)
	r.GET("/beta/ab", h.betaAB)
	r.GET("/beta/mode", h.betaMode)
	r.GET("/gamma", h.gamma)
	r.GET("/plot/:dist", h.plot)
	r.GET("/gpu", h.gpu)
	r.GET("/git", h.git)
	r.GET("/dirsize", h.dirSize)
}

func (h *handlers) done(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.ops.WithLabelValues(op, outcome).Inc()
}

func (h *handlers) fail(c *gin.Context, op string, status int, err error) {
	h.done(op, err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("operation failed", "operation", op, "error", err, "req_id", c.GetString("request_id"))
	}
	web.Problem(c, status, err.Error())
}

type mergeRequest struct {
	Src map[string]any `json:"src" binding:"required"`
	Dst map[string]any `json:"dst"`
}

func (h *handlers) merge(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "merge", http.StatusBadRequest, err)
		return
	}
	out := dict.Merge(req.Src, req.Dst)
	h.done("merge", nil)
	c.JSON(http.StatusOK, out)
}

type rotateRequest struct {
	Time    []float64       `json:"time" binding:"required,min=1"`
	Signal  []float64       `json:"signal" binding:"required,min=1"`
	Degrees float64         `json:"degrees"`
	Origin  *geometry.Point `json:"origin"`
}

type rotateResponse struct {
	Time   []float64 `json:"time"`
	Signal []float64 `json:"signal"`
}

func (h *handlers) rotate(c *gin.Context) {
	var req rotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "rotate", http.StatusBadRequest, err)
		return
	}
	m, err := geometry.RotateSignal(req.Time, req.Signal, req.Degrees, req.Origin)
	if err != nil {
		h.fail(c, "rotate", http.StatusUnprocessableEntity, err)
		return
	}
	h.done("rotate", nil)
	c.JSON(http.StatusOK, rotateResponse{
		Time:   mat.Row(nil, 0, m),
		Signal: mat.Row(nil, 1, m),
	})
}

type betaABQuery struct {
	Mode          *float64 `form:"mode" binding:"required,gte=0,lte=1"`
	Concentration *float64 `form:"concentration" binding:"required"`
}

func (h *handlers) betaAB(c *gin.Context) {
	var q betaABQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, "beta_ab", http.StatusBadRequest, err)
		return
	}
	a, b := stats.BetaABFromModeConcentration(*q.Mode, *q.Concentration)
	h.done("beta_ab", nil)
	c.JSON(http.StatusOK, gin.H{"a": a, "b": b})
}

type betaModeQuery struct {
	A *float64 `form:"a" binding:"required"`
	B *float64 `form:"b" binding:"required"`
}

func (h *handlers) betaMode(c *gin.Context) {
	var q betaModeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, "beta_mode", http.StatusBadRequest, err)
		return
	}
	mode, k, err := stats.BetaModeConcentrationFromAB(*q.A, *q.B)
	if err != nil {
		h.fail(c, "beta_mode", http.StatusUnprocessableEntity, err)
		return
	}
	h.done("beta_mode", nil)
	c.JSON(http.StatusOK, gin.H{"mode": mode, "concentration": k})
}

type gammaQuery struct {
	Mode *float64 `form:"mode" binding:"required"`
	SD   *float64 `form:"sd" binding:"required"`
}

func (h *handlers) gamma(c *gin.Context) {
	var q gammaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, "gamma", http.StatusBadRequest, err)
		return
	}
	shape, rate, err := stats.GammaShapeRateFromModeSD(*q.Mode, *q.SD)
	if err != nil {
		h.fail(c, "gamma", http.StatusUnprocessableEntity, err)
		return
	}
	h.done("gamma", nil)
	c.JSON(http.StatusOK, gin.H{"shape": shape, "rate": rate})
}

type plotQuery struct {
	A             float64 `form:"a"`
	B             float64 `form:"b"`
	Mode          float64 `form:"mode"`
	Concentration float64 `form:"concentration"`
	SD            float64 `form:"sd"`
	Scale         float64 `form:"scale"`
}

// plot renders a density as PNG through a temporary file.
func (h *handlers) plot(c *gin.Context) {
	var q plotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, "plot", http.StatusBadRequest, err)
		return
	}

	dir, err := os.MkdirTemp("", "sundry-plot-")
	if err != nil {
		h.fail(c, "plot", http.StatusInternalServerError, err)
		return
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "plot.png")

	switch dist := c.Param("dist"); dist {
	case "beta":
		err = stats.PlotBeta(path, stats.BetaSpec{A: q.A, B: q.B, Mode: q.Mode, Concentration: q.Concentration})
	case "gamma":
		err = stats.PlotGamma(path, q.Mode, q.SD)
	case "halfcauchy":
		err = stats.PlotHalfCauchy(path, q.Scale)
	default:
		h.fail(c, "plot", http.StatusNotFound, fmt.Errorf("unknown distribution %q", dist))
		return
	}
	if err != nil {
		h.fail(c, "plot", http.StatusUnprocessableEntity, err)
		return
	}

	img, err := os.ReadFile(path)
	if err != nil {
		h.fail(c, "plot", http.StatusInternalServerError, err)
		return
	}
	h.done("plot", nil)
	c.Data(http.StatusOK, "image/png", img)
}

func (h *handlers) gpu(c *gin.Context) {
	devices, err := gpu.Devices(h.telemetry)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, gpu.ErrLibraryNotFound) {
			status = http.StatusServiceUnavailable
		}
		h.fail(c, "gpu", status, err)
		return
	}

	best, err := gpu.MostFree(devices)
	if err != nil {
		h.fail(c, "gpu", http.StatusServiceUnavailable, err)
		return
	}
	h.done("gpu", nil)
	c.JSON(http.StatusOK, gin.H{"least_busy": best, "devices": devices})
}

func (h *handlers) git(c *gin.Context) {
	path, err := h.confine(c.DefaultQuery("path", "."))
	if err != nil {
		h.fail(c, "git", confineStatus(err), err)
		return
	}
	commit := h.runner.GitCommit(c.Request.Context(), path, h.cfg.Tools.GitErrorMessage)
	h.done("git", nil)
	c.JSON(http.StatusOK, gin.H{"path": path, "commit": commit})
}

func (h *handlers) dirSize(c *gin.Context) {
	path, err := h.confine(c.Query("path"))
	if err != nil {
		h.fail(c, "dirsize", confineStatus(err), err)
		return
	}

	unit := h.cfg.Files.SizeUnit
	if u := c.Query("unit"); u != "" {
		if unit, err = fsutil.ParseUnit(u); err != nil {
			h.fail(c, "dirsize", http.StatusBadRequest, err)
			return
		}
	}

	bytes, err := fsutil.DirSize(path, fsutil.Bytes)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, os.ErrNotExist) {
			status = http.StatusNotFound
		}
		h.fail(c, "dirsize", status, err)
		return
	}
	h.done("dirsize", nil)
	c.JSON(http.StatusOK, gin.H{
		"path":  path,
		"size":  bytes / unit.Divisor(),
		"unit":  unit.String(),
		"human": humanize.IBytes(uint64(bytes)),
	})
}

// confine resolves p against files.root and refuses escapes from it,
// including escapes through symbolic links inside the root.
func (h *handlers) confine(p string) (string, error) {
	if p == "" {
		return "", errPathRequired
	}
	root := h.cfg.Files.Root
	if root == "" {
		return filepath.Clean(p), nil
	}

	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	if !within(root, p) {
		return "", errOutsideRoot
	}

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("files root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", err
	}
	if !within(realRoot, resolved) {
		return "", errOutsideRoot
	}
	return resolved, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// confineStatus maps a confine error to its HTTP status.
func confineStatus(err error) int {
	switch {
	case errors.Is(err, errPathRequired):
		return http.StatusBadRequest
	case errors.Is(err, errOutsideRoot):
		return http.StatusForbidden
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
