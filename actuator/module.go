package actuator

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skekre98/sundry/config"
	"github.com/skekre98/sundry/core"
	"github.com/skekre98/sundry/external"
	"github.com/skekre98/sundry/web"
)

const Name = "actuator"

// Registry returns the metrics registry shared by the modules of c.
func Registry(c core.Container) *prometheus.Registry {
	return core.GetOrCreate(c, func() *prometheus.Registry {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg
	})
}

type module struct{}

func Module() core.Module { return &module{} }

func (m *module) Name() string        { return Name }
func (m *module) DependsOn() []string { return []string{web.Name} }

func (m *module) Configure(c core.Container) error {
	engine := web.Engine(c)
	cfg := core.Get[config.Root](c)
	runner, ok := core.Lookup[*external.Runner](c)
	if !ok {
		runner = &external.Runner{Git: cfg.Tools.Git, Inkscape: cfg.Tools.Inkscape}
	}
	started := time.Now()

	group := engine.Group(cfg.Actuator.BasePath)

	// Missing tools degrade single endpoints, not the service.
	group.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status": "UP",
			"checks": runner.Tools(),
		})
	})

	group.GET("/info", func(ctx *gin.Context) {
		wd, _ := os.Getwd()
		ctx.JSON(http.StatusOK, gin.H{
			"app": gin.H{
				"name":    cfg.App.Name,
				"version": cfg.App.Version,
				"commit":  runner.GitCommit(ctx.Request.Context(), wd, cfg.Tools.GitErrorMessage),
			},
			"runtime": gin.H{
				"go":           runtime.Version(),
				"numGoroutine": runtime.NumGoroutine(),
				"time":         time.Now().UTC().Format(time.RFC3339),
				"uptime":       time.Since(started).Round(time.Second).String(),
				"pid":          os.Getpid(),
			},
		})
	})

	if cfg.Observability.Metrics.Enabled {
		h := gin.WrapH(promhttp.HandlerFor(Registry(c), promhttp.HandlerOpts{}))
		if p := cfg.Observability.Metrics.Path; p != "" {
			engine.GET(p, h)
		} else {
			group.GET("/metrics", h)
		}
	}

	return nil
}

func (m *module) Start(_ context.Context, _ core.Container) error { return nil }
func (m *module) Stop(_ context.Context, _ core.Container) error  { return nil }
